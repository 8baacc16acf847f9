package durations

import (
	"errors"
	"testing"
	"time"
)

var base = time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)

func closed(start time.Time, minutes int) Interval {
	end := start.Add(time.Duration(minutes) * time.Minute)
	return Interval{Start: start, End: &end}
}

func TestElapsedMinutes(t *testing.T) {
	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"ninety minutes", base.Add(90 * time.Minute), 90},
		{"zero", base, 0},
		{"truncates seconds", base.Add(10*time.Minute + 59*time.Second), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ElapsedMinutes(base, tt.end)
			if err != nil {
				t.Fatalf("ElapsedMinutes: %v", err)
			}
			if got != tt.want {
				t.Errorf("ElapsedMinutes = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestElapsedMinutesInvalidRange(t *testing.T) {
	_, err := ElapsedMinutes(base, base.Add(-time.Minute))
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("err = %v, want ErrInvalidRange", err)
	}
}

func TestNetSessionMinutes(t *testing.T) {
	end := base.Add(90 * time.Minute)

	got, err := NetSessionMinutes(base, end, nil)
	if err != nil {
		t.Fatalf("NetSessionMinutes: %v", err)
	}
	if got != 90 {
		t.Errorf("no breaks = %d, want 90", got)
	}

	// One 15-minute break subtracts.
	got, err = NetSessionMinutes(base, end, []Interval{closed(base.Add(30*time.Minute), 15)})
	if err != nil {
		t.Fatalf("NetSessionMinutes: %v", err)
	}
	if got != 75 {
		t.Errorf("one break = %d, want 75", got)
	}
}

func TestNetSessionMinutesIgnoresOpenBreaks(t *testing.T) {
	end := base.Add(60 * time.Minute)
	open := Interval{Start: base.Add(10 * time.Minute)}

	got, err := NetSessionMinutes(base, end, []Interval{open})
	if err != nil {
		t.Fatalf("NetSessionMinutes: %v", err)
	}
	if got != 60 {
		t.Errorf("open break should not subtract: got %d, want 60", got)
	}
}

func TestNetSessionMinutesClampsAtZero(t *testing.T) {
	end := base.Add(30 * time.Minute)
	got, err := NetSessionMinutes(base, end, []Interval{closed(base, 45)})
	if err != nil {
		t.Fatalf("NetSessionMinutes: %v", err)
	}
	if got != 0 {
		t.Errorf("clamped = %d, want 0", got)
	}
}

func TestHoursAndRound2(t *testing.T) {
	if h := Hours(90); h != 1.5 {
		t.Errorf("Hours(90) = %v, want 1.5", h)
	}
	if r := Round2(Hours(100)); r != 1.67 {
		t.Errorf("Round2(Hours(100)) = %v, want 1.67", r)
	}
}
