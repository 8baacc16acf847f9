// Package durations holds the pure arithmetic behind session accounting.
// Everything here is stateless; callers pass timestamps in and get minutes
// back.
package durations

import (
	"errors"
	"math"
	"time"
)

// ErrInvalidRange is returned when an interval ends before it starts.
var ErrInvalidRange = errors.New("end time is before start time")

// Interval is a start/end pair where the end may still be open.
type Interval struct {
	Start time.Time
	End   *time.Time
}

// ElapsedMinutes returns whole minutes between start and end, truncated
// toward zero.
func ElapsedMinutes(start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, ErrInvalidRange
	}
	return int(end.Sub(start).Minutes()), nil
}

// NetSessionMinutes returns the elapsed minutes between start and end minus
// the sum of all closed break intervals, clamped at zero. Breaks without an
// end time do not reduce the result; an open break only starts counting
// against the session once it is closed.
func NetSessionMinutes(start, end time.Time, breaks []Interval) (int, error) {
	total, err := ElapsedMinutes(start, end)
	if err != nil {
		return 0, err
	}
	for _, b := range breaks {
		if b.End == nil {
			continue
		}
		m, err := ElapsedMinutes(b.Start, *b.End)
		if err != nil {
			return 0, err
		}
		total -= m
	}
	if total < 0 {
		total = 0
	}
	return total, nil
}

// Hours converts minutes to a fractional hour count. Rounding is left to the
// output boundary so accumulation never compounds rounding error.
func Hours(minutes int) float64 {
	return float64(minutes) / 60
}

// Round2 rounds to two decimal places. Applied once, at the edge.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
