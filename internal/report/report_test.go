package report

import (
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/mfadeev/ttrack/internal/db"
	"github.com/mfadeev/ttrack/internal/models"
	"github.com/mfadeev/ttrack/internal/tracker"
)

// testClock is a mutable clock the tests position by hand.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setupAggregator(t *testing.T) (*Aggregator, *tracker.Tracker, *testClock, *gorm.DB) {
	t.Helper()
	gdb, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { db.Close(gdb) })
	// A Wednesday.
	clk := &testClock{now: time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)}
	return New(gdb, clk), tracker.New(gdb, clk), clk, gdb
}

// track runs start, advances the clock, and stops, returning the stop result.
func track(t *testing.T, tr *tracker.Tracker, clk *testClock, project, desc, category string, d time.Duration) *tracker.StopResult {
	t.Helper()
	if _, err := tr.StartSession(project, desc, category, "u1"); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	clk.Advance(d)
	stopped, err := tr.StopSession(project)
	if err != nil {
		t.Fatalf("StopSession: %v", err)
	}
	return stopped
}

func TestGenerateInvalidPeriod(t *testing.T) {
	a, _, _, _ := setupAggregator(t)
	if _, err := a.Generate("fortnight", ""); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("err = %v, want ErrInvalidPeriod", err)
	}
}

func TestStopThenReportRoundTrip(t *testing.T) {
	a, tr, clk, _ := setupAggregator(t)

	stopped := track(t, tr, clk, "alpha", "morning", "development", 90*time.Minute)

	report, err := a.Generate("today", "alpha")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.TotalSessions != 1 {
		t.Fatalf("TotalSessions = %d, want 1", report.TotalSessions)
	}
	if report.Sessions[0].DurationMinutes != stopped.DurationMinutes {
		t.Errorf("report duration = %d, want the duration computed at stop (%d)",
			report.Sessions[0].DurationMinutes, stopped.DurationMinutes)
	}
	if report.TotalHours != 1.5 {
		t.Errorf("TotalHours = %v, want 1.5", report.TotalHours)
	}
	if report.CategoryBreakdown["development"] != 1.5 {
		t.Errorf("CategoryBreakdown = %v", report.CategoryBreakdown)
	}
	if report.ProjectBreakdown["alpha"] != 1.5 {
		t.Errorf("ProjectBreakdown = %v", report.ProjectBreakdown)
	}
}

func TestGenerateExcludesActiveSessions(t *testing.T) {
	a, tr, clk, _ := setupAggregator(t)

	track(t, tr, clk, "alpha", "done work", "development", 30*time.Minute)
	if _, err := tr.StartSession("alpha", "still running", "development", "u1"); err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	report, err := a.Generate("today", "alpha")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.TotalSessions != 1 {
		t.Errorf("TotalSessions = %d, want 1 (active excluded)", report.TotalSessions)
	}
}

func TestGenerateWeekBoundary(t *testing.T) {
	a, tr, clk, _ := setupAggregator(t)

	// Sunday 23:00, before the current week's Monday.
	clk.Set(time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC))
	track(t, tr, clk, "alpha", "last week", "development", 30*time.Minute)

	// Monday 00:30, inside the window.
	clk.Set(time.Date(2024, 3, 11, 0, 30, 0, 0, time.UTC))
	track(t, tr, clk, "alpha", "this week", "development", 60*time.Minute)

	// Query mid-week.
	clk.Set(time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC))
	report, err := a.Generate("week", "alpha")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.TotalSessions != 1 {
		t.Fatalf("TotalSessions = %d, want 1", report.TotalSessions)
	}
	if report.Sessions[0].Description != "this week" {
		t.Errorf("wrong session included: %q", report.Sessions[0].Description)
	}
	if report.StartDate != "2024-03-11" {
		t.Errorf("StartDate = %q, want Monday 2024-03-11", report.StartDate)
	}
}

func TestGenerateUnknownProjectIsUnfiltered(t *testing.T) {
	a, tr, clk, _ := setupAggregator(t)

	track(t, tr, clk, "alpha", "work", "development", 30*time.Minute)

	report, err := a.Generate("today", "no-such-project")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.TotalSessions != 1 {
		t.Errorf("unknown project should not filter: TotalSessions = %d, want 1", report.TotalSessions)
	}
}

func TestSummaryRollsUpSubprojects(t *testing.T) {
	a, tr, clk, _ := setupAggregator(t)

	if _, _, err := tr.UpsertProject(tracker.UpsertProjectRequest{Name: "platform", UserID: "u1"}); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}
	if _, _, err := tr.UpsertProject(tracker.UpsertProjectRequest{Name: "platform-api", Parent: "platform"}); err != nil {
		t.Fatalf("UpsertProject sub: %v", err)
	}

	track(t, tr, clk, "platform", "parent work", "development", 60*time.Minute)
	track(t, tr, clk, "platform-api", "sub work", "development", 30*time.Minute)

	summary, err := a.Summary("platform")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.OwnHours != 1 || summary.OwnSessions != 1 {
		t.Errorf("own = %v h / %d sessions, want 1 h / 1", summary.OwnHours, summary.OwnSessions)
	}
	if summary.TotalHours != 1.5 || summary.TotalSessions != 2 {
		t.Errorf("rollup = %v h / %d sessions, want 1.5 h / 2", summary.TotalHours, summary.TotalSessions)
	}
	if len(summary.Subprojects) != 1 || summary.Subprojects[0].Name != "platform-api" {
		t.Fatalf("Subprojects = %+v", summary.Subprojects)
	}
	if summary.Subprojects[0].TotalHours != 0.5 {
		t.Errorf("subproject hours = %v, want 0.5", summary.Subprojects[0].TotalHours)
	}

	// Rollup must not reattribute rows: the subproject keeps its session.
	subSummary, err := a.Summary("platform-api")
	if err != nil {
		t.Fatalf("Summary sub: %v", err)
	}
	if subSummary.OwnSessions != 1 || subSummary.Parent != "platform" {
		t.Errorf("sub summary = %+v", subSummary)
	}
}

func TestSummaryUnknownProject(t *testing.T) {
	a, _, _, _ := setupAggregator(t)
	if _, err := a.Summary("ghost"); !errors.Is(err, tracker.ErrProjectNotFound) {
		t.Errorf("err = %v, want ErrProjectNotFound", err)
	}
}

// seedSession inserts a completed session row directly, for aggregator tests
// that need precise timestamps.
func seedSession(t *testing.T, gdb *gorm.DB, projectID uint, category string, start time.Time, d time.Duration) {
	t.Helper()
	end := start.Add(d)
	minutes := int(d.Minutes())
	s := models.Session{
		ProjectID:       projectID,
		StartTime:       start,
		EndTime:         &end,
		DurationMinutes: &minutes,
		Category:        category,
		Description:     "seeded",
		UserID:          "u1",
	}
	if err := gdb.Create(&s).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}
}

func seedProject(t *testing.T, gdb *gorm.DB, name string) uint {
	t.Helper()
	p := models.Project{Name: name, Type: "development", UserID: "u1"}
	if err := gdb.Create(&p).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return p.ID
}
