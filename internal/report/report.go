// Package report summarizes stored sessions over time windows, projects,
// and categories. Everything here is read-only; nothing mutates the store.
package report

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mfadeev/ttrack/internal/clock"
	"github.com/mfadeev/ttrack/internal/durations"
	"github.com/mfadeev/ttrack/internal/models"
	"github.com/mfadeev/ttrack/internal/tracker"
)

// ErrInvalidPeriod signals an unrecognized period token.
var ErrInvalidPeriod = errors.New("invalid period")

// Aggregator answers report and analytics queries.
type Aggregator struct {
	db  *gorm.DB
	clk clock.Clock
}

// New creates an Aggregator over an opened database.
func New(gdb *gorm.DB, clk clock.Clock) *Aggregator {
	return &Aggregator{db: gdb, clk: clk}
}

// CurrentYear returns the year on the aggregator's clock. Callers default
// year-scoped queries to it.
func (a *Aggregator) CurrentYear() int {
	return a.clk.Now().Year()
}

// SessionEntry is one completed session in a report.
type SessionEntry struct {
	ID              uint    `json:"id"`
	Project         string  `json:"project"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	StartTime       string  `json:"start_time"`
	EndTime         *string `json:"end_time"`
	DurationMinutes int     `json:"duration_minutes"`
}

// Report is the payload of Generate.
type Report struct {
	Period            string             `json:"period"`
	StartDate         string             `json:"start_date"`
	EndDate           string             `json:"end_date"`
	TotalHours        float64            `json:"total_hours"`
	TotalSessions     int                `json:"total_sessions"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
	ProjectBreakdown  map[string]float64 `json:"project_breakdown"`
	Sessions          []SessionEntry     `json:"sessions"`
}

// Generate builds a report for "today", "week" (Monday-based), or "month".
// Only sessions with a stored duration whose start falls inside the window
// count. A project name narrows the report; an unknown name leaves it
// unfiltered rather than failing.
func (a *Aggregator) Generate(period, project string) (*Report, error) {
	start, end, err := a.periodWindow(period)
	if err != nil {
		return nil, err
	}

	query := a.db.Preload("Project").
		Where("start_time >= ? AND start_time < ? AND duration_minutes IS NOT NULL", start, end)

	if project != "" {
		var proj models.Project
		if err := a.db.Where("name = ?", project).First(&proj).Error; err == nil {
			query = query.Where("project_id = ?", proj.ID)
		}
	}

	var sessions []models.Session
	if err := query.Order("start_time ASC").Find(&sessions).Error; err != nil {
		return nil, err
	}

	totalMinutes := 0
	categoryMinutes := map[string]int{}
	projectMinutes := map[string]int{}
	entries := make([]SessionEntry, 0, len(sessions))

	for _, s := range sessions {
		minutes := *s.DurationMinutes
		totalMinutes += minutes
		categoryMinutes[s.Category] += minutes
		projectMinutes[s.Project.Name] += minutes

		var endStr *string
		if s.EndTime != nil {
			v := s.EndTime.Format(time.RFC3339)
			endStr = &v
		}
		entries = append(entries, SessionEntry{
			ID:              s.ID,
			Project:         s.Project.Name,
			Description:     s.Description,
			Category:        s.Category,
			StartTime:       s.StartTime.Format(time.RFC3339),
			EndTime:         endStr,
			DurationMinutes: minutes,
		})
	}

	report := &Report{
		Period:            period,
		StartDate:         start.Format("2006-01-02"),
		EndDate:           end.AddDate(0, 0, -1).Format("2006-01-02"),
		TotalHours:        durations.Round2(durations.Hours(totalMinutes)),
		TotalSessions:     len(sessions),
		CategoryBreakdown: map[string]float64{},
		ProjectBreakdown:  map[string]float64{},
		Sessions:          entries,
	}
	for cat, m := range categoryMinutes {
		report.CategoryBreakdown[cat] = durations.Round2(durations.Hours(m))
	}
	for name, m := range projectMinutes {
		report.ProjectBreakdown[name] = durations.Round2(durations.Hours(m))
	}
	return report, nil
}

// periodWindow resolves a period token to a half-open [start, end) range.
func (a *Aggregator) periodWindow(period string) (time.Time, time.Time, error) {
	now := a.clk.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch period {
	case "today":
		return midnight, midnight.AddDate(0, 0, 1), nil
	case "week":
		// Most recent Monday.
		offset := (int(now.Weekday()) + 6) % 7
		monday := midnight.AddDate(0, 0, -offset)
		return monday, monday.AddDate(0, 0, 7), nil
	case "month":
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return first, first.AddDate(0, 1, 0), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q (use: today, week, month)", ErrInvalidPeriod, period)
	}
}

// SubprojectTotals is one child row inside a ProjectSummary.
type SubprojectTotals struct {
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	TotalHours    float64 `json:"total_hours"`
	TotalSessions int     `json:"total_sessions"`
}

// ProjectSummary rolls a parent project's totals up over its subprojects.
// Sessions stay attributed to their own project; the rollup is a display-time
// sum only.
type ProjectSummary struct {
	Project       string             `json:"project"`
	Type          string             `json:"type"`
	Parent        string             `json:"parent,omitempty"`
	OwnHours      float64            `json:"own_hours"`
	OwnSessions   int                `json:"own_sessions"`
	TotalHours    float64            `json:"total_hours"`
	TotalSessions int                `json:"total_sessions"`
	Subprojects   []SubprojectTotals `json:"subprojects"`
}

// Summary returns all-time totals for the named project, with direct
// subproject totals rolled into the displayed total.
func (a *Aggregator) Summary(project string) (*ProjectSummary, error) {
	var proj models.Project
	if err := a.db.Where("name = ?", project).First(&proj).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", tracker.ErrProjectNotFound, project)
		}
		return nil, err
	}

	ownMinutes, ownSessions, err := a.projectTotals(proj.ID)
	if err != nil {
		return nil, err
	}

	summary := &ProjectSummary{
		Project:     proj.Name,
		Type:        proj.Type,
		OwnHours:    durations.Round2(durations.Hours(ownMinutes)),
		OwnSessions: ownSessions,
		Subprojects: []SubprojectTotals{},
	}

	if proj.ParentID != nil {
		var parent models.Project
		if err := a.db.First(&parent, *proj.ParentID).Error; err == nil {
			summary.Parent = parent.Name
		}
	}

	var subs []models.Project
	if err := a.db.Where("parent_id = ?", proj.ID).Order("name ASC").Find(&subs).Error; err != nil {
		return nil, err
	}

	totalMinutes, totalSessions := ownMinutes, ownSessions
	for _, sub := range subs {
		m, n, err := a.projectTotals(sub.ID)
		if err != nil {
			return nil, err
		}
		totalMinutes += m
		totalSessions += n
		summary.Subprojects = append(summary.Subprojects, SubprojectTotals{
			Name:          sub.Name,
			Type:          sub.Type,
			TotalHours:    durations.Round2(durations.Hours(m)),
			TotalSessions: n,
		})
	}

	summary.TotalHours = durations.Round2(durations.Hours(totalMinutes))
	summary.TotalSessions = totalSessions
	return summary, nil
}

func (a *Aggregator) projectTotals(projectID uint) (minutes, sessions int, err error) {
	var rows []models.Session
	if err := a.db.Where("project_id = ? AND duration_minutes IS NOT NULL", projectID).Find(&rows).Error; err != nil {
		return 0, 0, err
	}
	for _, s := range rows {
		minutes += *s.DurationMinutes
	}
	return minutes, len(rows), nil
}
