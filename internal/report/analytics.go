package report

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/mfadeev/ttrack/internal/durations"
	"github.com/mfadeev/ttrack/internal/models"
	"github.com/mfadeev/ttrack/internal/tracker"
)

const dateLayout = "2006-01-02"

// HeatmapDay is one cell in the activity grid.
type HeatmapDay struct {
	Date      string  `json:"date"`
	Hours     float64 `json:"hours"`
	Level     int     `json:"level"`
	DayOfWeek int     `json:"day_of_week"`
	Month     int     `json:"month"`
	InYear    bool    `json:"in_year"`
}

// HeatmapStats summarizes a year of activity.
type HeatmapStats struct {
	TotalHours           float64 `json:"total_hours"`
	ActiveDays           int     `json:"active_days"`
	AvgHoursPerActiveDay float64 `json:"avg_hours_per_active_day"`
	MaxDailyHours        float64 `json:"max_daily_hours"`
}

// Heatmap is a year of per-day activity bucketed into 5 intensity levels.
type Heatmap struct {
	Year    int            `json:"year"`
	Project string         `json:"project"`
	Weeks   [][]HeatmapDay `json:"heatmap"`
	Stats   HeatmapStats   `json:"stats"`
}

// Heatmap builds the 53-week x 7-day grid for one project and year. The grid
// starts on the Sunday on or before January 1; cells outside the target year
// carry zero hours and in_year=false.
func (a *Aggregator) Heatmap(project string, year int) (*Heatmap, error) {
	proj, err := a.requireProject(project)
	if err != nil {
		return nil, err
	}

	yearStart := time.Date(year, 1, 1, 0, 0, 0, 0, time.Local)
	yearEnd := time.Date(year, 12, 31, 23, 59, 59, 0, time.Local)

	var sessions []models.Session
	if err := a.db.Where(
		"project_id = ? AND start_time >= ? AND end_time <= ? AND end_time IS NOT NULL",
		proj.ID, yearStart, yearEnd,
	).Find(&sessions).Error; err != nil {
		return nil, err
	}

	dailyHours := map[string]float64{}
	for _, s := range sessions {
		key := s.StartTime.Format(dateLayout)
		dailyHours[key] += s.EndTime.Sub(s.StartTime).Hours()
	}

	gridStart := yearStart.AddDate(0, 0, -int(yearStart.Weekday()))

	weeks := make([][]HeatmapDay, 0, 53)
	for week := 0; week < 53; week++ {
		days := make([]HeatmapDay, 0, 7)
		for day := 0; day < 7; day++ {
			date := gridStart.AddDate(0, 0, week*7+day)
			cell := HeatmapDay{
				Date:      date.Format(dateLayout),
				DayOfWeek: day,
				Month:     int(date.Month()),
				InYear:    date.Year() == year,
			}
			if cell.InYear {
				hours := dailyHours[cell.Date]
				cell.Hours = durations.Round2(hours)
				cell.Level = intensityLevel(hours)
			}
			days = append(days, cell)
		}
		weeks = append(weeks, days)
	}

	stats := HeatmapStats{}
	maxDaily := 0.0
	for _, h := range dailyHours {
		stats.TotalHours += h
		if h > 0 {
			stats.ActiveDays++
		}
		if h > maxDaily {
			maxDaily = h
		}
	}
	if stats.ActiveDays > 0 {
		stats.AvgHoursPerActiveDay = durations.Round2(stats.TotalHours / float64(stats.ActiveDays))
	}
	stats.TotalHours = durations.Round2(stats.TotalHours)
	stats.MaxDailyHours = durations.Round2(maxDaily)

	return &Heatmap{Year: year, Project: project, Weeks: weeks, Stats: stats}, nil
}

// intensityLevel buckets daily hours into the 5 heatmap levels.
func intensityLevel(hours float64) int {
	switch {
	case hours == 0:
		return 0
	case hours < 2:
		return 1
	case hours < 4:
		return 2
	case hours < 6:
		return 3
	default:
		return 4
	}
}

// CategoryStats is one category row in a breakdown.
type CategoryStats struct {
	Category           string             `json:"category"`
	Hours              float64            `json:"hours"`
	Sessions           int                `json:"sessions"`
	Percentage         float64            `json:"percentage"`
	AvgSessionDuration float64            `json:"avg_session_duration"`
	Trend              string             `json:"trend"`
	DailyBreakdown     map[string]float64 `json:"daily_breakdown"`
}

// CategoryBreakdown is per-category hours with trends over a lookback period.
type CategoryBreakdown struct {
	Period     string          `json:"period"`
	Project    string          `json:"project"`
	TotalHours float64         `json:"total_hours"`
	Categories []CategoryStats `json:"categories"`
}

// CategoryBreakdown aggregates completed sessions by category over a
// lookback window: week=7d, month=30d, quarter=90d, year=365d (default 30).
func (a *Aggregator) CategoryBreakdown(project, period string) (*CategoryBreakdown, error) {
	proj, err := a.requireProject(project)
	if err != nil {
		return nil, err
	}

	days := 30
	switch period {
	case "week":
		days = 7
	case "month":
		days = 30
	case "quarter":
		days = 90
	case "year":
		days = 365
	}

	sessions, err := a.completedSince(proj.ID, days)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		hours    float64
		sessions int
		daily    map[string]float64
	}
	buckets := map[string]*bucket{}
	total := 0.0

	for _, s := range sessions {
		hours := s.EndTime.Sub(s.StartTime).Hours()
		day := s.StartTime.Format(dateLayout)
		b, ok := buckets[s.Category]
		if !ok {
			b = &bucket{daily: map[string]float64{}}
			buckets[s.Category] = b
		}
		b.hours += hours
		b.sessions++
		b.daily[day] += hours
		total += hours
	}

	out := &CategoryBreakdown{
		Period:     period,
		Project:    project,
		TotalHours: durations.Round2(total),
		Categories: []CategoryStats{},
	}
	for category, b := range buckets {
		percentage := 0.0
		if total > 0 {
			percentage = b.hours / total * 100
		}
		avg := 0.0
		if b.sessions > 0 {
			avg = b.hours / float64(b.sessions)
		}
		daily := make(map[string]float64, len(b.daily))
		for d, h := range b.daily {
			daily[d] = durations.Round2(h)
		}
		out.Categories = append(out.Categories, CategoryStats{
			Category:           category,
			Hours:              durations.Round2(b.hours),
			Sessions:           b.sessions,
			Percentage:         math.Round(percentage*10) / 10,
			AvgSessionDuration: durations.Round2(avg),
			Trend:              classifyTrend(b.daily),
			DailyBreakdown:     daily,
		})
	}
	sort.Slice(out.Categories, func(i, j int) bool {
		return out.Categories[i].Hours > out.Categories[j].Hours
	})
	return out, nil
}

// classifyTrend splits the date-ordered daily series into halves and compares
// means: up, down, or stable. Fewer than 2 points is always stable.
func classifyTrend(daily map[string]float64) string {
	if len(daily) < 2 {
		return "stable"
	}
	dates := make([]string, 0, len(daily))
	for d := range daily {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	mid := len(dates) / 2
	firstSum, secondSum := 0.0, 0.0
	for _, d := range dates[:mid] {
		firstSum += daily[d]
	}
	for _, d := range dates[mid:] {
		secondSum += daily[d]
	}
	firstAvg := firstSum / math.Max(float64(mid), 1)
	secondAvg := secondSum / math.Max(float64(len(dates)-mid), 1)

	switch {
	case secondAvg > firstAvg:
		return "up"
	case secondAvg < firstAvg:
		return "down"
	default:
		return "stable"
	}
}

// DailyActivity is one day's totals inside a trends payload.
type DailyActivity struct {
	Hours      float64  `json:"hours"`
	Sessions   int      `json:"sessions"`
	Categories []string `json:"categories"`
}

// TrendStats summarizes a productivity-trends query.
type TrendStats struct {
	AvgDailyHours float64 `json:"avg_daily_hours"`
	TotalSessions int     `json:"total_sessions"`
	BestHour      int     `json:"best_hour"`
	BestWeekday   string  `json:"best_weekday"`
}

// ProductivityTrends is daily, hourly, and weekday activity over N days.
type ProductivityTrends struct {
	Project          string                   `json:"project"`
	PeriodDays       int                      `json:"period_days"`
	DailyBreakdown   map[string]DailyActivity `json:"daily_breakdown"`
	HourlyBreakdown  map[string]float64       `json:"hourly_breakdown"`
	WeekdayBreakdown map[string]float64       `json:"weekday_breakdown"`
	Insights         []string                 `json:"insights"`
	Stats            TrendStats               `json:"stats"`
}

// ProductivityTrends analyzes when work happens over the last N days.
func (a *Aggregator) ProductivityTrends(project string, days int) (*ProductivityTrends, error) {
	proj, err := a.requireProject(project)
	if err != nil {
		return nil, err
	}

	sessions, err := a.completedSince(proj.ID, days)
	if err != nil {
		return nil, err
	}

	type dayBucket struct {
		hours      float64
		sessions   int
		categories map[string]bool
	}
	dailyData := map[string]*dayBucket{}
	hourly := map[int]float64{}
	weekday := map[string]float64{}

	for _, s := range sessions {
		hours := s.EndTime.Sub(s.StartTime).Hours()
		day := s.StartTime.Format(dateLayout)

		b, ok := dailyData[day]
		if !ok {
			b = &dayBucket{categories: map[string]bool{}}
			dailyData[day] = b
		}
		b.hours += hours
		b.sessions++
		b.categories[s.Category] = true

		hourly[s.StartTime.Hour()] += hours
		weekday[s.StartTime.Weekday().String()] += hours
	}

	avgDaily := 0.0
	if len(dailyData) > 0 {
		sum := 0.0
		for _, b := range dailyData {
			sum += b.hours
		}
		avgDaily = sum / float64(len(dailyData))
	}

	bestHour, bestHourHours := 9, 0.0
	for h := 0; h < 24; h++ {
		if hourly[h] > bestHourHours {
			bestHour, bestHourHours = h, hourly[h]
		}
	}
	bestWeekday, bestWeekdayHours := "Monday", 0.0
	for d := time.Sunday; d <= time.Saturday; d++ {
		if weekday[d.String()] > bestWeekdayHours {
			bestWeekday, bestWeekdayHours = d.String(), weekday[d.String()]
		}
	}

	var insights []string
	switch {
	case avgDaily > 4:
		insights = append(insights, "High productivity - averaging over 4 hours per day")
	case avgDaily > 2:
		insights = append(insights, "Moderate productivity - good daily engagement")
	default:
		insights = append(insights, "Consider increasing daily coding time")
	}
	if bestHourHours > 0 {
		insights = append(insights, fmt.Sprintf("Most productive at %02d:00 - %02d:00", bestHour, bestHour+1))
	}
	if bestWeekdayHours > 0 {
		insights = append(insights, fmt.Sprintf("Most productive on %ss", bestWeekday))
	}

	out := &ProductivityTrends{
		Project:          project,
		PeriodDays:       days,
		DailyBreakdown:   map[string]DailyActivity{},
		HourlyBreakdown:  map[string]float64{},
		WeekdayBreakdown: map[string]float64{},
		Insights:         insights,
		Stats: TrendStats{
			AvgDailyHours: durations.Round2(avgDaily),
			TotalSessions: len(sessions),
			BestHour:      bestHour,
			BestWeekday:   bestWeekday,
		},
	}
	for day, b := range dailyData {
		cats := make([]string, 0, len(b.categories))
		for c := range b.categories {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		out.DailyBreakdown[day] = DailyActivity{
			Hours:      durations.Round2(b.hours),
			Sessions:   b.sessions,
			Categories: cats,
		}
	}
	for h, v := range hourly {
		out.HourlyBreakdown[fmt.Sprintf("%d", h)] = durations.Round2(v)
	}
	for d, v := range weekday {
		out.WeekdayBreakdown[d] = durations.Round2(v)
	}
	return out, nil
}

// LengthDistribution buckets sessions by length: short < 0.5h, long > 3h.
type LengthDistribution struct {
	ShortSessions  int `json:"short_sessions"`
	MediumSessions int `json:"medium_sessions"`
	LongSessions   int `json:"long_sessions"`
}

// SessionLengths summarizes session durations in hours.
type SessionLengths struct {
	AverageHours  float64            `json:"average_hours"`
	ShortestHours float64            `json:"shortest_hours"`
	LongestHours  float64            `json:"longest_hours"`
	Distribution  LengthDistribution `json:"distribution"`
}

// BreakTypeStats aggregates one break type.
type BreakTypeStats struct {
	Count       int     `json:"count"`
	AvgDuration float64 `json:"avg_duration"`
}

// BreakAnalysis summarizes completed breaks across the analyzed sessions.
type BreakAnalysis struct {
	TotalBreakMinutes float64                   `json:"total_break_minutes"`
	BreakTypes        map[string]BreakTypeStats `json:"break_types"`
	BreakToWorkRatio  float64                   `json:"break_to_work_ratio"`
}

// SessionPatterns is the session-pattern analysis payload.
type SessionPatterns struct {
	Project         string          `json:"project"`
	PeriodDays      int             `json:"period_days,omitempty"`
	SessionLengths  *SessionLengths `json:"session_lengths,omitempty"`
	BreakAnalysis   *BreakAnalysis  `json:"break_analysis,omitempty"`
	Recommendations []string        `json:"recommendations"`
}

// SessionPatterns classifies session lengths and break habits over N days.
func (a *Aggregator) SessionPatterns(project string, days int) (*SessionPatterns, error) {
	proj, err := a.requireProject(project)
	if err != nil {
		return nil, err
	}

	sessions, err := a.completedSince(proj.ID, days)
	if err != nil {
		return nil, err
	}

	if len(sessions) == 0 {
		return &SessionPatterns{
			Project:         project,
			Recommendations: []string{"Start tracking sessions to see patterns!"},
		}, nil
	}

	var lengths []float64
	totalHours := 0.0
	totalBreakMinutes := 0.0
	breakTypes := map[string]*struct {
		count   int
		minutes float64
	}{}

	for _, s := range sessions {
		h := s.EndTime.Sub(s.StartTime).Hours()
		lengths = append(lengths, h)
		totalHours += h

		var breaks []models.Break
		if err := a.db.Where("session_id = ? AND end_time IS NOT NULL", s.ID).Find(&breaks).Error; err != nil {
			return nil, err
		}
		for _, b := range breaks {
			minutes := b.EndTime.Sub(b.StartTime).Minutes()
			bt, ok := breakTypes[b.BreakType]
			if !ok {
				bt = &struct {
					count   int
					minutes float64
				}{}
				breakTypes[b.BreakType] = bt
			}
			bt.count++
			bt.minutes += minutes
			totalBreakMinutes += minutes
		}
	}

	short, long := 0, 0
	shortest, longest := lengths[0], lengths[0]
	for _, h := range lengths {
		if h < 0.5 {
			short++
		}
		if h > 3 {
			long++
		}
		if h < shortest {
			shortest = h
		}
		if h > longest {
			longest = h
		}
	}
	avg := totalHours / float64(len(lengths))

	breakRatio := 0.0
	if totalHours > 0 {
		breakRatio = totalBreakMinutes / (totalHours * 60)
	}

	var recs []string
	if avg < 1 {
		recs = append(recs, "Consider longer coding sessions for better flow state")
	} else if avg > 4 {
		recs = append(recs, "Consider taking more breaks during long sessions")
	}
	if float64(short) > float64(len(sessions))*0.3 {
		recs = append(recs, fmt.Sprintf("You have %d short sessions - try to minimize context switching", short))
	}
	if long > 0 {
		recs = append(recs, "Great job on sustained focus! Remember to take breaks every 90-120 minutes")
	}
	if totalBreakMinutes < float64(len(sessions))*10 {
		recs = append(recs, "Consider taking more breaks to maintain productivity")
	}
	if breakRatio > 0.3 {
		recs = append(recs, "High break-to-work ratio - consider optimizing your work environment")
	}

	analysis := &BreakAnalysis{
		TotalBreakMinutes: durations.Round2(totalBreakMinutes),
		BreakTypes:        map[string]BreakTypeStats{},
		BreakToWorkRatio:  math.Round(breakRatio*1000) / 1000,
	}
	for name, bt := range breakTypes {
		analysis.BreakTypes[name] = BreakTypeStats{
			Count:       bt.count,
			AvgDuration: durations.Round2(bt.minutes / float64(bt.count)),
		}
	}

	return &SessionPatterns{
		Project:    project,
		PeriodDays: days,
		SessionLengths: &SessionLengths{
			AverageHours:  durations.Round2(avg),
			ShortestHours: durations.Round2(shortest),
			LongestHours:  durations.Round2(longest),
			Distribution: LengthDistribution{
				ShortSessions:  short,
				MediumSessions: len(lengths) - short - long,
				LongSessions:   long,
			},
		},
		BreakAnalysis:   analysis,
		Recommendations: recs,
	}, nil
}

// requireProject resolves a project name for analytics queries, which unlike
// status treat unknown names as an error.
func (a *Aggregator) requireProject(name string) (*models.Project, error) {
	var proj models.Project
	err := a.db.Where("name = ?", name).First(&proj).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", tracker.ErrProjectNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &proj, nil
}

// completedSince fetches a project's completed sessions started within the
// last N days.
func (a *Aggregator) completedSince(projectID uint, days int) ([]models.Session, error) {
	since := a.clk.Now().AddDate(0, 0, -days)
	var sessions []models.Session
	err := a.db.Where(
		"project_id = ? AND start_time >= ? AND end_time IS NOT NULL",
		projectID, since,
	).Order("start_time ASC").Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
