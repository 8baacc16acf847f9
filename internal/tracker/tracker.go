// Package tracker implements the session lifecycle state machine. Each
// project is in one of three states: idle (no open session), active (one
// open session), or on break (one open session with one open break). All
// transitions go through a per-project lock so the read-decide-write
// sequence for one project never interleaves with another caller's.
package tracker

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/mfadeev/ttrack/internal/clock"
	"github.com/mfadeev/ttrack/internal/durations"
	"github.com/mfadeev/ttrack/internal/models"
)

// Tracker orchestrates start/stop/break/commit transitions against the store.
type Tracker struct {
	db  *gorm.DB
	clk clock.Clock

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Tracker over an opened database.
func New(gdb *gorm.DB, clk clock.Clock) *Tracker {
	return &Tracker{
		db:    gdb,
		clk:   clk,
		locks: make(map[string]*sync.Mutex),
	}
}

// projectLock returns the mutex serializing mutations for one project name.
// Operations on different projects proceed concurrently.
func (t *Tracker) projectLock(name string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[name]
	if !ok {
		l = &sync.Mutex{}
		t.locks[name] = l
	}
	return l
}

// StartResult is the payload of a successful StartSession.
type StartResult struct {
	SessionID   uint      `json:"session_id"`
	Project     string    `json:"project"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	StartTime   time.Time `json:"start_time"`
}

// StopResult is the payload of a successful StopSession.
type StopResult struct {
	SessionID       uint      `json:"session_id"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"duration_minutes"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
}

// BreakResult describes the toggle outcome: Action is "started" or "ended".
type BreakResult struct {
	Action          string     `json:"action"`
	BreakType       string     `json:"break_type"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
}

// CommitResult is the payload of a successful LinkCommit.
type CommitResult struct {
	SessionID  uint   `json:"session_id"`
	CommitHash string `json:"commit_hash"`
}

// StartSession begins a new session for the named project, creating the
// project on first sight and auto-stopping any session still open for it.
// The auto-stop and the new insert commit atomically: a failed insert must
// not leave the previous session closed.
func (t *Tracker) StartSession(project, description, category, userID string) (*StartResult, error) {
	if strings.TrimSpace(project) == "" || strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: project name and description are required", ErrMissingField)
	}
	if category == "" {
		category = "development"
	}

	lock := t.projectLock(project)
	lock.Lock()
	defer lock.Unlock()

	now := t.clk.Now()
	var result *StartResult

	err := t.db.Transaction(func(tx *gorm.DB) error {
		proj, err := findOrCreateProject(tx, project, userID, now)
		if err != nil {
			return err
		}

		// Auto-stop anything still open for this project. Only closed
		// breaks subtract; an open break stays open on the old session.
		var open []models.Session
		if err := tx.Where("project_id = ? AND end_time IS NULL", proj.ID).Find(&open).Error; err != nil {
			return err
		}
		for i := range open {
			if err := closeSession(tx, &open[i], now); err != nil {
				return err
			}
		}

		session := models.Session{
			ProjectID:   proj.ID,
			StartTime:   now,
			Category:    category,
			Description: description,
			UserID:      userID,
		}
		if err := tx.Create(&session).Error; err != nil {
			return err
		}

		if err := touchProject(tx, proj, now); err != nil {
			return err
		}

		result = &StartResult{
			SessionID:   session.ID,
			Project:     proj.Name,
			Description: description,
			Category:    category,
			StartTime:   session.StartTime,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// StopSession ends the active session for the named project. The stored
// duration is wall-clock minutes minus the session's closed breaks.
func (t *Tracker) StopSession(project string) (*StopResult, error) {
	if strings.TrimSpace(project) == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrMissingField)
	}

	lock := t.projectLock(project)
	lock.Lock()
	defer lock.Unlock()

	proj, err := t.findProject(project)
	if err != nil {
		return nil, err
	}

	session, err := t.activeSession(proj.ID)
	if err != nil {
		return nil, err
	}

	now := t.clk.Now()
	err = t.db.Transaction(func(tx *gorm.DB) error {
		if err := closeSession(tx, session, now); err != nil {
			return err
		}
		return touchProject(tx, proj, now)
	})
	if err != nil {
		return nil, err
	}

	return &StopResult{
		SessionID:       session.ID,
		Description:     session.Description,
		DurationMinutes: *session.DurationMinutes,
		StartTime:       session.StartTime,
		EndTime:         *session.EndTime,
	}, nil
}

// ToggleBreak opens a break on the project's active session, or closes the
// one already open. At most one break per session is ever open.
func (t *Tracker) ToggleBreak(project, breakType string) (*BreakResult, error) {
	if strings.TrimSpace(project) == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrMissingField)
	}
	if breakType == "" {
		breakType = "break"
	}

	lock := t.projectLock(project)
	lock.Lock()
	defer lock.Unlock()

	proj, err := t.findProject(project)
	if err != nil {
		return nil, err
	}

	session, err := t.activeSession(proj.ID)
	if err != nil {
		return nil, err
	}

	now := t.clk.Now()

	var active models.Break
	err = t.db.Where("session_id = ? AND end_time IS NULL", session.ID).First(&active).Error
	switch {
	case err == nil:
		// End the active break.
		minutes, derr := durations.ElapsedMinutes(active.StartTime, now)
		if derr != nil {
			return nil, derr
		}
		active.EndTime = &now
		active.DurationMinutes = &minutes
		err = t.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(&active).Error; err != nil {
				return err
			}
			return touchProject(tx, proj, now)
		})
		if err != nil {
			return nil, err
		}
		return &BreakResult{
			Action:          "ended",
			BreakType:       active.BreakType,
			DurationMinutes: &minutes,
		}, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		// Start a new break.
		brk := models.Break{
			SessionID: session.ID,
			StartTime: now,
			BreakType: breakType,
		}
		err = t.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&brk).Error; err != nil {
				return err
			}
			return touchProject(tx, proj, now)
		})
		if err != nil {
			return nil, err
		}
		return &BreakResult{
			Action:    "started",
			BreakType: breakType,
			StartTime: &brk.StartTime,
		}, nil

	default:
		return nil, err
	}
}

// LinkCommit appends a VCS commit record to the project's active session.
func (t *Tracker) LinkCommit(project, hash, message string) (*CommitResult, error) {
	if strings.TrimSpace(project) == "" || strings.TrimSpace(hash) == "" || strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: project, commit hash, and message are required", ErrMissingField)
	}

	lock := t.projectLock(project)
	lock.Lock()
	defer lock.Unlock()

	proj, err := t.findProject(project)
	if err != nil {
		return nil, err
	}

	session, err := t.activeSession(proj.ID)
	if err != nil {
		return nil, err
	}

	now := t.clk.Now()
	session.GitCommits = append(session.GitCommits, models.GitCommit{
		Hash:      hash,
		Message:   message,
		Timestamp: now.Format(time.RFC3339),
	})

	err = t.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(session).Error; err != nil {
			return err
		}
		return touchProject(tx, proj, now)
	})
	if err != nil {
		return nil, err
	}

	short := hash
	if len(short) > 8 {
		short = short[:8]
	}
	return &CommitResult{SessionID: session.ID, CommitHash: short}, nil
}

// ActiveSessionInfo describes the open session in a status payload.
type ActiveSessionInfo struct {
	ID          uint      `json:"id"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	StartTime   time.Time `json:"start_time"`
}

// ActiveBreakInfo describes the open break in a status payload.
type ActiveBreakInfo struct {
	Type      string    `json:"type"`
	StartTime time.Time `json:"start_time"`
}

// DailySummary sums the project's sessions that started today.
type DailySummary struct {
	TotalHours float64 `json:"total_hours"`
	Sessions   int     `json:"sessions"`
}

// StatusResult is the full status payload for a project.
type StatusResult struct {
	Project       string             `json:"project"`
	ActiveSession *ActiveSessionInfo `json:"active_session"`
	ActiveBreak   *ActiveBreakInfo   `json:"active_break"`
	DailySummary  DailySummary       `json:"daily_summary"`
}

// Status reports the project's current state. An unknown project is not an
// error: the caller gets an empty default payload.
func (t *Tracker) Status(project string) (*StatusResult, error) {
	if strings.TrimSpace(project) == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrMissingField)
	}

	status := &StatusResult{Project: project}

	proj, err := t.findProject(project)
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return status, nil
		}
		return nil, err
	}

	var session models.Session
	if t.db.Where("project_id = ? AND end_time IS NULL", proj.ID).First(&session).Error == nil {
		status.ActiveSession = &ActiveSessionInfo{
			ID:          session.ID,
			Description: session.Description,
			Category:    session.Category,
			StartTime:   session.StartTime,
		}
		var brk models.Break
		if t.db.Where("session_id = ? AND end_time IS NULL", session.ID).First(&brk).Error == nil {
			status.ActiveBreak = &ActiveBreakInfo{
				Type:      brk.BreakType,
				StartTime: brk.StartTime,
			}
		}
	}

	// Daily summary counts every session started today; only the
	// finished ones contribute hours.
	now := t.clk.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var today []models.Session
	if err := t.db.Where("project_id = ? AND start_time >= ? AND start_time < ?",
		proj.ID, dayStart, dayStart.AddDate(0, 0, 1)).Find(&today).Error; err != nil {
		return nil, err
	}
	totalMinutes := 0
	for _, s := range today {
		if s.DurationMinutes != nil {
			totalMinutes += *s.DurationMinutes
		}
	}
	status.DailySummary = DailySummary{
		TotalHours: durations.Round2(durations.Hours(totalMinutes)),
		Sessions:   len(today),
	}

	return status, nil
}

// UpsertProjectRequest carries project metadata for create-or-update calls.
type UpsertProjectRequest struct {
	Name      string
	Type      string
	Language  string
	Framework string
	Path      string
	GitRemote string
	Parent    string // parent project name, empty for top-level
	UserID    string
}

// UpsertProject creates the named project or updates its metadata. Parent
// assignment only allows single-level nesting: a project that is itself a
// subproject cannot become a parent, and a project cannot parent itself.
func (t *Tracker) UpsertProject(req UpsertProjectRequest) (*models.Project, bool, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, false, fmt.Errorf("%w: project name is required", ErrMissingField)
	}

	lock := t.projectLock(req.Name)
	lock.Lock()
	defer lock.Unlock()

	now := t.clk.Now()

	var parentID *uint
	if req.Parent != "" {
		if req.Parent == req.Name {
			return nil, false, fmt.Errorf("%w: project cannot be its own parent", ErrParentCycle)
		}
		parent, err := t.findProject(req.Parent)
		if err != nil {
			return nil, false, err
		}
		if parent.ParentID != nil {
			return nil, false, fmt.Errorf("%w: %q is already a subproject", ErrParentCycle, req.Parent)
		}
		parentID = &parent.ID
	}

	var proj models.Project
	err := t.db.Where("name = ?", req.Name).First(&proj).Error
	created := false
	if errors.Is(err, gorm.ErrRecordNotFound) {
		proj = models.Project{
			Name:         req.Name,
			Type:         orDefault(req.Type, "development"),
			Language:     req.Language,
			Framework:    req.Framework,
			Path:         req.Path,
			GitRemote:    req.GitRemote,
			ParentID:     parentID,
			CreatedAt:    now,
			LastActivity: now,
			UserID:       req.UserID,
		}
		if err := t.db.Create(&proj).Error; err != nil {
			return nil, false, err
		}
		created = true
	} else if err != nil {
		return nil, false, err
	} else {
		if req.Type != "" {
			proj.Type = req.Type
		}
		if req.Language != "" {
			proj.Language = req.Language
		}
		if req.Framework != "" {
			proj.Framework = req.Framework
		}
		if req.Path != "" {
			proj.Path = req.Path
		}
		if req.GitRemote != "" {
			proj.GitRemote = req.GitRemote
		}
		if parentID != nil {
			proj.ParentID = parentID
		}
		proj.LastActivity = now
		if err := t.db.Save(&proj).Error; err != nil {
			return nil, false, err
		}
	}

	return &proj, created, nil
}

// ListProjects returns all projects ordered by name.
func (t *Tracker) ListProjects() ([]models.Project, error) {
	var projects []models.Project
	if err := t.db.Order("name ASC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// --- internals ---

func (t *Tracker) findProject(name string) (*models.Project, error) {
	var proj models.Project
	err := t.db.Where("name = ?", name).First(&proj).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &proj, nil
}

func (t *Tracker) activeSession(projectID uint) (*models.Session, error) {
	var session models.Session
	err := t.db.Where("project_id = ? AND end_time IS NULL", projectID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoActiveSession
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func findOrCreateProject(tx *gorm.DB, name, userID string, now time.Time) (*models.Project, error) {
	var proj models.Project
	err := tx.Where("name = ?", name).First(&proj).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		proj = models.Project{
			Name:         name,
			Type:         "development",
			CreatedAt:    now,
			LastActivity: now,
			UserID:       userID,
		}
		if err := tx.Create(&proj).Error; err != nil {
			return nil, err
		}
		return &proj, nil
	}
	if err != nil {
		return nil, err
	}
	return &proj, nil
}

// closeSession sets the end time and net duration on an open session.
func closeSession(tx *gorm.DB, session *models.Session, now time.Time) error {
	var closed []models.Break
	if err := tx.Where("session_id = ? AND end_time IS NOT NULL", session.ID).Find(&closed).Error; err != nil {
		return err
	}
	intervals := make([]durations.Interval, 0, len(closed))
	for _, b := range closed {
		intervals = append(intervals, durations.Interval{Start: b.StartTime, End: b.EndTime})
	}
	minutes, err := durations.NetSessionMinutes(session.StartTime, now, intervals)
	if err != nil {
		return err
	}
	session.EndTime = &now
	session.DurationMinutes = &minutes
	return tx.Save(session).Error
}

func touchProject(tx *gorm.DB, proj *models.Project, now time.Time) error {
	proj.LastActivity = now
	return tx.Model(proj).Update("last_activity", now).Error
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
