package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Project represents a tracked project. A project can optionally belong to a
// parent project; sessions of a subproject stay attributed to the subproject
// and are only rolled into the parent at display time.
type Project struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	Name         string     `gorm:"uniqueIndex;not null" json:"name"`
	Type         string     `gorm:"default:development" json:"type"`
	Language     string     `json:"language,omitempty"`
	Framework    string     `json:"framework,omitempty"`
	Path         string     `json:"path,omitempty"`
	GitRemote    string     `json:"git_remote,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastActivity time.Time  `json:"last_activity"`
	ParentID     *uint      `json:"parent_id,omitempty"`
	UserID       string     `gorm:"column:userid" json:"userid"`

	// Relationships
	Parent      *Project  `gorm:"foreignKey:ParentID" json:"-"`
	Subprojects []Project `gorm:"foreignKey:ParentID" json:"-"`
	Sessions    []Session `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
}

// Session represents one tracked stretch of work on a project.
// A nil EndTime marks the session as active; DurationMinutes is set on stop.
type Session struct {
	ID              uint       `gorm:"primarykey" json:"id"`
	ProjectID       uint       `gorm:"not null;index" json:"project_id"`
	StartTime       time.Time  `gorm:"not null" json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationMinutes *int       `json:"duration_minutes"`
	Category        string     `gorm:"default:development" json:"category"`
	Description     string     `gorm:"not null" json:"description"`
	GitCommits      GitCommits `gorm:"type:text" json:"git_commits"`
	UserID          string     `gorm:"column:userid" json:"userid"`

	// Relationships
	Project Project `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Breaks  []Break `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
}

// Active reports whether the session is still running.
func (s *Session) Active() bool {
	return s.EndTime == nil
}

// Break represents a pause within a session. A nil EndTime marks it active.
type Break struct {
	ID              uint       `gorm:"primarykey" json:"id"`
	SessionID       uint       `gorm:"not null;index" json:"session_id"`
	StartTime       time.Time  `gorm:"not null" json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationMinutes *int       `json:"duration_minutes"`
	BreakType       string     `gorm:"default:break" json:"break_type"`
}

// GitCommit is one VCS commit linked to a session.
type GitCommit struct {
	Hash      string `json:"hash"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// GitCommits is stored as a JSON string in the sessions table.
type GitCommits []GitCommit

// Value implements driver.Valuer.
func (g GitCommits) Value() (driver.Value, error) {
	if len(g) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (g *GitCommits) Scan(value any) error {
	if value == nil {
		*g = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into GitCommits", value)
	}
	if len(data) == 0 {
		*g = nil
		return nil
	}
	return json.Unmarshal(data, g)
}
