package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mfadeev/ttrack/internal/report"
	"github.com/mfadeev/ttrack/internal/tracker"
)

// userID identifies the caller; anonymous when the header is absent.
func userID(c *gin.Context) string {
	if id := c.GetHeader("X-User-ID"); id != "" {
		return id
	}
	return "anonymous"
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "ttrack"})
}

type startRequest struct {
	Project     string `json:"project"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

func (s *Server) handleStartSession(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := s.tracker.StartSession(req.Project, req.Description, req.Category, userID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Session started successfully",
		"session_id":  result.SessionID,
		"project":     result.Project,
		"description": result.Description,
		"category":    result.Category,
		"start_time":  result.StartTime,
	})
}

type projectRequest struct {
	Project string `json:"project"`
}

func (s *Server) handleStopSession(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := s.tracker.StopSession(req.Project)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":          "Session stopped successfully",
		"session_id":       result.SessionID,
		"description":      result.Description,
		"duration_minutes": result.DurationMinutes,
		"start_time":       result.StartTime,
		"end_time":         result.EndTime,
	})
}

type breakRequest struct {
	Project   string `json:"project"`
	BreakType string `json:"break_type"`
}

func (s *Server) handleToggleBreak(c *gin.Context) {
	var req breakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := s.tracker.ToggleBreak(req.Project, req.BreakType)
	if err != nil {
		s.writeError(c, err)
		return
	}

	payload := gin.H{
		"message":    "Break " + result.Action,
		"action":     result.Action,
		"break_type": result.BreakType,
	}
	if result.StartTime != nil {
		payload["start_time"] = result.StartTime
	}
	if result.DurationMinutes != nil {
		payload["duration_minutes"] = result.DurationMinutes
	}
	c.JSON(http.StatusOK, payload)
}

type commitRequest struct {
	Project string `json:"project"`
	Hash    string `json:"hash"`
	Message string `json:"message"`
}

func (s *Server) handleLinkCommit(c *gin.Context) {
	var req commitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := s.tracker.LinkCommit(req.Project, req.Hash, req.Message)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Commit linked successfully",
		"session_id":  result.SessionID,
		"commit_hash": result.CommitHash,
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	project := c.Query("project")
	if project == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project parameter is required"})
		return
	}

	status, err := s.tracker.Status(project)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) handleReport(c *gin.Context) {
	result, err := s.reports.Generate(c.Param("period"), c.Query("project"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.tracker.ListProjects()
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects, "count": len(projects)})
}

type upsertProjectRequest struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Language  string `json:"language"`
	Framework string `json:"framework"`
	Path      string `json:"path"`
	GitRemote string `json:"git_remote"`
	Parent    string `json:"parent"`
}

func (s *Server) handleUpsertProject(c *gin.Context) {
	var req upsertProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	proj, created, err := s.tracker.UpsertProject(tracker.UpsertProjectRequest{
		Name:      req.Name,
		Type:      req.Type,
		Language:  req.Language,
		Framework: req.Framework,
		Path:      req.Path,
		GitRemote: req.GitRemote,
		Parent:    req.Parent,
		UserID:    userID(c),
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	status := http.StatusOK
	message := "Project updated successfully"
	if created {
		status = http.StatusCreated
		message = "Project created successfully"
	}
	c.JSON(status, gin.H{"message": message, "project": proj})
}

func (s *Server) handleProjectSummary(c *gin.Context) {
	summary, err := s.reports.Summary(c.Param("name"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleHeatmap(c *gin.Context) {
	project := c.Query("project")
	if project == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project parameter is required"})
		return
	}
	year := intQuery(c, "year", s.reports.CurrentYear())

	result, err := s.reports.Heatmap(project, year)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleCategoryBreakdown(c *gin.Context) {
	project := c.Query("project")
	if project == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project parameter is required"})
		return
	}

	result, err := s.reports.CategoryBreakdown(project, c.DefaultQuery("period", "month"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleProductivityTrends(c *gin.Context) {
	project := c.Query("project")
	if project == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project parameter is required"})
		return
	}

	result, err := s.reports.ProductivityTrends(project, intQuery(c, "days", 30))
	if err != nil {
		// The trends endpoints report an unknown project as a bad request,
		// unlike heatmap and category-breakdown.
		if errors.Is(err, tracker.ErrProjectNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleSessionPatterns(c *gin.Context) {
	project := c.Query("project")
	if project == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project parameter is required"})
		return
	}

	result, err := s.reports.SessionPatterns(project, intQuery(c, "days", 30))
	if err != nil {
		if errors.Is(err, tracker.ErrProjectNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// writeError maps domain errors to HTTP status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tracker.ErrMissingField),
		errors.Is(err, tracker.ErrParentCycle),
		errors.Is(err, report.ErrInvalidPeriod):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, tracker.ErrProjectNotFound),
		errors.Is(err, tracker.ErrNoActiveSession):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
