// Package server exposes the tracker and report cores over HTTP. Routes and
// payload shapes follow the v1 REST surface consumed by the CLI.
package server

import (
	"github.com/gin-gonic/gin"

	"github.com/mfadeev/ttrack/internal/report"
	"github.com/mfadeev/ttrack/internal/tracker"
)

// Server is the ttrack HTTP server.
type Server struct {
	tracker *tracker.Tracker
	reports *report.Aggregator
	router  *gin.Engine
}

// NewServer wires the HTTP routes over a tracker and aggregator.
func NewServer(tr *tracker.Tracker, reports *report.Aggregator) *Server {
	router := gin.Default()

	s := &Server{
		tracker: tr,
		reports: reports,
		router:  router,
	}

	router.GET("/health", s.handleHealth)

	api := router.Group("/api/v1")
	{
		api.GET("/projects", s.handleListProjects)
		api.POST("/projects", s.handleUpsertProject)
		api.GET("/projects/:name/summary", s.handleProjectSummary)

		api.POST("/sessions/start", s.handleStartSession)
		api.POST("/sessions/stop", s.handleStopSession)
		api.POST("/sessions/break", s.handleToggleBreak)
		api.GET("/sessions/status", s.handleStatus)
		api.POST("/sessions/commit", s.handleLinkCommit)

		api.GET("/reports/:period", s.handleReport)

		api.GET("/analytics/heatmap", s.handleHeatmap)
		api.GET("/analytics/category-breakdown", s.handleCategoryBreakdown)
		api.GET("/analytics/productivity-trends", s.handleProductivityTrends)
		api.GET("/analytics/session-patterns", s.handleSessionPatterns)
	}

	return s
}

// Run starts the HTTP server.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
