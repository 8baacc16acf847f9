package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mfadeev/ttrack/internal/clock"
	"github.com/mfadeev/ttrack/internal/db"
	"github.com/mfadeev/ttrack/internal/report"
	"github.com/mfadeev/ttrack/internal/tracker"
)

func setupServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { db.Close(gdb) })

	clk := clock.System{}
	return NewServer(tracker.New(gdb, clk), report.New(gdb, clk))
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	s := setupServer(t)
	w := doJSON(t, s, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decode(t, w)["status"]; got != "healthy" {
		t.Errorf("status field = %v", got)
	}
}

func TestStartStopFlow(t *testing.T) {
	s := setupServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/v1/sessions/start", gin.H{
		"project":     "alpha",
		"description": "api work",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("start status = %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["category"] != "development" {
		t.Errorf("category = %v, want default development", body["category"])
	}
	if _, ok := body["session_id"]; !ok {
		t.Error("missing session_id")
	}

	w = doJSON(t, s, http.MethodPost, "/api/v1/sessions/stop", gin.H{"project": "alpha"})
	if w.Code != http.StatusOK {
		t.Fatalf("stop status = %d: %s", w.Code, w.Body.String())
	}
	body = decode(t, w)
	if _, ok := body["duration_minutes"]; !ok {
		t.Error("missing duration_minutes")
	}
}

func TestStartMissingFields(t *testing.T) {
	s := setupServer(t)
	w := doJSON(t, s, http.MethodPost, "/api/v1/sessions/start", gin.H{"project": "alpha"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestStopUnknownProject(t *testing.T) {
	s := setupServer(t)
	w := doJSON(t, s, http.MethodPost, "/api/v1/sessions/stop", gin.H{"project": "ghost"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestStopWithoutActiveSession(t *testing.T) {
	s := setupServer(t)

	doJSON(t, s, http.MethodPost, "/api/v1/sessions/start", gin.H{
		"project": "alpha", "description": "work",
	})
	doJSON(t, s, http.MethodPost, "/api/v1/sessions/stop", gin.H{"project": "alpha"})

	w := doJSON(t, s, http.MethodPost, "/api/v1/sessions/stop", gin.H{"project": "alpha"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestBreakToggle(t *testing.T) {
	s := setupServer(t)

	doJSON(t, s, http.MethodPost, "/api/v1/sessions/start", gin.H{
		"project": "alpha", "description": "work",
	})

	w := doJSON(t, s, http.MethodPost, "/api/v1/sessions/break", gin.H{
		"project": "alpha", "break_type": "coffee",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("break status = %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["action"] != "started" || body["break_type"] != "coffee" {
		t.Errorf("body = %v", body)
	}

	w = doJSON(t, s, http.MethodPost, "/api/v1/sessions/break", gin.H{"project": "alpha"})
	body = decode(t, w)
	if body["action"] != "ended" {
		t.Errorf("second toggle action = %v, want ended", body["action"])
	}
	if _, ok := body["duration_minutes"]; !ok {
		t.Error("ended break should carry duration_minutes")
	}
}

func TestBreakRequiresActiveSession(t *testing.T) {
	s := setupServer(t)
	w := doJSON(t, s, http.MethodPost, "/api/v1/sessions/break", gin.H{"project": "ghost"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestStatusRequiresProjectParam(t *testing.T) {
	s := setupServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/v1/sessions/status", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestStatusUnknownProjectIsEmptyDefault(t *testing.T) {
	s := setupServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/v1/sessions/status?project=ghost", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decode(t, w)
	if body["project"] != "ghost" {
		t.Errorf("project = %v", body["project"])
	}
	if body["active_session"] != nil {
		t.Errorf("active_session = %v, want null", body["active_session"])
	}
}

func TestCommitLinking(t *testing.T) {
	s := setupServer(t)

	doJSON(t, s, http.MethodPost, "/api/v1/sessions/start", gin.H{
		"project": "alpha", "description": "work",
	})

	w := doJSON(t, s, http.MethodPost, "/api/v1/sessions/commit", gin.H{
		"project": "alpha",
		"hash":    "abcdef1234567890",
		"message": "fix the thing",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("commit status = %d: %s", w.Code, w.Body.String())
	}
	if got := decode(t, w)["commit_hash"]; got != "abcdef12" {
		t.Errorf("commit_hash = %v, want short hash", got)
	}
}

func TestReportInvalidPeriod(t *testing.T) {
	s := setupServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/v1/reports/fortnight", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestReportToday(t *testing.T) {
	s := setupServer(t)

	doJSON(t, s, http.MethodPost, "/api/v1/sessions/start", gin.H{
		"project": "alpha", "description": "work",
	})
	doJSON(t, s, http.MethodPost, "/api/v1/sessions/stop", gin.H{"project": "alpha"})

	w := doJSON(t, s, http.MethodGet, "/api/v1/reports/today", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["total_sessions"] != float64(1) {
		t.Errorf("total_sessions = %v, want 1", body["total_sessions"])
	}
}

func TestProjectLifecycle(t *testing.T) {
	s := setupServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/v1/projects", gin.H{
		"name": "platform", "type": "development", "language": "go",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, http.MethodPost, "/api/v1/projects", gin.H{
		"name": "platform", "framework": "gin",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, http.MethodPost, "/api/v1/projects", gin.H{
		"name": "platform-api", "parent": "platform",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("subproject status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, http.MethodGet, "/api/v1/projects", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	if got := decode(t, w)["count"]; got != float64(2) {
		t.Errorf("count = %v, want 2", got)
	}

	w = doJSON(t, s, http.MethodGet, "/api/v1/projects/platform/summary", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("summary status = %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	subs, ok := body["subprojects"].([]any)
	if !ok || len(subs) != 1 {
		t.Errorf("subprojects = %v", body["subprojects"])
	}
}

func TestProjectParentCycle(t *testing.T) {
	s := setupServer(t)
	w := doJSON(t, s, http.MethodPost, "/api/v1/projects", gin.H{
		"name": "loop", "parent": "loop",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAnalyticsStatusCodes(t *testing.T) {
	s := setupServer(t)

	// Unknown project: heatmap and category-breakdown answer 404, the
	// trends endpoints answer 400.
	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/analytics/heatmap?project=ghost", http.StatusNotFound},
		{"/api/v1/analytics/category-breakdown?project=ghost", http.StatusNotFound},
		{"/api/v1/analytics/productivity-trends?project=ghost", http.StatusBadRequest},
		{"/api/v1/analytics/session-patterns?project=ghost", http.StatusBadRequest},
		{"/api/v1/analytics/heatmap", http.StatusBadRequest},
		{"/api/v1/analytics/category-breakdown", http.StatusBadRequest},
		{"/api/v1/analytics/productivity-trends", http.StatusBadRequest},
		{"/api/v1/analytics/session-patterns", http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := doJSON(t, s, http.MethodGet, tt.path, nil)
		if w.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.path, w.Code, tt.want)
		}
	}
}

func TestAnalyticsKnownProject(t *testing.T) {
	s := setupServer(t)

	doJSON(t, s, http.MethodPost, "/api/v1/sessions/start", gin.H{
		"project": "alpha", "description": "work",
	})
	doJSON(t, s, http.MethodPost, "/api/v1/sessions/stop", gin.H{"project": "alpha"})

	for _, path := range []string{
		"/api/v1/analytics/heatmap?project=alpha",
		"/api/v1/analytics/category-breakdown?project=alpha",
		"/api/v1/analytics/productivity-trends?project=alpha&days=7",
		"/api/v1/analytics/session-patterns?project=alpha",
	} {
		w := doJSON(t, s, http.MethodGet, path, nil)
		if w.Code != http.StatusOK {
			t.Errorf("%s: status = %d: %s", path, w.Code, w.Body.String())
		}
	}
}

func TestUserIDHeader(t *testing.T) {
	s := setupServer(t)

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(gin.H{"name": "alpha"}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "marina")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	proj, ok := body["project"].(map[string]any)
	if !ok {
		t.Fatalf("project = %v", body["project"])
	}
	if proj["userid"] != "marina" {
		t.Errorf("userid = %v, want marina", proj["userid"])
	}
}
