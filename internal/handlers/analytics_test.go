package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/kwhite/taskpulse/internal/analytics"
)

func registerAnalytics(e *testEnv) func(*mux.Router) {
	return func(r *mux.Router) {
		NewAnalyticsHandler(e.registry).RegisterRoutes(r.PathPrefix("/analytics").Subrouter())
	}
}

func TestGetSummary(t *testing.T) {
	t.Parallel()

	e := newTestEnv()
	create := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{"title":"Only task"}`))
	created := decodeTasks(t, e.serve(registerTasks(e), create))
	taskID := created.Data.Tasks[0].ID
	complete := httptest.NewRequest(http.MethodPost, "/tasks/"+taskID.String()+"/complete", nil)
	e.serve(registerTasks(e), complete)

	req := httptest.NewRequest(http.MethodGet, "/analytics", nil)
	rec := e.serve(registerAnalytics(e), req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Data analytics.Summary `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Data.TotalTasks != 1 {
		t.Errorf("expected 1 total task, got %d", body.Data.TotalTasks)
	}
	if body.Data.CompletedTasks != 1 {
		t.Errorf("expected 1 completed task, got %d", body.Data.CompletedTasks)
	}
	if body.Data.ProductivityScore != 100 {
		t.Errorf("expected score 100, got %d", body.Data.ProductivityScore)
	}
}

func TestGetSummaryUnauthorized(t *testing.T) {
	t.Parallel()

	e := newTestEnv()
	e.identity = nil
	req := httptest.NewRequest(http.MethodGet, "/analytics", nil)
	rec := e.serve(registerAnalytics(e), req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
