package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kwhite/taskpulse/internal/analytics"
	"github.com/kwhite/taskpulse/internal/request"
	"github.com/kwhite/taskpulse/internal/session"
)

// AnalyticsHandler computes productivity metrics over the session's
// current task and activity snapshots
type AnalyticsHandler struct {
	registry *session.Registry
	now      func() time.Time
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(registry *session.Registry) *AnalyticsHandler {
	return &AnalyticsHandler{registry: registry, now: time.Now}
}

// RegisterRoutes registers the analytics route on the given router
func (h *AnalyticsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetSummary).Methods("GET")
}

// GetSummary returns the full analytics summary. Metrics are derived
// on every call; nothing is cached.
func (h *AnalyticsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	identity := request.IdentityFromContext(r)
	if identity == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Identity not found in context")
		return
	}
	sess := h.registry.GetOrCreate(r.Context(), identity)

	summary := analytics.Summarize(sess.Tasks.Tasks(), sess.Tasks.Activity(), h.now())
	respondJSON(w, http.StatusOK, summary)
}
