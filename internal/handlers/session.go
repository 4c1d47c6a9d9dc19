package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kwhite/taskpulse/internal/request"
	"github.com/kwhite/taskpulse/internal/session"
)

// SessionHandler establishes and drops per-user sessions. Sessions are
// also established implicitly by any store-backed endpoint; the
// explicit POST exists so clients can warm the stores right after
// sign-in.
type SessionHandler struct {
	registry *session.Registry
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(registry *session.Registry) *SessionHandler {
	return &SessionHandler{registry: registry}
}

// RegisterRoutes registers session routes on the given router.
// The router should already have the /session prefix.
func (h *SessionHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.Establish).Methods("POST")
	r.HandleFunc("", h.Drop).Methods("DELETE")
}

// Establish loads the user's stores and subscribes the realtime bridge
func (h *SessionHandler) Establish(w http.ResponseWriter, r *http.Request) {
	identity := request.IdentityFromContext(r)
	if identity == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Identity not found in context")
		return
	}

	h.registry.GetOrCreate(r.Context(), identity)

	respondJSON(w, http.StatusCreated, map[string]any{
		"user_id": identity.UserID,
	})
}

// Drop clears the user's stores and stops the realtime bridge
func (h *SessionHandler) Drop(w http.ResponseWriter, r *http.Request) {
	identity := request.IdentityFromContext(r)
	if identity == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Identity not found in context")
		return
	}

	h.registry.Drop(identity.UserID)

	respondJSON(w, http.StatusOK, map[string]any{
		"user_id": identity.UserID,
	})
}
