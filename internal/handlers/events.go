package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kwhite/taskpulse/internal/models"
	"github.com/kwhite/taskpulse/internal/request"
	"github.com/kwhite/taskpulse/internal/session"
	"github.com/kwhite/taskpulse/internal/validation"
)

// EventHandler handles calendar event requests
type EventHandler struct {
	registry *session.Registry
}

// NewEventHandler creates a new event handler
func NewEventHandler(registry *session.Registry) *EventHandler {
	return &EventHandler{registry: registry}
}

// RegisterRoutes registers event routes on the given router.
// The router should already have the /events prefix.
func (h *EventHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListEvents).Methods("GET")
	r.HandleFunc("", h.CreateEvent).Methods("POST")
	r.HandleFunc("/{id}", h.DeleteEvent).Methods("DELETE")
	r.HandleFunc("/{id}/star", h.ToggleStar).Methods("POST")
}

// ListEventsResponse carries the current event snapshot
type ListEventsResponse struct {
	Events  []models.EventItem `json:"events"`
	Loading bool               `json:"loading"`
}

// ListEvents returns the user's events, optionally reloading for a
// single day via ?date=YYYY-MM-DD
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	if date := r.URL.Query().Get("date"); date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid date, expected YYYY-MM-DD")
			return
		}
		sess.Events.Load(r.Context(), &date)
	}

	respondJSON(w, http.StatusOK, ListEventsResponse{
		Events:  sess.Events.Events(),
		Loading: sess.Events.Loading(),
	})
}

// CreateEvent adds an event for the given date and fractional hours
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var input models.NewEventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}

	input.Title = validation.SanitizeText(input.Title)
	input.Tag = validation.SanitizeText(input.Tag)
	if err := validation.Validate.Struct(&input); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if _, err := time.Parse("2006-01-02", input.Date); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid date, expected YYYY-MM-DD")
		return
	}

	sess.Events.Add(r.Context(), input)

	respondJSON(w, http.StatusAccepted, ListEventsResponse{
		Events:  sess.Events.Events(),
		Loading: sess.Events.Loading(),
	})
}

// DeleteEvent removes an event
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	eventID, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	sess.Events.Remove(r.Context(), eventID)

	respondJSON(w, http.StatusAccepted, ListEventsResponse{
		Events:  sess.Events.Events(),
		Loading: sess.Events.Loading(),
	})
}

// ToggleStar flips an event's starred flag. Local state only; the
// flag does not survive a reload.
func (h *EventHandler) ToggleStar(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	eventID, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	sess.Events.ToggleStar(eventID)

	respondJSON(w, http.StatusOK, ListEventsResponse{
		Events:  sess.Events.Events(),
		Loading: sess.Events.Loading(),
	})
}

func (h *EventHandler) session(w http.ResponseWriter, r *http.Request) *session.Session {
	identity := request.IdentityFromContext(r)
	if identity == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Identity not found in context")
		return nil
	}
	return h.registry.GetOrCreate(r.Context(), identity)
}
