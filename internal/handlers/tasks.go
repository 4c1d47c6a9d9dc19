package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/kwhite/taskpulse/internal/models"
	"github.com/kwhite/taskpulse/internal/request"
	"github.com/kwhite/taskpulse/internal/session"
	"github.com/kwhite/taskpulse/internal/validation"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	registry *session.Registry
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(registry *session.Registry) *TaskHandler {
	return &TaskHandler{registry: registry}
}

// RegisterRoutes registers task routes on the given router.
// The router should already have the /tasks prefix.
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/activity", h.ListActivity).Methods("GET")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/{id}/complete", h.ToggleComplete).Methods("POST")
	r.HandleFunc("/{id}/star", h.ToggleStar).Methods("POST")
	r.HandleFunc("/{id}/expand", h.ToggleExpanded).Methods("POST")
	r.HandleFunc("/{id}/subtasks/{subtaskID}", h.ToggleSubtask).Methods("POST")
}

// ListTasksResponse carries the current task snapshot
type ListTasksResponse struct {
	Tasks   []models.Task `json:"tasks"`
	Loading bool          `json:"loading"`
}

// ListTasks returns the authenticated user's tasks with derived
// grouping and tags computed at read time, optionally filtered by
// ?status=pending|completed
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	tasks := sess.Tasks.Tasks()
	if status := r.URL.Query().Get("status"); status != "" {
		if err := validation.ValidateTaskStatus(status); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		completed := models.TaskStatus(status) == models.TaskStatusCompleted
		filtered := tasks[:0]
		for _, task := range tasks {
			if task.Completed == completed {
				filtered = append(filtered, task)
			}
		}
		tasks = filtered
	}

	respondJSON(w, http.StatusOK, ListTasksResponse{
		Tasks:   tasks,
		Loading: sess.Tasks.Loading(),
	})
}

// CreateTask adds a task. The store applies the mutation locally and
// persists in the background, so the response snapshot already
// contains the new task.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var input models.NewTaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}

	input.Title = validation.SanitizeText(input.Title)
	input.Description = validation.SanitizeText(input.Description)
	if err := validation.Validate.Struct(&input); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	sess.Tasks.Add(r.Context(), input)

	respondJSON(w, http.StatusAccepted, ListTasksResponse{
		Tasks:   sess.Tasks.Tasks(),
		Loading: sess.Tasks.Loading(),
	})
}

// DeleteTask removes a task and its subtasks
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	taskID, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	sess.Tasks.Remove(r.Context(), taskID)

	respondJSON(w, http.StatusAccepted, ListTasksResponse{
		Tasks:   sess.Tasks.Tasks(),
		Loading: sess.Tasks.Loading(),
	})
}

// ToggleComplete flips a task between pending and completed
func (h *TaskHandler) ToggleComplete(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	taskID, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	sess.Tasks.ToggleComplete(r.Context(), taskID)

	respondJSON(w, http.StatusAccepted, ListTasksResponse{
		Tasks:   sess.Tasks.Tasks(),
		Loading: sess.Tasks.Loading(),
	})
}

// ToggleStar flips a task's starred flag
func (h *TaskHandler) ToggleStar(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	taskID, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	sess.Tasks.ToggleStar(r.Context(), taskID)

	respondJSON(w, http.StatusAccepted, ListTasksResponse{
		Tasks:   sess.Tasks.Tasks(),
		Loading: sess.Tasks.Loading(),
	})
}

// ToggleExpanded flips the expanded flag. Local state only, nothing
// is persisted.
func (h *TaskHandler) ToggleExpanded(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	taskID, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	sess.Tasks.ToggleExpanded(taskID)

	respondJSON(w, http.StatusOK, ListTasksResponse{
		Tasks:   sess.Tasks.Tasks(),
		Loading: sess.Tasks.Loading(),
	})
}

// ToggleSubtask flips a subtask's done flag
func (h *TaskHandler) ToggleSubtask(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	taskID, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	subtaskID, ok := parseID(w, r, "subtaskID")
	if !ok {
		return
	}

	sess.Tasks.ToggleSubtask(r.Context(), taskID, subtaskID)

	respondJSON(w, http.StatusAccepted, ListTasksResponse{
		Tasks:   sess.Tasks.Tasks(),
		Loading: sess.Tasks.Loading(),
	})
}

// ListActivity returns the user's recent activity entries
func (h *TaskHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"activity": sess.Tasks.Activity(),
	})
}

func (h *TaskHandler) session(w http.ResponseWriter, r *http.Request) *session.Session {
	identity := request.IdentityFromContext(r)
	if identity == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Identity not found in context")
		return nil
	}
	return h.registry.GetOrCreate(r.Context(), identity)
}

// parseID extracts a UUID path variable, responding 400 on garbage
func parseID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
