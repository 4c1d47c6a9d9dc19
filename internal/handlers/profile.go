package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"github.com/kwhite/taskpulse/internal/models"
	"github.com/kwhite/taskpulse/internal/request"
	"github.com/kwhite/taskpulse/internal/session"
	"github.com/kwhite/taskpulse/internal/validation"
)

// MaxAvatarSize is the maximum accepted avatar upload in bytes
const MaxAvatarSize = 2 << 20

// ProfileHandler handles profile requests
type ProfileHandler struct {
	registry *session.Registry
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(registry *session.Registry) *ProfileHandler {
	return &ProfileHandler{registry: registry}
}

// RegisterRoutes registers profile routes on the given router.
// The router should already have the /profile prefix.
func (h *ProfileHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetProfile).Methods("GET")
	r.HandleFunc("/name", h.UpdateName).Methods("PATCH")
	r.HandleFunc("/avatar", h.UploadAvatar).Methods("POST")
}

// UpdateNameRequest carries a display name change
type UpdateNameRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// ProfileResponse pairs the raw profile with its display fallbacks
type ProfileResponse struct {
	Profile  *models.Profile `json:"profile"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Avatar   string          `json:"avatar"`
	Initials string          `json:"initials"`
	Loading  bool            `json:"loading"`
	Saving   bool            `json:"saving"`
}

// GetProfile returns the user's profile with display fallbacks applied
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	respondJSON(w, http.StatusOK, profileResponse(sess))
}

// UpdateName changes the display name. A blank name is rejected up
// front; the store additionally treats it as a no-op.
func (h *ProfileHandler) UpdateName(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var req UpdateNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}

	req.Name = validation.SanitizeText(req.Name)
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	if !sess.Profile.UpdateName(r.Context(), req.Name) {
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to save profile name")
		return
	}

	respondJSON(w, http.StatusOK, profileResponse(sess))
}

// UploadAvatar accepts a multipart avatar image, stores the object,
// and saves its URL on the profile
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	if err := r.ParseMultipartForm(MaxAvatarSize); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Missing avatar file")
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	if header.Size > MaxAvatarSize {
		respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Avatar exceeds size limit")
		return
	}
	if !allowedAvatarExtension(header.Filename) {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Unsupported avatar file type")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxAvatarSize))
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Failed to read avatar file")
		return
	}

	if !sess.Profile.ChangeAvatar(r.Context(), header.Filename, data) {
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to store avatar")
		return
	}

	respondJSON(w, http.StatusOK, profileResponse(sess))
}

func allowedAvatarExtension(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}

func profileResponse(sess *session.Session) ProfileResponse {
	return ProfileResponse{
		Profile:  sess.Profile.Profile(),
		Name:     sess.Profile.DisplayName(),
		Email:    sess.Profile.DisplayEmail(),
		Avatar:   sess.Profile.DisplayAvatar(),
		Initials: sess.Profile.DisplayInitials(),
		Loading:  sess.Profile.Loading(),
		Saving:   sess.Profile.Saving(),
	}
}

func (h *ProfileHandler) session(w http.ResponseWriter, r *http.Request) *session.Session {
	identity := request.IdentityFromContext(r)
	if identity == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Identity not found in context")
		return nil
	}
	return h.registry.GetOrCreate(r.Context(), identity)
}
