package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kwhite/taskpulse/internal/database"
	"github.com/kwhite/taskpulse/internal/mapper"
	"github.com/kwhite/taskpulse/internal/models"
	"github.com/kwhite/taskpulse/internal/storage"
	"go.uber.org/zap"
)

// AvatarBucket is where profile images are uploaded
const AvatarBucket = "avatars"

// ProfileStore owns the user's profile record, created lazily on first
// load. Display accessors layer the identity fallback chain on top of
// whatever is loaded.
type ProfileStore struct {
	profileRepo database.ProfileRepositoryInterface
	objects     storage.ObjectStorage
	logger      *zap.Logger
	now         func() time.Time

	mu       sync.RWMutex
	identity *models.Identity
	profile  *models.Profile
	loading  bool
	saving   bool

	listeners listeners
}

// NewProfileStore creates a profile store. Objects may be nil, in which
// case avatar changes are unavailable.
func NewProfileStore(profileRepo database.ProfileRepositoryInterface, objects storage.ObjectStorage, logger *zap.Logger) *ProfileStore {
	return &ProfileStore{
		profileRepo: profileRepo,
		objects:     objects,
		logger:      logger,
		now:         time.Now,
	}
}

// SetClock overrides the store's clock. Test hook.
func (s *ProfileStore) SetClock(now func() time.Time) {
	s.now = now
}

// SetIdentity binds the store to a user
func (s *ProfileStore) SetIdentity(identity *models.Identity) {
	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()
}

// Subscribe registers a listener fired after every state change
func (s *ProfileStore) Subscribe(fn func()) func() {
	return s.listeners.subscribe(fn)
}

// Profile returns the loaded profile, or nil
func (s *ProfileStore) Profile() *models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// Loading reports whether a load is in flight
func (s *ProfileStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Saving reports whether a mutation is in flight
func (s *ProfileStore) Saving() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saving
}

// Load fetches the profile row, creating one with identity-derived
// defaults when none exists yet.
func (s *ProfileStore) Load(ctx context.Context) {
	s.mu.Lock()
	identity := s.identity
	s.loading = true
	s.mu.Unlock()
	s.listeners.notify()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		s.listeners.notify()
	}()

	if identity == nil {
		s.replaceProfile(nil)
		return
	}

	row, err := s.profileRepo.GetByUserID(ctx, identity.UserID)
	if err == nil {
		p := mapper.ProfileFromRow(*row)
		s.replaceProfile(&p)
		return
	}
	if !errors.Is(err, sql.ErrNoRows) {
		// Transient fetch failure: resolve to empty state rather than
		// inserting a row that may already exist
		s.logger.Error("failed_to_load_profile", zap.Error(err))
		s.replaceProfile(nil)
		return
	}

	// No profile yet: create one with defaults from the identity
	created := &models.ProfileRow{
		ID:     uuid.New(),
		UserID: identity.UserID,
		Name:   defaultDisplayName(identity),
		Email:  identity.Email,
		Avatar: "",
	}
	if createErr := s.profileRepo.Create(ctx, created); createErr != nil {
		s.logger.Error("failed_to_create_profile", zap.Error(createErr))
		s.replaceProfile(nil)
		return
	}

	p := mapper.ProfileFromRow(*created)
	s.replaceProfile(&p)
}

func (s *ProfileStore) replaceProfile(p *models.Profile) {
	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
	s.listeners.notify()
}

// DisplayName resolves profile name → identity name → email local part
// → "User".
func (s *ProfileStore) DisplayName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.profile != nil && s.profile.Name != "" {
		return s.profile.Name
	}
	if s.identity == nil {
		return "User"
	}
	return defaultDisplayName(s.identity)
}

// DisplayEmail resolves profile email → identity email → ""
func (s *ProfileStore) DisplayEmail() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.profile != nil && s.profile.Email != "" {
		return s.profile.Email
	}
	if s.identity != nil {
		return s.identity.Email
	}
	return ""
}

// DisplayAvatar resolves profile avatar → identity avatar → ""
func (s *ProfileStore) DisplayAvatar() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.profile != nil && s.profile.Avatar != "" {
		return s.profile.Avatar
	}
	if s.identity != nil {
		return s.identity.AvatarURL
	}
	return ""
}

// DisplayInitials is the first letters of up to two words of the
// display name, uppercased.
func (s *ProfileStore) DisplayInitials() string {
	name := s.DisplayName()

	initials := ""
	for _, word := range strings.Fields(name) {
		initials += strings.ToUpper(string([]rune(word)[0]))
		if len(initials) >= 2 {
			break
		}
	}
	return initials
}

// UpdateName persists a trimmed name; blank input is a no-op. Local
// state changes only after the update succeeds.
func (s *ProfileStore) UpdateName(ctx context.Context, name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false
	}

	s.mu.Lock()
	identity := s.identity
	s.saving = true
	s.mu.Unlock()
	s.listeners.notify()

	defer s.doneSaving()

	if identity == nil {
		return false
	}

	if err := s.profileRepo.UpdateName(ctx, identity.UserID, trimmed); err != nil {
		s.logger.Error("failed_to_update_profile_name", zap.Error(err))
		return false
	}

	s.mu.Lock()
	if s.profile != nil {
		s.profile.Name = trimmed
	}
	s.mu.Unlock()
	s.listeners.notify()
	return true
}

// ChangeAvatar uploads the image under a per-user, timestamp-qualified
// key and then persists the resulting URL. The two steps fail
// independently: a successful upload whose URL-save fails leaves an
// orphaned object and no local change.
func (s *ProfileStore) ChangeAvatar(ctx context.Context, filename string, data []byte) bool {
	s.mu.Lock()
	identity := s.identity
	s.saving = true
	s.mu.Unlock()
	s.listeners.notify()

	defer s.doneSaving()

	if identity == nil || s.objects == nil {
		return false
	}

	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		ext = "jpg"
	}
	key := fmt.Sprintf("%s/avatar-%d.%s", identity.UserID, s.now().UnixMilli(), ext)

	url, err := s.objects.Upload(ctx, AvatarBucket, key, data)
	if err != nil {
		s.logger.Error("failed_to_upload_avatar", zap.Error(err))
		return false
	}

	if err := s.profileRepo.UpdateAvatar(ctx, identity.UserID, url); err != nil {
		// The uploaded object is orphaned; accepted at-least-once limit
		s.logger.Error("failed_to_save_avatar_url",
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	}

	s.mu.Lock()
	if s.profile != nil {
		s.profile.Avatar = url
	}
	s.mu.Unlock()
	s.listeners.notify()
	return true
}

// Clear drops the profile and identity. Called on sign-out.
func (s *ProfileStore) Clear() {
	s.mu.Lock()
	s.identity = nil
	s.profile = nil
	s.mu.Unlock()
	s.listeners.notify()
}

func (s *ProfileStore) doneSaving() {
	s.mu.Lock()
	s.saving = false
	s.mu.Unlock()
	s.listeners.notify()
}

func defaultDisplayName(identity *models.Identity) string {
	if identity.Name != "" {
		return identity.Name
	}
	if identity.Email != "" {
		if local, _, found := strings.Cut(identity.Email, "@"); found && local != "" {
			return local
		}
		return identity.Email
	}
	return "User"
}
