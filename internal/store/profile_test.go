package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kwhite/taskpulse/internal/models"
)

type mockObjectStorage struct {
	uploads map[string][]byte
	fail    bool
}

func newMockObjectStorage() *mockObjectStorage {
	return &mockObjectStorage{uploads: make(map[string][]byte)}
}

func (m *mockObjectStorage) Upload(ctx context.Context, bucket, key string, data []byte) (string, error) {
	if m.fail {
		return "", errMock
	}
	m.uploads[bucket+"/"+key] = data
	return "https://objects.test/" + bucket + "/" + key, nil
}

func TestProfileStoreLoadExisting(t *testing.T) {
	t.Parallel()

	identity := testIdentity()
	profileRepo := &mockProfileRepo{row: &models.ProfileRow{
		ID:     uuid.New(),
		UserID: identity.UserID,
		Name:   "Casey R.",
		Email:  identity.Email,
		Avatar: "https://objects.test/avatars/existing.png",
	}}

	store := NewProfileStore(profileRepo, nil, testLogger())
	store.SetIdentity(identity)
	store.Load(context.Background())

	p := store.Profile()
	if p == nil {
		t.Fatal("expected profile loaded")
	}
	if p.Name != "Casey R." {
		t.Errorf("unexpected name %q", p.Name)
	}
	if profileRepo.createdCalls != 0 {
		t.Error("existing profile should not trigger a create")
	}
}

func TestProfileStoreLoadCreatesLazily(t *testing.T) {
	t.Parallel()

	identity := testIdentity()
	profileRepo := &mockProfileRepo{}

	store := NewProfileStore(profileRepo, nil, testLogger())
	store.SetIdentity(identity)
	store.Load(context.Background())

	p := store.Profile()
	if p == nil {
		t.Fatal("expected profile created on first load")
	}
	if p.Name != identity.Name {
		t.Errorf("expected identity name as default, got %q", p.Name)
	}
	if p.Email != identity.Email {
		t.Errorf("expected identity email carried over, got %q", p.Email)
	}
	if profileRepo.createdCalls != 1 {
		t.Errorf("expected exactly one create, got %d", profileRepo.createdCalls)
	}
}

func TestProfileStoreLoadFetchFailureDoesNotCreate(t *testing.T) {
	t.Parallel()

	identity := testIdentity()
	profileRepo := &mockProfileRepo{failGet: true}

	store := NewProfileStore(profileRepo, nil, testLogger())
	store.SetIdentity(identity)
	store.Load(context.Background())

	if store.Profile() != nil {
		t.Error("expected empty state after a fetch failure")
	}
	if profileRepo.createdCalls != 0 {
		t.Error("a fetch failure must not insert a default profile")
	}
}

func TestProfileStoreDisplayFallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		identity *models.Identity
		wantName string
	}{
		{
			name:     "identity name wins",
			identity: &models.Identity{UserID: uuid.New(), Email: "dana@example.com", Name: "Dana Park"},
			wantName: "Dana Park",
		},
		{
			name:     "email local part when no name",
			identity: &models.Identity{UserID: uuid.New(), Email: "dana@example.com"},
			wantName: "dana",
		},
		{
			name:     "generic fallback when nothing set",
			identity: &models.Identity{UserID: uuid.New()},
			wantName: "User",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := NewProfileStore(&mockProfileRepo{failCreate: true}, nil, testLogger())
			store.SetIdentity(tt.identity)

			if got := store.DisplayName(); got != tt.wantName {
				t.Errorf("DisplayName() = %q, want %q", got, tt.wantName)
			}
		})
	}
}

func TestProfileStoreDisplayInitials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		displayName string
		want        string
	}{
		{"Casey Reyes", "CR"},
		{"madison", "M"},
		{"ana maria lopez", "AM"},
	}

	for _, tt := range tests {
		tt := tt
		store := NewProfileStore(&mockProfileRepo{failCreate: true}, nil, testLogger())
		store.SetIdentity(&models.Identity{UserID: uuid.New(), Name: tt.displayName})

		if got := store.DisplayInitials(); got != tt.want {
			t.Errorf("DisplayInitials() for %q = %q, want %q", tt.displayName, got, tt.want)
		}
	}
}

func TestProfileStoreUpdateName(t *testing.T) {
	t.Parallel()

	identity := testIdentity()
	profileRepo := &mockProfileRepo{}

	store := NewProfileStore(profileRepo, nil, testLogger())
	store.SetIdentity(identity)
	store.Load(context.Background())

	if !store.UpdateName(context.Background(), "  New Name  ") {
		t.Fatal("expected update to succeed")
	}
	if got := store.Profile().Name; got != "New Name" {
		t.Errorf("expected trimmed name applied, got %q", got)
	}
	if got := profileRepo.row.Name; got != "New Name" {
		t.Errorf("expected name persisted, got %q", got)
	}
}

func TestProfileStoreUpdateNameBlankNoOp(t *testing.T) {
	t.Parallel()

	identity := testIdentity()
	profileRepo := &mockProfileRepo{}

	store := NewProfileStore(profileRepo, nil, testLogger())
	store.SetIdentity(identity)
	store.Load(context.Background())

	before := store.Profile().Name
	if store.UpdateName(context.Background(), "   ") {
		t.Error("blank name should be rejected")
	}
	if got := store.Profile().Name; got != before {
		t.Errorf("blank update changed the name to %q", got)
	}
}

func TestProfileStoreUpdateNameFailureKeepsLocal(t *testing.T) {
	t.Parallel()

	identity := testIdentity()
	profileRepo := &mockProfileRepo{}

	store := NewProfileStore(profileRepo, nil, testLogger())
	store.SetIdentity(identity)
	store.Load(context.Background())

	before := store.Profile().Name
	profileRepo.mu.Lock()
	profileRepo.failUpdate = true
	profileRepo.mu.Unlock()

	if store.UpdateName(context.Background(), "Rejected") {
		t.Error("expected update to fail")
	}
	if got := store.Profile().Name; got != before {
		t.Errorf("failed update should not change local state, got %q", got)
	}
}

func TestProfileStoreChangeAvatar(t *testing.T) {
	t.Parallel()

	identity := testIdentity()
	profileRepo := &mockProfileRepo{}
	objects := newMockObjectStorage()

	store := NewProfileStore(profileRepo, objects, testLogger())
	store.SetIdentity(identity)
	store.SetClock(func() time.Time { return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC) })
	store.Load(context.Background())

	if !store.ChangeAvatar(context.Background(), "me.png", []byte{0x89, 0x50}) {
		t.Fatal("expected avatar change to succeed")
	}

	avatar := store.Profile().Avatar
	if avatar == "" {
		t.Fatal("expected avatar URL applied locally")
	}
	if got := profileRepo.row.Avatar; got != avatar {
		t.Errorf("persisted avatar %q does not match local %q", got, avatar)
	}
	if len(objects.uploads) != 1 {
		t.Errorf("expected one uploaded object, got %d", len(objects.uploads))
	}
}

func TestProfileStoreChangeAvatarUploadFailure(t *testing.T) {
	t.Parallel()

	identity := testIdentity()
	profileRepo := &mockProfileRepo{}
	objects := newMockObjectStorage()
	objects.fail = true

	store := NewProfileStore(profileRepo, objects, testLogger())
	store.SetIdentity(identity)
	store.Load(context.Background())

	if store.ChangeAvatar(context.Background(), "me.png", []byte{0x01}) {
		t.Error("expected avatar change to fail")
	}
	if got := store.Profile().Avatar; got != "" {
		t.Errorf("failed upload should not change the avatar, got %q", got)
	}
}

func TestProfileStoreClear(t *testing.T) {
	t.Parallel()

	identity := testIdentity()
	store := NewProfileStore(&mockProfileRepo{}, nil, testLogger())
	store.SetIdentity(identity)
	store.Load(context.Background())

	store.Clear()

	if store.Profile() != nil {
		t.Error("expected profile cleared")
	}
	if got := store.DisplayName(); got != "User" {
		t.Errorf("expected generic display name after clear, got %q", got)
	}
}
