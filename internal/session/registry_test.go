package session

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kwhite/taskpulse/internal/models"
)

type emptyTaskRepo struct{}

func (emptyTaskRepo) Create(context.Context, *models.TaskRow) error { return nil }
func (emptyTaskRepo) GetByUserID(context.Context, uuid.UUID) ([]models.TaskRow, error) {
	return nil, nil
}
func (emptyTaskRepo) UpdateStatus(context.Context, uuid.UUID, string) error { return nil }
func (emptyTaskRepo) UpdateStarred(context.Context, uuid.UUID, bool) error  { return nil }
func (emptyTaskRepo) Delete(context.Context, uuid.UUID) error               { return nil }

type emptySubtaskRepo struct{}

func (emptySubtaskRepo) Create(context.Context, *models.SubtaskRow) error { return nil }
func (emptySubtaskRepo) GetByTaskIDs(context.Context, []uuid.UUID) ([]models.SubtaskRow, error) {
	return nil, nil
}
func (emptySubtaskRepo) UpdateDone(context.Context, uuid.UUID, bool) error { return nil }

type emptyActivityRepo struct{}

func (emptyActivityRepo) Create(context.Context, *models.ActivityRow) error { return nil }
func (emptyActivityRepo) GetRecentByUserID(context.Context, uuid.UUID, int) ([]models.ActivityRow, error) {
	return nil, nil
}

type emptyEventRepo struct{}

func (emptyEventRepo) Create(context.Context, *models.EventRow) error { return nil }
func (emptyEventRepo) GetByUserID(context.Context, uuid.UUID, *string) ([]models.EventRow, error) {
	return nil, nil
}
func (emptyEventRepo) Delete(context.Context, uuid.UUID) error { return nil }

type emptyProfileRepo struct{}

func (emptyProfileRepo) GetByUserID(context.Context, uuid.UUID) (*models.ProfileRow, error) {
	return nil, fmt.Errorf("profile not found: %w", sql.ErrNoRows)
}
func (emptyProfileRepo) Create(context.Context, *models.ProfileRow) error          { return nil }
func (emptyProfileRepo) UpdateName(context.Context, uuid.UUID, string) error       { return nil }
func (emptyProfileRepo) UpdateAvatar(context.Context, uuid.UUID, string) error     { return nil }

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, uuid.UUID, string) error { return nil }

type noopNotifier struct{}

func (noopNotifier) NotifyCompletion(context.Context, string, string) error { return nil }

type noopStorage struct{}

func (noopStorage) Upload(_ context.Context, bucket, key string, _ []byte) (string, error) {
	return "https://objects.test/" + bucket + "/" + key, nil
}

// The bridge dial fails against the closed port; sessions still work
func newTestRegistry() *Registry {
	return NewRegistry(Deps{
		TaskRepo:     emptyTaskRepo{},
		SubtaskRepo:  emptySubtaskRepo{},
		ActivityRepo: emptyActivityRepo{},
		EventRepo:    emptyEventRepo{},
		ProfileRepo:  emptyProfileRepo{},
		Publisher:    noopPublisher{},
		Notifier:     noopNotifier{},
		Objects:      noopStorage{},
		Redis:        redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}),
		Logger:       zap.NewNop(),
	})
}

func testIdentity() *models.Identity {
	return &models.Identity{
		UserID: uuid.New(),
		Email:  "casey@example.com",
		Name:   "Casey Reyes",
	}
}

func TestGetOrCreateReturnsSameSession(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry()
	identity := testIdentity()

	first := registry.GetOrCreate(context.Background(), identity)
	second := registry.GetOrCreate(context.Background(), identity)

	if first == nil {
		t.Fatal("expected a session")
	}
	if first != second {
		t.Error("expected the same session on repeat calls")
	}
}

func TestGetOrCreateLoadsStores(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry()
	sess := registry.GetOrCreate(context.Background(), testIdentity())

	if sess.Profile.Profile() == nil {
		t.Error("expected a lazily created profile")
	}
	if got := sess.Tasks.Tasks(); len(got) != 0 {
		t.Errorf("expected no tasks, got %d", len(got))
	}
}

func TestGetWithoutSession(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry()
	if registry.Get(uuid.New()) != nil {
		t.Error("expected nil for an unknown user")
	}
}

func TestDrop(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry()
	identity := testIdentity()
	sess := registry.GetOrCreate(context.Background(), identity)

	registry.Drop(identity.UserID)

	if registry.Get(identity.UserID) != nil {
		t.Error("expected no session after drop")
	}
	if sess.Profile.Profile() != nil {
		t.Error("expected cleared profile after drop")
	}

	// Dropping again is a no-op
	registry.Drop(identity.UserID)
}

func TestCloseDropsEverySession(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry()
	a := testIdentity()
	b := testIdentity()
	registry.GetOrCreate(context.Background(), a)
	registry.GetOrCreate(context.Background(), b)

	registry.Close()

	if registry.Get(a.UserID) != nil || registry.Get(b.UserID) != nil {
		t.Error("expected all sessions dropped")
	}
}
