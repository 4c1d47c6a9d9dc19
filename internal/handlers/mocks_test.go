package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kwhite/taskpulse/internal/database"
	"github.com/kwhite/taskpulse/internal/models"
	"github.com/kwhite/taskpulse/internal/request"
	"github.com/kwhite/taskpulse/internal/session"
	"github.com/kwhite/taskpulse/internal/storage"
	"github.com/kwhite/taskpulse/internal/store"
)

// In-memory repository fakes backing a full session registry. Every
// method succeeds; handler behavior under persistence failure is
// covered by the store tests.

type fakeTaskRepo struct {
	mu   sync.Mutex
	rows []models.TaskRow
}

func (f *fakeTaskRepo) Create(_ context.Context, row *models.TaskRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *row)
	return nil
}

func (f *fakeTaskRepo) GetByUserID(_ context.Context, userID uuid.UUID) ([]models.TaskRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.TaskRow
	for _, row := range f.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			s := status
			f.rows[i].Status = &s
		}
	}
	return nil
}

func (f *fakeTaskRepo) UpdateStarred(_ context.Context, id uuid.UUID, starred bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Starred = starred
		}
	}
	return nil
}

func (f *fakeTaskRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	for _, row := range f.rows {
		if row.ID != id {
			kept = append(kept, row)
		}
	}
	f.rows = kept
	return nil
}

type fakeSubtaskRepo struct {
	mu   sync.Mutex
	rows []models.SubtaskRow
}

func (f *fakeSubtaskRepo) Create(_ context.Context, row *models.SubtaskRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *row)
	return nil
}

func (f *fakeSubtaskRepo) GetByTaskIDs(_ context.Context, taskIDs []uuid.UUID) ([]models.SubtaskRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SubtaskRow
	for _, row := range f.rows {
		for _, id := range taskIDs {
			if row.TaskID == id {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

func (f *fakeSubtaskRepo) UpdateDone(_ context.Context, id uuid.UUID, done bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Done = done
		}
	}
	return nil
}

type fakeActivityRepo struct {
	mu   sync.Mutex
	rows []models.ActivityRow
}

func (f *fakeActivityRepo) Create(_ context.Context, row *models.ActivityRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *row)
	return nil
}

func (f *fakeActivityRepo) GetRecentByUserID(_ context.Context, userID uuid.UUID, limit int) ([]models.ActivityRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ActivityRow
	for _, row := range f.rows {
		if row.UserID == userID && len(out) < limit {
			out = append(out, row)
		}
	}
	return out, nil
}

type fakeEventRepo struct {
	mu   sync.Mutex
	rows []models.EventRow
}

func (f *fakeEventRepo) Create(_ context.Context, row *models.EventRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *row)
	return nil
}

func (f *fakeEventRepo) GetByUserID(_ context.Context, userID uuid.UUID, date *string) ([]models.EventRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.EventRow
	for _, row := range f.rows {
		if row.UserID != userID {
			continue
		}
		if date != nil && row.EventDate != *date {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeEventRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	for _, row := range f.rows {
		if row.ID != id {
			kept = append(kept, row)
		}
	}
	f.rows = kept
	return nil
}

type fakeProfileRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.ProfileRow
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{rows: make(map[uuid.UUID]*models.ProfileRow)}
}

func (f *fakeProfileRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*models.ProfileRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[userID]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, fmt.Errorf("profile not found: %w", sql.ErrNoRows)
}

func (f *fakeProfileRepo) Create(_ context.Context, row *models.ProfileRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *row
	f.rows[row.UserID] = &copied
	return nil
}

func (f *fakeProfileRepo) UpdateName(_ context.Context, userID uuid.UUID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[userID]; ok {
		row.Name = name
	}
	return nil
}

func (f *fakeProfileRepo) UpdateAvatar(_ context.Context, userID uuid.UUID, avatarURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[userID]; ok {
		row.Avatar = avatarURL
	}
	return nil
}

type fakePublisher struct{}

func (fakePublisher) Publish(context.Context, string, uuid.UUID, string) error { return nil }

type fakeNotifier struct{}

func (fakeNotifier) NotifyCompletion(context.Context, string, string) error { return nil }

type fakeObjectStorage struct {
	mu      sync.Mutex
	uploads map[string][]byte
}

func newFakeObjectStorage() *fakeObjectStorage {
	return &fakeObjectStorage{uploads: make(map[string][]byte)}
}

func (f *fakeObjectStorage) Upload(_ context.Context, bucket, key string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[bucket+"/"+key] = data
	return "https://objects.test/" + bucket + "/" + key, nil
}

var (
	_ database.TaskRepositoryInterface     = (*fakeTaskRepo)(nil)
	_ database.SubtaskRepositoryInterface  = (*fakeSubtaskRepo)(nil)
	_ database.ActivityRepositoryInterface = (*fakeActivityRepo)(nil)
	_ database.EventRepositoryInterface    = (*fakeEventRepo)(nil)
	_ database.ProfileRepositoryInterface  = (*fakeProfileRepo)(nil)
	_ store.ChangePublisher                = (*fakePublisher)(nil)
	_ store.CompletionNotifier             = (*fakeNotifier)(nil)
	_ storage.ObjectStorage                = (*fakeObjectStorage)(nil)
)

type testEnv struct {
	registry *session.Registry
	taskRepo *fakeTaskRepo
	eventRepo *fakeEventRepo
	profileRepo *fakeProfileRepo
	objects  *fakeObjectStorage
	identity *models.Identity
}

// newTestEnv builds a registry over in-memory fakes. The bridge's
// Redis dial fails immediately against a closed port; sessions work
// without it.
func newTestEnv() *testEnv {
	taskRepo := &fakeTaskRepo{}
	eventRepo := &fakeEventRepo{}
	profileRepo := newFakeProfileRepo()
	objects := newFakeObjectStorage()

	registry := session.NewRegistry(session.Deps{
		TaskRepo:     taskRepo,
		SubtaskRepo:  &fakeSubtaskRepo{},
		ActivityRepo: &fakeActivityRepo{},
		EventRepo:    eventRepo,
		ProfileRepo:  profileRepo,
		Publisher:    fakePublisher{},
		Notifier:     fakeNotifier{},
		Objects:      objects,
		Redis:        redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}),
		Logger:       zap.NewNop(),
	})

	return &testEnv{
		registry:    registry,
		taskRepo:    taskRepo,
		eventRepo:   eventRepo,
		profileRepo: profileRepo,
		objects:     objects,
		identity: &models.Identity{
			UserID: uuid.New(),
			Email:  "casey@example.com",
			Name:   "Casey Reyes",
		},
	}
}

// serve runs one request through a fresh router with the identity
// attached, the way the auth middleware would
func (e *testEnv) serve(register func(*mux.Router), req *http.Request) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	register(router)

	if e.identity != nil {
		req = req.WithContext(request.WithIdentity(req.Context(), e.identity))
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
