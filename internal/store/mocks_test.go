package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kwhite/taskpulse/internal/database"
	"github.com/kwhite/taskpulse/internal/models"
	"go.uber.org/zap"
)

var errMock = errors.New("mock failure")

// mockTaskRepo is a minimal in-memory task repository for store tests
type mockTaskRepo struct {
	mu         sync.Mutex
	rows       []models.TaskRow
	failCreate bool
	failUpdate bool
	failDelete bool
	failGet    bool
	getCalls   int
}

func (m *mockTaskRepo) Create(ctx context.Context, row *models.TaskRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate {
		return errMock
	}
	m.rows = append([]models.TaskRow{*row}, m.rows...)
	return nil
}

func (m *mockTaskRepo) GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.TaskRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.failGet {
		return nil, errMock
	}
	out := make([]models.TaskRow, len(m.rows))
	copy(out, m.rows)
	return out, nil
}

func (m *mockTaskRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate {
		return errMock
	}
	for i := range m.rows {
		if m.rows[i].ID == id {
			s := status
			m.rows[i].Status = &s
		}
	}
	return nil
}

func (m *mockTaskRepo) UpdateStarred(ctx context.Context, id uuid.UUID, starred bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate {
		return errMock
	}
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].Starred = starred
		}
	}
	return nil
}

func (m *mockTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete {
		return errMock
	}
	kept := m.rows[:0:0]
	for _, r := range m.rows {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

type mockSubtaskRepo struct {
	mu          sync.Mutex
	rows        []models.SubtaskRow
	failUpdate  bool
	updateCalls int
}

func (m *mockSubtaskRepo) Create(ctx context.Context, row *models.SubtaskRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *row)
	return nil
}

func (m *mockSubtaskRepo) GetByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) ([]models.SubtaskRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(taskIDs))
	for _, id := range taskIDs {
		wanted[id] = true
	}
	var out []models.SubtaskRow
	for _, r := range m.rows {
		if wanted[r.TaskID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockSubtaskRepo) UpdateDone(ctx context.Context, id uuid.UUID, done bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.failUpdate {
		return errMock
	}
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].Done = done
		}
	}
	return nil
}

type mockActivityRepo struct {
	mu      sync.Mutex
	rows    []models.ActivityRow
	created chan string
}

func newMockActivityRepo() *mockActivityRepo {
	return &mockActivityRepo{created: make(chan string, 16)}
}

func (m *mockActivityRepo) Create(ctx context.Context, row *models.ActivityRow) error {
	m.mu.Lock()
	m.rows = append([]models.ActivityRow{*row}, m.rows...)
	m.mu.Unlock()
	m.created <- row.Action
	return nil
}

func (m *mockActivityRepo) GetRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]models.ActivityRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ActivityRow, len(m.rows))
	copy(out, m.rows)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type mockEventRepo struct {
	mu         sync.Mutex
	rows       []models.EventRow
	failDelete bool
	getCalls   int
}

func (m *mockEventRepo) Create(ctx context.Context, row *models.EventRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *row)
	return nil
}

func (m *mockEventRepo) GetByUserID(ctx context.Context, userID uuid.UUID, date *string) ([]models.EventRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	out := make([]models.EventRow, len(m.rows))
	copy(out, m.rows)
	return out, nil
}

func (m *mockEventRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete {
		return errMock
	}
	kept := m.rows[:0:0]
	for _, r := range m.rows {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

type mockProfileRepo struct {
	mu           sync.Mutex
	row          *models.ProfileRow
	failGet      bool
	failCreate   bool
	failUpdate   bool
	createdCalls int
}

func (m *mockProfileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ProfileRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, errMock
	}
	if m.row == nil {
		return nil, fmt.Errorf("profile not found: %w", sql.ErrNoRows)
	}
	row := *m.row
	return &row, nil
}

func (m *mockProfileRepo) Create(ctx context.Context, row *models.ProfileRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createdCalls++
	if m.failCreate {
		return errMock
	}
	r := *row
	m.row = &r
	return nil
}

func (m *mockProfileRepo) UpdateName(ctx context.Context, userID uuid.UUID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate {
		return errMock
	}
	if m.row != nil {
		m.row.Name = name
	}
	return nil
}

func (m *mockProfileRepo) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate {
		return errMock
	}
	if m.row != nil {
		m.row.Avatar = avatarURL
	}
	return nil
}

type mockPublisher struct {
	notices chan string
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{notices: make(chan string, 16)}
}

func (m *mockPublisher) Publish(ctx context.Context, table string, userID uuid.UUID, op string) error {
	m.notices <- table + ":" + op
	return nil
}

type mockNotifier struct {
	calls chan string
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{calls: make(chan string, 16)}
}

func (m *mockNotifier) NotifyCompletion(ctx context.Context, to, taskTitle string) error {
	m.calls <- taskTitle
	return nil
}

// Interface conformance
var (
	_ database.TaskRepositoryInterface     = (*mockTaskRepo)(nil)
	_ database.SubtaskRepositoryInterface  = (*mockSubtaskRepo)(nil)
	_ database.ActivityRepositoryInterface = (*mockActivityRepo)(nil)
	_ database.EventRepositoryInterface    = (*mockEventRepo)(nil)
	_ database.ProfileRepositoryInterface  = (*mockProfileRepo)(nil)
	_ ChangePublisher                      = (*mockPublisher)(nil)
	_ CompletionNotifier                   = (*mockNotifier)(nil)
)

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func testIdentity() *models.Identity {
	return &models.Identity{
		UserID: uuid.New(),
		Email:  "casey@example.com",
		Name:   "Casey Reyes",
	}
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
