package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/kwhite/taskpulse/internal/models"
)

// TaskRepositoryInterface defines the interface for task repository operations
// This interface enables better testability by allowing mock implementations
type TaskRepositoryInterface interface {
	Create(ctx context.Context, row *models.TaskRow) error
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.TaskRow, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateStarred(ctx context.Context, id uuid.UUID, starred bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SubtaskRepositoryInterface defines the interface for subtask repository operations
type SubtaskRepositoryInterface interface {
	Create(ctx context.Context, row *models.SubtaskRow) error
	GetByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) ([]models.SubtaskRow, error)
	UpdateDone(ctx context.Context, id uuid.UUID, done bool) error
}

// EventRepositoryInterface defines the interface for event repository operations
type EventRepositoryInterface interface {
	Create(ctx context.Context, row *models.EventRow) error
	GetByUserID(ctx context.Context, userID uuid.UUID, date *string) ([]models.EventRow, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ActivityRepositoryInterface defines the interface for activity repository operations
type ActivityRepositoryInterface interface {
	Create(ctx context.Context, row *models.ActivityRow) error
	GetRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]models.ActivityRow, error)
}

// ProfileRepositoryInterface defines the interface for profile repository operations
type ProfileRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ProfileRow, error)
	Create(ctx context.Context, row *models.ProfileRow) error
	UpdateName(ctx context.Context, userID uuid.UUID, name string) error
	UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error
}

// Ensure concrete types implement the interfaces
var (
	_ TaskRepositoryInterface     = (*TaskRepository)(nil)
	_ SubtaskRepositoryInterface  = (*SubtaskRepository)(nil)
	_ EventRepositoryInterface    = (*EventRepository)(nil)
	_ ActivityRepositoryInterface = (*ActivityRepository)(nil)
	_ ProfileRepositoryInterface  = (*ProfileRepository)(nil)
)
