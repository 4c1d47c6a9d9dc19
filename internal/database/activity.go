package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kwhite/taskpulse/internal/models"
)

// ActivityRepository handles activity log database operations. The log
// is append-only; entries are never updated or deleted.
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create appends an activity entry
func (r *ActivityRepository) Create(ctx context.Context, row *models.ActivityRow) error {
	query := `
		INSERT INTO activity (id, user_id, action, task_id, task_title, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		row.ID,
		row.UserID,
		row.Action,
		row.TaskID,
		row.TaskTitle,
		row.OccurredAt,
		time.Now(),
	).Scan(&row.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create activity entry: %w", err)
	}

	return nil
}

// GetRecentByUserID retrieves the most recent entries for a user,
// newest first.
func (r *ActivityRepository) GetRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]models.ActivityRow, error) {
	query := `
		SELECT id, user_id, action, task_id, task_title, occurred_at, created_at
		FROM activity
		WHERE user_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	var entries []models.ActivityRow
	for rows.Next() {
		var row models.ActivityRow
		err := rows.Scan(
			&row.ID,
			&row.UserID,
			&row.Action,
			&row.TaskID,
			&row.TaskTitle,
			&row.OccurredAt,
			&row.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entries = append(entries, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity: %w", err)
	}

	return entries, nil
}
