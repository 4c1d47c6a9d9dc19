package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kwhite/taskpulse/internal/models"
	"github.com/lib/pq"
)

// SubtaskRepository handles subtask database operations
type SubtaskRepository struct {
	db *DB
}

// NewSubtaskRepository creates a new subtask repository
func NewSubtaskRepository(db *DB) *SubtaskRepository {
	return &SubtaskRepository{db: db}
}

// Create inserts a new subtask row
func (r *SubtaskRepository) Create(ctx context.Context, row *models.SubtaskRow) error {
	query := `
		INSERT INTO subtasks (id, task_id, user_id, title, done, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		row.ID,
		row.TaskID,
		row.UserID,
		row.Title,
		row.Done,
		now,
		now,
	).Scan(&row.CreatedAt, &row.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create subtask: %w", err)
	}

	return nil
}

// GetByTaskIDs retrieves all subtasks whose parent is in the given set,
// in creation order.
func (r *SubtaskRepository) GetByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) ([]models.SubtaskRow, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, task_id, user_id, title, done, created_at, updated_at
		FROM subtasks
		WHERE task_id = ANY($1)
		ORDER BY created_at ASC
	`

	ids := make([]string, len(taskIDs))
	for i, id := range taskIDs {
		ids[i] = id.String()
	}

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query subtasks: %w", err)
	}
	defer rows.Close()

	var subtasks []models.SubtaskRow
	for rows.Next() {
		var row models.SubtaskRow
		err := rows.Scan(
			&row.ID,
			&row.TaskID,
			&row.UserID,
			&row.Title,
			&row.Done,
			&row.CreatedAt,
			&row.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subtask: %w", err)
		}
		subtasks = append(subtasks, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subtasks: %w", err)
	}

	return subtasks, nil
}

// UpdateDone sets the done flag, keyed by the subtask's own id
func (r *SubtaskRepository) UpdateDone(ctx context.Context, id uuid.UUID, done bool) error {
	query := `UPDATE subtasks SET done = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, done, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update subtask: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("subtask not found: %w", sql.ErrNoRows)
	}

	return nil
}
