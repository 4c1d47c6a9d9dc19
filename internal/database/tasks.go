package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kwhite/taskpulse/internal/models"
)

// TaskRepository handles task database operations
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new task row
func (r *TaskRepository) Create(ctx context.Context, row *models.TaskRow) error {
	query := `
		INSERT INTO tasks (id, user_id, title, description, due_date, priority, status, starred, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		row.ID,
		row.UserID,
		row.Title,
		row.Description,
		row.DueDate,
		row.Priority,
		row.Status,
		row.Starred,
		now,
		now,
	).Scan(&row.CreatedAt, &row.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetByUserID retrieves all tasks for a user, newest first
func (r *TaskRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.TaskRow, error) {
	query := `
		SELECT id, user_id, title, description, due_date, priority, status, starred, created_at, updated_at
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.TaskRow
	for rows.Next() {
		var row models.TaskRow
		err := rows.Scan(
			&row.ID,
			&row.UserID,
			&row.Title,
			&row.Description,
			&row.DueDate,
			&row.Priority,
			&row.Status,
			&row.Starred,
			&row.CreatedAt,
			&row.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// UpdateStatus sets the status column for a task
func (r *TaskRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.updateColumn(ctx, id, "status", status)
}

// UpdateStarred sets the starred column for a task
func (r *TaskRepository) UpdateStarred(ctx context.Context, id uuid.UUID, starred bool) error {
	return r.updateColumn(ctx, id, "starred", starred)
}

func (r *TaskRepository) updateColumn(ctx context.Context, id uuid.UUID, column string, value any) error {
	// column is always a compile-time constant from the exported methods
	query := fmt.Sprintf(`UPDATE tasks SET %s = $2, updated_at = $3 WHERE id = $1`, column)

	result, err := r.db.ExecContext(ctx, query, id, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update task %s: %w", column, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("task not found: %w", sql.ErrNoRows)
	}

	return nil
}

// Delete removes a task by ID
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("task not found: %w", sql.ErrNoRows)
	}

	return nil
}
