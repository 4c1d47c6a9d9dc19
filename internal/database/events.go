package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kwhite/taskpulse/internal/models"
)

// EventRepository handles event database operations
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event row
func (r *EventRepository) Create(ctx context.Context, row *models.EventRow) error {
	query := `
		INSERT INTO events (id, user_id, title, start_time, end_time, event_date, tag, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		row.ID,
		row.UserID,
		row.Title,
		row.StartTime,
		row.EndTime,
		row.EventDate,
		row.Tag,
		now,
		now,
	).Scan(&row.CreatedAt, &row.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// GetByUserID retrieves events for a user ordered by start time,
// optionally restricted to a single calendar day.
func (r *EventRepository) GetByUserID(ctx context.Context, userID uuid.UUID, date *string) ([]models.EventRow, error) {
	query := `
		SELECT id, user_id, title, start_time, end_time, event_date, tag, created_at, updated_at
		FROM events
		WHERE user_id = $1
	`
	args := []any{userID}

	if date != nil {
		query += ` AND event_date = $2`
		args = append(args, *date)
	}

	query += ` ORDER BY start_time ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []models.EventRow
	for rows.Next() {
		var row models.EventRow
		err := rows.Scan(
			&row.ID,
			&row.UserID,
			&row.Title,
			&row.StartTime,
			&row.EndTime,
			&row.EventDate,
			&row.Tag,
			&row.CreatedAt,
			&row.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// Delete removes an event by ID
func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("event not found: %w", sql.ErrNoRows)
	}

	return nil
}
