package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kwhite/taskpulse/internal/models"
)

// ProfileRepository handles profile database operations
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByUserID retrieves the profile row for a user. Wraps
// sql.ErrNoRows when no profile exists yet.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ProfileRow, error) {
	row := &models.ProfileRow{}
	query := `
		SELECT id, user_id, name, email, avatar, productivity_score, streak, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&row.ID,
		&row.UserID,
		&row.Name,
		&row.Email,
		&row.Avatar,
		&row.ProductivityScore,
		&row.Streak,
		&row.CreatedAt,
		&row.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return row, nil
}

// Create inserts a new profile row
func (r *ProfileRepository) Create(ctx context.Context, row *models.ProfileRow) error {
	query := `
		INSERT INTO profiles (id, user_id, name, email, avatar, productivity_score, streak, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		row.ID,
		row.UserID,
		row.Name,
		row.Email,
		row.Avatar,
		row.ProductivityScore,
		row.Streak,
		now,
		now,
	).Scan(&row.CreatedAt, &row.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// UpdateName sets the profile name for a user
func (r *ProfileRepository) UpdateName(ctx context.Context, userID uuid.UUID, name string) error {
	return r.updateColumn(ctx, userID, "name", name)
}

// UpdateAvatar sets the avatar URL for a user
func (r *ProfileRepository) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error {
	return r.updateColumn(ctx, userID, "avatar", avatarURL)
}

func (r *ProfileRepository) updateColumn(ctx context.Context, userID uuid.UUID, column string, value any) error {
	query := fmt.Sprintf(`UPDATE profiles SET %s = $2, updated_at = $3 WHERE user_id = $1`, column)

	result, err := r.db.ExecContext(ctx, query, userID, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update profile %s: %w", column, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("profile not found: %w", sql.ErrNoRows)
	}

	return nil
}
