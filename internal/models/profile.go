package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the user's profile record, created lazily on first load.
// ProductivityScore and Streak are persisted mirrors; the analytics
// engine recomputes the live values independently.
type Profile struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"user_id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Avatar            string    `json:"avatar"`
	ProductivityScore int       `json:"productivity_score"`
	Streak            int       `json:"streak"`
}

// ProfileRow is the persisted shape of a profile
type ProfileRow struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Name              string
	Email             string
	Avatar            string
	ProductivityScore int
	Streak            int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Identity is the authenticated principal the stores operate for. Name
// and AvatarURL come from the token's profile claims and may be empty.
type Identity struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}
