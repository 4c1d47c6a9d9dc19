package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultEventTag is applied when an event has no tag of its own
const DefaultEventTag = "General"

// EventItem is a calendar event positioned by fractional hour-of-day.
// Starred is a local-only interaction; the events table has no starred
// column.
type EventItem struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	StartHour float64   `json:"start_hour"`
	EndHour   float64   `json:"end_hour"`
	Tag       string    `json:"tag"`
	Starred   bool      `json:"starred"`
}

// EventRow is the persisted shape of an event
type EventRow struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	StartTime time.Time
	EndTime   time.Time
	EventDate string
	Tag       *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewEventInput carries the caller-supplied fields for event creation
type NewEventInput struct {
	Title     string  `json:"title" validate:"required,min=1,max=500"`
	Date      string  `json:"date" validate:"required"`
	StartHour float64 `json:"start_hour" validate:"gte=0,lt=24"`
	EndHour   float64 `json:"end_hour" validate:"gte=0,lte=24"`
	Tag       string  `json:"tag,omitempty" validate:"max=100"`
}
