package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType is the closed set of logged user actions
type ActivityType string

const (
	ActivityCompleted ActivityType = "completed"
	ActivityStarred   ActivityType = "starred"
	ActivityAdded     ActivityType = "added"
)

// ActivityEntry is one record of the append-only activity log. The task
// title is denormalized so the feed survives task deletion.
type ActivityEntry struct {
	ID        uuid.UUID    `json:"id"`
	Type      ActivityType `json:"type"`
	TaskTitle string       `json:"task_title"`
	Timestamp time.Time    `json:"timestamp"`
}

// ActivityRow is the persisted shape of an activity entry
type ActivityRow struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Action     string
	TaskID     *uuid.UUID
	TaskTitle  string
	OccurredAt time.Time
	CreatedAt  time.Time
}

// WeeklyStat is one bar of the weekly completion histogram. Derived,
// never persisted.
type WeeklyStat struct {
	Day       string `json:"day"`
	Completed int    `json:"completed"`
}
