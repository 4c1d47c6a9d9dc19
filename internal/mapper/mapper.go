// Package mapper holds the pure transforms between persisted rows and
// in-memory domain entities, plus the date categorization they depend
// on. Every function here is total over its input: missing or malformed
// optional fields degrade to defaults, never to an error.
package mapper

import (
	"strings"
	"time"

	"github.com/kwhite/taskpulse/internal/models"
)

// NormalizePriority maps an arbitrary-case priority string onto the
// closed priority set, defaulting unknown or missing values to Medium.
func NormalizePriority(value *string) models.TaskPriority {
	if value == nil {
		return models.PriorityMedium
	}
	switch strings.ToLower(strings.TrimSpace(*value)) {
	case "low":
		return models.PriorityLow
	case "high":
		return models.PriorityHigh
	default:
		return models.PriorityMedium
	}
}

// TaskFromRow materializes a persisted task with its subtasks. Group
// and tag are derived from the due date against now; Expanded always
// starts false.
func TaskFromRow(row models.TaskRow, subtasks []models.Subtask, now time.Time) models.Task {
	dueDate := ""
	if row.DueDate != nil {
		dueDate = *row.DueDate
	}
	description := ""
	if row.Description != nil {
		description = *row.Description
	}

	group, tag := Categorize(dueDate, now)

	if subtasks == nil {
		subtasks = []models.Subtask{}
	}

	completed := false
	if row.Status != nil && *row.Status == string(models.TaskStatusCompleted) {
		completed = true
	}

	return models.Task{
		ID:          row.ID,
		Title:       row.Title,
		Description: description,
		DueDate:     dueDate,
		Priority:    NormalizePriority(row.Priority),
		Completed:   completed,
		Starred:     row.Starred,
		Expanded:    false,
		Group:       group,
		Tag:         tag,
		Subtasks:    subtasks,
	}
}

// SubtaskFromRow copies the persisted subtask fields
func SubtaskFromRow(row models.SubtaskRow) models.Subtask {
	return models.Subtask{
		ID:    row.ID,
		Title: row.Title,
		Done:  row.Done,
	}
}

// EventFromRow converts the absolute start/end instants into fractional
// local hours-of-day. Starred always starts false: events have no
// persisted star.
func EventFromRow(row models.EventRow) models.EventItem {
	tag := models.DefaultEventTag
	if row.Tag != nil && *row.Tag != "" {
		tag = *row.Tag
	}

	return models.EventItem{
		ID:        row.ID,
		Title:     row.Title,
		StartHour: FractionalHour(row.StartTime),
		EndHour:   FractionalHour(row.EndTime),
		Tag:       tag,
		Starred:   false,
	}
}

// FractionalHour extracts the local hour-of-day with minutes as the
// fractional part.
func FractionalHour(t time.Time) float64 {
	local := t.Local()
	return float64(local.Hour()) + float64(local.Minute())/60
}

// ActivityFromRow maps a free-text action code onto the closed activity
// type set, defaulting unrecognized codes to "added".
func ActivityFromRow(row models.ActivityRow) models.ActivityEntry {
	entryType := models.ActivityAdded
	switch row.Action {
	case string(models.ActivityCompleted):
		entryType = models.ActivityCompleted
	case string(models.ActivityStarred):
		entryType = models.ActivityStarred
	}

	return models.ActivityEntry{
		ID:        row.ID,
		Type:      entryType,
		TaskTitle: row.TaskTitle,
		Timestamp: row.OccurredAt,
	}
}

// ProfileFromRow copies the persisted profile fields
func ProfileFromRow(row models.ProfileRow) models.Profile {
	return models.Profile{
		ID:                row.ID,
		UserID:            row.UserID,
		Name:              row.Name,
		Email:             row.Email,
		Avatar:            row.Avatar,
		ProductivityScore: row.ProductivityScore,
		Streak:            row.Streak,
	}
}
