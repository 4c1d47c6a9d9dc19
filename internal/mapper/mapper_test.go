package mapper

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kwhite/taskpulse/internal/models"
)

func strPtr(s string) *string { return &s }

func TestNormalizePriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value *string
		want  models.TaskPriority
	}{
		{name: "nil defaults to medium", value: nil, want: models.PriorityMedium},
		{name: "lowercase low", value: strPtr("low"), want: models.PriorityLow},
		{name: "uppercase high", value: strPtr("HIGH"), want: models.PriorityHigh},
		{name: "mixed case medium", value: strPtr("Medium"), want: models.PriorityMedium},
		{name: "padded value", value: strPtr("  High "), want: models.PriorityHigh},
		{name: "unknown defaults to medium", value: strPtr("urgent"), want: models.PriorityMedium},
		{name: "empty defaults to medium", value: strPtr(""), want: models.PriorityMedium},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := NormalizePriority(tt.value); got != tt.want {
				t.Errorf("NormalizePriority(%v) = %s, want %s", tt.value, got, tt.want)
			}
		})
	}
}

func TestTaskFromRow(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	userID := uuid.New()
	row := models.TaskRow{
		ID:          id,
		UserID:      userID,
		Title:       "Write report",
		Description: strPtr("quarterly numbers"),
		DueDate:     strPtr("2024-06-11"),
		Priority:    strPtr("high"),
		Status:      strPtr("completed"),
		Starred:     true,
	}
	subtasks := []models.Subtask{{ID: uuid.New(), Title: "outline", Done: true}}

	task := TaskFromRow(row, subtasks, fixedNow)

	if task.ID != id {
		t.Errorf("ID = %s, want %s", task.ID, id)
	}
	if task.Title != "Write report" {
		t.Errorf("Title = %q", task.Title)
	}
	if task.Description != "quarterly numbers" {
		t.Errorf("Description = %q", task.Description)
	}
	if task.DueDate != "2024-06-11" {
		t.Errorf("DueDate = %q", task.DueDate)
	}
	if task.Priority != models.PriorityHigh {
		t.Errorf("Priority = %s, want High", task.Priority)
	}
	if !task.Completed {
		t.Error("Completed = false, want true for status=completed")
	}
	if !task.Starred {
		t.Error("Starred = false, want true")
	}
	if task.Expanded {
		t.Error("Expanded must initialize to false")
	}
	if task.Group != models.GroupUpcoming || task.Tag != models.TagUpcoming {
		t.Errorf("Group/Tag = %s/%s, want upcoming/Upcoming", task.Group, task.Tag)
	}
	if len(task.Subtasks) != 1 || task.Subtasks[0].Title != "outline" {
		t.Errorf("Subtasks not attached: %+v", task.Subtasks)
	}
}

func TestTaskFromRowDefaults(t *testing.T) {
	t.Parallel()

	row := models.TaskRow{ID: uuid.New(), UserID: uuid.New(), Title: "bare"}
	task := TaskFromRow(row, nil, fixedNow)

	if task.Description != "" || task.DueDate != "" {
		t.Errorf("optional fields should default empty: %+v", task)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("Priority = %s, want Medium default", task.Priority)
	}
	if task.Completed {
		t.Error("Completed = true, want false for missing status")
	}
	if task.Subtasks == nil || len(task.Subtasks) != 0 {
		t.Errorf("Subtasks = %v, want empty non-nil slice", task.Subtasks)
	}
	if task.Group != models.GroupToday || task.Tag != models.TagToday {
		t.Errorf("missing due date should bucket to today, got %s/%s", task.Group, task.Tag)
	}
}

// TestTaskRoundTrip verifies the row fields the task was derived from
// survive the mapping.
func TestTaskRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    *string
		completed bool
	}{
		{name: "pending maps to not completed", status: strPtr("pending"), completed: false},
		{name: "completed maps to completed", status: strPtr("completed"), completed: true},
		{name: "missing status maps to not completed", status: nil, completed: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			row := models.TaskRow{
				ID:          uuid.New(),
				Title:       "roundtrip",
				Description: strPtr("desc"),
				DueDate:     strPtr("2024-06-10"),
				Status:      tt.status,
			}
			task := TaskFromRow(row, nil, fixedNow)

			if task.ID != row.ID || task.Title != row.Title {
				t.Error("identity fields changed in mapping")
			}
			if task.Description != *row.Description || task.DueDate != *row.DueDate {
				t.Error("optional fields changed in mapping")
			}
			if task.Completed != tt.completed {
				t.Errorf("Completed = %v, want %v", task.Completed, tt.completed)
			}
		})
	}
}

func TestEventFromRow(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 6, 10, 9, 30, 0, 0, time.Local)
	end := time.Date(2024, 6, 10, 11, 15, 0, 0, time.Local)

	tests := []struct {
		name      string
		tag       *string
		wantTag   string
		wantStart float64
		wantEnd   float64
	}{
		{name: "tagged event", tag: strPtr("Work"), wantTag: "Work", wantStart: 9.5, wantEnd: 11.25},
		{name: "missing tag defaults to General", tag: nil, wantTag: "General", wantStart: 9.5, wantEnd: 11.25},
		{name: "empty tag defaults to General", tag: strPtr(""), wantTag: "General", wantStart: 9.5, wantEnd: 11.25},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			row := models.EventRow{
				ID:        uuid.New(),
				Title:     "standup",
				StartTime: start,
				EndTime:   end,
				Tag:       tt.tag,
			}
			event := EventFromRow(row)

			if event.StartHour != tt.wantStart || event.EndHour != tt.wantEnd {
				t.Errorf("hours = %v..%v, want %v..%v", event.StartHour, event.EndHour, tt.wantStart, tt.wantEnd)
			}
			if event.Tag != tt.wantTag {
				t.Errorf("Tag = %q, want %q", event.Tag, tt.wantTag)
			}
			if event.Starred {
				t.Error("Starred must initialize to false")
			}
		})
	}
}

func TestActivityFromRow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		action string
		want   models.ActivityType
	}{
		{name: "completed", action: "completed", want: models.ActivityCompleted},
		{name: "starred", action: "starred", want: models.ActivityStarred},
		{name: "added", action: "added", want: models.ActivityAdded},
		{name: "unknown defaults to added", action: "archived", want: models.ActivityAdded},
		{name: "empty defaults to added", action: "", want: models.ActivityAdded},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			row := models.ActivityRow{
				ID:         uuid.New(),
				Action:     tt.action,
				TaskTitle:  "some task",
				OccurredAt: fixedNow,
			}
			entry := ActivityFromRow(row)

			if entry.Type != tt.want {
				t.Errorf("Type = %s, want %s", entry.Type, tt.want)
			}
			if entry.TaskTitle != "some task" || !entry.Timestamp.Equal(fixedNow) {
				t.Errorf("entry fields not copied: %+v", entry)
			}
		})
	}
}
