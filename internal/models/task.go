package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskPriority represents how urgent a task is
type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

// Weight returns the scoring weight used by the analytics engine
func (p TaskPriority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityLow:
		return 1
	default:
		return 2
	}
}

// TaskStatus represents the persisted status of a task
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// TaskGroup is the date-derived bucket a task is displayed under
type TaskGroup string

const (
	GroupOverdue  TaskGroup = "overdue"
	GroupToday    TaskGroup = "today"
	GroupUpcoming TaskGroup = "upcoming"
)

// TaskTag is the date-derived display label for a task
type TaskTag string

const (
	TagToday     TaskTag = "Today"
	TagYesterday TaskTag = "Yesterday"
	TagOverdue   TaskTag = "Overdue"
	TagUpcoming  TaskTag = "Upcoming"
)

// Subtask is a child checklist item of a task
type Subtask struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Done  bool      `json:"done"`
}

// Task is a user-created to-do item with optional scheduling metadata.
// Group and Tag are derived from DueDate and the current date; they are
// never persisted independently of DueDate.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	DueDate     string       `json:"due_date,omitempty"`
	Priority    TaskPriority `json:"priority"`
	Completed   bool         `json:"completed"`
	Starred     bool         `json:"starred"`
	Expanded    bool         `json:"expanded"` // UI-only, never persisted
	Group       TaskGroup    `json:"group"`
	Tag         TaskTag      `json:"tag"`
	Subtasks    []Subtask    `json:"subtasks"`
}

// TaskRow is the persisted shape of a task
type TaskRow struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Title       string
	Description *string
	DueDate     *string
	Priority    *string
	Status      *string
	Starred     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SubtaskRow is the persisted shape of a subtask
type SubtaskRow struct {
	ID        uuid.UUID
	TaskID    uuid.UUID
	UserID    uuid.UUID
	Title     string
	Done      bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTaskInput carries the caller-supplied fields for task creation
type NewTaskInput struct {
	Title       string       `json:"title" validate:"required,min=1,max=500"`
	Description string       `json:"description,omitempty" validate:"max=10000"`
	DueDate     string       `json:"due_date,omitempty"`
	Priority    TaskPriority `json:"priority,omitempty" validate:"task_priority"`
	Starred     bool         `json:"starred,omitempty"`
}
