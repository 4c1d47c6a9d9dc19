package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeCompletionEmail is a job for sending the task-completed email
	JobTypeCompletionEmail JobType = "completion_email"
)

// DefaultMailTTL bounds how long a completion email stays deliverable.
// A congratulation delivered a day late is worse than none.
const DefaultMailTTL = 24 * time.Hour

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID  `json:"id"`
	Type       JobType    `json:"type"`
	Email      string     `json:"email"`
	TaskTitle  string     `json:"task_title"`
	NotBefore  *time.Time `json:"not_before,omitempty"` // Earliest time to process job (nil = immediate)
	NotAfter   *time.Time `json:"not_after,omitempty"`  // Latest time to process job (nil = no expiration)
	CreatedAt  time.Time  `json:"created_at"`
	RetryCount int        `json:"retry_count"`
	MaxRetries int        `json:"max_retries"`
}

// NewCompletionEmailJob creates a completion email job addressed to the
// recipient, expiring after DefaultMailTTL.
func NewCompletionEmailJob(email, taskTitle string) *Job {
	now := time.Now()
	notAfter := now.Add(DefaultMailTTL)
	return &Job{
		ID:         uuid.New(),
		Type:       JobTypeCompletionEmail,
		Email:      email,
		TaskTitle:  taskTitle,
		NotAfter:   &notAfter,
		CreatedAt:  now,
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}
	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}
	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
