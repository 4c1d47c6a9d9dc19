package queue

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Notifier turns completion notifications into queued email jobs. The
// worker binary drains them, keeping SMTP latency out of the request
// path.
type Notifier struct {
	queue  JobQueue
	logger *zap.Logger
}

// NewNotifier creates a queue-backed notifier
func NewNotifier(queue JobQueue, logger *zap.Logger) *Notifier {
	return &Notifier{queue: queue, logger: logger}
}

// NotifyCompletion enqueues a completion email job for the user
func (n *Notifier) NotifyCompletion(ctx context.Context, to, taskTitle string) error {
	if to == "" {
		return fmt.Errorf("notification recipient is empty")
	}

	job := NewCompletionEmailJob(to, taskTitle)

	if err := n.queue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue completion email: %w", err)
	}

	n.logger.Debug("completion_email_enqueued",
		zap.String("job_id", job.ID.String()),
		zap.String("task_title", taskTitle),
	)
	return nil
}
