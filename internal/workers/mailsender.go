package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/kwhite/taskpulse/internal/mailer"
	"github.com/kwhite/taskpulse/internal/queue"
	"go.uber.org/zap"
)

// MailSender processes completion email jobs
type MailSender struct {
	mailer   mailer.Mailer
	jobQueue queue.JobQueue // For re-enqueueing failed jobs with backoff
	logger   *zap.Logger
}

// NewMailSender creates a new mail sender
func NewMailSender(m mailer.Mailer, jobQueue queue.JobQueue, logger *zap.Logger) *MailSender {
	return &MailSender{
		mailer:   m,
		jobQueue: jobQueue,
		logger:   logger,
	}
}

// ProcessCompletionEmailJob delivers a single completion email
func (s *MailSender) ProcessCompletionEmailJob(ctx context.Context, job *queue.Job) error {
	if job.Email == "" {
		return fmt.Errorf("email is required for completion email job")
	}

	if err := s.mailer.SendCompletionEmail(ctx, job.Email, job.TaskTitle); err != nil {
		return fmt.Errorf("failed to send completion email: %w", err)
	}

	s.logger.Info("completion_email_sent",
		zap.String("job_id", job.ID.String()),
		zap.String("task_title", job.TaskTitle),
	)
	return nil
}

// ProcessJob processes a job based on its type
func (s *MailSender) ProcessJob(ctx context.Context, msg *queue.Message) error {
	job := msg.Job

	if job.IsExpired() {
		s.logger.Warn("dropping_expired_job", zap.String("job_id", job.ID.String()))
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack expired job: %w", ackErr)
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeCompletionEmail:
		if err := s.ProcessCompletionEmailJob(ctx, job); err != nil {
			return s.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	default:
		// Unknown job type, send to DLQ
		if nackErr := msg.Nack(false); nackErr != nil {
			s.logger.Error("failed_to_nack_unknown_job", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError retries delivery failures with a delayed re-enqueue
// until MaxRetries, then dead-letters the job.
func (s *MailSender) handleJobError(ctx context.Context, msg *queue.Message, job *queue.Job, err error) error {
	if !job.CanRetry() {
		s.logger.Error("mail_job_exhausted_retries",
			zap.String("job_id", job.ID.String()),
			zap.Int("retries", job.RetryCount),
			zap.Error(err),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			return fmt.Errorf("failed to nack exhausted job: %w", nackErr)
		}
		return err
	}

	notBefore := time.Now().Add(retryDelay(job.RetryCount))
	retried := &queue.Job{
		ID:         job.ID,
		Type:       job.Type,
		Email:      job.Email,
		TaskTitle:  job.TaskTitle,
		NotBefore:  &notBefore,
		NotAfter:   job.NotAfter,
		CreatedAt:  job.CreatedAt,
		RetryCount: job.RetryCount + 1,
		MaxRetries: job.MaxRetries,
	}

	if enqueueErr := s.jobQueue.Enqueue(ctx, retried); enqueueErr != nil {
		// Could not re-enqueue; requeue the original delivery instead
		s.logger.Error("failed_to_requeue_mail_job",
			zap.String("job_id", job.ID.String()),
			zap.Error(enqueueErr),
		)
		if nackErr := msg.Nack(true); nackErr != nil {
			return fmt.Errorf("failed to nack job after enqueue failure: %w", nackErr)
		}
		return err
	}

	s.logger.Warn("mail_job_retry_scheduled",
		zap.String("job_id", job.ID.String()),
		zap.Int("retry", retried.RetryCount),
		zap.Time("not_before", notBefore),
		zap.Error(err),
	)

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job before retry: %w", ackErr)
	}
	return nil
}

// retryDelay backs off exponentially: 30s, 1m, 2m, ...
func retryDelay(retryCount int) time.Duration {
	delay := 30 * time.Second
	for i := 0; i < retryCount; i++ {
		delay *= 2
	}
	return delay
}
