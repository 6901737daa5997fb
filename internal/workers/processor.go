package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/didyoudo/didyoudo/internal/queue"
)

// retryDelay returns the backoff before the next attempt of a failed job.
func retryDelay(retryCount int) time.Duration {
	delay := 30 * time.Second * time.Duration(1<<uint(min(retryCount, 5)))
	if delay > 10*time.Minute {
		delay = 10 * time.Minute
	}
	return delay
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Processor routes queue jobs to their workers and owns the consume loop.
type Processor struct {
	jobQueue   queue.JobQueue
	replanner  *Replanner
	dispatcher *ReportDispatcher
	logger     *zap.Logger
}

// NewProcessor creates a new job processor
func NewProcessor(jobQueue queue.JobQueue, replanner *Replanner, dispatcher *ReportDispatcher, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		jobQueue:   jobQueue,
		replanner:  replanner,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// ProcessJob executes one job based on its type.
func (p *Processor) ProcessJob(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeReplan:
		return p.replanner.ProcessReplanJob(ctx, job)
	case queue.JobTypeWeeklyReport:
		return p.dispatcher.ProcessWeeklyReportJob(ctx, job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// Run consumes jobs until ctx is cancelled. Failed jobs are retried with
// backoff until their retry budget is exhausted, then dead-lettered.
func (p *Processor) Run(ctx context.Context, prefetchCount int) error {
	msgs, errs, err := p.jobQueue.Consume(ctx, prefetchCount)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case consumeErr, ok := <-errs:
			if !ok {
				return nil
			}
			p.logger.Error("consume_error", zap.Error(consumeErr))
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			p.handleMessage(ctx, msg)
		}
	}
}

func (p *Processor) handleMessage(ctx context.Context, msg queue.MessageInterface) {
	job := msg.GetJob()

	if job.IsExpired() {
		p.logger.Warn("job_expired",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)))
		if err := msg.Nack(false); err != nil {
			p.logger.Error("nack_failed", zap.Error(err))
		}
		return
	}

	err := p.ProcessJob(ctx, job)
	if err == nil {
		if ackErr := msg.Ack(); ackErr != nil {
			p.logger.Error("ack_failed", zap.Error(ackErr))
		}
		return
	}

	p.logger.Error("job_failed",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.Int("retry_count", job.RetryCount),
		zap.Error(err))

	if !job.CanRetry() {
		// Retry budget exhausted, dead-letter the message.
		if nackErr := msg.Nack(false); nackErr != nil {
			p.logger.Error("nack_failed", zap.Error(nackErr))
		}
		return
	}

	job.IncrementRetry()
	notBefore := time.Now().Add(retryDelay(job.RetryCount))
	job.NotBefore = &notBefore
	if enqErr := p.jobQueue.Enqueue(ctx, job); enqErr != nil {
		p.logger.Error("retry_enqueue_failed", zap.Error(enqErr))
		// Requeue the original delivery so the job is not lost.
		if nackErr := msg.Nack(true); nackErr != nil {
			p.logger.Error("nack_failed", zap.Error(nackErr))
		}
		return
	}
	if ackErr := msg.Ack(); ackErr != nil {
		p.logger.Error("ack_failed", zap.Error(ackErr))
	}
}
