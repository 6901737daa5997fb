package workers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/didyoudo/didyoudo/internal/queue"
	"github.com/didyoudo/didyoudo/internal/report"
)

// ReportDispatcher sends weekly report emails for queued jobs.
type ReportDispatcher struct {
	service      *report.Service
	defaultEmail string
	logger       *zap.Logger
}

// NewReportDispatcher creates a new report dispatcher. defaultEmail is used
// when a job does not carry a recipient.
func NewReportDispatcher(service *report.Service, defaultEmail string, logger *zap.Logger) *ReportDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportDispatcher{
		service:      service,
		defaultEmail: defaultEmail,
		logger:       logger,
	}
}

// ProcessWeeklyReportJob composes and sends the weekly report for a job.
func (d *ReportDispatcher) ProcessWeeklyReportJob(ctx context.Context, job *queue.Job) error {
	email := job.ReportEmail()
	if email == "" {
		email = d.defaultEmail
	}

	result, err := d.service.Send(ctx, email, job.IsTest())
	if err != nil {
		return fmt.Errorf("failed to send weekly report: %w", err)
	}

	d.logger.Info("weekly_report_dispatched",
		zap.String("job_id", job.ID.String()),
		zap.String("email_id", result.EmailID),
		zap.Bool("test", job.IsTest()))

	return nil
}
