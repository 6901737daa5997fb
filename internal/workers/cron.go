package workers

import (
	"context"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/didyoudo/didyoudo/internal/notify"
	"github.com/didyoudo/didyoudo/internal/prefs"
	"github.com/didyoudo/didyoudo/internal/queue"
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// JobScheduler fires recurring queue jobs at the times configured in
// the preference store. It checks once per minute, so preference
// changes take effect without a worker restart.
type JobScheduler struct {
	jobQueue   queue.JobQueue
	prefStore  prefs.Store
	dispatcher *notify.Dispatcher
	logger     *zap.Logger
	cron       *cron.Cron
	now        func() time.Time
}

// NewJobScheduler creates a scheduler over the preference store.
// dispatcher may be nil when notification delivery is handled elsewhere.
func NewJobScheduler(jobQueue queue.JobQueue, prefStore prefs.Store, dispatcher *notify.Dispatcher, logger *zap.Logger) *JobScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobScheduler{
		jobQueue:   jobQueue,
		prefStore:  prefStore,
		dispatcher: dispatcher,
		logger:     logger,
		cron:       cron.New(),
		now:        time.Now,
	}
}

// WithClock overrides the time source. Used in tests.
func (s *JobScheduler) WithClock(now func() time.Time) *JobScheduler {
	s.now = now
	return s
}

// Start registers the cron entries and begins ticking.
func (s *JobScheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc("* * * * *", func() { s.Tick(ctx) }); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop. Running jobs finish before it returns.
func (s *JobScheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}

// Tick runs one scheduling pass for the current minute. Exported so
// the worker can trigger an immediate pass on startup.
func (s *JobScheduler) Tick(ctx context.Context) {
	now := s.now()
	s.checkReplan(ctx, now)
	s.checkWeeklyReport(ctx, now)
	s.sweepDeliveries(ctx, now)
}

func (s *JobScheduler) checkReplan(ctx context.Context, now time.Time) {
	if !prefs.NotificationsEnabled(ctx, s.prefStore) {
		return
	}
	hour, minute := prefs.ReminderTime(ctx, s.prefStore)
	if now.Hour() != hour || now.Minute() != minute {
		return
	}

	job := queue.NewJob(queue.JobTypeReplan)
	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		s.logger.Error("failed_to_enqueue_replan_job", zap.Error(err))
		return
	}
	s.logger.Info("replan_job_enqueued",
		zap.String("job_id", job.ID.String()),
	)
}

func (s *JobScheduler) checkWeeklyReport(ctx context.Context, now time.Time) {
	day := prefs.DefaultReportDay
	if value, found, err := s.prefStore.Get(ctx, prefs.KeyReportDay); err == nil && found {
		day = value
	}
	weekday, ok := weekdayNames[strings.ToLower(day)]
	if !ok {
		s.logger.Warn("invalid_report_day_preference", zap.String("day", day))
		return
	}
	if now.Weekday() != weekday {
		return
	}

	reportTime := prefs.DefaultReportTime
	if value, found, err := s.prefStore.Get(ctx, prefs.KeyReportTime); err == nil && found {
		reportTime = value
	}
	hour, minute, err := prefs.ParseTime(reportTime)
	if err != nil {
		s.logger.Warn("invalid_report_time_preference", zap.String("time", reportTime))
		return
	}
	if now.Hour() != hour || now.Minute() != minute {
		return
	}

	email := ""
	if value, found, err := s.prefStore.Get(ctx, prefs.KeyReportEmail); err == nil && found {
		email = value
	}

	job := queue.NewWeeklyReportJob(email, false)
	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		s.logger.Error("failed_to_enqueue_weekly_report_job", zap.Error(err))
		return
	}
	s.logger.Info("weekly_report_job_enqueued",
		zap.String("job_id", job.ID.String()),
	)
}

func (s *JobScheduler) sweepDeliveries(ctx context.Context, now time.Time) {
	if s.dispatcher == nil {
		return
	}
	dispatched, err := s.dispatcher.DispatchDue(ctx, now)
	if err != nil {
		s.logger.Error("failed_to_dispatch_due_notifications", zap.Error(err))
		return
	}
	if dispatched > 0 {
		s.logger.Info("notifications_dispatched", zap.Int("count", dispatched))
	}
}
