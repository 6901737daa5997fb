package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/didyoudo/didyoudo/internal/dateutil"
	"github.com/didyoudo/didyoudo/internal/models"
	"github.com/didyoudo/didyoudo/internal/notify"
	"go.uber.org/zap"
)

const (
	// maxTasksInDigest is how many task titles the grouped notification
	// body lists before truncating to an "et N autres" line.
	maxTasksInDigest = 5

	groupedTitleSingular = "📋 %d tâche en attente"
	groupedTitlePlural   = "📋 %d tâches en attente"

	dailyReminderTitle  = "🔔 Rappel quotidien"
	weeklyReminderTitle = "📅 Rappel hebdomadaire"
)

// Config is the reminder configuration threaded into every planning
// call. It is read once per call, never fetched internally.
type Config struct {
	Hour    int
	Minute  int
	Enabled bool
}

// Scheduler owns the pending notification set. Replanning is a full
// cancel-and-recompute cycle, so calling it repeatedly with the same
// task snapshot converges on the same schedule.
type Scheduler struct {
	sink        notify.Sink
	logger      *zap.Logger
	now         func() time.Time
	activeCount int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a scheduler over the given sink.
func New(sink notify.Sink, logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		sink:   sink,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ActiveCount returns the eligible-task count from the last replan,
// exposed for badge display.
func (s *Scheduler) ActiveCount() int {
	return s.activeCount
}

// Replan recomputes the full reminder schedule from a task snapshot.
//
// The cancel phase always completes before the schedule phase begins.
// Permission absence and sink failures are logged and swallowed:
// planning is best-effort and must never crash the caller. The next
// replan cycle corrects any drift left by a partial failure.
func (s *Scheduler) Replan(ctx context.Context, tasks []*models.Task, cfg Config) {
	granted, err := s.sink.CheckPermission(ctx)
	if err != nil {
		s.logger.Error("failed_to_check_notification_permission", zap.Error(err))
		return
	}
	if !granted {
		s.logger.Info("notification_permission_not_granted_skipping_replan")
		return
	}

	// Cancel everything outstanding first so nothing stale survives a
	// cadence or reminder-time change.
	if !s.cancelAll(ctx) {
		return
	}

	if !cfg.Enabled {
		s.activeCount = 0
		s.logger.Info("notifications_disabled_schedule_cleared")
		return
	}

	now := s.now()
	eligible := filterEligible(tasks, now)
	s.activeCount = len(eligible)

	if len(eligible) == 0 {
		s.logger.Info("no_eligible_tasks_nothing_to_schedule")
		return
	}

	entry := notify.Entry{
		ID:             notify.GroupedReminderID,
		Title:          groupedTitle(len(eligible)),
		Body:           groupedBody(eligible),
		TriggerAt:      nextDailyTrigger(now, cfg),
		AllowWhileIdle: true,
		Metadata:       map[string]any{"grouped": true},
	}

	if err := s.sink.Schedule(ctx, []notify.Entry{entry}); err != nil {
		s.logger.Error("failed_to_schedule_grouped_reminder",
			zap.Int("eligible_count", len(eligible)),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("grouped_reminder_scheduled",
		zap.Int("eligible_count", len(eligible)),
		zap.Time("trigger_at", entry.TriggerAt),
	)
}

// ScheduleOne plans a single per-task reminder. It is the finer-grained
// alternative to the grouped flow: cadence is derived from the due date
// at planning time, and the reminder id is derived deterministically
// from the task id so replanning the same task overwrites its slot.
func (s *Scheduler) ScheduleOne(ctx context.Context, task *models.Task, cfg Config) {
	now := s.now()
	if !task.IsEligibleForReminder(now) || !cfg.Enabled {
		return
	}

	granted, err := s.sink.CheckPermission(ctx)
	if err != nil {
		s.logger.Error("failed_to_check_notification_permission", zap.Error(err))
		return
	}
	if !granted {
		return
	}

	var entry notify.Entry
	switch task.DeriveFrequency(now) {
	case models.FrequencyDaily:
		entry = notify.Entry{
			Title:     dailyReminderTitle,
			TriggerAt: nextDailyTrigger(now, cfg),
		}
	default:
		anchor := task.CreatedAt
		if task.LastReminderSent != nil {
			anchor = *task.LastReminderSent
		}
		entry = notify.Entry{
			Title:     weeklyReminderTitle,
			TriggerAt: nextWeeklyTrigger(anchor, now, cfg),
		}
	}

	entry.ID = ReminderID(task.ID)
	entry.Body = fmt.Sprintf("Tâche: %s", task.Title)
	entry.AllowWhileIdle = true
	entry.Metadata = map[string]any{"task_id": task.ID.String()}

	if err := s.sink.Schedule(ctx, []notify.Entry{entry}); err != nil {
		s.logger.Error("failed_to_schedule_task_reminder",
			zap.String("task_id", task.ID.String()),
			zap.Error(err),
		)
		return
	}

	s.logger.Debug("task_reminder_scheduled",
		zap.String("task_id", task.ID.String()),
		zap.Time("trigger_at", entry.TriggerAt),
	)
}

// SendTest fires an immediate test notification. Unlike planning it
// reports permission denial as an error, since the caller explicitly
// asked for feedback.
func (s *Scheduler) SendTest(ctx context.Context) error {
	granted, err := s.sink.CheckPermission(ctx)
	if err != nil {
		return fmt.Errorf("failed to check permission: %w", err)
	}
	if !granted {
		granted, err = s.sink.RequestPermission(ctx)
		if err != nil {
			return fmt.Errorf("failed to request permission: %w", err)
		}
		if !granted {
			return fmt.Errorf("notification permission denied")
		}
	}

	entry := notify.Entry{
		ID:             notify.TestNotificationID,
		Title:          "✅ Notification de test",
		Body:           "Les notifications fonctionnent correctement ! 🎉",
		TriggerAt:      s.now().Add(5 * time.Second),
		AllowWhileIdle: true,
	}

	if err := s.sink.Schedule(ctx, []notify.Entry{entry}); err != nil {
		return fmt.Errorf("failed to schedule test notification: %w", err)
	}
	return nil
}

// CancelAll removes every pending reminder.
func (s *Scheduler) CancelAll(ctx context.Context) {
	if s.cancelAll(ctx) {
		s.activeCount = 0
	}
}

// cancelAll cancels every pending entry, reporting whether the cancel
// phase completed.
func (s *Scheduler) cancelAll(ctx context.Context) bool {
	pending, err := s.sink.ListPending(ctx)
	if err != nil {
		s.logger.Error("failed_to_list_pending_reminders", zap.Error(err))
		return false
	}
	if len(pending) == 0 {
		return true
	}

	ids := make([]int32, len(pending))
	for i, entry := range pending {
		ids[i] = entry.ID
	}
	if err := s.sink.Cancel(ctx, ids); err != nil {
		s.logger.Error("failed_to_cancel_pending_reminders",
			zap.Int("pending_count", len(ids)),
			zap.Error(err),
		)
		return false
	}
	return true
}

// filterEligible keeps tasks that are candidates for reminders,
// preserving input order.
func filterEligible(tasks []*models.Task, now time.Time) []*models.Task {
	var eligible []*models.Task
	for _, task := range tasks {
		if task.IsEligibleForReminder(now) {
			eligible = append(eligible, task)
		}
	}
	return eligible
}

// nextDailyTrigger returns today at the configured time, or the same
// time tomorrow when today's slot is not strictly in the future.
func nextDailyTrigger(now time.Time, cfg Config) time.Time {
	trigger := dateutil.At(now, cfg.Hour, cfg.Minute)
	if !trigger.After(now) {
		trigger = trigger.AddDate(0, 0, 1)
	}
	return trigger
}

// nextWeeklyTrigger returns the first 7-day multiple of the anchor, at
// the configured time, strictly after now. Whole elapsed weeks are
// computed arithmetically so an anchor far in the past costs no
// iteration.
func nextWeeklyTrigger(anchor, now time.Time, cfg Config) time.Time {
	trigger := dateutil.At(anchor, cfg.Hour, cfg.Minute).AddDate(0, 0, 7)
	if trigger.After(now) {
		return trigger
	}

	weeks := int(now.Sub(trigger).Hours()/(24*7)) + 1
	trigger = trigger.AddDate(0, 0, 7*weeks)
	for !trigger.After(now) {
		trigger = trigger.AddDate(0, 0, 7)
	}
	return trigger
}

// groupedTitle formats the digest title with correct plural wording.
func groupedTitle(count int) string {
	if count == 1 {
		return fmt.Sprintf(groupedTitleSingular, count)
	}
	return fmt.Sprintf(groupedTitlePlural, count)
}

// groupedBody lists the first maxTasksInDigest tasks as bullets, in
// input order, then an "et N autres" line for the rest.
func groupedBody(eligible []*models.Task) string {
	display := eligible
	if len(display) > maxTasksInDigest {
		display = display[:maxTasksInDigest]
	}

	lines := make([]string, 0, len(display)+1)
	for _, task := range display {
		lines = append(lines, fmt.Sprintf("• %s", task.Title))
	}

	if extra := len(eligible) - len(display); extra > 0 {
		if extra == 1 {
			lines = append(lines, "... et 1 autre")
		} else {
			lines = append(lines, fmt.Sprintf("... et %d autres", extra))
		}
	}

	return strings.Join(lines, "\n")
}
