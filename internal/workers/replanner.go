package workers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/didyoudo/didyoudo/internal/database"
	"github.com/didyoudo/didyoudo/internal/prefs"
	"github.com/didyoudo/didyoudo/internal/queue"
	"github.com/didyoudo/didyoudo/internal/scheduler"
)

// Replanner recomputes the reminder schedule from the current task set
// and the configured preferences.
type Replanner struct {
	taskRepo  database.TaskRepositoryInterface
	prefStore prefs.Store
	scheduler *scheduler.Scheduler
	logger    *zap.Logger
}

// NewReplanner creates a new replanner
func NewReplanner(taskRepo database.TaskRepositoryInterface, prefStore prefs.Store, sched *scheduler.Scheduler, logger *zap.Logger) *Replanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Replanner{
		taskRepo:  taskRepo,
		prefStore: prefStore,
		scheduler: sched,
		logger:    logger,
	}
}

// ProcessReplanJob loads the task snapshot and preferences and replans
// all reminders.
func (r *Replanner) ProcessReplanJob(ctx context.Context, job *queue.Job) error {
	tasks, err := r.taskRepo.List(ctx, false)
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	hour, minute := prefs.ReminderTime(ctx, r.prefStore)
	cfg := scheduler.Config{
		Hour:    hour,
		Minute:  minute,
		Enabled: prefs.NotificationsEnabled(ctx, r.prefStore),
	}

	r.scheduler.Replan(ctx, tasks, cfg)

	r.logger.Info("replan_completed",
		zap.String("job_id", job.ID.String()),
		zap.Int("task_count", len(tasks)),
		zap.Int("active_count", r.scheduler.ActiveCount()),
		zap.Bool("enabled", cfg.Enabled))

	return nil
}
