package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/didyoudo/didyoudo/internal/models"
	"github.com/didyoudo/didyoudo/internal/services/mailer"
	"github.com/didyoudo/didyoudo/internal/stats"
)

const (
	// SubjectWeekly is the subject line for the scheduled weekly report
	SubjectWeekly = "📊 Votre Bilan Hebdomadaire DidYouDo"
	// SubjectTest is the subject line for a test dispatch
	SubjectTest = "📧 Test - Bilan Hebdomadaire DidYouDo"

	// MaxRemainingInReport caps the remaining-tasks table in the email
	MaxRemainingInReport = 10
)

// ErrMissingEmail indicates no recipient address was provided or configured
var ErrMissingEmail = errors.New("email address is required")

// TaskStore is the slice of the task repository the report service needs.
type TaskStore interface {
	List(ctx context.Context, includeArchived bool) ([]*models.Task, error)
	ArchiveCompleted(ctx context.Context) (int, error)
}

// Result is returned after a successful dispatch.
type Result struct {
	EmailID string            `json:"emailId"`
	Stats   stats.WeeklyStats `json:"stats"`
}

// Service composes and sends the weekly report email.
type Service struct {
	store  TaskStore
	sender mailer.Sender
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a report service.
func NewService(store TaskStore, sender mailer.Sender, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Send composes the weekly report for the current task snapshot and emails
// it to the given address. When test is false, completed tasks are archived
// after a successful delivery; a test dispatch never mutates state.
func (s *Service) Send(ctx context.Context, email string, test bool) (*Result, error) {
	if email == "" {
		return nil, ErrMissingEmail
	}

	now := s.now()

	// Archived tasks stay in the snapshot: completions archived by past
	// reports still count toward the rate, delay and streak numbers.
	tasks, err := s.store.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	weekly := stats.Compute(tasks, now)

	html, err := renderEmail(emailData{
		Stats:     weekly,
		Completed: completedThisWeek(tasks, now),
		Remaining: remainingByPriority(tasks),
		IsTest:    test,
		Now:       now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	subject := SubjectWeekly
	if test {
		subject = SubjectTest
	}

	emailID, err := s.sender.Send(ctx, email, subject, html)
	if err != nil {
		return nil, fmt.Errorf("failed to send report: %w", err)
	}

	if !test {
		archived, err := s.store.ArchiveCompleted(ctx)
		if err != nil {
			// The email already went out; report the archive failure
			// without claiming the whole dispatch failed.
			s.logger.Error("report_archive_failed", zap.Error(err))
		} else {
			s.logger.Info("report_tasks_archived", zap.Int("count", archived))
		}
	}

	s.logger.Info("weekly_report_sent",
		zap.String("email_id", emailID),
		zap.Bool("test", test),
		zap.Int("completed_count", weekly.CompletedCount),
		zap.Int("remaining_count", weekly.RemainingCount))

	return &Result{EmailID: emailID, Stats: weekly}, nil
}

// completedThisWeek returns tasks completed inside the trailing week,
// both bounds inclusive.
func completedThisWeek(tasks []*models.Task, now time.Time) []*models.Task {
	oneWeekAgo := now.AddDate(0, 0, -7)
	var out []*models.Task
	for _, t := range tasks {
		if !t.IsCompleted || t.CompletedAt == nil {
			continue
		}
		if !t.CompletedAt.Before(oneWeekAgo) && !t.CompletedAt.After(now) {
			out = append(out, t)
		}
	}
	return out
}

// remainingByPriority returns open tasks ordered most urgent first.
func remainingByPriority(tasks []*models.Task) []*models.Task {
	var out []*models.Task
	for _, t := range tasks {
		if !t.IsCompleted && !t.IsArchived {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return models.PriorityRank(out[i].Priority) < models.PriorityRank(out[j].Priority)
	})
	return out
}
