package workers

import (
	"context"
	"testing"
	"time"

	"github.com/didyoudo/didyoudo/internal/queue"
)

func fixedClock(hour, minute int, weekday time.Weekday) func() time.Time {
	// June 2025: the 1st is a Sunday, so day N falls on weekday N-1
	day := 1 + int(weekday)
	at := time.Date(2025, time.June, day, hour, minute, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestJobScheduler_Tick_ReplanAtReminderTime(t *testing.T) {
	t.Parallel()

	q := &stubQueue{}
	prefStore := &memPrefs{values: map[string]string{"reminderTime": "18:30"}}
	s := NewJobScheduler(q, prefStore, nil, nil).WithClock(fixedClock(18, 30, time.Tuesday))

	s.Tick(context.Background())

	if len(q.enqueued) != 1 {
		t.Fatalf("expected 1 job enqueued, got %d", len(q.enqueued))
	}
	if q.enqueued[0].Type != queue.JobTypeReplan {
		t.Errorf("expected replan job, got %s", q.enqueued[0].Type)
	}
}

func TestJobScheduler_Tick_NoReplanOffSchedule(t *testing.T) {
	t.Parallel()

	q := &stubQueue{}
	prefStore := &memPrefs{values: map[string]string{"reminderTime": "18:30"}}
	s := NewJobScheduler(q, prefStore, nil, nil).WithClock(fixedClock(18, 31, time.Tuesday))

	s.Tick(context.Background())

	if len(q.enqueued) != 0 {
		t.Fatalf("expected no jobs enqueued, got %d", len(q.enqueued))
	}
}

func TestJobScheduler_Tick_NoReplanWhenDisabled(t *testing.T) {
	t.Parallel()

	q := &stubQueue{}
	prefStore := &memPrefs{values: map[string]string{
		"reminderTime":         "18:30",
		"notificationsEnabled": "false",
	}}
	s := NewJobScheduler(q, prefStore, nil, nil).WithClock(fixedClock(18, 30, time.Tuesday))

	s.Tick(context.Background())

	if len(q.enqueued) != 0 {
		t.Fatalf("expected no jobs enqueued, got %d", len(q.enqueued))
	}
}

func TestJobScheduler_Tick_WeeklyReportAtConfiguredSlot(t *testing.T) {
	t.Parallel()

	q := &stubQueue{}
	prefStore := &memPrefs{values: map[string]string{
		"weeklyReportEmail": "user@example.com",
		"weeklyReportDay":   "saturday",
		"weeklyReportTime":  "08:15",
	}}
	s := NewJobScheduler(q, prefStore, nil, nil).WithClock(fixedClock(8, 15, time.Saturday))

	s.Tick(context.Background())

	if len(q.enqueued) != 1 {
		t.Fatalf("expected 1 job enqueued, got %d", len(q.enqueued))
	}
	job := q.enqueued[0]
	if job.Type != queue.JobTypeWeeklyReport {
		t.Errorf("expected weekly_report job, got %s", job.Type)
	}
	if got := job.ReportEmail(); got != "user@example.com" {
		t.Errorf("expected report email from preferences, got %q", got)
	}
	if job.IsTest() {
		t.Error("scheduled report should not be a test send")
	}
}

func TestJobScheduler_Tick_WeeklyReportDefaultsToSundayMorning(t *testing.T) {
	t.Parallel()

	q := &stubQueue{}
	s := NewJobScheduler(q, &memPrefs{}, nil, nil).WithClock(fixedClock(9, 0, time.Sunday))

	s.Tick(context.Background())

	var reportJobs int
	for _, job := range q.enqueued {
		if job.Type == queue.JobTypeWeeklyReport {
			reportJobs++
		}
	}
	if reportJobs != 1 {
		t.Fatalf("expected 1 weekly report job, got %d", reportJobs)
	}
}

func TestJobScheduler_Tick_WrongDayNoReport(t *testing.T) {
	t.Parallel()

	q := &stubQueue{}
	prefStore := &memPrefs{values: map[string]string{
		"weeklyReportDay":  "sunday",
		"weeklyReportTime": "09:00",
	}}
	s := NewJobScheduler(q, prefStore, nil, nil).WithClock(fixedClock(9, 0, time.Monday))

	s.Tick(context.Background())

	if len(q.enqueued) != 0 {
		t.Fatalf("expected no jobs enqueued, got %d", len(q.enqueued))
	}
}
