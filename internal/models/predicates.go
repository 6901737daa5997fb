package models

import (
	"time"

	"github.com/didyoudo/didyoudo/internal/dateutil"
)

// IsOverdue reports whether the task's due date is in the past.
// A task due today is not overdue (it is due today), and completed
// tasks are never overdue.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.IsCompleted {
		return false
	}
	return t.DueDate.Before(now) && !dateutil.SameDay(*t.DueDate, now)
}

// IsDueToday reports whether the task is due on the same calendar day as now.
func (t *Task) IsDueToday(now time.Time) bool {
	if t.DueDate == nil || t.IsCompleted {
		return false
	}
	return dateutil.SameDay(*t.DueDate, now)
}

// IsSnoozedAt reports whether the task is snoozed past now.
func (t *Task) IsSnoozedAt(now time.Time) bool {
	return t.IsSnoozed && t.SnoozeUntil != nil && t.SnoozeUntil.After(now)
}

// IsEligibleForReminder reports whether the task is a candidate for
// reminder scheduling: not completed, not archived, and not currently
// snoozed.
func (t *Task) IsEligibleForReminder(now time.Time) bool {
	if t.IsCompleted || t.IsArchived {
		return false
	}
	return !t.IsSnoozedAt(now)
}

// DeriveFrequency computes the effective reminder cadence from the due
// date: daily when the due date is within WeeklyThresholdDays of now,
// weekly otherwise. Tasks without a due date get weekly cadence. The
// stored ReminderFrequency field is intentionally not consulted.
func (t *Task) DeriveFrequency(now time.Time) ReminderFrequency {
	if t.DueDate == nil {
		return FrequencyWeekly
	}
	days := t.DueDate.Sub(now).Hours() / 24
	if days <= WeeklyThresholdDays {
		return FrequencyDaily
	}
	return FrequencyWeekly
}
