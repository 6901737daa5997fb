package models

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
)

var now = time.Date(2025, time.June, 10, 14, 30, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time { return &t }

func TestTask_IsOverdue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{
			name: "no due date",
			task: Task{},
			want: false,
		},
		{
			name: "due yesterday",
			task: Task{DueDate: timePtr(now.AddDate(0, 0, -1))},
			want: true,
		},
		{
			name: "due earlier today is not overdue",
			task: Task{DueDate: timePtr(now.Add(-3 * time.Hour))},
			want: false,
		},
		{
			name: "due tomorrow",
			task: Task{DueDate: timePtr(now.AddDate(0, 0, 1))},
			want: false,
		},
		{
			name: "completed task is never overdue",
			task: Task{
				DueDate:     timePtr(now.AddDate(0, 0, -5)),
				IsCompleted: true,
				CompletedAt: timePtr(now),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.task.IsOverdue(now); got != tt.want {
				t.Errorf("IsOverdue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTask_IsDueToday(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{
			name: "due this morning",
			task: Task{DueDate: timePtr(time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC))},
			want: true,
		},
		{
			name: "due tonight",
			task: Task{DueDate: timePtr(time.Date(2025, 6, 10, 23, 0, 0, 0, time.UTC))},
			want: true,
		},
		{
			name: "due tomorrow",
			task: Task{DueDate: timePtr(now.AddDate(0, 0, 1))},
			want: false,
		},
		{
			name: "completed today",
			task: Task{
				DueDate:     timePtr(now),
				IsCompleted: true,
				CompletedAt: timePtr(now),
			},
			want: false,
		},
		{
			name: "no due date",
			task: Task{},
			want: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.task.IsDueToday(now); got != tt.want {
				t.Errorf("IsDueToday() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTask_IsEligibleForReminder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{
			name: "active task",
			task: Task{Title: "arroser les plantes"},
			want: true,
		},
		{
			name: "completed",
			task: Task{IsCompleted: true, CompletedAt: timePtr(now)},
			want: false,
		},
		{
			name: "archived",
			task: Task{IsArchived: true},
			want: false,
		},
		{
			name: "snoozed one hour into the future",
			task: Task{IsSnoozed: true, SnoozeUntil: timePtr(now.Add(time.Hour))},
			want: false,
		},
		{
			name: "snooze expired one hour ago",
			task: Task{IsSnoozed: true, SnoozeUntil: timePtr(now.Add(-time.Hour))},
			want: true,
		},
		{
			name: "snoozed flag without snooze_until",
			task: Task{IsSnoozed: true},
			want: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.task.IsEligibleForReminder(now); got != tt.want {
				t.Errorf("IsEligibleForReminder() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTask_DeriveFrequency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		due  *time.Time
		want ReminderFrequency
	}{
		{"no due date", nil, FrequencyWeekly},
		{"due in 3 days", timePtr(now.AddDate(0, 0, 3)), FrequencyDaily},
		{"due in exactly 7 days", timePtr(now.AddDate(0, 0, 7)), FrequencyDaily},
		{"due in 8 days", timePtr(now.AddDate(0, 0, 8)), FrequencyWeekly},
		{"due in 30 days", timePtr(now.AddDate(0, 0, 30)), FrequencyWeekly},
		{"already overdue", timePtr(now.AddDate(0, 0, -2)), FrequencyDaily},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			task := Task{DueDate: tt.due}
			if got := task.DeriveFrequency(now); got != tt.want {
				t.Errorf("DeriveFrequency() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestTask_CompletionInvariant fuzzes random tasks through complete/uncomplete
// transitions and checks CompletedAt is set exactly when IsCompleted is true.
func TestTask_CompletionInvariant(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		task := Task{
			ID:        uuid.New(),
			Title:     "tâche",
			Priority:  PriorityMedium,
			CreatedAt: now.AddDate(0, 0, -rng.Intn(30)),
			UpdatedAt: now,
		}

		for j := 0; j < 8; j++ {
			if rng.Intn(2) == 0 {
				completed := task.CreatedAt.Add(time.Duration(rng.Intn(720)) * time.Hour)
				task.IsCompleted = true
				task.CompletedAt = &completed
			} else {
				task.IsCompleted = false
				task.CompletedAt = nil
			}

			if task.IsCompleted != (task.CompletedAt != nil) {
				t.Fatalf("invariant violated: IsCompleted=%v CompletedAt=%v", task.IsCompleted, task.CompletedAt)
			}
		}
	}
}

func TestCountByPriority(t *testing.T) {
	t.Parallel()

	tasks := []*Task{
		{Priority: PriorityHigh},
		{Priority: PriorityHigh},
		{Priority: PriorityLow},
	}

	counts := CountByPriority(tasks)
	if counts[PriorityHigh] != 2 || counts[PriorityMedium] != 0 || counts[PriorityLow] != 1 {
		t.Errorf("CountByPriority() = %v", counts)
	}
}

func TestPriorityRank(t *testing.T) {
	t.Parallel()

	if PriorityRank(PriorityHigh) >= PriorityRank(PriorityMedium) {
		t.Error("high should rank before medium")
	}
	if PriorityRank(PriorityMedium) >= PriorityRank(PriorityLow) {
		t.Error("medium should rank before low")
	}
	if PriorityRank(Priority("bogus")) <= PriorityRank(PriorityLow) {
		t.Error("unknown priority should rank after low")
	}
}
