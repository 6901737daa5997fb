package stats

import (
	"math"
	"time"

	"github.com/didyoudo/didyoudo/internal/dateutil"
	"github.com/didyoudo/didyoudo/internal/models"
)

// WeeklyStats holds the numbers for one weekly report. It is computed
// per invocation and never persisted.
type WeeklyStats struct {
	CompletedCount   int              `json:"completed_count"`
	RemainingCount   int              `json:"remaining_count"`
	CompletionRate   int              `json:"completion_rate"`
	AverageDelayDays float64          `json:"average_delay_days"`
	Streak           int              `json:"streak"`
	TopCategory      *models.Category `json:"top_category"`
	OverdueCount     int              `json:"overdue_count"`
	UpcomingCount    int              `json:"upcoming_count"`
}

// Compute calculates the weekly statistics over a task snapshot. Pure
// and deterministic for fixed inputs: the trailing window is
// [now-7d, now] inclusive on both ends, applied to completion times.
func Compute(tasks []*models.Task, now time.Time) WeeklyStats {
	oneWeekAgo := now.AddDate(0, 0, -7)

	var completedThisWeek []*models.Task
	var remaining []*models.Task
	var allCompleted []*models.Task

	for _, task := range tasks {
		if task.IsCompleted && task.CompletedAt != nil {
			allCompleted = append(allCompleted, task)
			if !task.CompletedAt.Before(oneWeekAgo) && !task.CompletedAt.After(now) {
				completedThisWeek = append(completedThisWeek, task)
			}
		}
		if !task.IsCompleted && !task.IsArchived {
			remaining = append(remaining, task)
		}
	}

	completionRate := 0
	if len(tasks) > 0 {
		completionRate = int(math.Round(100 * float64(len(allCompleted)) / float64(len(tasks))))
	}

	overdue, upcoming := splitByDueDate(remaining, now)

	return WeeklyStats{
		CompletedCount:   len(completedThisWeek),
		RemainingCount:   len(remaining),
		CompletionRate:   completionRate,
		AverageDelayDays: averageDelayDays(allCompleted),
		Streak:           streak(allCompleted, now),
		TopCategory:      topCategory(completedThisWeek),
		OverdueCount:     overdue,
		UpcomingCount:    upcoming,
	}
}

// averageDelayDays returns the mean whole-day delay between creation and
// completion over all completed tasks, rounded to one decimal place.
func averageDelayDays(completed []*models.Task) float64 {
	if len(completed) == 0 {
		return 0
	}
	total := 0
	for _, task := range completed {
		total += int(task.CompletedAt.Sub(task.CreatedAt).Hours() / 24)
	}
	mean := float64(total) / float64(len(completed))
	return math.Round(mean*10) / 10
}

// streak counts consecutive calendar days with at least one completion,
// walking backward from today. The first day without a completion stops
// the walk; gaps are never skipped.
func streak(completed []*models.Task, now time.Time) int {
	if len(completed) == 0 {
		return 0
	}

	days := make(map[time.Time]bool, len(completed))
	for _, task := range completed {
		days[dateutil.StartOfDay(task.CompletedAt.In(now.Location()))] = true
	}

	count := 0
	for day := dateutil.StartOfDay(now); days[day]; day = day.AddDate(0, 0, -1) {
		count++
	}
	return count
}

// topCategory returns the category with the most occurrences among the
// week's completed tasks. On a tie the category that reached the maximum
// first, in input order, keeps the title. Nil when the window is empty.
func topCategory(completedThisWeek []*models.Task) *models.Category {
	counts := make(map[models.Category]int)

	var top *models.Category
	max := 0
	for _, task := range completedThisWeek {
		for _, category := range task.Categories {
			counts[category]++
			if counts[category] > max {
				max = counts[category]
				c := category
				top = &c
			}
		}
	}
	return top
}

// splitByDueDate partitions remaining tasks into overdue and upcoming.
// A task without a due date counts as upcoming; overdue requires a due
// date strictly before now.
func splitByDueDate(remaining []*models.Task, now time.Time) (overdue, upcoming int) {
	for _, task := range remaining {
		if task.DueDate != nil && task.DueDate.Before(now) {
			overdue++
		} else {
			upcoming++
		}
	}
	return overdue, upcoming
}
