package stats

import (
	"testing"
	"time"

	"github.com/didyoudo/didyoudo/internal/models"
)

var now = time.Date(2025, time.June, 10, 18, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time { return &t }

func completedTask(completedAt time.Time, categories ...models.Category) *models.Task {
	return &models.Task{
		Title:       "tâche",
		Priority:    models.PriorityMedium,
		Categories:  categories,
		CreatedAt:   completedAt.AddDate(0, 0, -1),
		IsCompleted: true,
		CompletedAt: timePtr(completedAt),
	}
}

func TestCompute_EmptyInput(t *testing.T) {
	t.Parallel()

	got := Compute(nil, now)

	if got.CompletedCount != 0 || got.RemainingCount != 0 {
		t.Errorf("counts = %d/%d, want 0/0", got.CompletedCount, got.RemainingCount)
	}
	if got.CompletionRate != 0 {
		t.Errorf("CompletionRate = %d, want 0 (no division by zero)", got.CompletionRate)
	}
	if got.AverageDelayDays != 0 {
		t.Errorf("AverageDelayDays = %v, want 0", got.AverageDelayDays)
	}
	if got.Streak != 0 {
		t.Errorf("Streak = %d, want 0", got.Streak)
	}
	if got.TopCategory != nil {
		t.Errorf("TopCategory = %v, want nil", *got.TopCategory)
	}
}

func TestCompute_WindowIsInclusive(t *testing.T) {
	t.Parallel()

	tasks := []*models.Task{
		completedTask(now),                   // at the upper boundary
		completedTask(now.AddDate(0, 0, -7)), // exactly at the lower boundary
		completedTask(now.AddDate(0, 0, -8)), // just outside
		completedTask(now.Add(-3 * 24 * time.Hour)),
	}

	got := Compute(tasks, now)
	if got.CompletedCount != 3 {
		t.Errorf("CompletedCount = %d, want 3 (both window boundaries inclusive)", got.CompletedCount)
	}
}

func TestCompute_CompletionRateOverAllTasks(t *testing.T) {
	t.Parallel()

	// One completion outside the window still counts toward the rate:
	// the rate is over all tasks, not just this week's.
	tasks := []*models.Task{
		completedTask(now.AddDate(0, 0, -20)),
		{Title: "ouverte", CreatedAt: now.AddDate(0, 0, -1)},
		{Title: "ouverte aussi", CreatedAt: now.AddDate(0, 0, -1)},
	}

	got := Compute(tasks, now)
	if got.CompletedCount != 0 {
		t.Errorf("CompletedCount = %d, want 0", got.CompletedCount)
	}
	if got.CompletionRate != 33 {
		t.Errorf("CompletionRate = %d, want 33", got.CompletionRate)
	}
}

func TestCompute_RemainingExcludesArchived(t *testing.T) {
	t.Parallel()

	tasks := []*models.Task{
		{Title: "active", CreatedAt: now},
		{Title: "archivée", CreatedAt: now, IsArchived: true},
		completedTask(now.Add(-time.Hour)),
	}

	got := Compute(tasks, now)
	if got.RemainingCount != 1 {
		t.Errorf("RemainingCount = %d, want 1", got.RemainingCount)
	}
}

func TestCompute_AverageDelay(t *testing.T) {
	t.Parallel()

	mk := func(delayDays int) *models.Task {
		created := now.AddDate(0, 0, -30)
		completed := created.AddDate(0, 0, delayDays)
		return &models.Task{
			CreatedAt:   created,
			IsCompleted: true,
			CompletedAt: &completed,
		}
	}

	tasks := []*models.Task{mk(1), mk(2), mk(4)}

	got := Compute(tasks, now)
	if got.AverageDelayDays != 2.3 {
		t.Errorf("AverageDelayDays = %v, want 2.3", got.AverageDelayDays)
	}
}

func TestCompute_Streak(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		completionDays []int // days ago
		want           int
	}{
		{
			name:           "no completions",
			completionDays: nil,
			want:           0,
		},
		{
			name:           "today only",
			completionDays: []int{0},
			want:           1,
		},
		{
			name:           "gap at two days ago stops the walk",
			completionDays: []int{0, 1, 3},
			want:           2,
		},
		{
			name:           "no completion today breaks immediately",
			completionDays: []int{1, 2, 3},
			want:           0,
		},
		{
			name:           "five consecutive days",
			completionDays: []int{0, 1, 2, 3, 4},
			want:           5,
		},
		{
			name:           "several completions on the same day count once",
			completionDays: []int{0, 0, 0, 1},
			want:           2,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var tasks []*models.Task
			for _, daysAgo := range tt.completionDays {
				tasks = append(tasks, completedTask(now.AddDate(0, 0, -daysAgo)))
			}

			got := Compute(tasks, now)
			if got.Streak != tt.want {
				t.Errorf("Streak = %d, want %d", got.Streak, tt.want)
			}
		})
	}
}

func TestCompute_TopCategory(t *testing.T) {
	t.Parallel()

	t.Run("single winner", func(t *testing.T) {
		t.Parallel()
		tasks := []*models.Task{
			completedTask(now.Add(-time.Hour), models.CategoryTravail),
			completedTask(now.Add(-2*time.Hour), models.CategoryTravail),
			completedTask(now.Add(-3*time.Hour), models.CategoryMaison),
		}

		got := Compute(tasks, now)
		if got.TopCategory == nil || *got.TopCategory != models.CategoryTravail {
			t.Errorf("TopCategory = %v, want Travail", got.TopCategory)
		}
	})

	t.Run("tie goes to first category reaching the max", func(t *testing.T) {
		t.Parallel()
		tasks := []*models.Task{
			completedTask(now.Add(-time.Hour), models.CategoryMaison),
			completedTask(now.Add(-2*time.Hour), models.CategoryTravail),
			completedTask(now.Add(-3*time.Hour), models.CategoryMaison),
			completedTask(now.Add(-4*time.Hour), models.CategoryTravail),
		}

		got := Compute(tasks, now)
		if got.TopCategory == nil || *got.TopCategory != models.CategoryMaison {
			t.Errorf("TopCategory = %v, want Maison (first to reach 2)", got.TopCategory)
		}
	})

	t.Run("multi-category tasks count every category", func(t *testing.T) {
		t.Parallel()
		tasks := []*models.Task{
			completedTask(now.Add(-time.Hour), models.CategoryCourses, models.CategorySante),
			completedTask(now.Add(-2*time.Hour), models.CategorySante),
		}

		got := Compute(tasks, now)
		if got.TopCategory == nil || *got.TopCategory != models.CategorySante {
			t.Errorf("TopCategory = %v, want Santé", got.TopCategory)
		}
	})

	t.Run("completions outside the window do not vote", func(t *testing.T) {
		t.Parallel()
		tasks := []*models.Task{
			completedTask(now.AddDate(0, 0, -10), models.CategoryLoisirs),
		}

		got := Compute(tasks, now)
		if got.TopCategory != nil {
			t.Errorf("TopCategory = %v, want nil", *got.TopCategory)
		}
	})
}

func TestCompute_OverdueUpcoming(t *testing.T) {
	t.Parallel()

	tasks := []*models.Task{
		{Title: "en retard", DueDate: timePtr(now.Add(-time.Minute))},
		{Title: "due exactement maintenant", DueDate: timePtr(now)},
		{Title: "à venir", DueDate: timePtr(now.AddDate(0, 0, 3))},
		{Title: "sans échéance"},
		{Title: "complétée en retard", DueDate: timePtr(now.AddDate(0, 0, -3)), IsCompleted: true, CompletedAt: timePtr(now)},
	}

	got := Compute(tasks, now)
	if got.OverdueCount != 1 {
		t.Errorf("OverdueCount = %d, want 1 (strict inequality, due-now is upcoming)", got.OverdueCount)
	}
	if got.UpcomingCount != 3 {
		t.Errorf("UpcomingCount = %d, want 3 (no due date counts as upcoming)", got.UpcomingCount)
	}
}
