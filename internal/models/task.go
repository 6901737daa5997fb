package models

import (
	"time"

	"github.com/google/uuid"
)

// Priority represents how urgent a task is
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ReminderFrequency represents the reminder cadence stored on a task.
// It is advisory: the scheduler re-derives the effective cadence from the
// due date at planning time, so this field may lag until the next replan.
type ReminderFrequency string

const (
	FrequencyDaily  ReminderFrequency = "daily"
	FrequencyWeekly ReminderFrequency = "weekly"
)

// Category represents a fixed task category
type Category string

// Categories available in the product. The set is closed.
const (
	CategoryMaison    Category = "Maison"
	CategoryTravail   Category = "Travail"
	CategoryCourses   Category = "Courses"
	CategoryPersonnel Category = "Personnel"
	CategorySante     Category = "Santé"
	CategoryLoisirs   Category = "Loisirs"
)

// AllCategories lists every valid category.
var AllCategories = []Category{
	CategoryMaison,
	CategoryTravail,
	CategoryCourses,
	CategoryPersonnel,
	CategorySante,
	CategoryLoisirs,
}

const (
	// MaxTitleLength is the maximum length for a task title
	MaxTitleLength = 100
	// MaxDescriptionLength is the maximum length for a task description
	MaxDescriptionLength = 500
	// WeeklyThresholdDays is the due-date distance above which reminders
	// switch from daily to weekly cadence
	WeeklyThresholdDays = 7
)

// Task represents a task item
type Task struct {
	ID                uuid.UUID         `json:"id"`
	Title             string            `json:"title"`
	Description       string            `json:"description,omitempty"`
	DueDate           *time.Time        `json:"due_date,omitempty"`
	Priority          Priority          `json:"priority"`
	Categories        []Category        `json:"categories"`
	ReminderFrequency ReminderFrequency `json:"reminder_frequency"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
	IsCompleted       bool              `json:"is_completed"`
	IsSnoozed         bool              `json:"is_snoozed"`
	SnoozeUntil       *time.Time        `json:"snooze_until,omitempty"`
	LastReminderSent  *time.Time        `json:"last_reminder_sent,omitempty"`
	IsArchived        bool              `json:"is_archived"`
}

// priorityOrder maps priorities to their sort rank (high first).
var priorityOrder = map[Priority]int{
	PriorityHigh:   0,
	PriorityMedium: 1,
	PriorityLow:    2,
}

// PriorityRank returns the sort rank of p; unknown priorities sort last.
func PriorityRank(p Priority) int {
	if rank, ok := priorityOrder[p]; ok {
		return rank
	}
	return len(priorityOrder)
}

// CountByPriority returns the number of tasks per priority.
func CountByPriority(tasks []*Task) map[Priority]int {
	counts := map[Priority]int{
		PriorityHigh:   0,
		PriorityMedium: 0,
		PriorityLow:    0,
	}
	for _, task := range tasks {
		counts[task.Priority]++
	}
	return counts
}
