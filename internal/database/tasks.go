package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/didyoudo/didyoudo/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// TaskRepository handles task database operations
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `
	id, title, description, due_date, priority, categories,
	reminder_frequency, created_at, updated_at, completed_at,
	is_completed, is_snoozed, snooze_until, last_reminder_sent, is_archived
`

// Create creates a new task
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (id, title, description, due_date, priority, categories,
			reminder_frequency, created_at, updated_at, is_completed, is_snoozed, is_archived)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false, false, false)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.DueDate,
		task.Priority,
		pq.Array(categoryStrings(task.Categories)),
		task.ReminderFrequency,
		now,
		now,
	).Scan(&task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetByID retrieves a task by ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// List retrieves tasks, excluding archived ones unless includeArchived
// is set. Results keep creation order (oldest first) so reminder bodies
// and reports are stable.
func (r *TaskRepository) List(ctx context.Context, includeArchived bool) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	if !includeArchived {
		query += ` WHERE is_archived = false`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// Update persists every mutable field of the task
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, description = $3, due_date = $4, priority = $5,
			categories = $6, reminder_frequency = $7, updated_at = $8,
			completed_at = $9, is_completed = $10, is_snoozed = $11,
			snooze_until = $12, last_reminder_sent = $13, is_archived = $14
		WHERE id = $1
	`

	task.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.DueDate,
		task.Priority,
		pq.Array(categoryStrings(task.Categories)),
		task.ReminderFrequency,
		task.UpdatedAt,
		task.CompletedAt,
		task.IsCompleted,
		task.IsSnoozed,
		task.SnoozeUntil,
		task.LastReminderSent,
		task.IsArchived,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task not found: %s", task.ID)
	}

	return nil
}

// Delete removes a task
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task not found: %s", id)
	}

	return nil
}

// Complete marks a task completed at the given instant and clears any
// snooze state.
func (r *TaskRepository) Complete(ctx context.Context, id uuid.UUID, completedAt time.Time) error {
	query := `
		UPDATE tasks
		SET is_completed = true, completed_at = $2, is_snoozed = false,
			snooze_until = NULL, updated_at = $2
		WHERE id = $1
	`
	return r.exec(ctx, query, id, completedAt)
}

// Uncomplete reopens a completed task.
func (r *TaskRepository) Uncomplete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE tasks
		SET is_completed = false, completed_at = NULL, updated_at = $2
		WHERE id = $1
	`
	return r.exec(ctx, query, id, time.Now())
}

// Snooze hides a task from reminders until the given instant.
func (r *TaskRepository) Snooze(ctx context.Context, id uuid.UUID, until time.Time) error {
	query := `
		UPDATE tasks
		SET is_snoozed = true, snooze_until = $2, updated_at = $3
		WHERE id = $1
	`
	return r.exec(ctx, query, id, until, time.Now())
}

// Postpone moves a task's due date.
func (r *TaskRepository) Postpone(ctx context.Context, id uuid.UUID, dueDate time.Time) error {
	query := `
		UPDATE tasks
		SET due_date = $2, updated_at = $3
		WHERE id = $1
	`
	return r.exec(ctx, query, id, dueDate, time.Now())
}

// SetLastReminderSent records the instant a reminder was delivered for
// the task, used as the weekly cadence anchor.
func (r *TaskRepository) SetLastReminderSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	query := `
		UPDATE tasks
		SET last_reminder_sent = $2, updated_at = $3
		WHERE id = $1
	`
	return r.exec(ctx, query, id, sentAt, time.Now())
}

// ArchiveCompleted archives every completed, non-archived task in a
// single transaction and returns how many were archived. Called after a
// successful weekly report send.
func (r *TaskRepository) ArchiveCompleted(ctx context.Context) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && rollbackErr != sql.ErrTxDone {
			_ = rollbackErr
		}
	}()

	result, err := tx.ExecContext(ctx, `
		UPDATE tasks
		SET is_archived = true, updated_at = $1
		WHERE is_completed = true AND is_archived = false
	`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to archive completed tasks: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count archived tasks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit archival: %w", err)
	}

	return int(rows), nil
}

// exec runs an update that must touch exactly one row.
func (r *TaskRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task not found")
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for scanTask.
type scanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row.
func scanTask(row scanner) (*models.Task, error) {
	task := &models.Task{}
	var description sql.NullString
	var dueDate, completedAt, snoozeUntil, lastReminderSent sql.NullTime
	var categories pq.StringArray

	err := row.Scan(
		&task.ID,
		&task.Title,
		&description,
		&dueDate,
		&task.Priority,
		&categories,
		&task.ReminderFrequency,
		&task.CreatedAt,
		&task.UpdatedAt,
		&completedAt,
		&task.IsCompleted,
		&task.IsSnoozed,
		&snoozeUntil,
		&lastReminderSent,
		&task.IsArchived,
	)
	if err != nil {
		return nil, err
	}

	task.Description = description.String
	if dueDate.Valid {
		task.DueDate = &dueDate.Time
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}
	if snoozeUntil.Valid {
		task.SnoozeUntil = &snoozeUntil.Time
	}
	if lastReminderSent.Valid {
		task.LastReminderSent = &lastReminderSent.Time
	}

	task.Categories = make([]models.Category, len(categories))
	for i, c := range categories {
		task.Categories[i] = models.Category(c)
	}

	return task, nil
}

func categoryStrings(categories []models.Category) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}
