package database

import (
	"context"
	"time"

	"github.com/didyoudo/didyoudo/internal/models"
	"github.com/google/uuid"
)

// TaskRepositoryInterface defines the interface for task repository operations
// This interface enables better testability by allowing mock implementations
type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	List(ctx context.Context, includeArchived bool) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	Complete(ctx context.Context, id uuid.UUID, completedAt time.Time) error
	Uncomplete(ctx context.Context, id uuid.UUID) error
	Snooze(ctx context.Context, id uuid.UUID, until time.Time) error
	Postpone(ctx context.Context, id uuid.UUID, dueDate time.Time) error
	SetLastReminderSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	ArchiveCompleted(ctx context.Context) (int, error)
}

// Ensure concrete types implement the interfaces
var _ TaskRepositoryInterface = (*TaskRepository)(nil)
