package workers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/didyoudo/didyoudo/internal/models"
	"github.com/didyoudo/didyoudo/internal/notify"
	"github.com/didyoudo/didyoudo/internal/queue"
	"github.com/didyoudo/didyoudo/internal/scheduler"
)

var testNow = time.Date(2025, time.June, 10, 14, 30, 0, 0, time.UTC)

type stubTaskRepo struct {
	tasks   []*models.Task
	listErr error
}

func (s *stubTaskRepo) Create(ctx context.Context, task *models.Task) error { return nil }
func (s *stubTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return nil, fmt.Errorf("not found")
}
func (s *stubTaskRepo) List(ctx context.Context, includeArchived bool) ([]*models.Task, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.tasks, nil
}
func (s *stubTaskRepo) Update(ctx context.Context, task *models.Task) error { return nil }
func (s *stubTaskRepo) Delete(ctx context.Context, id uuid.UUID) error      { return nil }
func (s *stubTaskRepo) Complete(ctx context.Context, id uuid.UUID, completedAt time.Time) error {
	return nil
}
func (s *stubTaskRepo) Uncomplete(ctx context.Context, id uuid.UUID) error { return nil }
func (s *stubTaskRepo) Snooze(ctx context.Context, id uuid.UUID, until time.Time) error {
	return nil
}
func (s *stubTaskRepo) Postpone(ctx context.Context, id uuid.UUID, dueDate time.Time) error {
	return nil
}
func (s *stubTaskRepo) SetLastReminderSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	return nil
}
func (s *stubTaskRepo) ArchiveCompleted(ctx context.Context) (int, error) { return 0, nil }

type memPrefs struct {
	values map[string]string
}

func (m *memPrefs) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memPrefs) Set(ctx context.Context, key, value string) error {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

func TestReplanner_ProcessReplanJob(t *testing.T) {
	t.Parallel()

	repo := &stubTaskRepo{tasks: []*models.Task{
		{ID: uuid.New(), Title: "Tâche ouverte", Priority: models.PriorityHigh, CreatedAt: testNow.AddDate(0, 0, -1)},
	}}
	sink := notify.NewMemorySink()
	sink.SetPermission(true)
	sched := scheduler.New(sink, nil, scheduler.WithClock(func() time.Time { return testNow }))
	prefStore := &memPrefs{values: map[string]string{"reminderTime": "18:30"}}

	r := NewReplanner(repo, prefStore, sched, nil)
	if err := r.ProcessReplanJob(context.Background(), queue.NewJob(queue.JobTypeReplan)); err != nil {
		t.Fatalf("ProcessReplanJob: %v", err)
	}

	pending, err := sink.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d entries, want 1", len(pending))
	}
	if pending[0].ID != notify.GroupedReminderID {
		t.Errorf("entry ID = %d, want grouped reminder", pending[0].ID)
	}
	want := time.Date(2025, 6, 10, 18, 30, 0, 0, time.UTC)
	if !pending[0].TriggerAt.Equal(want) {
		t.Errorf("trigger = %v, want %v", pending[0].TriggerAt, want)
	}
	if r.scheduler.ActiveCount() != 1 {
		t.Errorf("ActiveCount = %d, want 1", r.scheduler.ActiveCount())
	}
}

func TestReplanner_DisabledCancelsAll(t *testing.T) {
	t.Parallel()

	repo := &stubTaskRepo{tasks: []*models.Task{
		{ID: uuid.New(), Title: "Tâche", Priority: models.PriorityLow, CreatedAt: testNow.AddDate(0, 0, -1)},
	}}
	sink := notify.NewMemorySink()
	sink.SetPermission(true)
	sched := scheduler.New(sink, nil, scheduler.WithClock(func() time.Time { return testNow }))
	prefStore := &memPrefs{values: map[string]string{"notificationsEnabled": "false"}}

	r := NewReplanner(repo, prefStore, sched, nil)
	if err := r.ProcessReplanJob(context.Background(), queue.NewJob(queue.JobTypeReplan)); err != nil {
		t.Fatalf("ProcessReplanJob: %v", err)
	}

	pending, _ := sink.ListPending(context.Background())
	if len(pending) != 0 {
		t.Errorf("pending = %d entries, want 0 when disabled", len(pending))
	}
}

func TestReplanner_ListError(t *testing.T) {
	t.Parallel()

	repo := &stubTaskRepo{listErr: fmt.Errorf("db down")}
	sched := scheduler.New(notify.NewMemorySink(), nil)
	r := NewReplanner(repo, &memPrefs{}, sched, nil)
	if err := r.ProcessReplanJob(context.Background(), queue.NewJob(queue.JobTypeReplan)); err == nil {
		t.Fatal("expected error from task load")
	}
}
