package notify

import (
	"context"
	"time"
)

const (
	// GroupedReminderID is the reserved identifier for the grouped daily
	// digest notification. It never collides with a derived per-task id.
	GroupedReminderID int32 = 999999
	// TestNotificationID is the reserved identifier for ad-hoc test
	// notifications fired from the settings screen.
	TestNotificationID int32 = 999998
)

// Entry is one scheduled notification. Identifiers are 32-bit integers
// to match the device notification API.
type Entry struct {
	ID             int32          `json:"id"`
	Title          string         `json:"title"`
	Body           string         `json:"body"`
	TriggerAt      time.Time      `json:"trigger_at"`
	AllowWhileIdle bool           `json:"allow_while_idle"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Sink is the device notification boundary consumed by the scheduler.
// The pending set behind a Sink is owned exclusively by the scheduler;
// no other component may schedule or cancel entries.
type Sink interface {
	// RequestPermission asks for notification permission and reports
	// whether it was granted.
	RequestPermission(ctx context.Context) (bool, error)

	// CheckPermission reports whether notification permission is
	// currently granted.
	CheckPermission(ctx context.Context) (bool, error)

	// Schedule registers entries for future delivery. An entry with an
	// id already pending replaces the previous one.
	Schedule(ctx context.Context, entries []Entry) error

	// ListPending returns all entries not yet delivered.
	ListPending(ctx context.Context) ([]Entry, error)

	// Cancel removes the entries with the given ids from the pending set.
	// Unknown ids are ignored.
	Cancel(ctx context.Context, ids []int32) error
}
