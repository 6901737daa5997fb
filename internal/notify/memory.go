package notify

import (
	"context"
	"sort"
	"sync"
)

// MemorySink is an in-memory Sink used in tests and local development.
type MemorySink struct {
	mu          sync.Mutex
	granted     bool
	denyGrant   bool
	pending     map[int32]Entry
	scheduleErr error
	cancelErr   error
}

// NewMemorySink creates an empty in-memory sink with permission granted.
func NewMemorySink() *MemorySink {
	return &MemorySink{granted: true, pending: make(map[int32]Entry)}
}

// SetPermission sets the current permission state.
func (s *MemorySink) SetPermission(granted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.granted = granted
}

// DenyGrant makes RequestPermission answer false.
func (s *MemorySink) DenyGrant(deny bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.denyGrant = deny
}

// FailSchedule makes Schedule return err.
func (s *MemorySink) FailSchedule(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduleErr = err
}

// FailCancel makes Cancel return err.
func (s *MemorySink) FailCancel(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelErr = err
}

// RequestPermission grants permission unless DenyGrant was set.
func (s *MemorySink) RequestPermission(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.denyGrant {
		return false, nil
	}
	s.granted = true
	return true, nil
}

// CheckPermission reports the current permission state.
func (s *MemorySink) CheckPermission(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.granted, nil
}

// Schedule stores entries, overwriting same-id entries.
func (s *MemorySink) Schedule(ctx context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scheduleErr != nil {
		return s.scheduleErr
	}
	for _, entry := range entries {
		s.pending[entry.ID] = entry
	}
	return nil
}

// ListPending returns pending entries sorted by id for deterministic tests.
func (s *MemorySink) ListPending(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]Entry, 0, len(s.pending))
	for _, entry := range s.pending {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// Cancel removes entries by id.
func (s *MemorySink) Cancel(ctx context.Context, ids []int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelErr != nil {
		return s.cancelErr
	}
	for _, id := range ids {
		delete(s.pending, id)
	}
	return nil
}

var _ Sink = (*MemorySink)(nil)
