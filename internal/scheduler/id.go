package scheduler

import (
	"github.com/cespare/xxhash/v2"
	"github.com/didyoudo/didyoudo/internal/notify"
	"github.com/google/uuid"
)

// ReminderID derives the notification id for a task. The same task
// always maps to the same slot, so replanning overwrites instead of
// leaking orphaned entries. A 64-bit hash folded to 31 bits keeps the
// collision probability negligible over the expected task-id space;
// the reserved sentinel ids are carved out by re-hashing with a salt.
func ReminderID(taskID uuid.UUID) int32 {
	input := taskID.String()
	for {
		id := int32(xxhash.Sum64String(input) & 0x7fffffff)
		if id != notify.GroupedReminderID && id != notify.TestNotificationID {
			return id
		}
		input += "#"
	}
}
