package domain

import "time"

// HistoryAction tags what kind of mutation produced a history entry.
type HistoryAction string

const (
	ActionCreated       HistoryAction = "CREATED"
	ActionUpdated       HistoryAction = "UPDATED"
	ActionStatusChanged HistoryAction = "STATUS_CHANGED"
	ActionAssigned      HistoryAction = "ASSIGNED"
	ActionCancelled     HistoryAction = "CANCELLED"
)

// ActorUnknown is recorded when the mutating actor cannot be determined.
const ActorUnknown int64 = 0

// DefectHistory is an immutable audit trail entry capturing one field's
// before/after value for one mutation. Entries are only ever appended.
type DefectHistory struct {
	ID        int64
	DefectID  int64
	UserID    int64
	FieldName string
	OldValue  string
	NewValue  string
	Action    HistoryAction
	CreatedAt time.Time
}
