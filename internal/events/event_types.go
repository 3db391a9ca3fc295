package events

import (
	"time"

	"github.com/systemcontrol/defect-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventDefectCreated         EventType = "defect_created"
	EventDefectStatusChanged   EventType = "defect_status_changed"
	EventDefectPriorityChanged EventType = "defect_priority_changed"
	EventDefectAssigned        EventType = "defect_assigned"
	EventCommentAdded          EventType = "comment_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	DefectID  int64       `json:"defect_id"`
	ActorID   int64       `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// DefectCreatedPayload payload.
type DefectCreatedPayload struct {
	ProjectID int64                 `json:"project_id"`
	Priority  domain.DefectPriority `json:"priority"`
	Title     string                `json:"title"`
}

// DefectStatusChangedPayload payload.
type DefectStatusChangedPayload struct {
	OldStatus domain.DefectStatus `json:"old_status"`
	NewStatus domain.DefectStatus `json:"new_status"`
}

// DefectPriorityChangedPayload payload.
type DefectPriorityChangedPayload struct {
	OldPriority domain.DefectPriority `json:"old_priority"`
	NewPriority domain.DefectPriority `json:"new_priority"`
}

// DefectAssignedPayload payload.
type DefectAssignedPayload struct {
	AssigneeID *int64 `json:"assignee_id,omitempty"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID int64 `json:"comment_id"`
	AuthorID  int64 `json:"author_id"`
}
