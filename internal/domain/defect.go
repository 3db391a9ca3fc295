package domain

import "time"

// DefectStatus enumerates workflow states for defects.
type DefectStatus string

const (
	DefectStatusNew        DefectStatus = "NEW"
	DefectStatusInProgress DefectStatus = "IN_PROGRESS"
	DefectStatusInReview   DefectStatus = "IN_REVIEW"
	DefectStatusClosed     DefectStatus = "CLOSED"
	DefectStatusCancelled  DefectStatus = "CANCELLED"
)

// Valid reports whether s is a member of the closed status set.
func (s DefectStatus) Valid() bool {
	switch s {
	case DefectStatusNew, DefectStatusInProgress, DefectStatusInReview, DefectStatusClosed, DefectStatusCancelled:
		return true
	}
	return false
}

// DefectPriority enumerates urgency levels.
type DefectPriority string

const (
	PriorityLow      DefectPriority = "LOW"
	PriorityMedium   DefectPriority = "MEDIUM"
	PriorityHigh     DefectPriority = "HIGH"
	PriorityCritical DefectPriority = "CRITICAL"
)

// Valid reports whether p is a known priority.
func (p DefectPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Defect is the aggregate tracked through the status workflow.
type Defect struct {
	ID          int64
	Title       string
	Description string
	Priority    DefectPriority
	Status      DefectStatus
	AssigneeID  *int64
	ProjectID   int64
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
