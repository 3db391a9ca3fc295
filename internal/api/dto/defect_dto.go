package dto

import (
	"time"

	"github.com/systemcontrol/defect-service/internal/domain"
)

// CreateDefectRequest payload.
type CreateDefectRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.DefectPriority `json:"priority"`
	Status      domain.DefectStatus   `json:"status"`
	AssigneeID  *int64                `json:"assigneeId"`
	ProjectID   int64                 `json:"projectId"`
	DueDate     *time.Time            `json:"dueDate"`
}

// UpdateDefectRequest is a full-entity replacement payload.
type UpdateDefectRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.DefectPriority `json:"priority"`
	Status      domain.DefectStatus   `json:"status"`
	AssigneeID  *int64                `json:"assigneeId"`
	ProjectID   int64                 `json:"projectId"`
	DueDate     *time.Time            `json:"dueDate"`
}

// StatusUpdateRequest payload. UserID is kept for wire compatibility with
// older clients; the audited actor is always the authenticated principal.
type StatusUpdateRequest struct {
	Status domain.DefectStatus `json:"status"`
	UserID int64               `json:"userId"`
}

// DefectResponse payload.
type DefectResponse struct {
	ID          int64                 `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.DefectPriority `json:"priority"`
	Status      domain.DefectStatus   `json:"status"`
	AssigneeID  *int64                `json:"assigneeId"`
	ProjectID   int64                 `json:"projectId"`
	DueDate     *time.Time            `json:"dueDate"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// AllowedStatusesResponse lists the next legal target statuses.
type AllowedStatusesResponse struct {
	AllowedStatuses []domain.DefectStatus `json:"allowedStatuses"`
}

// DefectHistoryResponse is one audit trail entry.
type DefectHistoryResponse struct {
	ID        int64                `json:"id"`
	DefectID  int64                `json:"defectId"`
	UserID    int64                `json:"userId"`
	FieldName string               `json:"fieldName"`
	OldValue  string               `json:"oldValue"`
	NewValue  string               `json:"newValue"`
	Action    domain.HistoryAction `json:"action"`
	CreatedAt time.Time            `json:"createdAt"`
}
