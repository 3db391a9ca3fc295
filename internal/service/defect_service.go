package service

import (
	"context"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/systemcontrol/defect-service/internal/domain"
	"github.com/systemcontrol/defect-service/internal/events"
	"github.com/systemcontrol/defect-service/internal/repository"
	"github.com/systemcontrol/defect-service/internal/workflow"
	apperrors "github.com/systemcontrol/defect-service/pkg/util"
)

const (
	maxTitleLen       = 500
	maxDescriptionLen = 2000
)

// DefectService orchestrates the defect lifecycle: validation, transition
// checks, field diffing, persistence and audit recording. Every mutation runs
// as one transactional unit of work; a rejected mutation leaves the stored
// defect untouched and appends no history.
//
// The service does not check roles. Authorization happens at the HTTP
// boundary; the actor id is taken only for audit attribution.
type DefectService struct {
	store      repository.Store
	dispatcher events.Dispatcher
}

// NewDefectService constructs the service.
func NewDefectService(store repository.Store, dispatcher events.Dispatcher) *DefectService {
	return &DefectService{store: store, dispatcher: dispatcher}
}

// DefectCreateInput describes defect creation payload.
type DefectCreateInput struct {
	Title       string
	Description string
	Priority    domain.DefectPriority
	Status      domain.DefectStatus
	AssigneeID  *int64
	ProjectID   int64
	DueDate     *time.Time
}

// DefectUpdateInput describes a full-entity replacement.
type DefectUpdateInput struct {
	Title       string
	Description string
	Priority    domain.DefectPriority
	Status      domain.DefectStatus
	AssigneeID  *int64
	ProjectID   int64
	DueDate     *time.Time
}

// fieldChange is one tracked-field difference observed during an update.
type fieldChange struct {
	field    string
	oldValue string
	newValue string
	action   domain.HistoryAction
}

// Create validates references, applies defaults, persists the defect and
// records a single CREATED history entry, all in one transaction.
func (s *DefectService) Create(ctx context.Context, actorID int64, input DefectCreateInput) (*domain.Defect, error) {
	title := sanitizeText(input.Title)
	description := sanitizeText(input.Description)
	if err := validateText(title, description); err != nil {
		return nil, err
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": string(input.Priority)})
	}
	status := input.Status
	if status == "" {
		status = domain.DefectStatusNew
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": string(input.Status)})
	}

	defect := &domain.Defect{
		Title:       title,
		Description: description,
		Priority:    priority,
		Status:      status,
		AssigneeID:  input.AssigneeID,
		ProjectID:   input.ProjectID,
		DueDate:     input.DueDate,
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := validateReferences(ctx, tx, defect.ProjectID, defect.AssigneeID); err != nil {
			return err
		}
		if err := tx.Defects().Create(ctx, defect); err != nil {
			return err
		}
		return tx.History().Create(ctx, &domain.DefectHistory{
			DefectID:  defect.ID,
			UserID:    actorID,
			FieldName: "defect",
			OldValue:  "",
			NewValue:  defect.Title,
			Action:    domain.ActionCreated,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventDefectCreated,
		DefectID: defect.ID,
		ActorID:  actorID,
		Payload: events.DefectCreatedPayload{
			ProjectID: defect.ProjectID,
			Priority:  defect.Priority,
			Title:     defect.Title,
		},
	})
	return defect, nil
}

// Update replaces the defect's fields, checking the status transition and
// recording one history entry per tracked field that changed. A rejected
// transition performs no mutation at all.
func (s *DefectService) Update(ctx context.Context, actorID, id int64, input DefectUpdateInput) (*domain.Defect, error) {
	title := sanitizeText(input.Title)
	description := sanitizeText(input.Description)
	if err := validateText(title, description); err != nil {
		return nil, err
	}
	if input.Priority != "" && !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": string(input.Priority)})
	}
	if input.Status != "" && !input.Status.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": string(input.Status)})
	}

	var updated domain.Defect
	var changes []fieldChange

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		existing, err := tx.Defects().GetByID(ctx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperrors.NewNotFound("defect", map[string]any{"id": id})
			}
			return err
		}

		if err := validateReferences(ctx, tx, input.ProjectID, input.AssigneeID); err != nil {
			return err
		}

		newStatus := input.Status
		if newStatus == "" {
			newStatus = existing.Status
		}
		if newStatus != existing.Status && !workflow.CanTransition(existing.Status, newStatus) {
			return apperrors.NewInvalidTransition(existing.Status, workflow.NextStates(existing.Status))
		}
		newPriority := input.Priority
		if newPriority == "" {
			newPriority = existing.Priority
		}

		updated = *existing
		updated.Title = title
		updated.Description = description
		updated.Priority = newPriority
		updated.Status = newStatus
		updated.AssigneeID = input.AssigneeID
		updated.ProjectID = input.ProjectID
		updated.DueDate = input.DueDate

		changes = diffTracked(existing, &updated)

		if err := tx.Defects().Update(ctx, &updated); err != nil {
			return err
		}
		for _, change := range changes {
			entry := &domain.DefectHistory{
				DefectID:  updated.ID,
				UserID:    actorID,
				FieldName: change.field,
				OldValue:  change.oldValue,
				NewValue:  change.newValue,
				Action:    change.action,
			}
			if err := tx.History().Create(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishChanges(ctx, actorID, &updated, changes)
	return &updated, nil
}

// UpdateStatus moves only the status field through the workflow. A
// self-transition is recognized as a no-op: nothing is persisted and no
// history entry is appended.
func (s *DefectService) UpdateStatus(ctx context.Context, actorID, id int64, newStatus domain.DefectStatus) (*domain.Defect, error) {
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": string(newStatus)})
	}

	var result domain.Defect
	var oldStatus domain.DefectStatus
	changed := false

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		existing, err := tx.Defects().GetByID(ctx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperrors.NewNotFound("defect", map[string]any{"id": id})
			}
			return err
		}
		if existing.Status == newStatus {
			result = *existing
			return nil
		}
		if !workflow.CanTransition(existing.Status, newStatus) {
			return apperrors.NewInvalidTransition(existing.Status, workflow.NextStates(existing.Status))
		}

		oldStatus = existing.Status
		result = *existing
		result.Status = newStatus
		changed = true

		if err := tx.Defects().Update(ctx, &result); err != nil {
			return err
		}
		return tx.History().Create(ctx, &domain.DefectHistory{
			DefectID:  result.ID,
			UserID:    actorID,
			FieldName: "status",
			OldValue:  string(oldStatus),
			NewValue:  string(newStatus),
			Action:    statusAction(newStatus),
		})
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publish(ctx, events.Event{
			Type:     events.EventDefectStatusChanged,
			DefectID: result.ID,
			ActorID:  actorID,
			Payload:  events.DefectStatusChangedPayload{OldStatus: oldStatus, NewStatus: newStatus},
		})
	}
	return &result, nil
}

// AllowedTransitions returns the statuses the defect can move to next,
// excluding its current status.
func (s *DefectService) AllowedTransitions(ctx context.Context, id int64) ([]domain.DefectStatus, error) {
	defect, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return workflow.NextStates(defect.Status), nil
}

// Get fetches one defect.
func (s *DefectService) Get(ctx context.Context, id int64) (*domain.Defect, error) {
	defect, err := s.store.Defects().GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("defect", map[string]any{"id": id})
		}
		return nil, err
	}
	return defect, nil
}

// List returns all defects, optionally filtered by project.
func (s *DefectService) List(ctx context.Context, projectID *int64) ([]domain.Defect, error) {
	if projectID != nil {
		return s.store.Defects().ListByProject(ctx, *projectID)
	}
	return s.store.Defects().List(ctx)
}

// History returns the defect's audit trail, oldest first.
func (s *DefectService) History(ctx context.Context, id int64) ([]domain.DefectHistory, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.History().ListByDefect(ctx, id)
}

// Delete removes the defect. No history entry is recorded; the trail dies
// with the defect. Deleting a missing id is best-effort.
func (s *DefectService) Delete(ctx context.Context, id int64) error {
	return s.store.Defects().Delete(ctx, id)
}

// diffTracked compares the tracked fields {title, status, priority,
// assigneeId} and reports one change per differing field.
func diffTracked(before, after *domain.Defect) []fieldChange {
	var changes []fieldChange
	if before.Title != after.Title {
		changes = append(changes, fieldChange{"title", before.Title, after.Title, domain.ActionUpdated})
	}
	if before.Status != after.Status {
		changes = append(changes, fieldChange{"status", string(before.Status), string(after.Status), statusAction(after.Status)})
	}
	if before.Priority != after.Priority {
		changes = append(changes, fieldChange{"priority", string(before.Priority), string(after.Priority), domain.ActionUpdated})
	}
	if formatAssignee(before.AssigneeID) != formatAssignee(after.AssigneeID) {
		changes = append(changes, fieldChange{"assigneeId", formatAssignee(before.AssigneeID), formatAssignee(after.AssigneeID), domain.ActionAssigned})
	}
	return changes
}

// statusAction tags moves into CANCELLED distinctly from other status moves.
func statusAction(to domain.DefectStatus) domain.HistoryAction {
	if to == domain.DefectStatusCancelled {
		return domain.ActionCancelled
	}
	return domain.ActionStatusChanged
}

func formatAssignee(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

func validateText(title, description string) error {
	if title == "" {
		return apperrors.NewValidationError("title required", nil)
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return apperrors.NewValidationError("title too long", map[string]any{"max": maxTitleLen})
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return apperrors.NewValidationError("description too long", map[string]any{"max": maxDescriptionLen})
	}
	return nil
}

func validateReferences(ctx context.Context, tx repository.Store, projectID int64, assigneeID *int64) error {
	if projectID == 0 {
		return apperrors.NewValidationError("projectId required", nil)
	}
	exists, err := tx.Projects().ExistsByID(ctx, projectID)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NewValidationError("project not found", map[string]any{"projectId": projectID})
	}
	if assigneeID != nil {
		exists, err := tx.Users().ExistsByID(ctx, *assigneeID)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NewValidationError("assignee not found", map[string]any{"assigneeId": *assigneeID})
		}
	}
	return nil
}

func (s *DefectService) publishChanges(ctx context.Context, actorID int64, defect *domain.Defect, changes []fieldChange) {
	for _, change := range changes {
		switch change.field {
		case "status":
			s.publish(ctx, events.Event{
				Type:     events.EventDefectStatusChanged,
				DefectID: defect.ID,
				ActorID:  actorID,
				Payload: events.DefectStatusChangedPayload{
					OldStatus: domain.DefectStatus(change.oldValue),
					NewStatus: domain.DefectStatus(change.newValue),
				},
			})
		case "priority":
			s.publish(ctx, events.Event{
				Type:     events.EventDefectPriorityChanged,
				DefectID: defect.ID,
				ActorID:  actorID,
				Payload: events.DefectPriorityChangedPayload{
					OldPriority: domain.DefectPriority(change.oldValue),
					NewPriority: domain.DefectPriority(change.newValue),
				},
			})
		case "assigneeId":
			s.publish(ctx, events.Event{
				Type:     events.EventDefectAssigned,
				DefectID: defect.ID,
				ActorID:  actorID,
				Payload:  events.DefectAssignedPayload{AssigneeID: defect.AssigneeID},
			})
		}
	}
}

func (s *DefectService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
