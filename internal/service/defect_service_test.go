package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemcontrol/defect-service/internal/domain"
	"github.com/systemcontrol/defect-service/internal/events"
	"github.com/systemcontrol/defect-service/internal/repository"
	apperrors "github.com/systemcontrol/defect-service/pkg/util"
)

// recordingDispatcher captures published events for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, e := range d.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

type fixture struct {
	store      repository.Store
	dispatcher *recordingDispatcher
	service    *DefectService
	projectID  int64
	engineerID int64
	managerID  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()

	project := &domain.Project{Name: "Flow Control"}
	require.NoError(t, store.Projects().Create(ctx, project))

	engineer := &domain.User{Username: "eng", PasswordHash: "x", Role: domain.RoleEngineer}
	require.NoError(t, store.Users().Create(ctx, engineer))
	manager := &domain.User{Username: "mgr", PasswordHash: "x", Role: domain.RoleManager}
	require.NoError(t, store.Users().Create(ctx, manager))

	dispatcher := &recordingDispatcher{}
	return &fixture{
		store:      store,
		dispatcher: dispatcher,
		service:    NewDefectService(store, dispatcher),
		projectID:  project.ID,
		engineerID: engineer.ID,
		managerID:  manager.ID,
	}
}

func (f *fixture) createDefect(t *testing.T, input DefectCreateInput) *domain.Defect {
	t.Helper()
	if input.ProjectID == 0 {
		input.ProjectID = f.projectID
	}
	defect, err := f.service.Create(context.Background(), f.managerID, input)
	require.NoError(t, err)
	return defect
}

func (f *fixture) history(t *testing.T, defectID int64) []domain.DefectHistory {
	t.Helper()
	entries, err := f.service.History(context.Background(), defectID)
	require.NoError(t, err)
	return entries
}

func TestCreateAppliesDefaultsAndRecordsCreation(t *testing.T) {
	f := newFixture(t)

	defect := f.createDefect(t, DefectCreateInput{Title: "Pump overheats"})

	assert.Equal(t, domain.DefectStatusNew, defect.Status)
	assert.Equal(t, domain.PriorityMedium, defect.Priority)
	assert.NotZero(t, defect.ID)

	entries := f.history(t, defect.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActionCreated, entries[0].Action)
	assert.Equal(t, "defect", entries[0].FieldName)
	assert.Equal(t, "", entries[0].OldValue)
	assert.Equal(t, "Pump overheats", entries[0].NewValue)
	assert.Equal(t, f.managerID, entries[0].UserID)

	created := f.dispatcher.byType(events.EventDefectCreated)
	require.Len(t, created, 1)
	assert.Equal(t, defect.ID, created[0].DefectID)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, f.managerID, DefectCreateInput{ProjectID: f.projectID})
	assertDomainCode(t, err, "VALIDATION_FAILED")

	_, err = f.service.Create(ctx, f.managerID, DefectCreateInput{Title: "t", ProjectID: 999})
	assertDomainCode(t, err, "VALIDATION_FAILED")

	_, err = f.service.Create(ctx, f.managerID, DefectCreateInput{Title: "t", ProjectID: f.projectID, Priority: "SOON"})
	assertDomainCode(t, err, "VALIDATION_FAILED")

	bogus := int64(404)
	_, err = f.service.Create(ctx, f.managerID, DefectCreateInput{Title: "t", ProjectID: f.projectID, AssigneeID: &bogus})
	assertDomainCode(t, err, "VALIDATION_FAILED")
}

func TestCreateSanitizesMarkup(t *testing.T) {
	f := newFixture(t)

	defect := f.createDefect(t, DefectCreateInput{
		Title:       `Valve <script>alert("x")</script>stuck`,
		Description: `Seen on <b class="x">line 3</b> <iframe src="evil"></iframe>`,
	})

	assert.Equal(t, "Valve stuck", defect.Title)
	assert.Equal(t, "Seen on <b>line 3</b>", defect.Description)
}

func TestUpdateRecordsOneEntryPerChangedField(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	defect := f.createDefect(t, DefectCreateInput{Title: "Sensor drift", Priority: domain.PriorityLow})

	updated, err := f.service.Update(ctx, f.engineerID, defect.ID, DefectUpdateInput{
		Title:       "Sensor drift on boot",
		Description: defect.Description,
		Priority:    domain.PriorityHigh,
		Status:      domain.DefectStatusInProgress,
		AssigneeID:  &f.engineerID,
		ProjectID:   f.projectID,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DefectStatusInProgress, updated.Status)

	entries := f.history(t, defect.ID)
	require.Len(t, entries, 5) // creation + 4 changed fields

	byField := map[string]domain.DefectHistory{}
	for _, e := range entries[1:] {
		byField[e.FieldName] = e
		assert.Equal(t, f.engineerID, e.UserID)
	}

	require.Contains(t, byField, "title")
	assert.Equal(t, "Sensor drift", byField["title"].OldValue)
	assert.Equal(t, "Sensor drift on boot", byField["title"].NewValue)
	assert.Equal(t, domain.ActionUpdated, byField["title"].Action)

	require.Contains(t, byField, "status")
	assert.Equal(t, string(domain.DefectStatusNew), byField["status"].OldValue)
	assert.Equal(t, string(domain.DefectStatusInProgress), byField["status"].NewValue)
	assert.Equal(t, domain.ActionStatusChanged, byField["status"].Action)

	require.Contains(t, byField, "priority")
	assert.Equal(t, string(domain.PriorityLow), byField["priority"].OldValue)
	assert.Equal(t, string(domain.PriorityHigh), byField["priority"].NewValue)

	require.Contains(t, byField, "assigneeId")
	assert.Equal(t, "", byField["assigneeId"].OldValue)
	assert.NotEmpty(t, byField["assigneeId"].NewValue)
	assert.Equal(t, domain.ActionAssigned, byField["assigneeId"].Action)
}

func TestUpdateUnchangedFieldsAppendNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	defect := f.createDefect(t, DefectCreateInput{Title: "Relay chatter"})

	_, err := f.service.Update(ctx, f.engineerID, defect.ID, DefectUpdateInput{
		Title:     defect.Title,
		Priority:  defect.Priority,
		Status:    defect.Status,
		ProjectID: f.projectID,
	})
	require.NoError(t, err)

	assert.Len(t, f.history(t, defect.ID), 1)
}

func TestUpdateRejectsIllegalTransitionWithoutSideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	defect := f.createDefect(t, DefectCreateInput{Title: "Leak at joint"})

	_, err := f.service.Update(ctx, f.engineerID, defect.ID, DefectUpdateInput{
		Title:     "Leak at joint, confirmed",
		Priority:  domain.PriorityCritical,
		Status:    domain.DefectStatusClosed,
		ProjectID: f.projectID,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidTransition(err))
	assert.Contains(t, err.Error(), string(domain.DefectStatusInProgress))
	assert.Contains(t, err.Error(), string(domain.DefectStatusCancelled))

	// nothing was applied, not even the legal field changes
	current, getErr := f.service.Get(ctx, defect.ID)
	require.NoError(t, getErr)
	assert.Equal(t, "Leak at joint", current.Title)
	assert.Equal(t, domain.PriorityMedium, current.Priority)
	assert.Equal(t, domain.DefectStatusNew, current.Status)
	assert.Len(t, f.history(t, defect.ID), 1)
}

func TestUpdateStatusWalksTheWorkflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	defect := f.createDefect(t, DefectCreateInput{Title: "Intermittent fault"})

	steps := []domain.DefectStatus{
		domain.DefectStatusInProgress,
		domain.DefectStatusInReview,
		domain.DefectStatusClosed,
		domain.DefectStatusInReview,
		domain.DefectStatusInProgress,
	}
	for _, next := range steps {
		updated, err := f.service.UpdateStatus(ctx, f.engineerID, defect.ID, next)
		require.NoError(t, err, "to %s", next)
		assert.Equal(t, next, updated.Status)
	}

	entries := f.history(t, defect.ID)
	require.Len(t, entries, len(steps)+1)
	for i, next := range steps {
		entry := entries[i+1]
		assert.Equal(t, "status", entry.FieldName)
		assert.Equal(t, string(next), entry.NewValue)
		assert.Equal(t, domain.ActionStatusChanged, entry.Action)
	}
}

func TestUpdateStatusSelfTransitionIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	defect := f.createDefect(t, DefectCreateInput{Title: "Ghost reading"})

	updated, err := f.service.UpdateStatus(ctx, f.engineerID, defect.ID, domain.DefectStatusNew)
	require.NoError(t, err)
	assert.Equal(t, domain.DefectStatusNew, updated.Status)

	assert.Len(t, f.history(t, defect.ID), 1)
	assert.Empty(t, f.dispatcher.byType(events.EventDefectStatusChanged))
}

func TestUpdateStatusIntoCancelledTagsAction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	defect := f.createDefect(t, DefectCreateInput{Title: "Duplicate of older report"})

	_, err := f.service.UpdateStatus(ctx, f.managerID, defect.ID, domain.DefectStatusCancelled)
	require.NoError(t, err)

	entries := f.history(t, defect.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ActionCancelled, entries[1].Action)

	// cancelled defects can only be reopened
	reopened, err := f.service.UpdateStatus(ctx, f.managerID, defect.ID, domain.DefectStatusNew)
	require.NoError(t, err)
	assert.Equal(t, domain.DefectStatusNew, reopened.Status)
}

func TestUpdateStatusRejectsIllegalMove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	defect := f.createDefect(t, DefectCreateInput{Title: "Flaky limit switch"})
	_, err := f.service.UpdateStatus(ctx, f.engineerID, defect.ID, domain.DefectStatusInProgress)
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(ctx, f.engineerID, defect.ID, domain.DefectStatusClosed)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidTransition(err))

	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.ElementsMatch(t,
		[]string{string(domain.DefectStatusInReview), string(domain.DefectStatusCancelled)},
		domainErr.Details["allowed"])
	assert.Equal(t, string(domain.DefectStatusInProgress), domainErr.Details["current"])

	current, getErr := f.service.Get(ctx, defect.ID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.DefectStatusInProgress, current.Status)
	assert.Len(t, f.history(t, defect.ID), 2)
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	f := newFixture(t)

	defect := f.createDefect(t, DefectCreateInput{Title: "Misc"})
	_, err := f.service.UpdateStatus(context.Background(), f.engineerID, defect.ID, "DONE")
	assertDomainCode(t, err, "VALIDATION_FAILED")
}

func TestAllowedTransitionsExcludesCurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	defect := f.createDefect(t, DefectCreateInput{Title: "Noise on bus"})

	allowed, err := f.service.AllowedTransitions(ctx, defect.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]domain.DefectStatus{domain.DefectStatusInProgress, domain.DefectStatusCancelled},
		allowed)

	_, err = f.service.AllowedTransitions(ctx, 12345)
	assertDomainCode(t, err, "NOT_FOUND")
}

func TestLastWriteWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	defect := f.createDefect(t, DefectCreateInput{Title: "Calibration off"})

	// two writers update from the same snapshot; the second replaces the first
	_, err := f.service.Update(ctx, f.engineerID, defect.ID, DefectUpdateInput{
		Title: "Calibration off by 2%", Priority: defect.Priority, Status: defect.Status, ProjectID: f.projectID,
	})
	require.NoError(t, err)

	final, err := f.service.Update(ctx, f.managerID, defect.ID, DefectUpdateInput{
		Title: "Calibration off by 5%", Priority: defect.Priority, Status: defect.Status, ProjectID: f.projectID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Calibration off by 5%", final.Title)

	// both writes remain visible in the trail
	entries := f.history(t, defect.ID)
	require.Len(t, entries, 3)
	assert.Equal(t, "Calibration off by 2%", entries[1].NewValue)
	assert.Equal(t, "Calibration off by 2%", entries[2].OldValue)
	assert.Equal(t, "Calibration off by 5%", entries[2].NewValue)
}

func TestHistoryAndGetUnknownDefect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Get(ctx, 99)
	assertDomainCode(t, err, "NOT_FOUND")

	_, err = f.service.History(ctx, 99)
	assertDomainCode(t, err, "NOT_FOUND")
}

func TestDeleteIsBestEffort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	defect := f.createDefect(t, DefectCreateInput{Title: "To be dropped"})
	require.NoError(t, f.service.Delete(ctx, defect.ID))
	require.NoError(t, f.service.Delete(ctx, defect.ID))

	_, err := f.service.Get(ctx, defect.ID)
	assertDomainCode(t, err, "NOT_FOUND")
}

func TestListFiltersByProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := &domain.Project{Name: "Telemetry"}
	require.NoError(t, f.store.Projects().Create(ctx, other))

	f.createDefect(t, DefectCreateInput{Title: "A"})
	f.createDefect(t, DefectCreateInput{Title: "B", ProjectID: other.ID})

	all, err := f.service.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := f.service.List(ctx, &other.ID)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "B", scoped[0].Title)
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr), "want DomainError, got %T", err)
	assert.Equal(t, code, domainErr.Code)
}
