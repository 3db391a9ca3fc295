package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/systemcontrol/defect-service/internal/api/dto"
	"github.com/systemcontrol/defect-service/internal/auth"
	"github.com/systemcontrol/defect-service/internal/domain"
	"github.com/systemcontrol/defect-service/internal/service"
	apperrors "github.com/systemcontrol/defect-service/pkg/util"
)

// DefectsHandler exposes the defect lifecycle endpoints.
type DefectsHandler struct {
	service *service.DefectService
}

// NewDefectsHandler constructs handler.
func NewDefectsHandler(defectService *service.DefectService) *DefectsHandler {
	return &DefectsHandler{service: defectService}
}

// Create POST /defects.
func (h *DefectsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateDefectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.DefectCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		AssigneeID:  req.AssigneeID,
		ProjectID:   req.ProjectID,
		DueDate:     req.DueDate,
	}
	defect, err := h.service.Create(c.UserContext(), auth.ActorID(c), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(defectResponse(defect))
}

// List GET /defects. An optional projectId query narrows the result.
func (h *DefectsHandler) List(c *fiber.Ctx) error {
	var projectID *int64
	if raw := c.Query("projectId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return apperrors.NewValidationError("invalid projectId", map[string]any{"projectId": raw})
		}
		projectID = &parsed
	}

	defects, err := h.service.List(c.UserContext(), projectID)
	if err != nil {
		return err
	}
	items := make([]dto.DefectResponse, 0, len(defects))
	for i := range defects {
		items = append(items, defectResponse(&defects[i]))
	}
	return c.JSON(items)
}

// Get GET /defects/:id.
func (h *DefectsHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	defect, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(defectResponse(defect))
}

// Update PUT /defects/:id. The payload is a full-entity replacement.
func (h *DefectsHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateDefectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.DefectUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		AssigneeID:  req.AssigneeID,
		ProjectID:   req.ProjectID,
		DueDate:     req.DueDate,
	}
	defect, err := h.service.Update(c.UserContext(), auth.ActorID(c), id, input)
	if err != nil {
		return err
	}
	return c.JSON(defectResponse(defect))
}

// UpdateStatus PUT /defects/:id/status. The audited actor is the authenticated
// principal, not the userId in the body.
func (h *DefectsHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}

	defect, err := h.service.UpdateStatus(c.UserContext(), auth.ActorID(c), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(defectResponse(defect))
}

// AllowedStatuses GET /defects/:id/allowed-statuses.
func (h *DefectsHandler) AllowedStatuses(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	statuses, err := h.service.AllowedTransitions(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.AllowedStatusesResponse{AllowedStatuses: statuses})
}

// History GET /defects/:id/history, oldest entries first.
func (h *DefectsHandler) History(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	entries, err := h.service.History(c.UserContext(), id)
	if err != nil {
		return err
	}
	items := make([]dto.DefectHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.DefectHistoryResponse{
			ID:        entry.ID,
			DefectID:  entry.DefectID,
			UserID:    entry.UserID,
			FieldName: entry.FieldName,
			OldValue:  entry.OldValue,
			NewValue:  entry.NewValue,
			Action:    entry.Action,
			CreatedAt: entry.CreatedAt,
		})
	}
	return c.JSON(items)
}

// Delete DELETE /defects/:id.
func (h *DefectsHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{"id": raw})
	}
	return id, nil
}

func defectResponse(defect *domain.Defect) dto.DefectResponse {
	return dto.DefectResponse{
		ID:          defect.ID,
		Title:       defect.Title,
		Description: defect.Description,
		Priority:    defect.Priority,
		Status:      defect.Status,
		AssigneeID:  defect.AssigneeID,
		ProjectID:   defect.ProjectID,
		DueDate:     defect.DueDate,
		CreatedAt:   defect.CreatedAt,
		UpdatedAt:   defect.UpdatedAt,
	}
}
