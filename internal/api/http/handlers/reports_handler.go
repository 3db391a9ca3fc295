package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/systemcontrol/defect-service/internal/service"
	apperrors "github.com/systemcontrol/defect-service/pkg/util"
)

// ReportsHandler exposes defect analytics.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService}
}

// Analytics GET /reports/analytics. An optional projectId query scopes the
// summary to one project.
func (h *ReportsHandler) Analytics(c *fiber.Ctx) error {
	var projectID *int64
	if raw := c.Query("projectId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return apperrors.NewValidationError("invalid projectId", map[string]any{"projectId": raw})
		}
		projectID = &parsed
	}

	analytics, err := h.service.Analytics(c.UserContext(), projectID)
	if err != nil {
		return err
	}
	return c.JSON(analytics)
}
