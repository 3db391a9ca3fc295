package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/systemcontrol/defect-service/internal/api/dto"
	"github.com/systemcontrol/defect-service/internal/service"
)

// UsersHandler lists accounts for assignee selection. Password hashes never
// leave the service.
type UsersHandler struct {
	service *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{service: authService}
}

// List GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, dto.UserResponse{ID: u.ID, Username: u.Username, Role: u.Role})
	}
	return c.JSON(items)
}
