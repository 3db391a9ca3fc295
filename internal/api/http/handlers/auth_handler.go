package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/systemcontrol/defect-service/internal/api/dto"
	"github.com/systemcontrol/defect-service/internal/auth"
	"github.com/systemcontrol/defect-service/internal/service"
	apperrors "github.com/systemcontrol/defect-service/pkg/util"
)

// AuthHandler exposes login and identity endpoints.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	_, token, expiresAt, err := h.service.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.AuthResponse{Token: token, ExpiresAt: expiresAt})
}

// Me GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(dto.UserResponse{
		ID:       principal.User.ID,
		Username: principal.User.Username,
		Role:     principal.User.Role,
	})
}
