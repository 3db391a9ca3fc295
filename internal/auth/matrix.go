package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/systemcontrol/defect-service/internal/domain"
	apperrors "github.com/systemcontrol/defect-service/pkg/util"
)

// Action names an operation gated by the authorization matrix.
type Action string

const (
	ActionDefectCreate  Action = "defect:create"
	ActionDefectUpdate  Action = "defect:update"
	ActionDefectDelete  Action = "defect:delete"
	ActionDefectRead    Action = "defect:read"
	ActionProjectManage Action = "project:manage"
	ActionCommentWrite  Action = "comment:write"
	ActionReportView    Action = "report:view"
)

// matrix is the static action to allowed-roles table. A nil row means any
// authenticated actor. Enforced before a request reaches the lifecycle
// service; the service itself never re-checks roles.
var matrix = map[Action][]domain.Role{
	ActionDefectCreate:  {domain.RoleManager, domain.RoleAdmin},
	ActionDefectUpdate:  {domain.RoleEngineer, domain.RoleManager, domain.RoleAdmin},
	ActionDefectDelete:  {domain.RoleManager, domain.RoleAdmin},
	ActionDefectRead:    nil,
	ActionProjectManage: {domain.RoleManager, domain.RoleAdmin},
	ActionCommentWrite:  nil,
	ActionReportView:    nil,
}

// Allowed reports whether the role may perform the action.
func Allowed(action Action, role domain.Role) bool {
	roles, ok := matrix[action]
	if !ok {
		return false
	}
	if roles == nil {
		return true
	}
	for _, allowed := range roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Require returns middleware enforcing the matrix row for the action. It
// assumes the bearer middleware already ran and set the principal.
func Require(action Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !Allowed(action, principal.Role) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
