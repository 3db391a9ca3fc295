package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/systemcontrol/defect-service/internal/api/http/handlers"
	"github.com/systemcontrol/defect-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Defects        *handlers.DefectsHandler
	Projects       *handlers.ProjectsHandler
	Comments       *handlers.CommentsHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes. Every defect route sits behind the bearer
// middleware plus the matrix row for its action.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Post("/auth/login", cfg.Auth.Login)
	app.Get("/auth/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	defects := app.Group("/defects", cfg.AuthMiddleware.Handle)
	defects.Post("", auth.Require(auth.ActionDefectCreate), cfg.Defects.Create)
	defects.Get("", auth.Require(auth.ActionDefectRead), cfg.Defects.List)
	defects.Get("/:id", auth.Require(auth.ActionDefectRead), cfg.Defects.Get)
	defects.Put("/:id", auth.Require(auth.ActionDefectUpdate), cfg.Defects.Update)
	defects.Delete("/:id", auth.Require(auth.ActionDefectDelete), cfg.Defects.Delete)
	defects.Put("/:id/status", auth.Require(auth.ActionDefectUpdate), cfg.Defects.UpdateStatus)
	defects.Get("/:id/allowed-statuses", auth.Require(auth.ActionDefectRead), cfg.Defects.AllowedStatuses)
	defects.Get("/:id/history", auth.Require(auth.ActionDefectRead), cfg.Defects.History)
	defects.Post("/:id/comments", auth.Require(auth.ActionCommentWrite), cfg.Comments.Create)
	defects.Get("/:id/comments", auth.Require(auth.ActionDefectRead), cfg.Comments.List)

	app.Delete("/comments/:id", cfg.AuthMiddleware.Handle, auth.Require(auth.ActionCommentWrite), cfg.Comments.Delete)
	app.Get("/users", cfg.AuthMiddleware.Handle, auth.Require(auth.ActionDefectRead), cfg.Users.List)

	projects := app.Group("/projects", cfg.AuthMiddleware.Handle)
	projects.Post("", auth.Require(auth.ActionProjectManage), cfg.Projects.Create)
	projects.Get("", auth.Require(auth.ActionDefectRead), cfg.Projects.List)
	projects.Get("/:id", auth.Require(auth.ActionDefectRead), cfg.Projects.Get)
	projects.Delete("/:id", auth.Require(auth.ActionProjectManage), cfg.Projects.Delete)

	reports := app.Group("/reports", cfg.AuthMiddleware.Handle)
	reports.Get("/analytics", auth.Require(auth.ActionReportView), cfg.Reports.Analytics)
}
