package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/lead-engine/internal/api/http/handlers"
	"github.com/spec-kit/lead-engine/internal/auth"
	"github.com/spec-kit/lead-engine/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Leads          *handlers.LeadsHandler
	Branches       *handlers.BranchesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Users.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	users := protected.Group("/users")
	users.Get("/me", cfg.Users.Me)
	users.Post("", auth.RequireRole(domain.RoleAdmin, domain.RoleManager, domain.RoleTeamLead), cfg.Users.CreateSubordinate)
	users.Get("", cfg.Users.ListUsers)
	users.Get("/:id", cfg.Users.GetUser)
	users.Put("/:id/branches", auth.RequireRole(domain.RoleAdmin), cfg.Branches.UpdateManagerBranches)

	leads := protected.Group("/leads")
	leads.Post("", cfg.Leads.CreateLead)
	leads.Get("", cfg.Leads.ListLeads)
	leads.Get("/:id", cfg.Leads.GetLead)
	leads.Post("/:id/assign", auth.RequireRole(domain.RoleAdmin, domain.RoleManager, domain.RoleTeamLead), cfg.Leads.AssignLead)
	leads.Post("/:id/close", cfg.Leads.CloseLead)
	leads.Post("/:id/reopen", cfg.Leads.ReopenLead)

	branches := protected.Group("/branches")
	branches.Get("", cfg.Branches.ListBranches)
	branches.Post("", auth.RequireRole(domain.RoleAdmin), cfg.Branches.CreateBranch)
	branches.Patch("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Branches.UpdateBranch)
}
