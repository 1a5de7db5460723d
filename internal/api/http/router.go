package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/facility-tickets/internal/api/http/handlers"
	"github.com/spec-kit/facility-tickets/internal/auth"
	"github.com/spec-kit/facility-tickets/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Auth              *handlers.AuthHandler
	Tickets           *handlers.TicketsHandler
	Verification      *handlers.VerificationHandler
	Admin             *handlers.AdminHandler
	Categories        *handlers.CategoriesHandler
	AuthMiddleware    *auth.AuthMiddleware
	OTPRequestsPerMin int
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)
	authGroup.Get("/session", cfg.AuthMiddleware.Handle, cfg.Auth.Session)

	app.Get("/categories", cfg.AuthMiddleware.Handle, cfg.Categories.List)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	// Lifecycle routes leave role checks to the services so a missing
	// ticket is reported before a role mismatch.
	tickets.Post("/:id/complete", cfg.Tickets.CompleteTicket)
	tickets.Post("/:id/verification", OTPRateLimiter(cfg.OTPRequestsPerMin), cfg.Verification.Request)
	tickets.Post("/:id/verification/confirm", cfg.Verification.Confirm)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Post("/tickets/:id/assign", cfg.Admin.AssignTicket)
	admin.Get("/workers", cfg.Admin.ListWorkers)
	admin.Post("/workers", cfg.Admin.CreateWorker)
}
