package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/ralovishna/money-manager-api/internal/api/http/handlers"
	"github.com/ralovishna/money-manager-api/internal/auth"
	"github.com/ralovishna/money-manager-api/internal/observability"
)

// APIPrefix is the base path of every business endpoint.
const APIPrefix = "/api/v1.0"

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Profiles      *handlers.ProfileHandler
	Categories    *handlers.CategoryHandler
	Expenses      *handlers.TransactionHandler
	Incomes       *handlers.TransactionHandler
	Dashboard     *handlers.DashboardHandler
	Authenticator *auth.Authenticator
	Metrics       *observability.Metrics
}

// RegisterRoutes wires HTTP routes. The authenticator runs on every API
// request and only attaches a principal; groups that need one add
// RequireAuthenticated.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	api := app.Group(APIPrefix, cfg.Authenticator.Handle)
	api.Post("/register", cfg.Profiles.Register)
	api.Get("/activate", cfg.Profiles.Activate)
	api.Post("/login", cfg.Profiles.Login)

	protected := api.Group("", auth.RequireAuthenticated())
	protected.Get("/profile", cfg.Profiles.Profile)

	categories := protected.Group("/categories")
	categories.Post("", cfg.Categories.Create)
	categories.Get("", cfg.Categories.List)
	categories.Get("/:type", cfg.Categories.ListByType)
	categories.Put("/:id", cfg.Categories.Update)

	registerLedger(protected.Group("/expenses"), cfg.Expenses, "expense")
	registerLedger(protected.Group("/incomes"), cfg.Incomes, "income")

	protected.Get("/dashboard", cfg.Dashboard.Dashboard)
	protected.Post("/filter", cfg.Dashboard.Filter)
}

func registerLedger(group fiber.Router, h *handlers.TransactionHandler, kind string) {
	group.Post("", h.Create)
	group.Get("", h.List)
	group.Delete("/:id", h.Delete)
	group.Get("/excel/download/"+kind, h.Download)
	group.Get("/email/"+kind+"-excel", h.Email)
}
