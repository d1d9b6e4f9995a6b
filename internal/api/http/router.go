package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-intake/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Support *handlers.SupportHandler
	Widget  *handlers.WidgetHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	support := app.Group("/api/support")
	support.Post("/submit", cfg.Support.Submit)
	support.Get("/config/:app_id", cfg.Support.WidgetConfig)
	support.Get("/tickets", cfg.Support.ListTickets)
	support.Get("/license-info", cfg.Support.LicenseInfo)
	support.Post("/routes/reload", cfg.Support.ReloadRoutes)

	support.Get("/widget.js", cfg.Widget.Script)
	support.Get("/widget.css", cfg.Widget.Stylesheet)
	support.Get("/widget/embed", cfg.Widget.Embed)
}
