package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/skriba-app/skriba-api/internal/config"
	"github.com/skriba-app/skriba-api/internal/handler"
	"github.com/skriba-app/skriba-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SessionHandler *handler.SessionHandler
	EventsHandler  *handler.EventsHandler
	SubmitLimiter  fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	sessions := api.Group("/sessions")
	if deps.SessionHandler != nil {
		deps.SessionHandler.Register(sessions, deps.SubmitLimiter)
	}
	if deps.EventsHandler != nil {
		deps.EventsHandler.Register(sessions)
	}
}
