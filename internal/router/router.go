package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nanashi-dev/nanashi-board/internal/config"
	"github.com/nanashi-dev/nanashi-board/internal/handler"
	"github.com/nanashi-dev/nanashi-board/internal/middleware"
	"github.com/nanashi-dev/nanashi-board/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	BoardHandler *handler.BoardHandler
	RoomHandler  *handler.RoomHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	if deps.BoardHandler != nil {
		threads := api.Group("/threads")
		threads.Use(middleware.RateLimit("board", 120, time.Minute))
		deps.BoardHandler.Register(threads)
	}

	if deps.RoomHandler != nil {
		rooms := api.Group("/rooms")
		deps.RoomHandler.Register(rooms)
	}
}
