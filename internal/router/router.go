package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/streamnest/community-api/internal/config"
	"github.com/streamnest/community-api/internal/handler"
	"github.com/streamnest/community-api/internal/middleware"
	"github.com/streamnest/community-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ProgressHandler     *handler.ProgressHandler
	AchievementHandler  *handler.AchievementHandler
	ActivityFeedHandler *handler.ActivityFeedHandler
	ModerationHandler   *handler.ModerationHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.ProgressHandler != nil {
		progress := api.Group("/progress", jwtMiddleware, middleware.RateLimit("progress", 30, time.Second))
		deps.ProgressHandler.Register(progress)
	}

	if deps.AchievementHandler != nil {
		deps.AchievementHandler.Register(api.Group("/achievements"))
	}

	if deps.ActivityFeedHandler != nil {
		deps.ActivityFeedHandler.Register(api.Group("/activity"), jwtMiddleware)
	}

	if deps.ModerationHandler != nil {
		deps.ModerationHandler.Register(api.Group("/moderation"), jwtMiddleware,
			middleware.RequireRole("moderator", "admin"))
	}
}
