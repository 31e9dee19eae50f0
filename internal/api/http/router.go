package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/hospital-records/internal/api/http/handlers"
	"github.com/spec-kit/hospital-records/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        http.Handler
}

// authPrefixes mounts the auth routes at the short path and at the versioned
// API path used by the hospital client.
var authPrefixes = []string{"/auth", "/api/v1/auth"}

// RegisterRoutes wires HTTP routes. Probes and metrics are registered before
// the authentication gate and never see it.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	app.Use(cfg.AuthMiddleware.Handle)

	for _, prefix := range authPrefixes {
		authGroup := app.Group(prefix)
		authGroup.Post("/register", cfg.Auth.Register)
		authGroup.Post("/login", cfg.Auth.Login)
		authGroup.Get("/me", auth.RequireAuthenticated(), cfg.Auth.Me)
	}
}
