package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/dashboard/internal/api/http/handlers"
	"github.com/spec-kit/dashboard/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Session *handlers.SessionHandler
	Screens *handlers.ScreenHandler
	// Proxy is nil when no business API is configured.
	Proxy   *handlers.ProxyHandler
	Metrics fiber.Handler
	Guard   fiber.Handler
}

// RegisterRoutes wires HTTP routes. Screens are the catch-all and go last.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	sessionGroup := app.Group("/session")
	sessionGroup.Get("/", cfg.Session.Show)
	sessionGroup.Post("/login", cfg.Session.Login)
	sessionGroup.Post("/register", cfg.Session.Register)
	sessionGroup.Post("/forgot-password", cfg.Session.ForgotPassword)
	sessionGroup.Post("/reset-password", cfg.Session.ResetPassword)
	sessionGroup.Post("/magic-link", cfg.Session.RequestMagicLink)
	sessionGroup.Post("/magic-link/authenticate", cfg.Session.AuthenticateMagicLink)
	sessionGroup.Post("/email-confirmation", cfg.Session.RequestEmailConfirmation)
	sessionGroup.Post("/logout", cfg.Session.Logout)
	sessionGroup.Post("/password-strength", cfg.Session.PasswordStrength)

	if cfg.Proxy != nil {
		app.All("/api/*", cfg.Proxy.Forward)
	}

	app.Get("/*", cfg.Guard, cfg.Screens.Show)
}

// NewApp builds the console's fiber app with middlewares and routes.
func NewApp(name string, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration, routes RouteConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, logger, metrics, timeout)
	RegisterRoutes(app, routes)
	return app
}
