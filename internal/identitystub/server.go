package identitystub

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dashboard/internal/domain"
	apperrors "github.com/spec-kit/dashboard/pkg/util"
)

// NewApp builds the stub's fiber app. Errors are rendered as
// {"error":{"code","message","details"}}.
func NewApp(svc *Service) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "identity-stub",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	h := &handler{svc: svc}
	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive", "service": "identity-stub"})
	})

	authGroup := app.Group("/auth")
	authGroup.Post("/login", h.login)
	authGroup.Post("/register/:role", h.register)
	authGroup.Post("/forgot-password", h.forgotPassword)
	authGroup.Post("/reset-password", h.resetPassword)
	authGroup.Post("/request-magic-link", h.requestMagicLink)
	authGroup.Post("/authenticate-magic-link", h.authenticateMagicLink)

	confirmation := app.Group("/email-confirmation")
	confirmation.Post("/request-confirmation-link", h.requestConfirmation)
	confirmation.Post("/confirm", h.confirmEmail)

	api := app.Group("/api", requireSession(svc))
	api.Get("/profile", h.profile)
	api.Get("/users", requireRole(domain.RoleOwner), h.listUsers)

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	domainErr := apperrors.ToDomainError(err)
	body := fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": body})
}
