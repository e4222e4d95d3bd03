package identitystub

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dashboard/internal/domain"
)

// requireRole ensures the session user has one of the allowed roles. It must
// run after requireSession.
func requireRole(allowed ...domain.RegisterRole) fiber.Handler {
	allowedSet := make(map[domain.RegisterRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		u, ok := userFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if _, exists := allowedSet[u.Role]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}
