package identitystub

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/dashboard/pkg/util"
)

const userKey = "stub_user"

// requireSession validates the bearer token and loads the user.
func requireSession(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperrors.NewUnauthorized("missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return apperrors.NewUnauthorized("invalid authorization header")
		}

		u, err := svc.Authenticate(parts[1])
		if err != nil {
			return err
		}
		c.Locals(userKey, u)
		return c.Next()
	}
}

func userFromContext(c *fiber.Ctx) (User, bool) {
	u, ok := c.Locals(userKey).(User)
	return u, ok
}
