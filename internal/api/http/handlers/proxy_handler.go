package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dashboard/internal/gateway"
	apperrors "github.com/spec-kit/dashboard/pkg/util"
)

// ProxyHandler forwards business-data calls with the session token.
type ProxyHandler struct {
	client *gateway.AuthorizedClient
	signIn string
}

// NewProxyHandler constructs handler. signIn is where stale sessions are sent.
func NewProxyHandler(client *gateway.AuthorizedClient, signIn string) *ProxyHandler {
	return &ProxyHandler{client: client, signIn: signIn}
}

// Forward handles ANY /api/*.
func (h *ProxyHandler) Forward(c *fiber.Ctx) error {
	endpoint := "/api/" + c.Params("*")
	if q := c.Request().URI().QueryString(); len(q) > 0 {
		endpoint += "?" + string(q)
	}

	var payload any
	if body := c.Body(); len(body) > 0 {
		if !json.Valid(body) {
			return apperrors.NewBadRequest("request body must be JSON")
		}
		payload = json.RawMessage(append([]byte(nil), body...))
	}

	var raw []byte
	err := h.client.Do(c.UserContext(), c.Method(), endpoint, payload, &raw)
	if gateway.IsKind(err, gateway.StaleSession) {
		de := apperrors.ToDomainError(mapError(err))
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"error":    fiber.Map{"code": de.Code, "message": de.Message},
			"redirect": h.signIn,
		})
	}
	if err != nil {
		return mapError(err)
	}

	if len(raw) == 0 {
		return c.SendStatus(http.StatusNoContent)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}
