package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dashboard/internal/api/dto"
	"github.com/spec-kit/dashboard/internal/auth"
	"github.com/spec-kit/dashboard/internal/guard"
)

// ScreenHandler describes the screen the guard let through.
type ScreenHandler struct {
	machine *auth.Machine
}

// NewScreenHandler constructs handler.
func NewScreenHandler(machine *auth.Machine) *ScreenHandler {
	return &ScreenHandler{machine: machine}
}

// Show handles GET of any screen route.
func (h *ScreenHandler) Show(c *fiber.Ctx) error {
	return c.JSON(dto.ScreenResponse{
		Screen:  guard.Normalize(c.Path()),
		Session: StateResponse(h.machine.State()),
	})
}
