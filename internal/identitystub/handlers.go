package identitystub

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dashboard/internal/api/dto"
	"github.com/spec-kit/dashboard/internal/domain"
	apperrors "github.com/spec-kit/dashboard/pkg/util"
)

type handler struct {
	svc *Service
}

func (h *handler) login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	u, token, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.AuthResponse{Token: token, User: dto.UserFromPrincipal(u.Principal())})
}

func (h *handler) register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	u, err := h.svc.Register(domain.RegisterRole(c.Params("role")), req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.RegisterResponse{User: dto.UserFromPrincipal(u.Principal())})
}

func (h *handler) forgotPassword(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	return c.JSON(dto.MessageResponse{Message: h.svc.ForgotPassword(req.Email, req.RedirectURL)})
}

func (h *handler) resetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if err := h.svc.ResetPassword(req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Password updated. You can sign in now."})
}

func (h *handler) requestMagicLink(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	return c.JSON(dto.MessageResponse{Message: h.svc.RequestMagicLink(req.Email, req.RedirectURL)})
}

func (h *handler) authenticateMagicLink(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	u, token, err := h.svc.AuthenticateMagicLink(req.Token)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{Token: token, User: dto.UserFromPrincipal(u.Principal())}})
}

func (h *handler) requestConfirmation(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	msg, err := h.svc.RequestConfirmation(req.Email)
	if err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: msg})
}

func (h *handler) confirmEmail(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if err := h.svc.ConfirmEmail(req.Token); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Email confirmed."})
}

func (h *handler) profile(c *fiber.Ctx) error {
	u, _ := userFromContext(c)
	return c.JSON(fiber.Map{
		"user":      dto.UserFromPrincipal(u.Principal()),
		"role":      u.Role,
		"confirmed": u.Confirmed,
	})
}

func (h *handler) listUsers(c *fiber.Ctx) error {
	users := h.svc.Users()
	out := make([]dto.UserPayload, 0, len(users))
	for _, u := range users {
		out = append(out, dto.UserFromPrincipal(u.Principal()))
	}
	return c.JSON(fiber.Map{"users": out})
}
