package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dashboard/internal/api/dto"
	"github.com/spec-kit/dashboard/internal/auth"
	"github.com/spec-kit/dashboard/internal/domain"
	apperrors "github.com/spec-kit/dashboard/pkg/util"
)

// SessionHandler exposes the auth machine's operations as form posts.
type SessionHandler struct {
	machine *auth.Machine
}

// NewSessionHandler constructs handler.
func NewSessionHandler(machine *auth.Machine) *SessionHandler {
	return &SessionHandler{machine: machine}
}

// Show handles GET /session.
func (h *SessionHandler) Show(c *fiber.Ctx) error {
	return c.JSON(StateResponse(h.machine.State()))
}

// Login handles POST /session/login.
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var req dto.ConsoleLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	if err := h.machine.Login(c.UserContext(), strings.TrimSpace(req.Email), req.Password); err != nil {
		return mapError(err)
	}
	return c.JSON(StateResponse(h.machine.State()))
}

// Register handles POST /session/register.
func (h *SessionHandler) Register(c *fiber.Ctx) error {
	var req dto.ConsoleRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}

	role, _ := domain.ParseRole(req.Role)
	principal, err := h.machine.Register(c.UserContext(), auth.RegistrationInput{
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
		Password:   req.Password,
		BirthDate:  req.BirthDate,
		NationalID: req.NationalID,
		Role:       role,
	})
	if err != nil {
		return mapError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"user":    dto.UserFromPrincipal(principal),
		"message": "Account created. Confirm your email, then sign in.",
	})
}

// ForgotPassword handles POST /session/forgot-password.
func (h *SessionHandler) ForgotPassword(c *fiber.Ctx) error {
	req, err := parseEmail(c)
	if err != nil {
		return err
	}
	msg, err := h.machine.RequestPasswordReset(c.UserContext(), req.Email, req.RedirectURL)
	return h.message(c, msg, err)
}

// ResetPassword handles POST /session/reset-password.
func (h *SessionHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ConsoleResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if req.NewPassword == "" {
		return apperrors.NewValidationError("new password required", nil)
	}
	msg, err := h.machine.ResetPassword(c.UserContext(), req.Token, req.NewPassword)
	return h.message(c, msg, err)
}

// RequestMagicLink handles POST /session/magic-link.
func (h *SessionHandler) RequestMagicLink(c *fiber.Ctx) error {
	req, err := parseEmail(c)
	if err != nil {
		return err
	}
	msg, err := h.machine.RequestMagicLink(c.UserContext(), req.Email, req.RedirectURL)
	return h.message(c, msg, err)
}

// AuthenticateMagicLink handles POST /session/magic-link/authenticate.
func (h *SessionHandler) AuthenticateMagicLink(c *fiber.Ctx) error {
	var req dto.ConsoleTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if req.Token == "" {
		return apperrors.NewValidationError("token required", nil)
	}
	if err := h.machine.AuthenticateViaLink(c.UserContext(), req.Token); err != nil {
		return mapError(err)
	}
	return c.JSON(StateResponse(h.machine.State()))
}

// RequestEmailConfirmation handles POST /session/email-confirmation.
func (h *SessionHandler) RequestEmailConfirmation(c *fiber.Ctx) error {
	req, err := parseEmail(c)
	if err != nil {
		return err
	}
	msg, err := h.machine.RequestEmailConfirmation(c.UserContext(), req.Email)
	return h.message(c, msg, err)
}

// Logout handles POST /session/logout.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	h.machine.Logout(c.UserContext())
	return c.JSON(StateResponse(h.machine.State()))
}

// PasswordStrength handles POST /session/password-strength.
func (h *SessionHandler) PasswordStrength(c *fiber.Ctx) error {
	var req dto.PasswordStrengthRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	score := auth.PasswordScore(req.Password)
	return c.JSON(dto.PasswordStrengthResponse{Score: score, Label: auth.StrengthLabel(score)})
}

func (h *SessionHandler) message(c *fiber.Ctx, msg string, err error) error {
	if err != nil {
		return mapError(err)
	}
	return c.JSON(dto.MessageResponse{Message: msg})
}

func parseEmail(c *fiber.Ctx) (dto.ConsoleEmailRequest, error) {
	var req dto.ConsoleEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return req, apperrors.NewBadRequest("invalid payload")
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		return req, apperrors.NewValidationError("email required", nil)
	}
	return req, nil
}

// StateResponse renders an auth state snapshot.
func StateResponse(st auth.State) dto.SessionStateResponse {
	resp := dto.SessionStateResponse{
		Status:        string(st.Status()),
		Authenticated: st.IsAuthenticated(),
		Loading:       st.Phase == auth.PhasePending,
		Error:         st.Err,
	}
	if p, ok := st.Principal(); ok {
		user := dto.UserFromPrincipal(p)
		resp.User = &user
	}
	return resp
}
