package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spec-kit/dashboard/internal/api/dto"
	"github.com/spec-kit/dashboard/internal/domain"
)

// Identity service endpoints.
const (
	EndpointLogin               = "/auth/login"
	EndpointRegister            = "/auth/register/%s"
	EndpointForgotPassword      = "/auth/forgot-password"
	EndpointResetPassword       = "/auth/reset-password"
	EndpointRequestMagicLink    = "/auth/request-magic-link"
	EndpointAuthenticateMagic   = "/auth/authenticate-magic-link"
	EndpointRequestConfirmation = "/email-confirmation/request-confirmation-link"
)

// Sender is the subset of Gateway the identity client needs.
type Sender interface {
	Send(ctx context.Context, endpoint string, payload, out any) error
}

// IdentityClient is a typed client for the identity service contract.
type IdentityClient struct {
	sender Sender
}

// NewIdentityClient wraps a gateway.
func NewIdentityClient(sender Sender) *IdentityClient {
	return &IdentityClient{sender: sender}
}

// Login exchanges credentials for a session.
func (c *IdentityClient) Login(ctx context.Context, email, password string) (domain.Session, error) {
	return c.session(ctx, EndpointLogin, dto.LoginRequest{Email: email, Password: password})
}

// AuthenticateMagicLink exchanges a link token for a session.
func (c *IdentityClient) AuthenticateMagicLink(ctx context.Context, token string) (domain.Session, error) {
	return c.session(ctx, EndpointAuthenticateMagic, dto.TokenRequest{Token: token})
}

// Register creates an account for role. It never establishes a session.
func (c *IdentityClient) Register(ctx context.Context, role domain.RegisterRole, req dto.RegisterRequest) (domain.Principal, error) {
	endpoint := fmt.Sprintf(EndpointRegister, role)
	var raw json.RawMessage
	if err := c.sender.Send(ctx, endpoint, req, &raw); err != nil {
		return domain.Principal{}, err
	}

	var wrapped dto.RegisterResponse
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User.Principal().Complete() {
		return wrapped.User.Principal(), nil
	}
	var bare dto.UserPayload
	if err := json.Unmarshal(raw, &bare); err == nil && bare.Principal().Complete() {
		return bare.Principal(), nil
	}
	return domain.Principal{}, malformedShape(endpoint, "user")
}

// ForgotPassword asks the service to email a reset link.
func (c *IdentityClient) ForgotPassword(ctx context.Context, email, redirectURL string) (string, error) {
	return c.message(ctx, EndpointForgotPassword, dto.EmailRequest{Email: email, RedirectURL: redirectURL})
}

// ResetPassword sets a new password using a reset token.
func (c *IdentityClient) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	return c.message(ctx, EndpointResetPassword, dto.ResetPasswordRequest{Token: token, NewPassword: newPassword})
}

// RequestMagicLink asks the service to email a sign-in link.
func (c *IdentityClient) RequestMagicLink(ctx context.Context, email, redirectURL string) (string, error) {
	return c.message(ctx, EndpointRequestMagicLink, dto.EmailRequest{Email: email, RedirectURL: redirectURL})
}

// RequestEmailConfirmation asks the service to resend the confirmation link.
func (c *IdentityClient) RequestEmailConfirmation(ctx context.Context, email string) (string, error) {
	return c.message(ctx, EndpointRequestConfirmation, dto.EmailRequest{Email: email})
}

// session accepts {token,user} as well as {data:{token,user}}.
func (c *IdentityClient) session(ctx context.Context, endpoint string, payload any) (domain.Session, error) {
	var envelope struct {
		dto.AuthResponse
		Data *dto.AuthResponse `json:"data"`
	}
	if err := c.sender.Send(ctx, endpoint, payload, &envelope); err != nil {
		return domain.Session{}, err
	}

	resp := envelope.AuthResponse
	if envelope.Data != nil {
		resp = *envelope.Data
	}
	session := resp.Session()
	if !session.Complete() {
		return domain.Session{}, malformedShape(endpoint, "token and user")
	}
	return session, nil
}

func (c *IdentityClient) message(ctx context.Context, endpoint string, payload any) (string, error) {
	var resp dto.MessageResponse
	if err := c.sender.Send(ctx, endpoint, payload, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func malformedShape(endpoint, want string) error {
	return &RequestFailure{
		Kind:     MalformedResponse,
		Endpoint: endpoint,
		Message:  fmt.Sprintf("unexpected response from %s", endpoint),
		Err:      errors.New("response is missing " + want),
	}
}
