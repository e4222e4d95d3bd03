package dto

import "github.com/spec-kit/dashboard/internal/domain"

// UserPayload is the principal shape on the identity service wire.
type UserPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Principal converts the wire shape to the domain type.
func (u UserPayload) Principal() domain.Principal {
	return domain.Principal{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserFromPrincipal builds the wire shape for a principal.
func UserFromPrincipal(p domain.Principal) UserPayload {
	return UserPayload{ID: p.ID, Name: p.Name, Email: p.Email}
}

// LoginRequest is POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is POST /auth/register/{role}. BirthDate is YYYY-MM-DD.
type RegisterRequest struct {
	Name       string `json:"name"`
	Password   string `json:"password"`
	Email      string `json:"email"`
	BirthDate  string `json:"birthDate"`
	NationalID string `json:"nationalId"`
}

// EmailRequest is used by forgot-password, request-magic-link and email
// confirmation. RedirectURL is omitted when empty.
type EmailRequest struct {
	Email       string `json:"email"`
	RedirectURL string `json:"redirectUrl,omitempty"`
}

// ResetPasswordRequest is POST /auth/reset-password.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// TokenRequest is POST /auth/authenticate-magic-link.
type TokenRequest struct {
	Token string `json:"token"`
}

// AuthResponse carries an established session.
type AuthResponse struct {
	Token string      `json:"token"`
	User  UserPayload `json:"user"`
}

// Session converts the response to a domain session.
func (r AuthResponse) Session() domain.Session {
	return domain.Session{Principal: r.User.Principal(), Token: r.Token}
}

// RegisterResponse carries the created principal.
type RegisterResponse struct {
	User UserPayload `json:"user"`
}

// MessageResponse is the confirmation body of message-only endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}
