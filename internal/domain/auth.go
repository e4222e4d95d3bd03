package domain

import "strings"

// Session pairs a principal with the bearer token the identity service issued.
// The token is opaque; nothing here inspects its structure.
type Session struct {
	Principal Principal
	Token     string
}

// Complete reports whether both halves of the session are present. Half
// populated sessions are never persisted or exposed.
func (s Session) Complete() bool {
	return s.Principal.Complete() && strings.TrimSpace(s.Token) != ""
}

// RegisterRole selects the registration endpoint variant.
type RegisterRole string

const (
	RoleOwner    RegisterRole = "owner"
	RoleEmployee RegisterRole = "employee"
	RoleClient   RegisterRole = "client"
)

// Valid reports whether the role is one the identity service accepts.
func (r RegisterRole) Valid() bool {
	switch r {
	case RoleOwner, RoleEmployee, RoleClient:
		return true
	}
	return false
}

// ParseRole normalizes user input into a RegisterRole.
func ParseRole(raw string) (RegisterRole, bool) {
	role := RegisterRole(strings.ToLower(strings.TrimSpace(raw)))
	return role, role.Valid()
}
