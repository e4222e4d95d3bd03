package domain

import "strings"

// Principal is the authenticated party as reported by the identity service.
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Complete reports whether every principal field is populated.
func (p Principal) Complete() bool {
	return strings.TrimSpace(p.ID) != "" &&
		strings.TrimSpace(p.Name) != "" &&
		strings.TrimSpace(p.Email) != ""
}
