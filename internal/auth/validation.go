package auth

import (
	"errors"
	"strings"
	"time"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/spec-kit/dashboard/internal/domain"
)

// ErrInvalidResetLink is returned for reset tokens that cannot be genuine.
var ErrInvalidResetLink = errors.New("this password reset link is invalid or has expired")

const minResetTokenLength = 10

// RegistrationInput is what the registration form collects. BirthDate is
// day/month/year.
type RegistrationInput struct {
	Name       string              `json:"name"`
	Email      string              `json:"email"`
	Password   string              `json:"password"`
	BirthDate  string              `json:"birthDate"`
	NationalID string              `json:"nationalId"`
	Role       domain.RegisterRole `json:"role"`
}

// Validate checks the form locally. Password strength is deliberately not
// checked here; the identity service decides.
func (in RegistrationInput) Validate(now time.Time) error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required),
		validation.Field(&in.BirthDate, validation.Required, validation.By(adultOn(now))),
		validation.Field(&in.NationalID, validation.Required, validation.By(elevenDigits)),
		validation.Field(&in.Role, validation.Required, validation.By(knownRole)),
	)
}

// NormalizeNationalID strips punctuation such as "123.456.789-01".
func NormalizeNationalID(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
}

func adultOn(now time.Time) validation.RuleFunc {
	return func(value interface{}) error {
		raw, _ := value.(string)
		birth, err := ParseBirthDate(raw)
		if err != nil {
			return ErrInvalidBirthDate
		}
		if !IsAdultOn(birth, now) {
			return errors.New("you must be at least 18 years old")
		}
		return nil
	}
}

func elevenDigits(value interface{}) error {
	raw, _ := value.(string)
	if len(NormalizeNationalID(raw)) != 11 {
		return errors.New("national id must have 11 digits")
	}
	return nil
}

func knownRole(value interface{}) error {
	role, _ := value.(domain.RegisterRole)
	if !role.Valid() {
		return errors.New("role must be owner, employee or client")
	}
	return nil
}

func validResetToken(token string) bool {
	return len(strings.TrimSpace(token)) >= minResetTokenLength
}
