package auth

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/spec-kit/dashboard/internal/gateway"
)

const (
	msgUnreachable    = "Unable to reach the identity service. Check your connection and try again."
	msgMalformed      = "The identity service sent an unexpected response. Please try again."
	msgSessionExpired = "Your session has expired. Please sign in again."
)

var fallbackMessages = map[opKind]string{
	opLogin:             "Unable to sign in.",
	opRegister:          "Unable to register.",
	opForgotPassword:    "Unable to request a password reset.",
	opResetPassword:     "Unable to reset the password.",
	opMagicLinkRequest:  "Unable to send the sign-in link.",
	opMagicLinkAuth:     "Unable to sign in with this link.",
	opEmailConfirmation: "Unable to send the confirmation email.",
}

// FailureMessage renders err the way the forms show it.
func FailureMessage(err error) string {
	return failureMessage(err, "Something went wrong.")
}

func failureMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if failure, ok := gateway.AsFailure(err); ok {
		switch failure.Kind {
		case gateway.Unreachable:
			return msgUnreachable
		case gateway.MalformedResponse:
			return msgMalformed
		case gateway.StaleSession:
			return msgSessionExpired
		}
		if failure.Message != "" {
			return failure.Message
		}
		return fallback
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return verrs.Error()
	}
	if errors.Is(err, ErrInvalidResetLink) || errors.Is(err, ErrInvalidBirthDate) {
		return err.Error()
	}
	return fallback
}
