package handlers

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/spec-kit/dashboard/internal/auth"
	"github.com/spec-kit/dashboard/internal/gateway"
	apperrors "github.com/spec-kit/dashboard/pkg/util"
)

// mapError turns machine and gateway errors into the console's error
// envelope. Unknown errors pass through to the error middleware.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if failure, ok := gateway.AsFailure(err); ok {
		msg := auth.FailureMessage(err)
		switch failure.Kind {
		case gateway.Rejected:
			status := http.StatusBadGateway
			if failure.Status >= 400 && failure.Status < 500 {
				status = failure.Status
			}
			return apperrors.NewDomainError("IDENTITY_REJECTED", msg, status, nil).Wrap(err)
		case gateway.Unreachable:
			return apperrors.NewDomainError("IDENTITY_UNREACHABLE", msg, http.StatusServiceUnavailable, nil).Wrap(err)
		case gateway.MalformedResponse:
			return apperrors.NewDomainError("IDENTITY_BAD_RESPONSE", msg, http.StatusBadGateway, nil).Wrap(err)
		case gateway.StaleSession:
			return apperrors.NewDomainError("SESSION_EXPIRED", msg, http.StatusUnauthorized, nil).Wrap(err)
		}
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		details := make(map[string]any, len(verrs))
		for field, fieldErr := range verrs {
			details[field] = fieldErr.Error()
		}
		return apperrors.NewValidationError("please correct the highlighted fields", details)
	}

	switch {
	case errors.Is(err, auth.ErrInvalidResetLink):
		return apperrors.NewDomainError("INVALID_RESET_LINK", err.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, auth.ErrInvalidBirthDate):
		return apperrors.NewValidationError(auth.ErrInvalidBirthDate.Error(), map[string]any{"birthDate": auth.ErrInvalidBirthDate.Error()})
	case errors.Is(err, auth.ErrSuperseded):
		return apperrors.NewConflict("superseded by a newer request", nil)
	}
	return err
}
