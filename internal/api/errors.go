package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/scry-review/internal/api/shared"
	"github.com/phrazzld/scry-review/internal/domain"
	"github.com/phrazzld/scry-review/internal/service/review_queue"
	"github.com/phrazzld/scry-review/internal/service/review_session"
	"github.com/phrazzld/scry-review/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Bad request errors
	case errors.Is(err, domain.ErrInvalidGrade),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, review_queue.ErrInvalidMaxCards),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Session state conflicts
	case errors.Is(err, review_session.ErrInvalidSession):
		return http.StatusConflict

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Storage unavailable while grading; the session did not move
	case errors.Is(err, review_session.ErrPersistence):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, domain.ErrInvalidGrade):
		return "Grade must be an integer between 0 and 5"
	case errors.Is(err, review_queue.ErrInvalidMaxCards):
		return "max_cards must be at least 1"
	case errors.Is(err, review_session.ErrInvalidSession):
		return "Invalid or inactive session"
	case errors.Is(err, review_session.ErrPersistence):
		return "Failed to save review, please retry"
	case errors.Is(err, store.ErrScheduleStateNotFound):
		return "Schedule not found"
	case errors.Is(err, store.ErrInvalidEntity), errors.Is(err, domain.ErrValidation):
		return "Invalid request"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator errors into a short message
// naming the first failing field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}

	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "gte", "min":
		return "too small"
	case "lte", "max":
		return "too large"
	default:
		return "validation failed"
	}
}

// HandleAPIError maps err to a status and sanitized message and writes it.
// When message is non-empty it replaces the mapped message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
