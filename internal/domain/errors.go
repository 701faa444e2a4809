package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidGrade is returned when a review grade is outside the 0-5 range.
	// It is raised before any schedule or session state is touched, so callers
	// may safely re-prompt with a valid grade.
	ErrInvalidGrade = errors.New("invalid grade: must be an integer between 0 and 5")

	// ErrInvalidCardType is returned when a card type is not one of the known variants.
	ErrInvalidCardType = errors.New("invalid card type")
)

// ValidationError describes a single invalid field. It wraps a sentinel
// such as ErrValidation so callers can match it with errors.Is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Field + " " + e.Message
}

// Unwrap returns the wrapped sentinel.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
