package review_session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSession is returned when grading a session that is unknown
	// or not active. Other operations report the same condition with a nil
	// or false result instead.
	ErrInvalidSession = errors.New("invalid or inactive session")

	// ErrPersistence indicates the graded schedule could not be written.
	// The session is left exactly as it was before the call.
	ErrPersistence = errors.New("failed to persist schedule state")
)

// ServiceError wraps errors from the session manager with the operation
// that produced them.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "start_session", "grade_current_card")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
