package domain

import "errors"

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("resource conflict")
	ErrUnavailable  = errors.New("temporarily unavailable")
)

// ValidationError represents a field-level validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// StateConflictError is returned when an action is invalid for the
// entity's current lifecycle state. Current names the conflicting state
// so clients can react to it.
type StateConflictError struct {
	Current string
	Message string
}

func (e *StateConflictError) Error() string {
	return e.Message
}

func (e *StateConflictError) Unwrap() error {
	return ErrConflict
}
