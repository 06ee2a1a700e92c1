package services

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthFailure is the single error returned for any failed login, and
	// for sessions whose user no longer exists.
	ErrAuthFailure = errors.New("invalid username or password")

	// ErrAccessDenied is returned when the caller's role does not permit the
	// operation or the record is outside its scope.
	ErrAccessDenied = errors.New("access denied")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func required(field string) error {
	return invalid(field, "is required")
}
