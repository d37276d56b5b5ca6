// Package errors provides the domain error taxonomy shared by all modules.
// Use cases return these sentinel errors (usually wrapped with context) and
// the HTTP layer maps them to status codes.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist. Name-addressed
	// lookups filtered by owner also collapse "not owned" into this error.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness violation (duplicate name within an
	// owner scope, duplicate email, duplicate provider pair).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates a missing, invalid or expired credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the resource exists but its ownership chain does
	// not terminate at the requesting principal.
	ErrForbidden = errors.New("forbidden")
)

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
