// Package domain defines the user entity and its domain errors.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/envstore/internal/errors"
)

// User represents an account owner. Every project, environment and API token
// in the system is rooted at exactly one user.
//
// A user always has at least one usable credential: a password hash, or a
// (Provider, ProviderID) pair for accounts created through federated login.
// Password is empty for federated-only users.
type User struct {
	ID         uuid.UUID
	Email      string
	FullName   string
	Password   string
	Provider   string
	ProviderID string
	Avatar     string
	Deleted    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasPassword reports whether the user has a stored password hash.
func (u *User) HasPassword() bool {
	return u.Password != ""
}

// IsFederated reports whether the user was created through a federated
// identity provider.
func (u *User) IsFederated() bool {
	return u.Provider != "" && u.ProviderID != ""
}

// Domain-specific errors for user operations.
var (
	// ErrUserNotFound indicates the requested user does not exist or is soft-deleted.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUserAlreadyExists indicates a user with the same email already exists.
	ErrUserAlreadyExists = errors.Wrap(errors.ErrConflict, "user already exists")

	// ErrProviderMismatch indicates the email is already registered with a
	// different identity provider.
	ErrProviderMismatch = errors.Wrap(errors.ErrConflict, "email already registered with another provider")
)
