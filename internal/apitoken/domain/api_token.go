// Package domain defines the API token entity and its domain errors.
//
// An API token is a long-lived service credential owned by a single user. The
// opaque secret is generated once at creation, returned to the caller exactly
// once, and used verbatim as a lookup key afterwards. Tokens are never rotated
// in place; rotation is delete-and-recreate.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/envstore/internal/errors"
)

// APIToken represents a service credential.
type APIToken struct {
	ID        uuid.UUID
	Token     string
	Name      string
	UserID    uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateAPITokenOutput is the result of creating a token. The Token field
// carries the plain secret and is only populated on creation.
type CreateAPITokenOutput struct {
	ID        uuid.UUID
	Token     string
	Name      string
	CreatedAt time.Time
}

// Domain-specific errors for API token operations.
var (
	// ErrAPITokenNotFound indicates the token does not exist or is not owned by
	// the requesting user.
	ErrAPITokenNotFound = errors.Wrap(errors.ErrNotFound, "api token not found")

	// ErrAPITokenNameTaken indicates the user already has a token with the same name.
	ErrAPITokenNameTaken = errors.Wrap(errors.ErrConflict, "api token with this name already exists")
)
