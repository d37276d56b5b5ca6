// Package domain defines the environment entity and its domain errors.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/envstore/internal/errors"
)

// Environment is a named map of configuration variables under a project.
// Name holds the normalized form and is unique per project. ProjectID is
// immutable after creation. Variables are stored as-is; no type coercion and
// no value encryption happen at this layer.
type Environment struct {
	ID        uuid.UUID
	Name      string
	ProjectID uuid.UUID
	Variables map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Domain-specific errors for environment operations.
var (
	// ErrEnvironmentNotFound indicates the environment does not exist, or, for
	// owner-filtered lookups, is not reachable through the requesting user.
	ErrEnvironmentNotFound = errors.Wrap(errors.ErrNotFound, "environment not found")

	// ErrEnvironmentNameTaken indicates the project already has an environment
	// with the same normalized name.
	ErrEnvironmentNameTaken = errors.Wrap(errors.ErrConflict, "environment with this name already exists")
)
