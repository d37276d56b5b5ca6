// Package domain defines the project entity and its domain errors.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/envstore/internal/errors"
)

// Project groups environments under a single owning user. Name holds the
// normalized form (lowercase, whitespace runs collapsed to underscores) and is
// unique per owner. UserID is immutable after creation.
type Project struct {
	ID        uuid.UUID
	Name      string
	UserID    uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Domain-specific errors for project operations.
var (
	// ErrProjectNotFound indicates the project does not exist, or, for
	// owner-filtered lookups, is not owned by the requesting user.
	ErrProjectNotFound = errors.Wrap(errors.ErrNotFound, "project not found")

	// ErrProjectAccessDenied indicates the project exists but belongs to a
	// different user. Only id-addressed lookups surface this distinctly.
	ErrProjectAccessDenied = errors.Wrap(errors.ErrForbidden, "no access to this project")

	// ErrProjectNameTaken indicates the user already has a project with the
	// same normalized name.
	ErrProjectNameTaken = errors.Wrap(errors.ErrConflict, "project with this name already exists")
)
