// Package authz implements the ownership authorization engine.
//
// Every resource in the system is exclusively owned by exactly one user
// through the chain Environment → Project → User (API tokens hang directly
// off the user). The engine resolves a resource reference, addressed by id
// or by normalized name, and checks that its ownership chain terminates at
// the requesting principal before returning the resource to the caller.
//
// The two addressing modes deliberately report failures differently:
//
//   - Id-addressed lookups run the existence check and the ownership check as
//     two separate steps, so a resource that exists under a different owner
//     surfaces as forbidden, distinct from not found.
//   - Name-addressed lookups are owner-filtered at the query, so "absent" and
//     "not owned" collapse into a single not-found answer and the engine never
//     confirms whether a name exists in another tenant.
//
// Decisions are never cached; every call re-derives ownership from current
// store state.
package authz

import (
	"context"

	"github.com/google/uuid"

	apitokenDomain "github.com/allisson/envstore/internal/apitoken/domain"
	environmentDomain "github.com/allisson/envstore/internal/environment/domain"
	apperrors "github.com/allisson/envstore/internal/errors"
	projectDomain "github.com/allisson/envstore/internal/project/domain"
	"github.com/allisson/envstore/internal/validation"
)

// ProjectStore is the subset of project persistence the engine depends on.
type ProjectStore interface {
	// Get retrieves a project by id regardless of owner.
	// Returns projectDomain.ErrProjectNotFound when absent.
	Get(ctx context.Context, id uuid.UUID) (*projectDomain.Project, error)

	// GetByIDAndUser retrieves a project by id filtered by owner.
	// Returns projectDomain.ErrProjectNotFound when absent or not owned.
	GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*projectDomain.Project, error)

	// GetByNameAndUser retrieves a project by normalized name filtered by owner.
	// Returns projectDomain.ErrProjectNotFound when absent or not owned.
	GetByNameAndUser(ctx context.Context, name string, userID uuid.UUID) (*projectDomain.Project, error)
}

// EnvironmentStore is the subset of environment persistence the engine depends on.
type EnvironmentStore interface {
	// Get retrieves an environment by id regardless of owner.
	// Returns environmentDomain.ErrEnvironmentNotFound when absent.
	Get(ctx context.Context, id uuid.UUID) (*environmentDomain.Environment, error)

	// GetByNameAndProject retrieves an environment by normalized name within a project.
	// Returns environmentDomain.ErrEnvironmentNotFound when absent.
	GetByNameAndProject(ctx context.Context, name string, projectID uuid.UUID) (*environmentDomain.Environment, error)
}

// APITokenStore is the subset of token persistence the engine depends on.
type APITokenStore interface {
	// GetByIDAndUser retrieves a token by id filtered by owner.
	// Returns apitokenDomain.ErrAPITokenNotFound when absent or not owned.
	GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*apitokenDomain.APIToken, error)
}

// ProjectRef addresses a project by id or by name.
type ProjectRef struct {
	id   uuid.UUID
	name string
}

// ProjectByID addresses a project by its primary key.
func ProjectByID(id uuid.UUID) ProjectRef {
	return ProjectRef{id: id}
}

// ProjectByName addresses a project by a human-supplied name. The name is
// normalized by the engine before lookup.
func ProjectByName(name string) ProjectRef {
	return ProjectRef{name: name}
}

// byName reports whether the reference is name-addressed.
func (r ProjectRef) byName() bool {
	return r.name != ""
}

// EnvironmentRef addresses an environment by id or by (project name, name).
type EnvironmentRef struct {
	id          uuid.UUID
	projectName string
	name        string
}

// EnvironmentByID addresses an environment by its primary key.
func EnvironmentByID(id uuid.UUID) EnvironmentRef {
	return EnvironmentRef{id: id}
}

// EnvironmentByName addresses an environment by project name and environment
// name. Both names are normalized by the engine before lookup.
func EnvironmentByName(projectName, name string) EnvironmentRef {
	return EnvironmentRef{projectName: projectName, name: name}
}

// byName reports whether the reference is name-addressed.
func (r EnvironmentRef) byName() bool {
	return r.name != ""
}

// Engine resolves resource references and enforces ownership.
type Engine struct {
	projects     ProjectStore
	environments EnvironmentStore
	tokens       APITokenStore
}

// NewEngine creates an Engine backed by the given stores.
func NewEngine(projects ProjectStore, environments EnvironmentStore, tokens APITokenStore) *Engine {
	return &Engine{
		projects:     projects,
		environments: environments,
		tokens:       tokens,
	}
}

// Project resolves a project reference for the given user.
//
// Id-addressed: not-found and forbidden are distinct. Name-addressed: the
// owner-filtered query collapses both into ErrProjectNotFound.
func (e *Engine) Project(ctx context.Context, userID uuid.UUID, ref ProjectRef) (*projectDomain.Project, error) {
	if ref.byName() {
		name := validation.NormalizeName(ref.name)
		return e.projects.GetByNameAndUser(ctx, name, userID)
	}

	project, err := e.projects.Get(ctx, ref.id)
	if err != nil {
		return nil, err
	}

	if project.UserID != userID {
		return nil, projectDomain.ErrProjectAccessDenied
	}

	return project, nil
}

// Environment resolves an environment reference for the given user, walking
// the two-hop ownership chain Environment → Project → User.
//
// Id-addressed: the environment is fetched first (not-found when absent), then
// its parent project is fetched filtered by owner; an absent parent-under-owner
// means the environment exists in another tenant and yields forbidden.
// Name-addressed: both hops are owner-filtered, so everything collapses into
// not-found.
func (e *Engine) Environment(ctx context.Context, userID uuid.UUID, ref EnvironmentRef) (*environmentDomain.Environment, error) {
	if ref.byName() {
		project, err := e.projects.GetByNameAndUser(ctx, validation.NormalizeName(ref.projectName), userID)
		if err != nil {
			return nil, err
		}
		return e.environments.GetByNameAndProject(ctx, validation.NormalizeName(ref.name), project.ID)
	}

	environment, err := e.environments.Get(ctx, ref.id)
	if err != nil {
		return nil, err
	}

	if _, err := e.projects.GetByIDAndUser(ctx, environment.ProjectID, userID); err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, projectDomain.ErrProjectAccessDenied
		}
		return nil, err
	}

	return environment, nil
}

// APIToken resolves an API token by id for the given user. The lookup is
// owner-filtered, so a token owned by another user is indistinguishable from
// an absent one.
func (e *Engine) APIToken(ctx context.Context, userID, id uuid.UUID) (*apitokenDomain.APIToken, error) {
	return e.tokens.GetByIDAndUser(ctx, id, userID)
}
