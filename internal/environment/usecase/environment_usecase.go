// Package usecase implements the environment business logic.
package usecase

import (
	"context"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/allisson/envstore/internal/authz"
	"github.com/allisson/envstore/internal/environment/domain"
	apperrors "github.com/allisson/envstore/internal/errors"
	appValidation "github.com/allisson/envstore/internal/validation"
)

// CreateEnvironmentInput contains the input data for environment creation.
type CreateEnvironmentInput struct {
	Name      string            `json:"name"`
	Variables map[string]string `json:"variables"`
}

// UpdateVariablesInput contains a full replacement variable map.
type UpdateVariablesInput struct {
	Variables map[string]string `json:"variables"`
}

// UseCase defines the interface for environment business logic operations.
type UseCase interface {
	// CreateEnvironment creates an environment under a project the user owns.
	// The parent may be addressed by id or by name; the environment name is
	// normalized before the per-project uniqueness check.
	CreateEnvironment(ctx context.Context, userID uuid.UUID, project authz.ProjectRef, input CreateEnvironmentInput) (*domain.Environment, error)

	// ListEnvironments returns all environments of a project the user owns.
	ListEnvironments(ctx context.Context, userID uuid.UUID, project authz.ProjectRef) ([]*domain.Environment, error)

	// GetEnvironment resolves an environment reference through the
	// authorization engine.
	GetEnvironment(ctx context.Context, userID uuid.UUID, ref authz.EnvironmentRef) (*domain.Environment, error)

	// UpdateVariables replaces the full variable map of an owned environment.
	UpdateVariables(ctx context.Context, userID uuid.UUID, ref authz.EnvironmentRef, input UpdateVariablesInput) (*domain.Environment, error)

	// DeleteEnvironment deletes an owned environment.
	DeleteEnvironment(ctx context.Context, userID uuid.UUID, ref authz.EnvironmentRef) error
}

// EnvironmentRepository interface defines environment repository operations.
type EnvironmentRepository interface {
	authz.EnvironmentStore
	Create(ctx context.Context, environment *domain.Environment) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Environment, error)
	UpdateVariables(ctx context.Context, id uuid.UUID, variables map[string]string) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByProject(ctx context.Context, projectID uuid.UUID) (int64, error)
}

// EnvironmentUseCase handles environment-related business logic.
type EnvironmentUseCase struct {
	environmentRepo EnvironmentRepository
	engine          *authz.Engine
}

// NewEnvironmentUseCase creates a new EnvironmentUseCase.
func NewEnvironmentUseCase(environmentRepo EnvironmentRepository, engine *authz.Engine) UseCase {
	return &EnvironmentUseCase{
		environmentRepo: environmentRepo,
		engine:          engine,
	}
}

// validateCreateEnvironmentInput validates the creation input.
func validateCreateEnvironmentInput(input CreateEnvironmentInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(2, 255).Error("name must be between 2 and 255 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// CreateEnvironment authorizes the parent project, then creates the
// environment with the normalized name. A nil variable map is stored as an
// empty one.
func (uc *EnvironmentUseCase) CreateEnvironment(ctx context.Context, userID uuid.UUID, project authz.ProjectRef, input CreateEnvironmentInput) (*domain.Environment, error) {
	if err := validateCreateEnvironmentInput(input); err != nil {
		return nil, err
	}

	parent, err := uc.engine.Project(ctx, userID, project)
	if err != nil {
		return nil, err
	}

	variables := input.Variables
	if variables == nil {
		variables = map[string]string{}
	}

	environment := &domain.Environment{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      appValidation.NormalizeName(input.Name),
		ProjectID: parent.ID,
		Variables: variables,
	}

	if _, err := uc.environmentRepo.GetByNameAndProject(ctx, environment.Name, parent.ID); err == nil {
		return nil, domain.ErrEnvironmentNameTaken
	} else if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	if err := uc.environmentRepo.Create(ctx, environment); err != nil {
		return nil, err
	}

	return environment, nil
}

// ListEnvironments authorizes the parent project, then lists its environments.
// An owned project with no environments yields an empty list, not an error.
func (uc *EnvironmentUseCase) ListEnvironments(ctx context.Context, userID uuid.UUID, project authz.ProjectRef) ([]*domain.Environment, error) {
	parent, err := uc.engine.Project(ctx, userID, project)
	if err != nil {
		return nil, err
	}

	return uc.environmentRepo.ListByProject(ctx, parent.ID)
}

// GetEnvironment resolves an environment reference for the user.
func (uc *EnvironmentUseCase) GetEnvironment(ctx context.Context, userID uuid.UUID, ref authz.EnvironmentRef) (*domain.Environment, error) {
	return uc.engine.Environment(ctx, userID, ref)
}

// UpdateVariables replaces the environment's variable map wholesale.
func (uc *EnvironmentUseCase) UpdateVariables(ctx context.Context, userID uuid.UUID, ref authz.EnvironmentRef, input UpdateVariablesInput) (*domain.Environment, error) {
	environment, err := uc.engine.Environment(ctx, userID, ref)
	if err != nil {
		return nil, err
	}

	variables := input.Variables
	if variables == nil {
		variables = map[string]string{}
	}

	if err := uc.environmentRepo.UpdateVariables(ctx, environment.ID, variables); err != nil {
		return nil, err
	}

	environment.Variables = variables
	return environment, nil
}

// DeleteEnvironment deletes the environment after authorization. A row that
// vanished between the authorization read and the delete counts as success.
func (uc *EnvironmentUseCase) DeleteEnvironment(ctx context.Context, userID uuid.UUID, ref authz.EnvironmentRef) error {
	environment, err := uc.engine.Environment(ctx, userID, ref)
	if err != nil {
		return err
	}

	if err := uc.environmentRepo.Delete(ctx, environment.ID); err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	return nil
}
