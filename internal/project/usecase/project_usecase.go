// Package usecase implements the project business logic.
package usecase

import (
	"context"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/allisson/envstore/internal/authz"
	apperrors "github.com/allisson/envstore/internal/errors"
	"github.com/allisson/envstore/internal/project/domain"
	appValidation "github.com/allisson/envstore/internal/validation"
)

// CreateProjectInput contains the input data for project creation.
type CreateProjectInput struct {
	Name string `json:"name"`
}

// UpdateProjectInput contains the input data for renaming a project.
type UpdateProjectInput struct {
	Name string `json:"name"`
}

// UseCase defines the interface for project business logic operations.
type UseCase interface {
	// CreateProject creates a project under the user. The name is normalized
	// before the per-user uniqueness check.
	CreateProject(ctx context.Context, userID uuid.UUID, input CreateProjectInput) (*domain.Project, error)

	// ListProjects returns the user's projects, newest first.
	ListProjects(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*domain.Project, error)

	// GetProject resolves a project reference through the authorization engine.
	GetProject(ctx context.Context, userID uuid.UUID, ref authz.ProjectRef) (*domain.Project, error)

	// UpdateProject renames an owned project. The new name is normalized and
	// checked for uniqueness among the user's other projects.
	UpdateProject(ctx context.Context, userID, id uuid.UUID, input UpdateProjectInput) (*domain.Project, error)

	// DeleteProject deletes an owned project and all of its environments.
	DeleteProject(ctx context.Context, userID, id uuid.UUID) error
}

// ProjectRepository interface defines project repository operations.
type ProjectRepository interface {
	authz.ProjectStore
	Create(ctx context.Context, project *domain.Project) error
	ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*domain.Project, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// EnvironmentCascader deletes all environments under a project. Implemented
// by the environment repository.
type EnvironmentCascader interface {
	DeleteByProject(ctx context.Context, projectID uuid.UUID) (int64, error)
}

// ProjectUseCase handles project-related business logic.
type ProjectUseCase struct {
	projectRepo  ProjectRepository
	environments EnvironmentCascader
	engine       *authz.Engine
}

// NewProjectUseCase creates a new ProjectUseCase.
func NewProjectUseCase(
	projectRepo ProjectRepository,
	environments EnvironmentCascader,
	engine *authz.Engine,
) UseCase {
	return &ProjectUseCase{
		projectRepo:  projectRepo,
		environments: environments,
		engine:       engine,
	}
}

// validateProjectName validates a raw project name before normalization.
func validateProjectName(name string) error {
	err := validation.Validate(name,
		validation.Required.Error("name is required"),
		appValidation.NotBlank,
		validation.Length(2, 255).Error("name must be between 2 and 255 characters"),
	)
	return appValidation.WrapValidationError(err)
}

// CreateProject creates a project with the normalized name.
func (uc *ProjectUseCase) CreateProject(ctx context.Context, userID uuid.UUID, input CreateProjectInput) (*domain.Project, error) {
	if err := validateProjectName(input.Name); err != nil {
		return nil, err
	}

	project := &domain.Project{
		ID:     uuid.Must(uuid.NewV7()),
		Name:   appValidation.NormalizeName(input.Name),
		UserID: userID,
	}

	if _, err := uc.projectRepo.GetByNameAndUser(ctx, project.Name, userID); err == nil {
		return nil, domain.ErrProjectNameTaken
	} else if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	if err := uc.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	return project, nil
}

// ListProjects returns the user's projects.
func (uc *ProjectUseCase) ListProjects(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*domain.Project, error) {
	return uc.projectRepo.ListByUser(ctx, userID, offset, limit)
}

// GetProject resolves a project reference for the user.
func (uc *ProjectUseCase) GetProject(ctx context.Context, userID uuid.UUID, ref authz.ProjectRef) (*domain.Project, error) {
	return uc.engine.Project(ctx, userID, ref)
}

// UpdateProject renames an owned project.
func (uc *ProjectUseCase) UpdateProject(ctx context.Context, userID, id uuid.UUID, input UpdateProjectInput) (*domain.Project, error) {
	if err := validateProjectName(input.Name); err != nil {
		return nil, err
	}

	project, err := uc.engine.Project(ctx, userID, authz.ProjectByID(id))
	if err != nil {
		return nil, err
	}

	name := appValidation.NormalizeName(input.Name)
	if name != project.Name {
		if _, err := uc.projectRepo.GetByNameAndUser(ctx, name, userID); err == nil {
			return nil, domain.ErrProjectNameTaken
		} else if !apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}

	if err := uc.projectRepo.UpdateName(ctx, project.ID, name); err != nil {
		return nil, err
	}

	project.Name = name
	return project, nil
}

// DeleteProject deletes the project after removing its environments. The two
// deletes run sequentially without a transaction; a project row that vanishes
// between them counts as success, never leaving environments without a live
// parent.
func (uc *ProjectUseCase) DeleteProject(ctx context.Context, userID, id uuid.UUID) error {
	project, err := uc.engine.Project(ctx, userID, authz.ProjectByID(id))
	if err != nil {
		return err
	}

	if _, err := uc.environments.DeleteByProject(ctx, project.ID); err != nil {
		return err
	}

	if err := uc.projectRepo.Delete(ctx, project.ID); err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	return nil
}
