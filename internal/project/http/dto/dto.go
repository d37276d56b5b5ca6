// Package dto provides data transfer objects for the project HTTP layer.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/allisson/envstore/internal/project/domain"
	appValidation "github.com/allisson/envstore/internal/validation"
)

// CreateProjectRequest represents the API request for project creation.
type CreateProjectRequest struct {
	Name string `json:"name"`
}

// Validate validates the CreateProjectRequest.
func (r *CreateProjectRequest) Validate() error {
	return validateProjectName(r.Name)
}

// UpdateProjectRequest represents the API request for renaming a project.
type UpdateProjectRequest struct {
	Name string `json:"name"`
}

// Validate validates the UpdateProjectRequest.
func (r *UpdateProjectRequest) Validate() error {
	return validateProjectName(r.Name)
}

func validateProjectName(name string) error {
	err := validation.Validate(name,
		validation.Required.Error("name is required"),
		appValidation.NotBlank,
		validation.Length(2, 255).Error("name must be between 2 and 255 characters"),
	)
	return appValidation.WrapValidationError(err)
}

// ProjectResponse represents the API response for a project.
type ProjectResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToProjectResponse converts a domain project to a ProjectResponse.
func ToProjectResponse(project *domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:        project.ID,
		Name:      project.Name,
		CreatedAt: project.CreatedAt,
		UpdatedAt: project.UpdatedAt,
	}
}

// ToProjectListResponse converts a list of domain projects.
func ToProjectListResponse(projects []*domain.Project) []ProjectResponse {
	responses := make([]ProjectResponse, 0, len(projects))
	for _, project := range projects {
		responses = append(responses, ToProjectResponse(project))
	}
	return responses
}
