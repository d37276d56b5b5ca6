// Package dto provides data transfer objects for the environment HTTP layer.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/allisson/envstore/internal/environment/domain"
	appValidation "github.com/allisson/envstore/internal/validation"
)

// CreateEnvironmentRequest represents the API request for environment
// creation on the session surface. The parent project is addressed by id.
type CreateEnvironmentRequest struct {
	Name      string            `json:"name"`
	ProjectID uuid.UUID         `json:"project_id"`
	Variables map[string]string `json:"variables"`
}

// Validate validates the CreateEnvironmentRequest.
func (r *CreateEnvironmentRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(2, 255).Error("name must be between 2 and 255 characters"),
		),
		validation.Field(&r.ProjectID,
			validation.Required.Error("project_id is required"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// CLICreateEnvironmentRequest represents the API request for environment
// creation on the CLI surface. The parent project is addressed by name.
type CLICreateEnvironmentRequest struct {
	Name        string            `json:"name"`
	ProjectName string            `json:"projectName"`
	Variables   map[string]string `json:"variables"`
}

// Validate validates the CLICreateEnvironmentRequest.
func (r *CLICreateEnvironmentRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(2, 255).Error("name must be between 2 and 255 characters"),
		),
		validation.Field(&r.ProjectName,
			validation.Required.Error("projectName is required"),
			appValidation.NotBlank,
		),
	)
	return appValidation.WrapValidationError(err)
}

// UpdateVariablesRequest carries a full replacement variable map. A missing
// or null map clears every variable.
type UpdateVariablesRequest struct {
	Variables map[string]string `json:"variables"`
}

// Validate validates the UpdateVariablesRequest.
func (r *UpdateVariablesRequest) Validate() error {
	return nil
}

// EnvironmentResponse represents the API response for an environment.
type EnvironmentResponse struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	ProjectID uuid.UUID         `json:"project_id"`
	Variables map[string]string `json:"variables"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ToEnvironmentResponse converts a domain environment.
func ToEnvironmentResponse(environment *domain.Environment) EnvironmentResponse {
	variables := environment.Variables
	if variables == nil {
		variables = map[string]string{}
	}
	return EnvironmentResponse{
		ID:        environment.ID,
		Name:      environment.Name,
		ProjectID: environment.ProjectID,
		Variables: variables,
		CreatedAt: environment.CreatedAt,
		UpdatedAt: environment.UpdatedAt,
	}
}

// ToEnvironmentListResponse converts a list of domain environments.
func ToEnvironmentListResponse(environments []*domain.Environment) []EnvironmentResponse {
	responses := make([]EnvironmentResponse, 0, len(environments))
	for _, environment := range environments {
		responses = append(responses, ToEnvironmentResponse(environment))
	}
	return responses
}
