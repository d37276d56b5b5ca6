// Package dto provides data transfer objects for the API token HTTP layer.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/allisson/envstore/internal/apitoken/domain"
	appValidation "github.com/allisson/envstore/internal/validation"
)

// CreateAPITokenRequest represents the API request for token creation.
type CreateAPITokenRequest struct {
	Name string `json:"name"`
}

// Validate validates the CreateAPITokenRequest.
func (r *CreateAPITokenRequest) Validate() error {
	err := validation.Validate(r.Name,
		validation.Required.Error("name is required"),
		appValidation.NotBlank,
		validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
	)
	return appValidation.WrapValidationError(err)
}

// CreateAPITokenResponse represents the creation response. This is the only
// place the secret token value ever appears.
type CreateAPITokenResponse struct {
	ID        uuid.UUID `json:"id"`
	APIToken  string    `json:"api_token"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// APITokenResponse represents a token in list responses. The secret value is
// omitted.
type APITokenResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToCreateAPITokenResponse converts a creation output.
func ToCreateAPITokenResponse(output *domain.CreateAPITokenOutput) CreateAPITokenResponse {
	return CreateAPITokenResponse{
		ID:        output.ID,
		APIToken:  output.Token,
		Name:      output.Name,
		CreatedAt: output.CreatedAt,
	}
}

// ToAPITokenListResponse converts a list of domain tokens.
func ToAPITokenListResponse(tokens []*domain.APIToken) []APITokenResponse {
	responses := make([]APITokenResponse, 0, len(tokens))
	for _, token := range tokens {
		responses = append(responses, APITokenResponse{
			ID:        token.ID,
			Name:      token.Name,
			CreatedAt: token.CreatedAt,
			UpdatedAt: token.UpdatedAt,
		})
	}
	return responses
}
