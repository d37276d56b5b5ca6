package dto

import (
	"time"

	"github.com/google/uuid"

	userDomain "github.com/allisson/envstore/internal/user/domain"
)

// LoginResponse represents the API response for a successful login or
// registration.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// ProfileResponse represents the API response for the authenticated user's
// profile. AccessToken is set only when the presented session token was
// transparently replaced; clients should adopt it when present.
type ProfileResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	Provider    string    `json:"provider,omitempty"`
	Avatar      string    `json:"avatar,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	AccessToken string    `json:"access_token,omitempty"`
}

// ToProfileResponse converts a domain user to a ProfileResponse. The password
// digest never leaves the domain layer.
func ToProfileResponse(user *userDomain.User, refreshedToken string) ProfileResponse {
	return ProfileResponse{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		Provider:    user.Provider,
		Avatar:      user.Avatar,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
		AccessToken: refreshedToken,
	}
}
