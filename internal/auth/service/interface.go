// Package service provides credential services: session token signing and
// validation, and password hashing.
package service

import (
	"time"

	"github.com/google/uuid"
)

// SessionToken is the decoded content of a validated session token.
type SessionToken struct {
	UserID    uuid.UUID
	Email     string
	ExpiresAt time.Time
}

// SessionTokenService signs and validates self-contained session tokens.
// Validation checks signature and expiry only; it never touches the store.
type SessionTokenService interface {
	// Generate mints a signed token for the subject with the configured lifetime.
	Generate(userID uuid.UUID, email string) (string, error)

	// Validate checks signature and expiry and returns the decoded token.
	// Returns authDomain.ErrInvalidSessionToken on any failure.
	Validate(token string) (*SessionToken, error)
}

// PasswordService hashes passwords and verifies them against stored digests.
type PasswordService interface {
	// Hash derives a one-way digest from the plaintext password.
	Hash(plain string) (string, error)

	// Verify compares a plaintext password against a stored digest in constant
	// time. An empty digest (federated-only user) short-circuits to false
	// without invoking the primitive.
	Verify(plain, digest string) bool
}
