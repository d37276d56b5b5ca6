// Package service provides API token secret generation.
package service

import (
	"crypto/rand"
	"encoding/base64"

	apperrors "github.com/allisson/envstore/internal/errors"
)

// Generator produces opaque API token secrets.
type Generator interface {
	// Generate returns a new cryptographically random secret.
	Generate() (string, error)
}

// randomGenerator implements Generator with crypto/rand.
type randomGenerator struct{}

// NewGenerator creates a Generator producing 32-byte (256-bit) random secrets
// encoded as URL-safe base64.
func NewGenerator() Generator {
	return &randomGenerator{}
}

func (g *randomGenerator) Generate() (string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", apperrors.Wrap(err, "failed to generate random token")
	}

	return base64.URLEncoding.EncodeToString(randomBytes), nil
}
