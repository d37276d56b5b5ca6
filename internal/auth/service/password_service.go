package service

import (
	"github.com/allisson/go-pwdhash"

	"github.com/allisson/envstore/internal/errors"
)

// argon2PasswordService implements PasswordService using Argon2id.
type argon2PasswordService struct {
	hasher *pwdhash.PasswordHasher
}

// NewPasswordService creates a PasswordService using Argon2id with the
// interactive policy for user passwords.
func NewPasswordService() (PasswordService, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create password hasher")
	}

	return &argon2PasswordService{hasher: hasher}, nil
}

func (s *argon2PasswordService) Hash(plain string) (string, error) {
	digest, err := s.hasher.Hash([]byte(plain))
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}
	return digest, nil
}

func (s *argon2PasswordService) Verify(plain, digest string) bool {
	// Federated-only users carry no digest; never feed an empty digest into
	// the verifier.
	if digest == "" {
		return false
	}

	ok, err := s.hasher.Verify([]byte(plain), digest)
	if err != nil {
		return false
	}
	return ok
}
