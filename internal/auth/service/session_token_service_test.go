package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/envstore/internal/auth/domain"
	"github.com/allisson/envstore/internal/config"
	apperrors "github.com/allisson/envstore/internal/errors"
)

func newTestSessionTokenService(expiration time.Duration) SessionTokenService {
	return NewSessionTokenService(&config.Config{
		SessionTokenSecret:     "test-secret-key",
		SessionTokenExpiration: expiration,
	})
}

func TestSessionTokenService_GenerateAndValidate(t *testing.T) {
	svc := newTestSessionTokenService(time.Hour)
	userID := uuid.Must(uuid.NewV7())

	token, err := svc.Generate(userID, "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	decoded, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, decoded.UserID)
	assert.Equal(t, "user@example.com", decoded.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), decoded.ExpiresAt, 5*time.Second)
}

func TestSessionTokenService_Validate(t *testing.T) {
	svc := newTestSessionTokenService(time.Hour)
	userID := uuid.Must(uuid.NewV7())

	t.Run("Error_MalformedToken", func(t *testing.T) {
		_, err := svc.Validate("not-a-token")

		assert.ErrorIs(t, err, authDomain.ErrInvalidSessionToken)
		assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
	})

	t.Run("Error_ExpiredToken", func(t *testing.T) {
		expired := newTestSessionTokenService(-time.Minute)
		token, err := expired.Generate(userID, "user@example.com")
		require.NoError(t, err)

		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, authDomain.ErrInvalidSessionToken)
	})

	t.Run("Error_WrongSecret", func(t *testing.T) {
		other := NewSessionTokenService(&config.Config{
			SessionTokenSecret:     "another-secret",
			SessionTokenExpiration: time.Hour,
		})
		token, err := other.Generate(userID, "user@example.com")
		require.NoError(t, err)

		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, authDomain.ErrInvalidSessionToken)
	})

	t.Run("Error_WrongSigningMethod", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub":   userID.String(),
			"email": "user@example.com",
			"exp":   time.Now().Add(time.Hour).Unix(),
		})
		token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, authDomain.ErrInvalidSessionToken)
	})

	t.Run("Error_NonUUIDSubject", func(t *testing.T) {
		bad := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":   "42",
			"email": "user@example.com",
			"exp":   time.Now().Add(time.Hour).Unix(),
		})
		token, err := bad.SignedString([]byte("test-secret-key"))
		require.NoError(t, err)

		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, authDomain.ErrInvalidSessionToken)
	})
}

func TestPasswordService(t *testing.T) {
	svc, err := NewPasswordService()
	require.NoError(t, err)

	t.Run("Success_HashAndVerify", func(t *testing.T) {
		digest, err := svc.Hash("SuperSecret123")
		require.NoError(t, err)
		require.NotEmpty(t, digest)
		assert.NotEqual(t, "SuperSecret123", digest)

		assert.True(t, svc.Verify("SuperSecret123", digest))
		assert.False(t, svc.Verify("WrongPassword1", digest))
	})

	t.Run("Error_EmptyDigestNeverVerifies", func(t *testing.T) {
		assert.False(t, svc.Verify("SuperSecret123", ""))
		assert.False(t, svc.Verify("", ""))
	})
}
