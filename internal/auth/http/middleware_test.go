package http

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/envstore/internal/auth/domain"
)

func setupMiddlewareTest(t *testing.T) (*mockAuthUseCase, *slog.Logger) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	return new(mockAuthUseCase), slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSessionAuthMiddleware(t *testing.T) {
	t.Run("Success_ValidBearerToken", func(t *testing.T) {
		mockUseCase, logger := setupMiddlewareTest(t)

		principal := &authDomain.Principal{
			ID:    uuid.Must(uuid.NewV7()),
			Email: "user@example.com",
		}

		mockUseCase.On("ResolveSessionToken", mock.Anything, "session-token").
			Return(principal, nil).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/auth/profile", nil)
		c.Request.Header.Set("Authorization", "Bearer session-token")

		SessionAuthMiddleware(mockUseCase, logger)(c)

		resolved, ok := GetPrincipal(c.Request.Context())

		assert.False(t, c.IsAborted())
		assert.True(t, ok)
		assert.Equal(t, principal, resolved)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Success_CaseInsensitiveScheme", func(t *testing.T) {
		mockUseCase, logger := setupMiddlewareTest(t)

		principal := &authDomain.Principal{ID: uuid.Must(uuid.NewV7())}

		mockUseCase.On("ResolveSessionToken", mock.Anything, "session-token").
			Return(principal, nil).
			Once()

		c, _ := createTestContext(http.MethodGet, "/v1/auth/profile", nil)
		c.Request.Header.Set("Authorization", "bearer session-token")

		SessionAuthMiddleware(mockUseCase, logger)(c)

		assert.False(t, c.IsAborted())
	})

	t.Run("Error_MissingHeader", func(t *testing.T) {
		mockUseCase, logger := setupMiddlewareTest(t)

		c, w := createTestContext(http.MethodGet, "/v1/auth/profile", nil)

		SessionAuthMiddleware(mockUseCase, logger)(c)

		assert.True(t, c.IsAborted())
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUseCase.AssertNotCalled(t, "ResolveSessionToken")
	})

	t.Run("Error_MalformedHeader", func(t *testing.T) {
		mockUseCase, logger := setupMiddlewareTest(t)

		c, w := createTestContext(http.MethodGet, "/v1/auth/profile", nil)
		c.Request.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

		SessionAuthMiddleware(mockUseCase, logger)(c)

		assert.True(t, c.IsAborted())
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Error_InvalidToken", func(t *testing.T) {
		mockUseCase, logger := setupMiddlewareTest(t)

		mockUseCase.On("ResolveSessionToken", mock.Anything, "bad-token").
			Return(nil, authDomain.ErrInvalidSessionToken).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/auth/profile", nil)
		c.Request.Header.Set("Authorization", "Bearer bad-token")

		SessionAuthMiddleware(mockUseCase, logger)(c)

		assert.True(t, c.IsAborted())
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAPITokenAuthMiddleware(t *testing.T) {
	t.Run("Success_DedicatedHeader", func(t *testing.T) {
		mockUseCase, logger := setupMiddlewareTest(t)

		principal := &authDomain.Principal{
			ID:    uuid.Must(uuid.NewV7()),
			Email: "user@example.com",
		}

		mockUseCase.On("ResolveAPIToken", mock.Anything, "opaque-token").
			Return(principal, nil).
			Once()

		c, _ := createTestContext(http.MethodGet, "/v1/cli/environments/x", nil)
		c.Request.Header.Set("X-Api-Token", "opaque-token")

		APITokenAuthMiddleware(mockUseCase, logger)(c)

		resolved, ok := GetPrincipal(c.Request.Context())
		assert.False(t, c.IsAborted())
		assert.True(t, ok)
		assert.Equal(t, principal, resolved)
	})

	t.Run("Success_BearerFallback", func(t *testing.T) {
		mockUseCase, logger := setupMiddlewareTest(t)

		principal := &authDomain.Principal{ID: uuid.Must(uuid.NewV7())}

		mockUseCase.On("ResolveAPIToken", mock.Anything, "opaque-token").
			Return(principal, nil).
			Once()

		c, _ := createTestContext(http.MethodGet, "/v1/cli/environments/x", nil)
		c.Request.Header.Set("Authorization", "Bearer opaque-token")

		APITokenAuthMiddleware(mockUseCase, logger)(c)

		assert.False(t, c.IsAborted())
	})

	t.Run("Success_DedicatedHeaderWinsOverBearer", func(t *testing.T) {
		mockUseCase, logger := setupMiddlewareTest(t)

		principal := &authDomain.Principal{ID: uuid.Must(uuid.NewV7())}

		mockUseCase.On("ResolveAPIToken", mock.Anything, "header-token").
			Return(principal, nil).
			Once()

		c, _ := createTestContext(http.MethodGet, "/v1/cli/environments/x", nil)
		c.Request.Header.Set("X-Api-Token", "header-token")
		c.Request.Header.Set("Authorization", "Bearer bearer-token")

		APITokenAuthMiddleware(mockUseCase, logger)(c)

		assert.False(t, c.IsAborted())
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_MissingCredential", func(t *testing.T) {
		mockUseCase, logger := setupMiddlewareTest(t)

		c, w := createTestContext(http.MethodGet, "/v1/cli/environments/x", nil)

		APITokenAuthMiddleware(mockUseCase, logger)(c)

		assert.True(t, c.IsAborted())
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUseCase.AssertNotCalled(t, "ResolveAPIToken")
	})

	t.Run("Error_UnknownToken", func(t *testing.T) {
		mockUseCase, logger := setupMiddlewareTest(t)

		mockUseCase.On("ResolveAPIToken", mock.Anything, "unknown-token").
			Return(nil, authDomain.ErrInvalidAPIToken).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/cli/environments/x", nil)
		c.Request.Header.Set("X-Api-Token", "unknown-token")

		APITokenAuthMiddleware(mockUseCase, logger)(c)

		assert.True(t, c.IsAborted())
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
