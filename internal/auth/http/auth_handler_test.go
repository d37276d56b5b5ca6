package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/envstore/internal/auth/domain"
	"github.com/allisson/envstore/internal/auth/http/dto"
	userDomain "github.com/allisson/envstore/internal/user/domain"
	userUsecase "github.com/allisson/envstore/internal/user/usecase"
)

type mockAuthUseCase struct {
	mock.Mock
}

func (m *mockAuthUseCase) Login(ctx context.Context, input authDomain.LoginInput) (*authDomain.LoginOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.LoginOutput), args.Error(1)
}

func (m *mockAuthUseCase) Register(ctx context.Context, input userUsecase.RegisterUserInput) (*authDomain.LoginOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.LoginOutput), args.Error(1)
}

func (m *mockAuthUseCase) FederatedLogin(ctx context.Context, profile authDomain.FederatedProfile) (*authDomain.LoginOutput, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.LoginOutput), args.Error(1)
}

func (m *mockAuthUseCase) Profile(ctx context.Context, principal *authDomain.Principal) (*userDomain.User, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

func (m *mockAuthUseCase) ResolveSessionToken(ctx context.Context, token string) (*authDomain.Principal, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Principal), args.Error(1)
}

func (m *mockAuthUseCase) ResolveAPIToken(ctx context.Context, token string) (*authDomain.Principal, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Principal), args.Error(1)
}

func createTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	return c, w
}

func setupTestHandler(t *testing.T) (*AuthHandler, *mockAuthUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := new(mockAuthUseCase)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewAuthHandler(mockUseCase, logger)

	return handler, mockUseCase
}

func TestAuthHandler_RegisterHandler(t *testing.T) {
	t.Run("Success_ValidRequest", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		input := userUsecase.RegisterUserInput{
			Email:    "user@example.com",
			FullName: "Test User",
			Password: "Sup3rStrongPass",
		}

		mockUseCase.On("Register", mock.Anything, input).
			Return(&authDomain.LoginOutput{AccessToken: "signed-token"}, nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/register", dto.RegisterRequest{
			Email:    "user@example.com",
			FullName: "Test User",
			Password: "Sup3rStrongPass",
		})

		handler.RegisterHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response dto.LoginResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "signed-token", response.AccessToken)
	})

	t.Run("Error_InvalidEmail", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/auth/register", dto.RegisterRequest{
			Email:    "not-an-email",
			FullName: "Test User",
			Password: "Sup3rStrongPass",
		})

		handler.RegisterHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "Register")
	})

	t.Run("Error_DuplicateEmail", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Register", mock.Anything, mock.Anything).
			Return(nil, userDomain.ErrUserAlreadyExists).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/register", dto.RegisterRequest{
			Email:    "user@example.com",
			FullName: "Test User",
			Password: "Sup3rStrongPass",
		})

		handler.RegisterHandler(c)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Error_InvalidJSON", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/auth/register", nil)
		c.Request.Body = io.NopCloser(bytes.NewReader([]byte("invalid json")))

		handler.RegisterHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandler_LoginHandler(t *testing.T) {
	t.Run("Success_ValidCredentials", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Login", mock.Anything, authDomain.LoginInput{
			Email:    "user@example.com",
			Password: "Sup3rStrongPass",
		}).
			Return(&authDomain.LoginOutput{AccessToken: "signed-token"}, nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/login", dto.LoginRequest{
			Email:    "user@example.com",
			Password: "Sup3rStrongPass",
		})

		handler.LoginHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.LoginResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "signed-token", response.AccessToken)
	})

	t.Run("Error_InvalidCredentials", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Login", mock.Anything, mock.Anything).
			Return(nil, authDomain.ErrInvalidCredentials).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/login", dto.LoginRequest{
			Email:    "user@example.com",
			Password: "wrong-password",
		})

		handler.LoginHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "unauthorized", response["error"])
	})

	t.Run("Error_MissingPassword", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/auth/login", dto.LoginRequest{
			Email: "user@example.com",
		})

		handler.LoginHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "Login")
	})
}

func TestAuthHandler_ProfileHandler(t *testing.T) {
	t.Run("Success_ProfileReturned", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		principal := &authDomain.Principal{
			ID:    uuid.Must(uuid.NewV7()),
			Email: "user@example.com",
		}
		user := &userDomain.User{
			ID:       principal.ID,
			Email:    principal.Email,
			FullName: "Test User",
		}

		mockUseCase.On("Profile", mock.Anything, principal).
			Return(user, nil).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/auth/profile", nil)
		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), principal))

		handler.ProfileHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ProfileResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, user.Email, response.Email)
		assert.Empty(t, response.AccessToken)
	})

	t.Run("Success_RefreshedTokenSurfaced", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		principal := &authDomain.Principal{
			ID:          uuid.Must(uuid.NewV7()),
			Email:       "user@example.com",
			AccessToken: "fresh-token",
		}
		user := &userDomain.User{
			ID:       principal.ID,
			Email:    principal.Email,
			FullName: "Test User",
		}

		mockUseCase.On("Profile", mock.Anything, principal).
			Return(user, nil).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/auth/profile", nil)
		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), principal))

		handler.ProfileHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ProfileResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "fresh-token", response.AccessToken)
	})

	t.Run("Error_MissingPrincipal", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/auth/profile", nil)

		handler.ProfileHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUseCase.AssertNotCalled(t, "Profile")
	})
}
