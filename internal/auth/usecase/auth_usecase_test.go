package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apitokenDomain "github.com/allisson/envstore/internal/apitoken/domain"
	"github.com/allisson/envstore/internal/auth/domain"
	"github.com/allisson/envstore/internal/auth/service"
	"github.com/allisson/envstore/internal/config"
	apperrors "github.com/allisson/envstore/internal/errors"
	userDomain "github.com/allisson/envstore/internal/user/domain"
	userUsecase "github.com/allisson/envstore/internal/user/usecase"
)

// mockUserUseCase is a mock implementation of the user use case for testing.
type mockUserUseCase struct {
	mock.Mock
}

func (m *mockUserUseCase) RegisterUser(ctx context.Context, input userUsecase.RegisterUserInput) (*userDomain.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

func (m *mockUserUseCase) CreateFederatedUser(ctx context.Context, input userUsecase.CreateFederatedUserInput) (*userDomain.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

func (m *mockUserUseCase) GetUserByEmail(ctx context.Context, email string) (*userDomain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

func (m *mockUserUseCase) GetUserByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

func (m *mockUserUseCase) DeleteUser(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// mockAPITokenRepository is a mock implementation of APITokenRepository for testing.
type mockAPITokenRepository struct {
	mock.Mock
}

func (m *mockAPITokenRepository) GetByToken(ctx context.Context, token string) (*apitokenDomain.APIToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apitokenDomain.APIToken), args.Error(1)
}

// mockPasswordService is a mock implementation of the password service for testing.
type mockPasswordService struct {
	mock.Mock
}

func (m *mockPasswordService) Hash(plain string) (string, error) {
	args := m.Called(plain)
	return args.String(0), args.Error(1)
}

func (m *mockPasswordService) Verify(plain, digest string) bool {
	args := m.Called(plain, digest)
	return args.Bool(0)
}

// mockSessionTokenService is a mock implementation of the session token service for testing.
type mockSessionTokenService struct {
	mock.Mock
}

func (m *mockSessionTokenService) Generate(userID uuid.UUID, email string) (string, error) {
	args := m.Called(userID, email)
	return args.String(0), args.Error(1)
}

func (m *mockSessionTokenService) Validate(token string) (*service.SessionToken, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SessionToken), args.Error(1)
}

type authMocks struct {
	users    *mockUserUseCase
	tokens   *mockAPITokenRepository
	password *mockPasswordService
	sessions *mockSessionTokenService
}

func newTestAuthUseCase() (UseCase, authMocks) {
	m := authMocks{
		users:    &mockUserUseCase{},
		tokens:   &mockAPITokenRepository{},
		password: &mockPasswordService{},
		sessions: &mockSessionTokenService{},
	}
	cfg := &config.Config{SessionTokenRefreshWindow: 24 * time.Hour}
	return NewAuthUseCase(cfg, m.users, m.tokens, m.password, m.sessions), m
}

func TestAuthUseCase_Login(t *testing.T) {
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())
	user := &userDomain.User{ID: userID, Email: "user@example.com", Password: "hashed-password"}

	t.Run("Success", func(t *testing.T) {
		uc, m := newTestAuthUseCase()
		m.users.On("GetUserByEmail", ctx, "user@example.com").Return(user, nil).Once()
		m.password.On("Verify", "SuperSecret123", "hashed-password").Return(true).Once()
		m.sessions.On("Generate", userID, "user@example.com").Return("session-token", nil).Once()

		out, err := uc.Login(ctx, domain.LoginInput{Email: "user@example.com", Password: "SuperSecret123"})

		require.NoError(t, err)
		assert.Equal(t, "session-token", out.AccessToken)
	})

	t.Run("Error_UnknownEmail", func(t *testing.T) {
		uc, m := newTestAuthUseCase()
		m.users.On("GetUserByEmail", ctx, "nobody@example.com").
			Return(nil, userDomain.ErrUserNotFound).Once()

		_, err := uc.Login(ctx, domain.LoginInput{Email: "nobody@example.com", Password: "x"})

		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
		m.password.AssertNotCalled(t, "Verify")
	})

	t.Run("Error_WrongPassword", func(t *testing.T) {
		uc, m := newTestAuthUseCase()
		m.users.On("GetUserByEmail", ctx, "user@example.com").Return(user, nil).Once()
		m.password.On("Verify", "wrong", "hashed-password").Return(false).Once()

		_, err := uc.Login(ctx, domain.LoginInput{Email: "user@example.com", Password: "wrong"})

		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		m.sessions.AssertNotCalled(t, "Generate")
	})

	t.Run("Error_WrongPasswordAndUnknownEmailAreIndistinguishable", func(t *testing.T) {
		uc, m := newTestAuthUseCase()
		m.users.On("GetUserByEmail", ctx, "nobody@example.com").
			Return(nil, userDomain.ErrUserNotFound).Once()
		m.users.On("GetUserByEmail", ctx, "user@example.com").Return(user, nil).Once()
		m.password.On("Verify", "wrong", "hashed-password").Return(false).Once()

		_, errUnknown := uc.Login(ctx, domain.LoginInput{Email: "nobody@example.com", Password: "wrong"})
		_, errWrong := uc.Login(ctx, domain.LoginInput{Email: "user@example.com", Password: "wrong"})

		assert.Equal(t, errUnknown, errWrong)
	})

	t.Run("Error_FederatedUserHasNoPassword", func(t *testing.T) {
		uc, m := newTestAuthUseCase()
		federated := &userDomain.User{
			ID: userID, Email: "fed@example.com", Provider: "github", ProviderID: "42",
		}
		m.users.On("GetUserByEmail", ctx, "fed@example.com").Return(federated, nil).Once()
		m.password.On("Verify", "anything", "").Return(false).Once()

		_, err := uc.Login(ctx, domain.LoginInput{Email: "fed@example.com", Password: "anything"})

		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestAuthUseCase_Register(t *testing.T) {
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())

	t.Run("Success_ReturnsSessionToken", func(t *testing.T) {
		uc, m := newTestAuthUseCase()
		input := userUsecase.RegisterUserInput{
			Email: "user@example.com", FullName: "Test User", Password: "SuperSecret123",
		}
		user := &userDomain.User{ID: userID, Email: "user@example.com"}
		m.users.On("RegisterUser", ctx, input).Return(user, nil).Once()
		m.sessions.On("Generate", userID, "user@example.com").Return("session-token", nil).Once()

		out, err := uc.Register(ctx, input)

		require.NoError(t, err)
		assert.Equal(t, "session-token", out.AccessToken)
	})

	t.Run("Error_RegistrationFailurePropagates", func(t *testing.T) {
		uc, m := newTestAuthUseCase()
		input := userUsecase.RegisterUserInput{Email: "user@example.com"}
		m.users.On("RegisterUser", ctx, input).
			Return(nil, userDomain.ErrUserAlreadyExists).Once()

		_, err := uc.Register(ctx, input)

		assert.ErrorIs(t, err, userDomain.ErrUserAlreadyExists)
		m.sessions.AssertNotCalled(t, "Generate")
	})
}

func TestAuthUseCase_FederatedLogin(t *testing.T) {
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())

	profile := domain.FederatedProfile{
		Provider:   "github",
		ProviderID: "12345",
		Email:      "user@example.com",
		FullName:   "Test User",
		Avatar:     "https://example.com/avatar.png",
	}

	t.Run("Success_ExistingFederatedUser", func(t *testing.T) {
		uc, m := newTestAuthUseCase()
		user := &userDomain.User{
			ID: userID, Email: "user@example.com", Provider: "github", ProviderID: "12345",
		}
		m.users.On("GetUserByEmail", ctx, "user@example.com").Return(user, nil).Once()
		m.sessions.On("Generate", userID, "user@example.com").Return("session-token", nil).Once()

		out, err := uc.FederatedLogin(ctx, profile)

		require.NoError(t, err)
		assert.Equal(t, "session-token", out.AccessToken)
		m.users.AssertNotCalled(t, "CreateFederatedUser")
	})

	t.Run("Success_CreatesUserOnFirstLogin", func(t *testing.T) {
		uc, m := newTestAuthUseCase()
		created := &userDomain.User{
			ID: userID, Email: "user@example.com", Provider: "github", ProviderID: "12345",
		}
		m.users.On("GetUserByEmail", ctx, "user@example.com").
			Return(nil, userDomain.ErrUserNotFound).Once()
		m.users.On("CreateFederatedUser", ctx, userUsecase.CreateFederatedUserInput{
			Email:      "user@example.com",
			FullName:   "Test User",
			Provider:   "github",
			ProviderID: "12345",
			Avatar:     "https://example.com/avatar.png",
		}).Return(created, nil).Once()
		m.sessions.On("Generate", userID, "user@example.com").Return("session-token", nil).Once()

		out, err := uc.FederatedLogin(ctx, profile)

		require.NoError(t, err)
		assert.Equal(t, "session-token", out.AccessToken)
		m.users.AssertExpectations(t)
	})

	t.Run("Error_ProviderMismatch", func(t *testing.T) {
		uc, m := newTestAuthUseCase()
		user := &userDomain.User{
			ID: userID, Email: "user@example.com", Provider: "gitlab", ProviderID: "99",
		}
		m.users.On("GetUserByEmail", ctx, "user@example.com").Return(user, nil).Once()

		_, err := uc.FederatedLogin(ctx, profile)

		assert.ErrorIs(t, err, userDomain.ErrProviderMismatch)
		assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
		m.sessions.AssertNotCalled(t, "Generate")
	})

	t.Run("Error_PasswordUserWithSameEmail", func(t *testing.T) {
		uc, m := newTestAuthUseCase()
		user := &userDomain.User{ID: userID, Email: "user@example.com", Password: "hashed"}
		m.users.On("GetUserByEmail", ctx, "user@example.com").Return(user, nil).Once()

		_, err := uc.FederatedLogin(ctx, profile)

		assert.ErrorIs(t, err, userDomain.ErrProviderMismatch)
	})
}

func TestAuthUseCase_ResolveSessionToken(t *testing.T) {
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())

	t.Run("Success_NoRefreshWithPlentyOfLifetime", func(t *testing.T) {
		uc, m := newTestAuthUseCase()
		m.sessions.On("Validate", "session-token").Return(&service.SessionToken{
			UserID:    userID,
			Email:     "user@example.com",
			ExpiresAt: time.Now().Add(72 * time.Hour),
		}, nil).Once()

		principal, err := uc.ResolveSessionToken(ctx, "session-token")

		require.NoError(t, err)
		assert.Equal(t, userID, principal.ID)
		assert.Equal(t, "user@example.com", principal.Email)
		assert.Empty(t, principal.AccessToken)
		m.sessions.AssertNotCalled(t, "Generate")
	})

	t.Run("Success_RefreshWhenCloseToExpiry", func(t *testing.T) {
		uc, m := newTestAuthUseCase()
		m.sessions.On("Validate", "old-token").Return(&service.SessionToken{
			UserID:    userID,
			Email:     "user@example.com",
			ExpiresAt: time.Now().Add(time.Hour),
		}, nil).Once()
		m.sessions.On("Generate", userID, "user@example.com").Return("fresh-token", nil).Once()

		principal, err := uc.ResolveSessionToken(ctx, "old-token")

		require.NoError(t, err)
		assert.Equal(t, "fresh-token", principal.AccessToken)
	})

	t.Run("Error_InvalidToken", func(t *testing.T) {
		uc, m := newTestAuthUseCase()
		m.sessions.On("Validate", "bad-token").
			Return(nil, domain.ErrInvalidSessionToken).Once()

		_, err := uc.ResolveSessionToken(ctx, "bad-token")

		assert.ErrorIs(t, err, domain.ErrInvalidSessionToken)
	})
}

func TestAuthUseCase_ResolveAPIToken(t *testing.T) {
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		uc, m := newTestAuthUseCase()
		record := &apitokenDomain.APIToken{
			ID: uuid.Must(uuid.NewV7()), Token: "opaque-secret", Name: "ci", UserID: userID,
		}
		user := &userDomain.User{ID: userID, Email: "user@example.com"}
		m.tokens.On("GetByToken", ctx, "opaque-secret").Return(record, nil).Once()
		m.users.On("GetUserByID", ctx, userID).Return(user, nil).Once()

		principal, err := uc.ResolveAPIToken(ctx, "opaque-secret")

		require.NoError(t, err)
		assert.Equal(t, userID, principal.ID)
		assert.Empty(t, principal.AccessToken)
	})

	t.Run("Error_EmptyToken", func(t *testing.T) {
		uc, m := newTestAuthUseCase()

		_, err := uc.ResolveAPIToken(ctx, "")

		assert.ErrorIs(t, err, domain.ErrInvalidAPIToken)
		m.tokens.AssertNotCalled(t, "GetByToken")
	})

	t.Run("Error_UnknownToken", func(t *testing.T) {
		uc, m := newTestAuthUseCase()
		m.tokens.On("GetByToken", ctx, "unknown").
			Return(nil, apitokenDomain.ErrAPITokenNotFound).Once()

		_, err := uc.ResolveAPIToken(ctx, "unknown")

		assert.ErrorIs(t, err, domain.ErrInvalidAPIToken)
	})

	t.Run("Error_DeletedOwnerDoesNotResolve", func(t *testing.T) {
		uc, m := newTestAuthUseCase()
		record := &apitokenDomain.APIToken{
			ID: uuid.Must(uuid.NewV7()), Token: "orphan-secret", UserID: userID,
		}
		m.tokens.On("GetByToken", ctx, "orphan-secret").Return(record, nil).Once()
		m.users.On("GetUserByID", ctx, userID).
			Return(nil, userDomain.ErrUserNotFound).Once()

		_, err := uc.ResolveAPIToken(ctx, "orphan-secret")

		assert.ErrorIs(t, err, domain.ErrInvalidAPIToken)
	})
}

func TestAuthUseCase_Profile(t *testing.T) {
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())

	uc, m := newTestAuthUseCase()
	user := &userDomain.User{ID: userID, Email: "user@example.com", FullName: "Test User"}
	m.users.On("GetUserByID", ctx, userID).Return(user, nil).Once()

	got, err := uc.Profile(ctx, &domain.Principal{ID: userID, Email: "user@example.com"})

	require.NoError(t, err)
	assert.Equal(t, user, got)
}
