package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/envstore/internal/errors"
	outboxDomain "github.com/allisson/envstore/internal/outbox/domain"
	"github.com/allisson/envstore/internal/user/domain"
)

// mockUserRepository is a mock implementation of UserRepository for testing.
type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// mockTxManager executes the function directly without a real transaction.
type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// mockOutboxEventRepository is a mock implementation of OutboxEventRepository for testing.
type mockOutboxEventRepository struct {
	mock.Mock
}

func (m *mockOutboxEventRepository) Create(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// mockPasswordHasher is a mock implementation of PasswordHasher for testing.
type mockPasswordHasher struct {
	mock.Mock
}

func (m *mockPasswordHasher) Hash(plain string) (string, error) {
	args := m.Called(plain)
	return args.String(0), args.Error(1)
}

func TestUserUseCase_RegisterUser(t *testing.T) {
	ctx := context.Background()

	validInput := RegisterUserInput{
		Email:    "user@example.com",
		FullName: "Test User",
		Password: "SuperSecret123",
	}

	t.Run("Success", func(t *testing.T) {
		userRepo := &mockUserRepository{}
		hasher := &mockPasswordHasher{}
		outboxRepo := &mockOutboxEventRepository{}
		uc := NewUserUseCase(&mockTxManager{}, userRepo, hasher, outboxRepo)

		hasher.On("Hash", "SuperSecret123").Return("hashed-password", nil).Once()
		userRepo.On("GetByEmail", ctx, "user@example.com").
			Return(nil, domain.ErrUserNotFound).Once()
		userRepo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.Email == "user@example.com" &&
				u.FullName == "Test User" &&
				u.Password == "hashed-password" &&
				u.ID != uuid.Nil
		})).Return(nil).Once()
		outboxRepo.On("Create", ctx, mock.MatchedBy(func(e *outboxDomain.OutboxEvent) bool {
			return e.EventType == outboxDomain.EventTypeUserCreated &&
				e.Status == outboxDomain.OutboxEventStatusPending
		})).Return(nil).Once()

		user, err := uc.RegisterUser(ctx, validInput)

		require.NoError(t, err)
		assert.Equal(t, "user@example.com", user.Email)
		assert.True(t, user.HasPassword())
		userRepo.AssertExpectations(t)
		hasher.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
	})

	t.Run("Success_EmailCasePreserved", func(t *testing.T) {
		userRepo := &mockUserRepository{}
		hasher := &mockPasswordHasher{}
		outboxRepo := &mockOutboxEventRepository{}
		uc := NewUserUseCase(&mockTxManager{}, userRepo, hasher, outboxRepo)

		hasher.On("Hash", "SuperSecret123").Return("hashed-password", nil).Once()
		userRepo.On("GetByEmail", ctx, "User@Example.COM").
			Return(nil, domain.ErrUserNotFound).Once()
		userRepo.On("Create", ctx, mock.Anything).Return(nil).Once()
		outboxRepo.On("Create", ctx, mock.Anything).Return(nil).Once()

		input := validInput
		input.Email = " User@Example.COM "
		user, err := uc.RegisterUser(ctx, input)

		require.NoError(t, err)
		assert.Equal(t, "User@Example.COM", user.Email)
	})

	t.Run("Error_DuplicateEmail", func(t *testing.T) {
		userRepo := &mockUserRepository{}
		hasher := &mockPasswordHasher{}
		outboxRepo := &mockOutboxEventRepository{}
		uc := NewUserUseCase(&mockTxManager{}, userRepo, hasher, outboxRepo)

		hasher.On("Hash", "SuperSecret123").Return("hashed-password", nil).Once()
		userRepo.On("GetByEmail", ctx, "user@example.com").
			Return(&domain.User{Email: "user@example.com"}, nil).Once()

		_, err := uc.RegisterUser(ctx, validInput)

		assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
		assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
		userRepo.AssertNotCalled(t, "Create")
		outboxRepo.AssertNotCalled(t, "Create")
	})

	t.Run("Error_InvalidEmail", func(t *testing.T) {
		uc := NewUserUseCase(&mockTxManager{}, &mockUserRepository{}, &mockPasswordHasher{}, &mockOutboxEventRepository{})

		input := validInput
		input.Email = "not-an-email"
		_, err := uc.RegisterUser(ctx, input)

		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})

	t.Run("Error_WeakPassword", func(t *testing.T) {
		uc := NewUserUseCase(&mockTxManager{}, &mockUserRepository{}, &mockPasswordHasher{}, &mockOutboxEventRepository{})

		input := validInput
		input.Password = "short"
		_, err := uc.RegisterUser(ctx, input)

		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})

	t.Run("Error_BlankFullName", func(t *testing.T) {
		uc := NewUserUseCase(&mockTxManager{}, &mockUserRepository{}, &mockPasswordHasher{}, &mockOutboxEventRepository{})

		input := validInput
		input.FullName = "   "
		_, err := uc.RegisterUser(ctx, input)

		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})
}

func TestUserUseCase_CreateFederatedUser(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_NoPasswordStored", func(t *testing.T) {
		userRepo := &mockUserRepository{}
		outboxRepo := &mockOutboxEventRepository{}
		uc := NewUserUseCase(&mockTxManager{}, userRepo, &mockPasswordHasher{}, outboxRepo)

		userRepo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.Email == "user@example.com" &&
				u.Provider == "github" &&
				u.ProviderID == "12345" &&
				!u.HasPassword()
		})).Return(nil).Once()
		outboxRepo.On("Create", ctx, mock.MatchedBy(func(e *outboxDomain.OutboxEvent) bool {
			return e.EventType == outboxDomain.EventTypeUserCreated
		})).Return(nil).Once()

		user, err := uc.CreateFederatedUser(ctx, CreateFederatedUserInput{
			Email:      "user@example.com",
			FullName:   "Test User",
			Provider:   "github",
			ProviderID: "12345",
			Avatar:     "https://example.com/avatar.png",
		})

		require.NoError(t, err)
		assert.True(t, user.IsFederated())
		userRepo.AssertExpectations(t)
	})

	t.Run("Error_MissingProvider", func(t *testing.T) {
		uc := NewUserUseCase(&mockTxManager{}, &mockUserRepository{}, &mockPasswordHasher{}, &mockOutboxEventRepository{})

		_, err := uc.CreateFederatedUser(ctx, CreateFederatedUserInput{
			Email:      "user@example.com",
			ProviderID: "12345",
		})

		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})
}

func TestUserUseCase_DeleteUser(t *testing.T) {
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())

	userRepo := &mockUserRepository{}
	outboxRepo := &mockOutboxEventRepository{}
	uc := NewUserUseCase(&mockTxManager{}, userRepo, &mockPasswordHasher{}, outboxRepo)
	userRepo.On("SoftDelete", ctx, userID).Return(nil).Once()
	outboxRepo.On("Create", ctx, mock.MatchedBy(func(e *outboxDomain.OutboxEvent) bool {
		return e.EventType == outboxDomain.EventTypeUserDeleted
	})).Return(nil).Once()

	err := uc.DeleteUser(ctx, userID)

	assert.NoError(t, err)
	userRepo.AssertExpectations(t)
	outboxRepo.AssertExpectations(t)
}
