// Package usecase implements the user business logic.
package usecase

import (
	"context"
	"strings"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/allisson/envstore/internal/database"
	apperrors "github.com/allisson/envstore/internal/errors"
	outboxDomain "github.com/allisson/envstore/internal/outbox/domain"
	"github.com/allisson/envstore/internal/user/domain"
	appValidation "github.com/allisson/envstore/internal/validation"
)

// RegisterUserInput contains the input data for user registration.
type RegisterUserInput struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// CreateFederatedUserInput contains the input data for creating a user from a
// federated identity. No password is involved.
type CreateFederatedUserInput struct {
	Email      string
	FullName   string
	Provider   string
	ProviderID string
	Avatar     string
}

// UseCase defines the interface for user business logic operations.
type UseCase interface {
	RegisterUser(ctx context.Context, input RegisterUserInput) (*domain.User, error)
	CreateFederatedUser(ctx context.Context, input CreateFederatedUserInput) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// UserRepository interface defines user repository operations.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// PasswordHasher derives one-way digests from plaintext passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// OutboxEventRepository records domain events in the transactional outbox.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// UserUseCase handles user-related business logic.
type UserUseCase struct {
	txManager      database.TxManager
	userRepo       UserRepository
	passwordHasher PasswordHasher
	outboxRepo     OutboxEventRepository
}

// NewUserUseCase creates a new UserUseCase.
func NewUserUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	passwordHasher PasswordHasher,
	outboxRepo OutboxEventRepository,
) UseCase {
	return &UserUseCase{
		txManager:      txManager,
		userRepo:       userRepo,
		passwordHasher: passwordHasher,
		outboxRepo:     outboxRepo,
	}
}

// validateRegisterUserInput validates the registration input.
func (uc *UserUseCase) validateRegisterUserInput(input RegisterUserInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		),
		validation.Field(&input.FullName,
			validation.Required.Error("full_name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("full_name must be between 1 and 255 characters"),
		),
		validation.Field(&input.Password,
			validation.Required.Error("password is required"),
			validation.Length(8, 128).Error("password must be between 8 and 128 characters"),
			appValidation.PasswordStrength{
				MinLength:     8,
				RequireUpper:  true,
				RequireLower:  true,
				RequireNumber: true,
			},
		),
	)
	return appValidation.WrapValidationError(err)
}

// RegisterUser registers a new user with a hashed password. The email is
// stored as given (trimmed, case preserved); uniqueness is enforced by the
// repository on the exact stored value.
func (uc *UserUseCase) RegisterUser(ctx context.Context, input RegisterUserInput) (*domain.User, error) {
	if err := uc.validateRegisterUserInput(input); err != nil {
		return nil, err
	}

	hashedPassword, err := uc.passwordHasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:       uuid.Must(uuid.NewV7()),
		Email:    strings.TrimSpace(input.Email),
		FullName: strings.TrimSpace(input.FullName),
		Password: hashedPassword,
	}

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if _, err := uc.userRepo.GetByEmail(ctx, user.Email); err == nil {
			return domain.ErrUserAlreadyExists
		} else if !apperrors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		if err := uc.userRepo.Create(ctx, user); err != nil {
			return err
		}

		event, err := outboxDomain.NewPendingEvent(outboxDomain.EventTypeUserCreated, map[string]any{
			"user_id":   user.ID.String(),
			"email":     user.Email,
			"full_name": user.FullName,
		})
		if err != nil {
			return err
		}

		return uc.outboxRepo.Create(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// CreateFederatedUser creates a user record for a federated identity.
func (uc *UserUseCase) CreateFederatedUser(ctx context.Context, input CreateFederatedUserInput) (*domain.User, error) {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.Email,
		),
		validation.Field(&input.Provider, validation.Required.Error("provider is required")),
		validation.Field(&input.ProviderID, validation.Required.Error("provider id is required")),
	)
	if err := appValidation.WrapValidationError(err); err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:         uuid.Must(uuid.NewV7()),
		Email:      strings.TrimSpace(input.Email),
		FullName:   strings.TrimSpace(input.FullName),
		Provider:   input.Provider,
		ProviderID: input.ProviderID,
		Avatar:     input.Avatar,
	}

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.userRepo.Create(ctx, user); err != nil {
			return err
		}

		event, err := outboxDomain.NewPendingEvent(outboxDomain.EventTypeUserCreated, map[string]any{
			"user_id":  user.ID.String(),
			"email":    user.Email,
			"provider": user.Provider,
		})
		if err != nil {
			return err
		}

		return uc.outboxRepo.Create(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (uc *UserUseCase) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return uc.userRepo.GetByEmail(ctx, email)
}

// GetUserByID retrieves a user by ID.
func (uc *UserUseCase) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}

// DeleteUser soft-deletes a user. The record is retained but excluded from
// all lookups, which also invalidates every API token that resolves to it.
func (uc *UserUseCase) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.userRepo.SoftDelete(ctx, id); err != nil {
			return err
		}

		event, err := outboxDomain.NewPendingEvent(outboxDomain.EventTypeUserDeleted, map[string]any{
			"user_id": id.String(),
		})
		if err != nil {
			return err
		}

		return uc.outboxRepo.Create(ctx, event)
	})
}
