// Package usecase implements the API token business logic.
package usecase

import (
	"context"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/allisson/envstore/internal/apitoken/domain"
	"github.com/allisson/envstore/internal/apitoken/service"
	"github.com/allisson/envstore/internal/authz"
	"github.com/allisson/envstore/internal/database"
	apperrors "github.com/allisson/envstore/internal/errors"
	outboxDomain "github.com/allisson/envstore/internal/outbox/domain"
	appValidation "github.com/allisson/envstore/internal/validation"
)

// CreateAPITokenInput contains the input data for API token creation.
type CreateAPITokenInput struct {
	Name string `json:"name"`
}

// UseCase defines the interface for API token business logic operations.
type UseCase interface {
	// CreateAPIToken mints a new token for the user. The secret value is
	// returned exactly once, in the creation output.
	CreateAPIToken(ctx context.Context, userID uuid.UUID, input CreateAPITokenInput) (*domain.CreateAPITokenOutput, error)

	// ListAPITokens returns the user's tokens without their secret values.
	ListAPITokens(ctx context.Context, userID uuid.UUID) ([]*domain.APIToken, error)

	// DeleteAPIToken deletes an owned token. A token owned by another user is
	// indistinguishable from an absent one.
	DeleteAPIToken(ctx context.Context, userID, id uuid.UUID) error
}

// APITokenRepository interface defines API token repository operations.
type APITokenRepository interface {
	authz.APITokenStore
	Create(ctx context.Context, token *domain.APIToken) error
	GetByNameAndUser(ctx context.Context, name string, userID uuid.UUID) (*domain.APIToken, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.APIToken, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// OutboxEventRepository records domain events in the transactional outbox.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// APITokenUseCase handles API token business logic.
type APITokenUseCase struct {
	txManager  database.TxManager
	tokenRepo  APITokenRepository
	generator  service.Generator
	engine     *authz.Engine
	outboxRepo OutboxEventRepository
}

// NewAPITokenUseCase creates a new APITokenUseCase.
func NewAPITokenUseCase(
	txManager database.TxManager,
	tokenRepo APITokenRepository,
	generator service.Generator,
	engine *authz.Engine,
	outboxRepo OutboxEventRepository,
) UseCase {
	return &APITokenUseCase{
		txManager:  txManager,
		tokenRepo:  tokenRepo,
		generator:  generator,
		engine:     engine,
		outboxRepo: outboxRepo,
	}
}

// CreateAPIToken creates a token with a normalized name unique per user.
func (uc *APITokenUseCase) CreateAPIToken(ctx context.Context, userID uuid.UUID, input CreateAPITokenInput) (*domain.CreateAPITokenOutput, error) {
	err := validation.Validate(input.Name,
		validation.Required.Error("name is required"),
		appValidation.NotBlank,
		validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
	)
	if err := appValidation.WrapValidationError(err); err != nil {
		return nil, err
	}

	name := appValidation.NormalizeName(input.Name)

	var token *domain.APIToken
	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if _, err := uc.tokenRepo.GetByNameAndUser(ctx, name, userID); err == nil {
			return domain.ErrAPITokenNameTaken
		} else if !apperrors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		secret, err := uc.generator.Generate()
		if err != nil {
			return err
		}

		token = &domain.APIToken{
			ID:     uuid.Must(uuid.NewV7()),
			Token:  secret,
			Name:   name,
			UserID: userID,
		}

		if err := uc.tokenRepo.Create(ctx, token); err != nil {
			return err
		}

		event, err := outboxDomain.NewPendingEvent(outboxDomain.EventTypeAPITokenCreated, map[string]any{
			"api_token_id": token.ID.String(),
			"user_id":      userID.String(),
			"name":         token.Name,
		})
		if err != nil {
			return err
		}

		return uc.outboxRepo.Create(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	return &domain.CreateAPITokenOutput{
		ID:        token.ID,
		Token:     token.Token,
		Name:      token.Name,
		CreatedAt: token.CreatedAt,
	}, nil
}

// ListAPITokens returns the user's tokens.
func (uc *APITokenUseCase) ListAPITokens(ctx context.Context, userID uuid.UUID) ([]*domain.APIToken, error) {
	return uc.tokenRepo.ListByUser(ctx, userID)
}

// DeleteAPIToken deletes the token after an owner-filtered resolution.
func (uc *APITokenUseCase) DeleteAPIToken(ctx context.Context, userID, id uuid.UUID) error {
	token, err := uc.engine.APIToken(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := uc.tokenRepo.Delete(ctx, token.ID); err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	return nil
}
