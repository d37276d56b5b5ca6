// Package usecase implements the authentication business logic: password and
// federated login, session token resolution with refresh-on-read, and API
// token resolution.
package usecase

import (
	"context"
	"time"

	apitokenDomain "github.com/allisson/envstore/internal/apitoken/domain"
	"github.com/allisson/envstore/internal/auth/domain"
	"github.com/allisson/envstore/internal/auth/service"
	"github.com/allisson/envstore/internal/config"
	apperrors "github.com/allisson/envstore/internal/errors"
	userDomain "github.com/allisson/envstore/internal/user/domain"
	userUsecase "github.com/allisson/envstore/internal/user/usecase"
)

// UseCase defines the interface for authentication business logic operations.
type UseCase interface {
	// Login validates an email/password pair and issues a session token.
	Login(ctx context.Context, input domain.LoginInput) (*domain.LoginOutput, error)

	// Register creates a password user and immediately issues a session token.
	Register(ctx context.Context, input userUsecase.RegisterUserInput) (*domain.LoginOutput, error)

	// FederatedLogin finds or creates the user matching a federated profile and
	// issues a session token. An email already bound to a different provider
	// pair is rejected.
	FederatedLogin(ctx context.Context, profile domain.FederatedProfile) (*domain.LoginOutput, error)

	// Profile returns the account behind an authenticated principal.
	Profile(ctx context.Context, principal *domain.Principal) (*userDomain.User, error)

	// ResolveSessionToken validates a session token and returns its principal.
	// When the token's remaining lifetime is below the refresh window, the
	// principal carries a freshly minted replacement in AccessToken.
	ResolveSessionToken(ctx context.Context, token string) (*domain.Principal, error)

	// ResolveAPIToken resolves an opaque API token to its owning user. Tokens
	// of soft-deleted users do not resolve.
	ResolveAPIToken(ctx context.Context, token string) (*domain.Principal, error)
}

// APITokenRepository is the subset of token persistence used for credential resolution.
type APITokenRepository interface {
	// GetByToken retrieves a token record by its exact secret value.
	GetByToken(ctx context.Context, token string) (*apitokenDomain.APIToken, error)
}

// AuthUseCase handles authentication business logic.
type AuthUseCase struct {
	userUseCase     userUsecase.UseCase
	apiTokenRepo    APITokenRepository
	passwordService service.PasswordService
	sessionTokens   service.SessionTokenService
	refreshWindow   time.Duration
}

// NewAuthUseCase creates a new AuthUseCase.
func NewAuthUseCase(
	cfg *config.Config,
	userUseCase userUsecase.UseCase,
	apiTokenRepo APITokenRepository,
	passwordService service.PasswordService,
	sessionTokens service.SessionTokenService,
) UseCase {
	return &AuthUseCase{
		userUseCase:     userUseCase,
		apiTokenRepo:    apiTokenRepo,
		passwordService: passwordService,
		sessionTokens:   sessionTokens,
		refreshWindow:   cfg.SessionTokenRefreshWindow,
	}
}

// Login validates the credentials and issues a session token. Unknown email
// and wrong password produce the same error. Federated-only users (empty
// digest) can never pass password verification.
func (uc *AuthUseCase) Login(ctx context.Context, input domain.LoginInput) (*domain.LoginOutput, error) {
	user, err := uc.userUseCase.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !uc.passwordService.Verify(input.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	return uc.issueToken(user)
}

// Register creates the user and logs them in.
func (uc *AuthUseCase) Register(ctx context.Context, input userUsecase.RegisterUserInput) (*domain.LoginOutput, error) {
	user, err := uc.userUseCase.RegisterUser(ctx, input)
	if err != nil {
		return nil, err
	}

	return uc.issueToken(user)
}

// FederatedLogin implements find-or-create on the asserted profile.
func (uc *AuthUseCase) FederatedLogin(ctx context.Context, profile domain.FederatedProfile) (*domain.LoginOutput, error) {
	user, err := uc.userUseCase.GetUserByEmail(ctx, profile.Email)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}

		user, err = uc.userUseCase.CreateFederatedUser(ctx, userUsecase.CreateFederatedUserInput{
			Email:      profile.Email,
			FullName:   profile.FullName,
			Provider:   profile.Provider,
			ProviderID: profile.ProviderID,
			Avatar:     profile.Avatar,
		})
		if err != nil {
			return nil, err
		}

		return uc.issueToken(user)
	}

	if user.Provider != profile.Provider || user.ProviderID != profile.ProviderID {
		return nil, userDomain.ErrProviderMismatch
	}

	return uc.issueToken(user)
}

// Profile returns the full account record for the principal.
func (uc *AuthUseCase) Profile(ctx context.Context, principal *domain.Principal) (*userDomain.User, error) {
	return uc.userUseCase.GetUserByID(ctx, principal.ID)
}

// ResolveSessionToken validates the token signature and expiry without a
// store round-trip; the token is the sole source of identity.
func (uc *AuthUseCase) ResolveSessionToken(_ context.Context, token string) (*domain.Principal, error) {
	decoded, err := uc.sessionTokens.Validate(token)
	if err != nil {
		return nil, err
	}

	principal := &domain.Principal{
		ID:    decoded.UserID,
		Email: decoded.Email,
	}

	if time.Until(decoded.ExpiresAt) < uc.refreshWindow {
		fresh, err := uc.sessionTokens.Generate(decoded.UserID, decoded.Email)
		if err != nil {
			return nil, err
		}
		principal.AccessToken = fresh
	}

	return principal, nil
}

// ResolveAPIToken looks the secret up verbatim and joins it to the owning
// user. Absent token and unresolvable owner are indistinguishable.
func (uc *AuthUseCase) ResolveAPIToken(ctx context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, domain.ErrInvalidAPIToken
	}

	record, err := uc.apiTokenRepo.GetByToken(ctx, token)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, domain.ErrInvalidAPIToken
		}
		return nil, err
	}

	user, err := uc.userUseCase.GetUserByID(ctx, record.UserID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, domain.ErrInvalidAPIToken
		}
		return nil, err
	}

	return &domain.Principal{ID: user.ID, Email: user.Email}, nil
}

func (uc *AuthUseCase) issueToken(user *userDomain.User) (*domain.LoginOutput, error) {
	token, err := uc.sessionTokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &domain.LoginOutput{AccessToken: token}, nil
}
