package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	authDomain "github.com/allisson/envstore/internal/auth/domain"
	"github.com/allisson/envstore/internal/config"
	"github.com/allisson/envstore/internal/errors"
)

// sessionClaims is the JWT claim set carried by session tokens.
type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type jwtSessionTokenService struct {
	secret     []byte
	expiration time.Duration
}

// NewSessionTokenService creates a SessionTokenService signing HS256 tokens
// with the configured secret and lifetime.
func NewSessionTokenService(cfg *config.Config) SessionTokenService {
	return &jwtSessionTokenService{
		secret:     []byte(cfg.SessionTokenSecret),
		expiration: cfg.SessionTokenExpiration,
	}
}

func (s *jwtSessionTokenService) Generate(userID uuid.UUID, email string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign session token")
	}

	return signed, nil
}

func (s *jwtSessionTokenService) Validate(token string) (*SessionToken, error) {
	claims := &sessionClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, authDomain.ErrInvalidSessionToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, authDomain.ErrInvalidSessionToken
	}

	if claims.ExpiresAt == nil {
		return nil, authDomain.ErrInvalidSessionToken
	}

	return &SessionToken{
		UserID:    userID,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
