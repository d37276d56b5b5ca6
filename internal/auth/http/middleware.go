package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	authUseCase "github.com/allisson/envstore/internal/auth/usecase"
	apperrors "github.com/allisson/envstore/internal/errors"
	"github.com/allisson/envstore/internal/httputil"
)

const bearerPrefix = "bearer "

// apiTokenHeader is the dedicated header for API token credentials.
const apiTokenHeader = "X-Api-Token"

// bearerToken extracts the credential from an Authorization header.
// Returns "" when the header is missing or malformed.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) < len(bearerPrefix) ||
		!strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return header[len(bearerPrefix):]
}

// SessionAuthMiddleware authenticates requests with a session token carried
// as "Authorization: Bearer <token>". On success the principal is stored in
// the request context; when the token was close to expiry the principal also
// carries a replacement token that handlers may surface to the client.
//
// Endpoints guarded by this middleware never accept API tokens.
func SessionAuthMiddleware(auth authUseCase.UseCase, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			logger.Debug("session authentication failed: missing or malformed bearer token")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		principal, err := auth.ResolveSessionToken(c.Request.Context(), token)
		if err != nil {
			logger.Debug("session authentication failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

// APITokenAuthMiddleware authenticates requests with an opaque API token,
// accepted from the X-Api-Token header or as a bearer credential. The token
// value is looked up verbatim against the store on every request.
//
// Endpoints guarded by this middleware never accept session tokens.
func APITokenAuthMiddleware(auth authUseCase.UseCase, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(apiTokenHeader)
		if token == "" {
			token = bearerToken(c)
		}
		if token == "" {
			logger.Debug("api token authentication failed: missing credential")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		principal, err := auth.ResolveAPIToken(c.Request.Context(), token)
		if err != nil {
			logger.Debug("api token authentication failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}
