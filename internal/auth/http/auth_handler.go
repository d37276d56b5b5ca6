package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authDomain "github.com/allisson/envstore/internal/auth/domain"
	"github.com/allisson/envstore/internal/auth/http/dto"
	authUseCase "github.com/allisson/envstore/internal/auth/usecase"
	apperrors "github.com/allisson/envstore/internal/errors"
	"github.com/allisson/envstore/internal/httputil"
	userUsecase "github.com/allisson/envstore/internal/user/usecase"
)

// AuthHandler handles authentication HTTP requests.
type AuthHandler struct {
	authUseCase authUseCase.UseCase
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authUseCase authUseCase.UseCase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
		logger:      logger,
	}
}

// RegisterHandler creates an account and logs it in.
// POST /v1/auth/register - Returns 201 Created with a session token.
func (h *AuthHandler) RegisterHandler(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	output, err := h.authUseCase.Register(c.Request.Context(), userUsecase.RegisterUserInput{
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.LoginResponse{AccessToken: output.AccessToken})
}

// LoginHandler validates credentials and issues a session token.
// POST /v1/auth/login - Returns 200 OK with a session token.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	output, err := h.authUseCase.Login(c.Request.Context(), authDomain.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{AccessToken: output.AccessToken})
}

// ProfileHandler returns the authenticated user's profile.
// GET /v1/auth/profile - Session authenticated. When the presented token was
// close to expiry the response carries a replacement in access_token.
func (h *AuthHandler) ProfileHandler(c *gin.Context) {
	principal, ok := GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	user, err := h.authUseCase.Profile(c.Request.Context(), principal)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToProfileResponse(user, principal.AccessToken))
}
