// Package http provides HTTP handlers for API token management.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/envstore/internal/apitoken/http/dto"
	apitokenUseCase "github.com/allisson/envstore/internal/apitoken/usecase"
	authHTTP "github.com/allisson/envstore/internal/auth/http"
	apperrors "github.com/allisson/envstore/internal/errors"
	"github.com/allisson/envstore/internal/httputil"
)

// APITokenHandler handles API token HTTP requests. All routes require
// session authentication; API tokens cannot manage themselves.
type APITokenHandler struct {
	apiTokenUseCase apitokenUseCase.UseCase
	logger          *slog.Logger
}

// NewAPITokenHandler creates a new APITokenHandler.
func NewAPITokenHandler(apiTokenUseCase apitokenUseCase.UseCase, logger *slog.Logger) *APITokenHandler {
	return &APITokenHandler{
		apiTokenUseCase: apiTokenUseCase,
		logger:          logger,
	}
}

// CreateHandler mints a new API token.
// POST /v1/api-tokens - Returns 201 Created with the secret value, shown
// exactly once.
func (h *APITokenHandler) CreateHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.CreateAPITokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	output, err := h.apiTokenUseCase.CreateAPIToken(c.Request.Context(), principal.ID, apitokenUseCase.CreateAPITokenInput{
		Name: req.Name,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCreateAPITokenResponse(output))
}

// ListHandler lists the user's API tokens without secret values.
// GET /v1/api-tokens - Returns 200 OK.
func (h *APITokenHandler) ListHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	tokens, err := h.apiTokenUseCase.ListAPITokens(c.Request.Context(), principal.ID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToAPITokenListResponse(tokens))
}

// DeleteHandler revokes one of the user's API tokens.
// DELETE /v1/api-tokens/:id - Returns 204 No Content, 404 when absent or
// owned by someone else.
func (h *APITokenHandler) DeleteHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	tokenID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid api token ID format: must be a valid UUID"),
			h.logger)
		return
	}

	if err := h.apiTokenUseCase.DeleteAPIToken(c.Request.Context(), principal.ID, tokenID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
