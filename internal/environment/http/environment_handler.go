// Package http provides HTTP handlers for environment operations on both
// the session surface and the CLI surface.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authHTTP "github.com/allisson/envstore/internal/auth/http"
	"github.com/allisson/envstore/internal/authz"
	"github.com/allisson/envstore/internal/environment/http/dto"
	environmentUseCase "github.com/allisson/envstore/internal/environment/usecase"
	apperrors "github.com/allisson/envstore/internal/errors"
	"github.com/allisson/envstore/internal/httputil"
)

// EnvironmentHandler handles environment HTTP requests for browser sessions.
// Resources are addressed by id.
type EnvironmentHandler struct {
	environmentUseCase environmentUseCase.UseCase
	logger             *slog.Logger
}

// NewEnvironmentHandler creates a new EnvironmentHandler.
func NewEnvironmentHandler(environmentUseCase environmentUseCase.UseCase, logger *slog.Logger) *EnvironmentHandler {
	return &EnvironmentHandler{
		environmentUseCase: environmentUseCase,
		logger:             logger,
	}
}

// CreateHandler creates an environment under an owned project.
// POST /v1/environments - Returns 201 Created.
func (h *EnvironmentHandler) CreateHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.CreateEnvironmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	environment, err := h.environmentUseCase.CreateEnvironment(
		c.Request.Context(),
		principal.ID,
		authz.ProjectByID(req.ProjectID),
		environmentUseCase.CreateEnvironmentInput{
			Name:      req.Name,
			Variables: req.Variables,
		},
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.ToEnvironmentResponse(environment))
}

// ListByProjectHandler lists the environments of an owned project.
// GET /v1/projects/:id/environments - Returns 200 OK.
func (h *EnvironmentHandler) ListByProjectHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid project ID format: must be a valid UUID"),
			h.logger)
		return
	}

	environments, err := h.environmentUseCase.ListEnvironments(c.Request.Context(), principal.ID, authz.ProjectByID(projectID))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToEnvironmentListResponse(environments))
}

// GetHandler retrieves an owned environment with its variables.
// GET /v1/environments/:id - Returns 200 OK, 404 when absent, 403 when
// foreign.
func (h *EnvironmentHandler) GetHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	environmentID, err := parseEnvironmentID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	environment, err := h.environmentUseCase.GetEnvironment(c.Request.Context(), principal.ID, authz.EnvironmentByID(environmentID))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToEnvironmentResponse(environment))
}

// UpdateVariablesHandler replaces the full variable map of an environment.
// PATCH /v1/environments/:id - Returns 200 OK.
func (h *EnvironmentHandler) UpdateVariablesHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	environmentID, err := parseEnvironmentID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var req dto.UpdateVariablesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	environment, err := h.environmentUseCase.UpdateVariables(
		c.Request.Context(),
		principal.ID,
		authz.EnvironmentByID(environmentID),
		environmentUseCase.UpdateVariablesInput{Variables: req.Variables},
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToEnvironmentResponse(environment))
}

// DeleteHandler deletes an owned environment.
// DELETE /v1/environments/:id - Returns 204 No Content.
func (h *EnvironmentHandler) DeleteHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	environmentID, err := parseEnvironmentID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := h.environmentUseCase.DeleteEnvironment(c.Request.Context(), principal.ID, authz.EnvironmentByID(environmentID)); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseEnvironmentID(c *gin.Context) (uuid.UUID, error) {
	environmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid environment ID format: must be a valid UUID")
	}
	return environmentID, nil
}
