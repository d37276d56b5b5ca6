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

// CLIEnvironmentHandler handles environment HTTP requests for the CLI
// surface. Resources are addressed by name where the CLI has no stable id,
// and ownership failures collapse to not found so token holders cannot probe
// for foreign names.
type CLIEnvironmentHandler struct {
	environmentUseCase environmentUseCase.UseCase
	logger             *slog.Logger
}

// NewCLIEnvironmentHandler creates a new CLIEnvironmentHandler.
func NewCLIEnvironmentHandler(environmentUseCase environmentUseCase.UseCase, logger *slog.Logger) *CLIEnvironmentHandler {
	return &CLIEnvironmentHandler{
		environmentUseCase: environmentUseCase,
		logger:             logger,
	}
}

// GetHandler retrieves an environment by id for variable injection.
// GET /v1/cli/environments/:id - API token authenticated.
func (h *CLIEnvironmentHandler) GetHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	environmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid environment ID format: must be a valid UUID"),
			h.logger)
		return
	}

	environment, err := h.environmentUseCase.GetEnvironment(c.Request.Context(), principal.ID, authz.EnvironmentByID(environmentID))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToEnvironmentResponse(environment))
}

// ListByProjectNameHandler lists the environments of a project by name.
// GET /v1/cli/projects/:projectName/environments - API token authenticated.
func (h *CLIEnvironmentHandler) ListByProjectNameHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	environments, err := h.environmentUseCase.ListEnvironments(
		c.Request.Context(),
		principal.ID,
		authz.ProjectByName(c.Param("projectName")),
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToEnvironmentListResponse(environments))
}

// CreateHandler creates an environment under a project addressed by name.
// POST /v1/cli/environments - API token authenticated, returns 201 Created.
func (h *CLIEnvironmentHandler) CreateHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.CLICreateEnvironmentRequest
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
		authz.ProjectByName(req.ProjectName),
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

// DeleteHandler deletes an environment addressed by project and environment
// name.
// DELETE /v1/cli/projects/:projectName/environments/:environmentName -
// API token authenticated, returns 204 No Content.
func (h *CLIEnvironmentHandler) DeleteHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	ref := authz.EnvironmentByName(c.Param("projectName"), c.Param("environmentName"))
	if err := h.environmentUseCase.DeleteEnvironment(c.Request.Context(), principal.ID, ref); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
