// Package http provides HTTP handlers for project operations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authHTTP "github.com/allisson/envstore/internal/auth/http"
	"github.com/allisson/envstore/internal/authz"
	apperrors "github.com/allisson/envstore/internal/errors"
	"github.com/allisson/envstore/internal/httputil"
	"github.com/allisson/envstore/internal/project/http/dto"
	projectUseCase "github.com/allisson/envstore/internal/project/usecase"
)

// ProjectHandler handles project HTTP requests.
type ProjectHandler struct {
	projectUseCase projectUseCase.UseCase
	logger         *slog.Logger
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectUseCase projectUseCase.UseCase, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectUseCase: projectUseCase,
		logger:         logger,
	}
}

// CreateHandler creates a project for the authenticated user.
// POST /v1/projects - Returns 201 Created.
func (h *ProjectHandler) CreateHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	project, err := h.projectUseCase.CreateProject(c.Request.Context(), principal.ID, projectUseCase.CreateProjectInput{
		Name: req.Name,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectResponse(project))
}

// ListHandler lists the authenticated user's projects.
// GET /v1/projects?offset=&limit= - Returns 200 OK.
func (h *ProjectHandler) ListHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	projects, err := h.projectUseCase.ListProjects(c.Request.Context(), principal.ID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectListResponse(projects))
}

// GetHandler retrieves one of the user's projects by id.
// GET /v1/projects/:id - Returns 200 OK, 404 when absent, 403 when foreign.
func (h *ProjectHandler) GetHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	projectID, err := parseProjectID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	project, err := h.projectUseCase.GetProject(c.Request.Context(), principal.ID, authz.ProjectByID(projectID))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectResponse(project))
}

// UpdateHandler renames one of the user's projects.
// PATCH /v1/projects/:id - Returns 200 OK.
func (h *ProjectHandler) UpdateHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	projectID, err := parseProjectID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	project, err := h.projectUseCase.UpdateProject(c.Request.Context(), principal.ID, projectID, projectUseCase.UpdateProjectInput{
		Name: req.Name,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectResponse(project))
}

// DeleteHandler deletes one of the user's projects and all of its
// environments.
// DELETE /v1/projects/:id - Returns 204 No Content.
func (h *ProjectHandler) DeleteHandler(c *gin.Context) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	projectID, err := parseProjectID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := h.projectUseCase.DeleteProject(c.Request.Context(), principal.ID, projectID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseProjectID(c *gin.Context) (uuid.UUID, error) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid project ID format: must be a valid UUID")
	}
	return projectID, nil
}
