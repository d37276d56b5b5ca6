// Package http provides the API server: routing, shared middleware, and the
// health and readiness endpoints.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apitokenHTTP "github.com/allisson/envstore/internal/apitoken/http"
	authHTTP "github.com/allisson/envstore/internal/auth/http"
	authUseCase "github.com/allisson/envstore/internal/auth/usecase"
	"github.com/allisson/envstore/internal/config"
	environmentHTTP "github.com/allisson/envstore/internal/environment/http"
	"github.com/allisson/envstore/internal/metrics"
	projectHTTP "github.com/allisson/envstore/internal/project/http"
)

// Handlers bundles the per-context HTTP handlers wired into the router.
type Handlers struct {
	Auth        *authHTTP.AuthHandler
	APIToken    *apitokenHTTP.APITokenHandler
	Project     *projectHTTP.ProjectHandler
	Environment *environmentHTTP.EnvironmentHandler
	CLI         *environmentHTTP.CLIEnvironmentHandler
}

// Server represents the API HTTP server.
type Server struct {
	server          *http.Server
	router          *gin.Engine
	db              *sql.DB
	logger          *slog.Logger
	cfg             *config.Config
	authUseCase     authUseCase.UseCase
	handlers        Handlers
	metricsProvider *metrics.Provider
}

// NewServer creates the API server and registers all routes.
func NewServer(
	cfg *config.Config,
	db *sql.DB,
	logger *slog.Logger,
	auth authUseCase.UseCase,
	handlers Handlers,
	metricsProvider *metrics.Provider,
) *Server {
	s := &Server{
		db:              db,
		logger:          logger,
		cfg:             cfg,
		authUseCase:     auth,
		handlers:        handlers,
		metricsProvider: metricsProvider,
	}

	s.router = s.buildRouter()
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// buildRouter assembles the middleware chain and the route table.
func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(s.cfg.CORSEnabled, s.cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if s.metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(s.metricsProvider.MeterProvider(), s.cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	// Unauthenticated credential endpoints, rate limited per client IP.
	auth := v1.Group("/auth")
	if s.cfg.RateLimitLoginEnabled {
		auth.Use(authHTTP.LoginRateLimitMiddleware(
			s.cfg.RateLimitLoginRequestsPerSec,
			s.cfg.RateLimitLoginBurst,
			s.logger,
		))
	}
	auth.POST("/register", s.handlers.Auth.RegisterHandler)
	auth.POST("/login", s.handlers.Auth.LoginHandler)

	// Session surface: browser and dashboard traffic, addressed by id.
	session := v1.Group("")
	session.Use(authHTTP.SessionAuthMiddleware(s.authUseCase, s.logger))
	if s.cfg.RateLimitEnabled {
		session.Use(authHTTP.RateLimitMiddleware(
			s.cfg.RateLimitRequestsPerSec,
			s.cfg.RateLimitBurst,
			s.logger,
		))
	}

	session.GET("/auth/profile", s.handlers.Auth.ProfileHandler)

	session.POST("/api-tokens", s.handlers.APIToken.CreateHandler)
	session.GET("/api-tokens", s.handlers.APIToken.ListHandler)
	session.DELETE("/api-tokens/:id", s.handlers.APIToken.DeleteHandler)

	session.POST("/projects", s.handlers.Project.CreateHandler)
	session.GET("/projects", s.handlers.Project.ListHandler)
	session.GET("/projects/:id", s.handlers.Project.GetHandler)
	session.PATCH("/projects/:id", s.handlers.Project.UpdateHandler)
	session.DELETE("/projects/:id", s.handlers.Project.DeleteHandler)
	session.GET("/projects/:id/environments", s.handlers.Environment.ListByProjectHandler)

	session.POST("/environments", s.handlers.Environment.CreateHandler)
	session.GET("/environments/:id", s.handlers.Environment.GetHandler)
	session.PATCH("/environments/:id", s.handlers.Environment.UpdateVariablesHandler)
	session.DELETE("/environments/:id", s.handlers.Environment.DeleteHandler)

	// CLI surface: API token traffic, addressed by name where possible.
	cli := v1.Group("/cli")
	cli.Use(authHTTP.APITokenAuthMiddleware(s.authUseCase, s.logger))
	if s.cfg.RateLimitEnabled {
		cli.Use(authHTTP.RateLimitMiddleware(
			s.cfg.RateLimitRequestsPerSec,
			s.cfg.RateLimitBurst,
			s.logger,
		))
	}

	cli.GET("/environments/:id", s.handlers.CLI.GetHandler)
	cli.POST("/environments", s.handlers.CLI.CreateHandler)
	cli.GET("/projects/:projectName/environments", s.handlers.CLI.ListByProjectNameHandler)
	cli.DELETE("/projects/:projectName/environments/:environmentName", s.handlers.CLI.DeleteHandler)

	return router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can reach its dependencies.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}
	status := http.StatusOK
	overall := "ready"

	if s.db == nil {
		components["database"] = "error"
		status = http.StatusServiceUnavailable
		overall = "not_ready"
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := s.db.PingContext(ctx); err != nil {
			components["database"] = "error"
			status = http.StatusServiceUnavailable
			overall = "not_ready"
		} else {
			components["database"] = "ok"
		}
	}

	c.JSON(status, gin.H{"status": overall, "components": components})
}

// Start starts the API HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the API HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
