// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	apitokenHTTP "github.com/allisson/envstore/internal/apitoken/http"
	apitokenRepository "github.com/allisson/envstore/internal/apitoken/repository"
	apitokenService "github.com/allisson/envstore/internal/apitoken/service"
	apitokenUsecase "github.com/allisson/envstore/internal/apitoken/usecase"
	authHTTP "github.com/allisson/envstore/internal/auth/http"
	authService "github.com/allisson/envstore/internal/auth/service"
	authUsecase "github.com/allisson/envstore/internal/auth/usecase"
	"github.com/allisson/envstore/internal/authz"
	"github.com/allisson/envstore/internal/config"
	"github.com/allisson/envstore/internal/database"
	environmentHTTP "github.com/allisson/envstore/internal/environment/http"
	environmentRepository "github.com/allisson/envstore/internal/environment/repository"
	environmentUsecase "github.com/allisson/envstore/internal/environment/usecase"
	"github.com/allisson/envstore/internal/http"
	"github.com/allisson/envstore/internal/metrics"
	outboxRepository "github.com/allisson/envstore/internal/outbox/repository"
	outboxUsecase "github.com/allisson/envstore/internal/outbox/usecase"
	projectHTTP "github.com/allisson/envstore/internal/project/http"
	projectRepository "github.com/allisson/envstore/internal/project/repository"
	projectUsecase "github.com/allisson/envstore/internal/project/usecase"
	userRepository "github.com/allisson/envstore/internal/user/repository"
	userUsecase "github.com/allisson/envstore/internal/user/usecase"
)

// apiTokenRepository is the full token persistence surface: the management
// operations used by the token use case plus the secret lookup used during
// credential resolution.
type apiTokenRepository interface {
	apitokenUsecase.APITokenRepository
	authUsecase.APITokenRepository
}

// Container holds all application dependencies and provides methods to access
// them. Components are created lazily on first access.
type Container struct {
	config *config.Config

	logger *slog.Logger
	db     *sql.DB

	txManager database.TxManager

	userRepo        userUsecase.UserRepository
	projectRepo     projectUsecase.ProjectRepository
	environmentRepo environmentUsecase.EnvironmentRepository
	apiTokenRepo    apiTokenRepository
	outboxRepo      outboxUsecase.OutboxEventRepository

	authzEngine *authz.Engine

	passwordService     authService.PasswordService
	sessionTokenService authService.SessionTokenService
	tokenGenerator      apitokenService.Generator

	userUseCase        userUsecase.UseCase
	authUseCase        authUsecase.UseCase
	projectUseCase     projectUsecase.UseCase
	environmentUseCase environmentUsecase.UseCase
	apiTokenUseCase    apitokenUsecase.UseCase
	outboxUseCase      outboxUsecase.UseCase

	metricsProvider *metrics.Provider
	httpServer      *http.Server
	metricsServer   *http.MetricsServer

	mu                     sync.Mutex
	loggerInit             sync.Once
	dbInit                 sync.Once
	txManagerInit          sync.Once
	userRepoInit           sync.Once
	projectRepoInit        sync.Once
	environmentRepoInit    sync.Once
	apiTokenRepoInit       sync.Once
	outboxRepoInit         sync.Once
	authzEngineInit        sync.Once
	passwordServiceInit    sync.Once
	sessionTokenInit       sync.Once
	tokenGeneratorInit     sync.Once
	userUseCaseInit        sync.Once
	authUseCaseInit        sync.Once
	projectUseCaseInit     sync.Once
	environmentUseCaseInit sync.Once
	apiTokenUseCaseInit    sync.Once
	outboxUseCaseInit      sync.Once
	metricsProviderInit    sync.Once
	httpServerInit         sync.Once
	metricsServerInit      sync.Once
	initErrors             map[string]error
}

// NewContainer creates a new dependency injection container with the provided
// configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := database.Connect(database.Config{
			Driver:             c.config.DBDriver,
			ConnectionString:   c.config.DBConnectionString,
			MaxOpenConnections: c.config.DBMaxOpenConnections,
			MaxIdleConnections: c.config.DBMaxIdleConnections,
			ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		})
		if err != nil {
			c.initErrors["db"] = fmt.Errorf("failed to connect to database: %w", err)
			return
		}
		c.db = db
	})
	if err, exists := c.initErrors["db"]; exists {
		return nil, err
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if err, exists := c.initErrors["txManager"]; exists {
		return nil, err
	}
	return c.txManager, nil
}

// UserRepository returns the user repository for the configured driver.
func (c *Container) UserRepository() (userUsecase.UserRepository, error) {
	c.userRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["userRepo"] = fmt.Errorf("failed to get database for user repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.userRepo = userRepository.NewMySQLUserRepository(db)
		case "postgres":
			c.userRepo = userRepository.NewPostgreSQLUserRepository(db)
		default:
			c.initErrors["userRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["userRepo"]; exists {
		return nil, err
	}
	return c.userRepo, nil
}

// ProjectRepository returns the project repository for the configured driver.
func (c *Container) ProjectRepository() (projectUsecase.ProjectRepository, error) {
	c.projectRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["projectRepo"] = fmt.Errorf("failed to get database for project repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.projectRepo = projectRepository.NewMySQLProjectRepository(db)
		case "postgres":
			c.projectRepo = projectRepository.NewPostgreSQLProjectRepository(db)
		default:
			c.initErrors["projectRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["projectRepo"]; exists {
		return nil, err
	}
	return c.projectRepo, nil
}

// EnvironmentRepository returns the environment repository for the configured driver.
func (c *Container) EnvironmentRepository() (environmentUsecase.EnvironmentRepository, error) {
	c.environmentRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["environmentRepo"] = fmt.Errorf("failed to get database for environment repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.environmentRepo = environmentRepository.NewMySQLEnvironmentRepository(db)
		case "postgres":
			c.environmentRepo = environmentRepository.NewPostgreSQLEnvironmentRepository(db)
		default:
			c.initErrors["environmentRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["environmentRepo"]; exists {
		return nil, err
	}
	return c.environmentRepo, nil
}

// APITokenRepository returns the API token repository for the configured driver.
func (c *Container) APITokenRepository() (apiTokenRepository, error) {
	c.apiTokenRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["apiTokenRepo"] = fmt.Errorf("failed to get database for api token repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.apiTokenRepo = apitokenRepository.NewMySQLAPITokenRepository(db)
		case "postgres":
			c.apiTokenRepo = apitokenRepository.NewPostgreSQLAPITokenRepository(db)
		default:
			c.initErrors["apiTokenRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["apiTokenRepo"]; exists {
		return nil, err
	}
	return c.apiTokenRepo, nil
}

// OutboxRepository returns the outbox event repository for the configured driver.
func (c *Container) OutboxRepository() (outboxUsecase.OutboxEventRepository, error) {
	c.outboxRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["outboxRepo"] = fmt.Errorf("failed to get database for outbox repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.outboxRepo = outboxRepository.NewMySQLOutboxEventRepository(db)
		case "postgres":
			c.outboxRepo = outboxRepository.NewPostgreSQLOutboxEventRepository(db)
		default:
			c.initErrors["outboxRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["outboxRepo"]; exists {
		return nil, err
	}
	return c.outboxRepo, nil
}

// AuthzEngine returns the ownership authorization engine.
func (c *Container) AuthzEngine() (*authz.Engine, error) {
	c.authzEngineInit.Do(func() {
		projectRepo, err := c.ProjectRepository()
		if err != nil {
			c.initErrors["authzEngine"] = fmt.Errorf("failed to get project repository for authz engine: %w", err)
			return
		}

		environmentRepo, err := c.EnvironmentRepository()
		if err != nil {
			c.initErrors["authzEngine"] = fmt.Errorf("failed to get environment repository for authz engine: %w", err)
			return
		}

		apiTokenRepo, err := c.APITokenRepository()
		if err != nil {
			c.initErrors["authzEngine"] = fmt.Errorf("failed to get api token repository for authz engine: %w", err)
			return
		}

		c.authzEngine = authz.NewEngine(projectRepo, environmentRepo, apiTokenRepo)
	})
	if err, exists := c.initErrors["authzEngine"]; exists {
		return nil, err
	}
	return c.authzEngine, nil
}

// PasswordService returns the password hashing service.
func (c *Container) PasswordService() (authService.PasswordService, error) {
	c.passwordServiceInit.Do(func() {
		service, err := authService.NewPasswordService()
		if err != nil {
			c.initErrors["passwordService"] = fmt.Errorf("failed to create password service: %w", err)
			return
		}
		c.passwordService = service
	})
	if err, exists := c.initErrors["passwordService"]; exists {
		return nil, err
	}
	return c.passwordService, nil
}

// SessionTokenService returns the session token service.
func (c *Container) SessionTokenService() authService.SessionTokenService {
	c.sessionTokenInit.Do(func() {
		c.sessionTokenService = authService.NewSessionTokenService(c.config)
	})
	return c.sessionTokenService
}

// TokenGenerator returns the API token secret generator.
func (c *Container) TokenGenerator() apitokenService.Generator {
	c.tokenGeneratorInit.Do(func() {
		c.tokenGenerator = apitokenService.NewGenerator()
	})
	return c.tokenGenerator
}

// UserUseCase returns the user use case instance.
func (c *Container) UserUseCase() (userUsecase.UseCase, error) {
	c.userUseCaseInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["userUseCase"] = fmt.Errorf("failed to get tx manager for user use case: %w", err)
			return
		}

		userRepo, err := c.UserRepository()
		if err != nil {
			c.initErrors["userUseCase"] = fmt.Errorf("failed to get user repository for user use case: %w", err)
			return
		}

		passwordService, err := c.PasswordService()
		if err != nil {
			c.initErrors["userUseCase"] = fmt.Errorf("failed to get password service for user use case: %w", err)
			return
		}

		outboxRepo, err := c.OutboxRepository()
		if err != nil {
			c.initErrors["userUseCase"] = fmt.Errorf("failed to get outbox repository for user use case: %w", err)
			return
		}

		c.userUseCase = userUsecase.NewUserUseCase(txManager, userRepo, passwordService, outboxRepo)
	})
	if err, exists := c.initErrors["userUseCase"]; exists {
		return nil, err
	}
	return c.userUseCase, nil
}

// AuthUseCase returns the authentication use case instance.
func (c *Container) AuthUseCase() (authUsecase.UseCase, error) {
	c.authUseCaseInit.Do(func() {
		userUseCase, err := c.UserUseCase()
		if err != nil {
			c.initErrors["authUseCase"] = fmt.Errorf("failed to get user use case for auth use case: %w", err)
			return
		}

		apiTokenRepo, err := c.APITokenRepository()
		if err != nil {
			c.initErrors["authUseCase"] = fmt.Errorf("failed to get api token repository for auth use case: %w", err)
			return
		}

		passwordService, err := c.PasswordService()
		if err != nil {
			c.initErrors["authUseCase"] = fmt.Errorf("failed to get password service for auth use case: %w", err)
			return
		}

		c.authUseCase = authUsecase.NewAuthUseCase(
			c.config,
			userUseCase,
			apiTokenRepo,
			passwordService,
			c.SessionTokenService(),
		)
	})
	if err, exists := c.initErrors["authUseCase"]; exists {
		return nil, err
	}
	return c.authUseCase, nil
}

// ProjectUseCase returns the project use case instance.
func (c *Container) ProjectUseCase() (projectUsecase.UseCase, error) {
	c.projectUseCaseInit.Do(func() {
		projectRepo, err := c.ProjectRepository()
		if err != nil {
			c.initErrors["projectUseCase"] = fmt.Errorf("failed to get project repository for project use case: %w", err)
			return
		}

		environmentRepo, err := c.EnvironmentRepository()
		if err != nil {
			c.initErrors["projectUseCase"] = fmt.Errorf("failed to get environment repository for project use case: %w", err)
			return
		}

		engine, err := c.AuthzEngine()
		if err != nil {
			c.initErrors["projectUseCase"] = fmt.Errorf("failed to get authz engine for project use case: %w", err)
			return
		}

		c.projectUseCase = projectUsecase.NewProjectUseCase(projectRepo, environmentRepo, engine)
	})
	if err, exists := c.initErrors["projectUseCase"]; exists {
		return nil, err
	}
	return c.projectUseCase, nil
}

// EnvironmentUseCase returns the environment use case instance.
func (c *Container) EnvironmentUseCase() (environmentUsecase.UseCase, error) {
	c.environmentUseCaseInit.Do(func() {
		environmentRepo, err := c.EnvironmentRepository()
		if err != nil {
			c.initErrors["environmentUseCase"] = fmt.Errorf("failed to get environment repository for environment use case: %w", err)
			return
		}

		engine, err := c.AuthzEngine()
		if err != nil {
			c.initErrors["environmentUseCase"] = fmt.Errorf("failed to get authz engine for environment use case: %w", err)
			return
		}

		c.environmentUseCase = environmentUsecase.NewEnvironmentUseCase(environmentRepo, engine)
	})
	if err, exists := c.initErrors["environmentUseCase"]; exists {
		return nil, err
	}
	return c.environmentUseCase, nil
}

// APITokenUseCase returns the API token use case instance.
func (c *Container) APITokenUseCase() (apitokenUsecase.UseCase, error) {
	c.apiTokenUseCaseInit.Do(func() {
		apiTokenRepo, err := c.APITokenRepository()
		if err != nil {
			c.initErrors["apiTokenUseCase"] = fmt.Errorf("failed to get api token repository for api token use case: %w", err)
			return
		}

		engine, err := c.AuthzEngine()
		if err != nil {
			c.initErrors["apiTokenUseCase"] = fmt.Errorf("failed to get authz engine for api token use case: %w", err)
			return
		}

		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["apiTokenUseCase"] = fmt.Errorf("failed to get tx manager for api token use case: %w", err)
			return
		}

		outboxRepo, err := c.OutboxRepository()
		if err != nil {
			c.initErrors["apiTokenUseCase"] = fmt.Errorf("failed to get outbox repository for api token use case: %w", err)
			return
		}

		c.apiTokenUseCase = apitokenUsecase.NewAPITokenUseCase(txManager, apiTokenRepo, c.TokenGenerator(), engine, outboxRepo)
	})
	if err, exists := c.initErrors["apiTokenUseCase"]; exists {
		return nil, err
	}
	return c.apiTokenUseCase, nil
}

// OutboxUseCase returns the outbox event processor instance.
func (c *Container) OutboxUseCase() (outboxUsecase.UseCase, error) {
	c.outboxUseCaseInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["outboxUseCase"] = fmt.Errorf("failed to get tx manager for outbox use case: %w", err)
			return
		}

		outboxRepo, err := c.OutboxRepository()
		if err != nil {
			c.initErrors["outboxUseCase"] = fmt.Errorf("failed to get outbox repository for outbox use case: %w", err)
			return
		}

		c.outboxUseCase = outboxUsecase.NewOutboxUseCase(
			outboxUsecase.Config{
				Interval:   c.config.OutboxInterval,
				BatchSize:  c.config.OutboxBatchSize,
				MaxRetries: c.config.OutboxMaxRetries,
			},
			txManager,
			outboxRepo,
			outboxUsecase.NewDefaultEventProcessor(c.Logger()),
			c.Logger(),
		)
	})
	if err, exists := c.initErrors["outboxUseCase"]; exists {
		return nil, err
	}
	return c.outboxUseCase, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}

		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if err, exists := c.initErrors["metricsProvider"]; exists {
		return nil, err
	}
	return c.metricsProvider, nil
}

// HTTPServer returns the API server instance, wiring every handler.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		logger := c.Logger()

		db, err := c.DB()
		if err != nil {
			c.initErrors["httpServer"] = fmt.Errorf("failed to get database for http server: %w", err)
			return
		}

		authUseCase, err := c.AuthUseCase()
		if err != nil {
			c.initErrors["httpServer"] = fmt.Errorf("failed to get auth use case for http server: %w", err)
			return
		}

		apiTokenUseCase, err := c.APITokenUseCase()
		if err != nil {
			c.initErrors["httpServer"] = fmt.Errorf("failed to get api token use case for http server: %w", err)
			return
		}

		projectUseCase, err := c.ProjectUseCase()
		if err != nil {
			c.initErrors["httpServer"] = fmt.Errorf("failed to get project use case for http server: %w", err)
			return
		}

		environmentUseCase, err := c.EnvironmentUseCase()
		if err != nil {
			c.initErrors["httpServer"] = fmt.Errorf("failed to get environment use case for http server: %w", err)
			return
		}

		metricsProvider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["httpServer"] = fmt.Errorf("failed to get metrics provider for http server: %w", err)
			return
		}

		handlers := http.Handlers{
			Auth:        authHTTP.NewAuthHandler(authUseCase, logger),
			APIToken:    apitokenHTTP.NewAPITokenHandler(apiTokenUseCase, logger),
			Project:     projectHTTP.NewProjectHandler(projectUseCase, logger),
			Environment: environmentHTTP.NewEnvironmentHandler(environmentUseCase, logger),
			CLI:         environmentHTTP.NewCLIEnvironmentHandler(environmentUseCase, logger),
		}

		c.httpServer = http.NewServer(c.config, db, logger, authUseCase, handlers, metricsProvider)
	})
	if err, exists := c.initErrors["httpServer"]; exists {
		return nil, err
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
			return
		}
		if provider == nil {
			return
		}

		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if err, exists := c.initErrors["metricsServer"]; exists {
		return nil, err
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates a structured JSON logger based on the configured level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}
