package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/allisson/envstore/internal/app"
	"github.com/allisson/envstore/internal/config"
)

// RunServer starts the API server and the metrics server with graceful
// shutdown support. Blocks until receiving SIGINT/SIGTERM or encountering a
// fatal error.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()

	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	defer closeContainer(container, logger)

	server, err := container.HTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.OutboxEnabled {
		outboxUseCase, err := container.OutboxUseCase()
		if err != nil {
			return fmt.Errorf("failed to initialize outbox processor: %w", err)
		}

		go func() {
			if err := outboxUseCase.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox processor stopped", slog.Any("error", err))
			}
		}()
	}

	serverErr := make(chan error, 2)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErr <- fmt.Errorf("api server error: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				serverErr <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	// A nil *MetricsServer must stay a nil interface for shutdownServers.
	var metricsShutdown apiServer
	if metricsServer != nil {
		metricsShutdown = metricsServer
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		return shutdownServers(server, metricsShutdown, cfg, nil)
	case err := <-serverErr:
		logger.Error("server error, initiating shutdown", slog.Any("error", err))
		return shutdownServers(server, metricsShutdown, cfg, err)
	}
}

// shutdownServers stops both servers within the configured timeout and joins
// any errors with the originating failure.
func shutdownServers(server apiServer, metricsServer apiServer, cfg *config.Config, cause error) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.DBConnMaxLifetime)
	defer cancel()

	var shutdownErrors []error
	if cause != nil {
		shutdownErrors = append(shutdownErrors, cause)
	}

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("api server shutdown: %w", err))
		}
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return errors.Join(shutdownErrors...)
	}

	return nil
}

// apiServer is the shutdown surface shared by both servers.
type apiServer interface {
	Shutdown(ctx context.Context) error
}
