// Package usecase implements the outbox event processing loop.
package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/allisson/envstore/internal/database"
	"github.com/allisson/envstore/internal/outbox/domain"
)

// Config holds outbox processor configuration.
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// OutboxEventRepository defines outbox event repository operations.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *domain.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	Update(ctx context.Context, event *domain.OutboxEvent) error
}

// EventProcessor handles a single outbox event by type.
type EventProcessor interface {
	Process(ctx context.Context, event *domain.OutboxEvent) error
}

// UseCase defines the interface for outbox processing operations.
type UseCase interface {
	Start(ctx context.Context) error
	ProcessEvents(ctx context.Context) error
}

// OutboxUseCase drains pending events from the outbox on a fixed interval.
type OutboxUseCase struct {
	config         Config
	txManager      database.TxManager
	outboxRepo     OutboxEventRepository
	eventProcessor EventProcessor
	logger         *slog.Logger
}

// NewOutboxUseCase creates a new OutboxUseCase.
func NewOutboxUseCase(
	config Config,
	txManager database.TxManager,
	outboxRepo OutboxEventRepository,
	eventProcessor EventProcessor,
	logger *slog.Logger,
) *OutboxUseCase {
	return &OutboxUseCase{
		config:         config,
		txManager:      txManager,
		outboxRepo:     outboxRepo,
		eventProcessor: eventProcessor,
		logger:         logger,
	}
}

// Start runs the processing loop until the context is canceled.
func (uc *OutboxUseCase) Start(ctx context.Context) error {
	if uc.logger != nil {
		uc.logger.Info("starting outbox event processor",
			slog.Duration("interval", uc.config.Interval),
			slog.Int("batch_size", uc.config.BatchSize),
		)
	}

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if uc.logger != nil {
				uc.logger.Info("stopping outbox event processor")
			}
			return ctx.Err()
		case <-ticker.C:
			if err := uc.ProcessEvents(ctx); err != nil {
				if uc.logger != nil {
					uc.logger.Error("failed to process outbox events", slog.Any("error", err))
				}
			}
		}
	}
}

// ProcessEvents drains one batch of pending events inside a single
// transaction. Events whose processor fails are retried on later batches
// until MaxRetries, then marked failed.
func (uc *OutboxUseCase) ProcessEvents(ctx context.Context) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		events, err := uc.outboxRepo.GetPendingEvents(ctx, uc.config.BatchSize)
		if err != nil {
			return err
		}

		if len(events) == 0 {
			return nil
		}

		if uc.logger != nil {
			uc.logger.Info("processing outbox events", slog.Int("count", len(events)))
		}

		for _, event := range events {
			if err := uc.eventProcessor.Process(ctx, event); err != nil {
				if uc.logger != nil {
					uc.logger.Error("failed to process outbox event",
						slog.String("event_id", event.ID.String()),
						slog.String("event_type", event.EventType),
						slog.Any("error", err),
					)
				}

				event.Retries++
				errorMsg := err.Error()
				event.LastError = &errorMsg

				if event.Retries >= uc.config.MaxRetries {
					event.Status = domain.OutboxEventStatusFailed
				}

				if err := uc.outboxRepo.Update(ctx, event); err != nil {
					return err
				}
				continue
			}

			now := time.Now()
			event.Status = domain.OutboxEventStatusProcessed
			event.ProcessedAt = &now

			if err := uc.outboxRepo.Update(ctx, event); err != nil {
				return err
			}
		}

		return nil
	})
}

// DefaultEventProcessor logs the events the application emits. A deployment
// that needs to fan events out to a broker or webhook replaces this with its
// own EventProcessor.
type DefaultEventProcessor struct {
	logger *slog.Logger
}

// NewDefaultEventProcessor creates a new DefaultEventProcessor.
func NewDefaultEventProcessor(logger *slog.Logger) *DefaultEventProcessor {
	return &DefaultEventProcessor{
		logger: logger,
	}
}

// Process handles a single event.
func (p *DefaultEventProcessor) Process(ctx context.Context, event *domain.OutboxEvent) error {
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(event.Payload), &payload); err != nil {
		return err
	}

	switch event.EventType {
	case domain.EventTypeUserCreated, domain.EventTypeUserDeleted, domain.EventTypeAPITokenCreated:
		if p.logger != nil {
			p.logger.Info("outbox event",
				slog.String("event_type", event.EventType),
				slog.Any("payload", payload),
			)
		}
	default:
		if p.logger != nil {
			p.logger.Warn("unknown outbox event type", slog.String("event_type", event.EventType))
		}
	}

	return nil
}
