package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/envstore/internal/outbox/domain"
)

// mockTxManager executes the function directly without a real transaction.
type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// mockOutboxEventRepository is a mock implementation of OutboxEventRepository for testing.
type mockOutboxEventRepository struct {
	mock.Mock
}

func (m *mockOutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockOutboxEventRepository) GetPendingEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OutboxEvent), args.Error(1)
}

func (m *mockOutboxEventRepository) Update(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// mockEventProcessor is a mock implementation of EventProcessor for testing.
type mockEventProcessor struct {
	mock.Mock
}

func (m *mockEventProcessor) Process(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newTestOutboxUseCase(config Config) (*OutboxUseCase, *mockOutboxEventRepository, *mockEventProcessor) {
	outboxRepo := &mockOutboxEventRepository{}
	processor := &mockEventProcessor{}
	uc := NewOutboxUseCase(config, &mockTxManager{}, outboxRepo, processor, nil)
	return uc, outboxRepo, processor
}

func pendingEvent(eventType string) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Payload:   `{"user_id": "0198a5b2-0000-7000-8000-000000000000"}`,
		Status:    domain.OutboxEventStatusPending,
	}
}

func TestOutboxUseCase_ProcessEvents(t *testing.T) {
	ctx := context.Background()
	config := Config{Interval: 5 * time.Second, BatchSize: 10, MaxRetries: 3}

	t.Run("Success_MarksEventsProcessed", func(t *testing.T) {
		uc, outboxRepo, processor := newTestOutboxUseCase(config)
		events := []*domain.OutboxEvent{
			pendingEvent(domain.EventTypeUserCreated),
			pendingEvent(domain.EventTypeAPITokenCreated),
		}
		outboxRepo.On("GetPendingEvents", ctx, 10).Return(events, nil).Once()
		processor.On("Process", ctx, events[0]).Return(nil).Once()
		processor.On("Process", ctx, events[1]).Return(nil).Once()
		outboxRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
			return e.Status == domain.OutboxEventStatusProcessed && e.ProcessedAt != nil
		})).Return(nil).Twice()

		err := uc.ProcessEvents(ctx)

		require.NoError(t, err)
		outboxRepo.AssertExpectations(t)
		processor.AssertExpectations(t)
	})

	t.Run("Success_EmptyBatchIsNoOp", func(t *testing.T) {
		uc, outboxRepo, processor := newTestOutboxUseCase(config)
		outboxRepo.On("GetPendingEvents", ctx, 10).Return([]*domain.OutboxEvent{}, nil).Once()

		err := uc.ProcessEvents(ctx)

		require.NoError(t, err)
		processor.AssertNotCalled(t, "Process")
		outboxRepo.AssertNotCalled(t, "Update")
	})

	t.Run("Success_ProcessorFailureIncrementsRetries", func(t *testing.T) {
		uc, outboxRepo, processor := newTestOutboxUseCase(config)
		event := pendingEvent(domain.EventTypeUserCreated)
		outboxRepo.On("GetPendingEvents", ctx, 10).Return([]*domain.OutboxEvent{event}, nil).Once()
		processor.On("Process", ctx, event).Return(errors.New("downstream unavailable")).Once()
		outboxRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
			return e.Status == domain.OutboxEventStatusPending &&
				e.Retries == 1 &&
				e.LastError != nil && *e.LastError == "downstream unavailable"
		})).Return(nil).Once()

		err := uc.ProcessEvents(ctx)

		require.NoError(t, err)
		outboxRepo.AssertExpectations(t)
	})

	t.Run("Success_MaxRetriesMarksEventFailed", func(t *testing.T) {
		uc, outboxRepo, processor := newTestOutboxUseCase(config)
		event := pendingEvent(domain.EventTypeUserCreated)
		event.Retries = 2
		outboxRepo.On("GetPendingEvents", ctx, 10).Return([]*domain.OutboxEvent{event}, nil).Once()
		processor.On("Process", ctx, event).Return(errors.New("downstream unavailable")).Once()
		outboxRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
			return e.Status == domain.OutboxEventStatusFailed && e.Retries == 3
		})).Return(nil).Once()

		err := uc.ProcessEvents(ctx)

		require.NoError(t, err)
		outboxRepo.AssertExpectations(t)
	})

	t.Run("Error_RepositoryFailurePropagates", func(t *testing.T) {
		uc, outboxRepo, _ := newTestOutboxUseCase(config)
		outboxRepo.On("GetPendingEvents", ctx, 10).
			Return(nil, errors.New("connection reset")).Once()

		err := uc.ProcessEvents(ctx)

		assert.Error(t, err)
	})
}

func TestOutboxUseCase_Start(t *testing.T) {
	config := Config{Interval: 10 * time.Millisecond, BatchSize: 10, MaxRetries: 3}
	uc, _, _ := newTestOutboxUseCase(config)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := uc.Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultEventProcessor_Process(t *testing.T) {
	ctx := context.Background()
	processor := NewDefaultEventProcessor(nil)

	t.Run("Success_KnownEventType", func(t *testing.T) {
		err := processor.Process(ctx, pendingEvent(domain.EventTypeUserCreated))
		assert.NoError(t, err)
	})

	t.Run("Success_UnknownEventType", func(t *testing.T) {
		err := processor.Process(ctx, pendingEvent("something.else"))
		assert.NoError(t, err)
	})

	t.Run("Error_MalformedPayload", func(t *testing.T) {
		event := pendingEvent(domain.EventTypeUserCreated)
		event.Payload = "not-json"

		err := processor.Process(ctx, event)
		assert.Error(t, err)
	})
}
