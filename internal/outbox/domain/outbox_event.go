// Package domain defines the transactional outbox entities and event types.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxEventStatus represents the processing status of an outbox event.
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "pending"
	OutboxEventStatusProcessed OutboxEventStatus = "processed"
	OutboxEventStatusFailed    OutboxEventStatus = "failed"
)

// Event types recorded by the application.
const (
	EventTypeUserCreated     = "user.created"
	EventTypeUserDeleted     = "user.deleted"
	EventTypeAPITokenCreated = "api_token.created"
)

// OutboxEvent is a domain event persisted in the same transaction as the
// state change it describes, to be picked up later by the processor loop.
type OutboxEvent struct {
	ID          uuid.UUID
	EventType   string
	Payload     string
	Status      OutboxEventStatus
	Retries     int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewPendingEvent builds a pending event with a JSON-encoded payload.
func NewPendingEvent(eventType string, payload any) (*OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Payload:   string(data),
		Status:    OutboxEventStatusPending,
	}, nil
}
