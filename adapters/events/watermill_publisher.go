package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/streamgate/streamgate/ports"
)

// AuditTopic is the stream carrying credential-decision events.
const AuditTopic = "streamgate.audit"

// WatermillPublisher implements the EventPublisher interface using
// Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     AuditTopic,
	}
}

// Publish serializes the event and hands it to the broker.
func (p *WatermillPublisher) Publish(ctx context.Context, event ports.AuditEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NopPublisher discards events. Used when no broker is configured and in
// tests.
type NopPublisher struct{}

// Publish drops the event.
func (NopPublisher) Publish(ctx context.Context, event ports.AuditEvent) error { return nil }
