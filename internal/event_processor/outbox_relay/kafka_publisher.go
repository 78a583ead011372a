package outbox_relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sanord8/YL-portal-sub002/internal/domain/outbox"
	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
	"github.com/sanord8/YL-portal-sub002/internal/platform/messaging/producers"
)

// MessagePublisher delivers one outbox message and settles its status
type MessagePublisher interface {
	Publish(ctx context.Context, message *outbox.Message) error
}

// KafkaPublisher writes outbox payloads to the movement topic keyed by movement id
type KafkaPublisher struct {
	outboxRepo outbox.Repository
	producer   producers.EventPublisher
	logger     *slog.Logger
}

func NewKafkaPublisher(
	outboxRepo outbox.Repository,
	producer producers.EventPublisher,
	logger *slog.Logger,
) *KafkaPublisher {
	return &KafkaPublisher{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// Publish sends the message and marks it PROCESSED.
// A payload that no longer decodes is marked FAILED_TO_PUBLISH straight away.
func (p *KafkaPublisher) Publish(ctx context.Context, message *outbox.Message) error {
	event, err := message.Event()
	if err != nil {
		p.logger.Error("Failed to decode movement event from outbox payload",
			"outbox_id", message.ID, "movement_id", message.MovementID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to mark outbox message FAILED_TO_PUBLISH", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("decode payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	if err := p.producer.Publish(ctx, message.PartitionKey(), message.Payload, string(message.EventType)); err != nil {
		return fmt.Errorf("publish event %s: %w", message.EventID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Event published but failed to mark outbox message PROCESSED",
			"outbox_id", message.ID, "event_id", message.EventID, "error", err,
		)
		return fmt.Errorf("event %s published, but failed to mark outbox %d as PROCESSED: %w", message.EventID, message.ID, err)
	}

	logger.Debug("Outbox message marked PROCESSED", "outbox_id", message.ID, "event_id", message.EventID)
	return nil
}
