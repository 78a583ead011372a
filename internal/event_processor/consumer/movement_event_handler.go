package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
	"github.com/sanord8/YL-portal-sub002/internal/event_processor/service"
	"github.com/sanord8/YL-portal-sub002/internal/platform/messaging/consumers"
	"github.com/sanord8/YL-portal-sub002/internal/platform/messaging/producers"
)

// MovementEventHandler projects movement events read from Kafka
type MovementEventHandler struct {
	projectionService service.ProjectionService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewMovementEventHandler creates a handler. producer may be nil, in which case
// unprocessable messages are retried instead of dead-lettered.
func NewMovementEventHandler(
	logger *slog.Logger,
	projectionService service.ProjectionService,
	producer producers.DeadLetterPublisher,
) *MovementEventHandler {
	return &MovementEventHandler{
		projectionService: projectionService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage satisfies consumers.MessageHandler
func (h *MovementEventHandler) HandleMessage(ctx context.Context, msg consumers.Message) error {
	var event shared.MovementEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return h.deadLetter(ctx, msg, "Failed to unmarshal movement event from Kafka message", err)
	}
	if err := event.Validate(); err != nil {
		return h.deadLetter(ctx, msg, "Movement event failed validation", err)
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Debug("Received movement event",
		"event_id", event.EventID.String(),
		"movement_id", event.MovementID.String(),
		"type", event.Type,
		"partition", msg.Partition,
		"offset", msg.Offset,
	)

	if err := h.projectionService.Project(ctx, &event); err != nil {
		logger.Error("Failed to project movement event",
			"event_id", event.EventID.String(),
			"movement_id", event.MovementID.String(),
			"error", err,
		)
		return fmt.Errorf("projecting event %s failed: %w", event.EventID.String(), err)
	}

	return nil
}

func (h *MovementEventHandler) deadLetter(ctx context.Context, msg consumers.Message, reason string, cause error) error {
	key := string(msg.Key)
	h.logger.Error(reason, "error", cause, "message_key", key)

	if h.producer != nil {
		dlqReason := fmt.Sprintf("%s: %s", reason, cause.Error())
		if dlqErr := h.producer.PublishToDLQ(ctx, key, msg.Value, dlqReason); dlqErr != nil {
			h.logger.Error("Failed to publish message to DLQ",
				"dlq_error", dlqErr,
				"original_error", cause,
				"message_key", key,
			)
		} else {
			h.logger.Info("Published unprocessable message to DLQ", "message_key", key, "reason", dlqReason)
			return nil
		}
	}
	return fmt.Errorf("unprocessable movement event: %w", cause)
}
