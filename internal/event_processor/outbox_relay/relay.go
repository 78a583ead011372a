package outbox_relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sanord8/YL-portal-sub002/internal/config"
	"github.com/sanord8/YL-portal-sub002/internal/domain/outbox"
	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
)

// Relay drains pending outbox messages into Kafka
type Relay struct {
	outboxRepo       outbox.Repository
	publisher        MessagePublisher
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
	retention        time.Duration
	purgeInterval    time.Duration
	now              func() time.Time
}

func NewRelay(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	publisher MessagePublisher,
	logger *slog.Logger,
) *Relay {
	return &Relay{
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
		retention:        cfg.Retention,
		purgeInterval:    time.Hour,
		now:              time.Now,
	}
}

// Start polls until ctx is canceled
func (r *Relay) Start(ctx context.Context) {
	r.logger.Info("Starting outbox relay",
		"poll_interval", r.pollInterval.String(),
		"batch_size", r.batchSize,
		"max_retry_attempts", r.maxRetryAttempts,
		"retention", r.retention.String(),
	)
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	purgeTicker := time.NewTicker(r.purgeInterval)
	defer purgeTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Outbox relay stopping due to context cancellation")
			return
		case <-ticker.C:
			if err := r.relayPending(ctx); err != nil {
				r.logger.Error("Error relaying pending outbox messages", "error", err)
			}
		case <-purgeTicker.C:
			r.purgeProcessed(ctx)
		}
	}
}

func (r *Relay) relayPending(ctx context.Context) error {
	messages, err := r.outboxRepo.GetPending(ctx, r.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	if len(messages) == 0 {
		r.logger.Debug("No pending outbox messages found")
		return nil
	}

	r.logger.Info("Fetched pending outbox messages", "count", len(messages))

	for _, msg := range messages {
		logger := r.logger
		if event, err := msg.Event(); err == nil && event.CorrelationID != "" {
			logger = r.logger.With("correlation_id", event.CorrelationID)
		}

		if err := r.publisher.Publish(ctx, msg); err != nil {
			logger.Error("Failed to publish outbox message",
				"outbox_id", msg.ID, "movement_id", msg.MovementID, "current_attempts", msg.Attempts, "error", err,
			)

			if errInc := r.outboxRepo.IncrementAttempts(ctx, msg.ID); errInc != nil {
				logger.Error("Failed to increment attempts for outbox message", "outbox_id", msg.ID, "error", errInc)
				continue
			}

			if msg.Exhausted(r.maxRetryAttempts) {
				logger.Warn("Max retry attempts reached, marking outbox message FAILED_TO_PUBLISH",
					"outbox_id", msg.ID, "movement_id", msg.MovementID, "attempts_made", msg.Attempts+1,
				)
				if errUpdate := r.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); errUpdate != nil {
					logger.Error("Failed to mark outbox message FAILED_TO_PUBLISH", "outbox_id", msg.ID, "error", errUpdate)
				}
			}
			continue
		}
		logger.Info("Relayed outbox message", "outbox_id", msg.ID, "movement_id", msg.MovementID, "event_type", msg.EventType)
	}
	return nil
}

func (r *Relay) purgeProcessed(ctx context.Context) {
	cutoff := r.now().Add(-r.retention)
	purged, err := r.outboxRepo.PurgeProcessed(ctx, cutoff)
	if err != nil {
		r.logger.Error("Failed to purge processed outbox messages", "error", err)
		return
	}
	if purged > 0 {
		r.logger.Info("Purged processed outbox messages", "count", purged, "cutoff", cutoff)
	}
}
