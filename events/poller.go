package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/travel/logger"
	"github.com/joy095/travel/metrics"
	"github.com/joy095/travel/models/outbox_models"
)

type OutboxRepository interface {
	FetchBatch(ctx context.Context, limit int, lease time.Duration) ([]*outbox_models.Event, error)
	MarkProcessed(ctx context.Context, ids []uuid.UUID) error
	MarkFailed(ctx context.Context, ids []uuid.UUID) error
}

type Publisher interface {
	SendMessage(ctx context.Context, key, value []byte) error
	GetTopic() string
}

const (
	DefaultPollInterval = 2 * time.Second
	DefaultBatchSize    = 10
	DefaultClaimLease   = 5 * time.Minute
	sendTimeout         = 5 * time.Second
)

// OutboxPoller moves committed outbox events to Kafka.
type OutboxPoller struct {
	outbox    OutboxRepository
	publisher Publisher
	interval  time.Duration
	batchSize int
	lease     time.Duration
}

// NewOutboxPoller builds a poller. lease is how long a claimed event may
// stay unresolved before another poll takes it again; it never drops below
// the time a full batch of sends can take.
func NewOutboxPoller(outbox OutboxRepository, publisher Publisher, interval time.Duration, batchSize int, lease time.Duration) *OutboxPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if lease <= 0 {
		lease = DefaultClaimLease
	}
	if floor := time.Duration(batchSize) * sendTimeout; lease < floor {
		lease = floor
	}
	return &OutboxPoller{outbox: outbox, publisher: publisher, interval: interval, batchSize: batchSize, lease: lease}
}

// Run polls until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	logger.InfoLogger.Infof("OutboxPoller started (topic: %s)", p.publisher.GetTopic())

	for {
		select {
		case <-ctx.Done():
			logger.InfoLogger.Info("OutboxPoller stopped")
			return nil
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				logger.ErrorLogger.Errorf("Failed to process outbox batch: %v", err)
			}
		}
	}
}

// ProcessBatch publishes one batch and returns how many events went out.
// Events that fail are put back for the next poll.
func (p *OutboxPoller) ProcessBatch(ctx context.Context) (int, error) {
	batch, err := p.outbox.FetchBatch(ctx, p.batchSize, p.lease)
	if err != nil {
		return 0, err
	}
	if len(batch) == 0 {
		return 0, nil
	}

	var processed, failed []uuid.UUID
	for _, e := range batch {
		value, err := json.Marshal(MessageFromEvent(e))
		if err != nil {
			logger.ErrorLogger.Errorf("Failed to marshal event %s: %v", e.ID, err)
			metrics.OutboxPublishErrors.Inc()
			failed = append(failed, e.ID)
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		err = p.publisher.SendMessage(sendCtx, []byte(e.CorrelationID.String()), value)
		cancel()
		if err != nil {
			logger.ErrorLogger.Errorf("Failed to send event %s to kafka: %v", e.ID, err)
			metrics.OutboxPublishErrors.Inc()
			failed = append(failed, e.ID)
			continue
		}

		metrics.OutboxPublished.Inc()
		processed = append(processed, e.ID)
	}

	if len(processed) > 0 {
		if err := p.outbox.MarkProcessed(ctx, processed); err != nil {
			return 0, err
		}
		logger.InfoLogger.Infof("Published %d outbox events", len(processed))
	}
	if len(failed) > 0 {
		if err := p.outbox.MarkFailed(ctx, failed); err != nil {
			logger.ErrorLogger.Errorf("Failed to requeue %d events: %v", len(failed), err)
		}
	}
	return len(processed), nil
}
