package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/joy095/travel/logger"
	"github.com/joy095/travel/metrics"
	"github.com/segmentio/kafka-go"
)

// Handler reacts to one decoded booking event.
type Handler func(ctx context.Context, msg Message) error

const (
	DefaultHandleAttempts = 3
	DefaultRetryBackoff   = time.Second
)

type Consumer struct {
	reader   *kafka.Reader
	attempts int
	backoff  time.Duration
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		StartOffset: kafka.FirstOffset,
		Dialer:      &kafka.Dialer{Timeout: 10 * time.Second},
	})
	return &Consumer{reader: r, attempts: DefaultHandleAttempts, backoff: DefaultRetryBackoff}
}

// Run fetches messages until ctx ends. A failing handler is retried with
// doubling backoff; after the last attempt the failure is logged and
// counted and the message is committed so it cannot stall the partition.
// A message interrupted by shutdown is left uncommitted.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		var msg Message
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			logger.ErrorLogger.Errorf("Dropping undecodable message at offset %d: %v", m.Offset, err)
			metrics.NotificationErrors.Inc()
		} else if err := c.deliver(ctx, handle, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.ErrorLogger.Errorf("Failed to handle %s event %s after %d attempts: %v", msg.Type, msg.ID, c.attempts, err)
			metrics.NotificationErrors.Inc()
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			logger.ErrorLogger.Errorf("Failed to commit offset %d: %v", m.Offset, err)
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, handle Handler, msg Message) error {
	attempts := max(c.attempts, 1)
	backoff := c.backoff

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = handle(ctx, msg); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		logger.WarnLogger.Warnf("Handling %s event %s failed (attempt %d/%d), retrying in %v: %v", msg.Type, msg.ID, attempt, attempts, backoff, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
