// Command worker relays booking events from the outbox table to Kafka.
package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/joy095/travel/config"
	"github.com/joy095/travel/config/db"
	"github.com/joy095/travel/events"
	"github.com/joy095/travel/logger"
	"github.com/joy095/travel/storage/postgres"
)

func main() {
	logger.InitLoggers()

	cfg, err := config.New()
	if err != nil {
		logger.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		logger.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	producer := events.NewProducer(events.KafkaConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	})
	defer func() {
		if err := producer.Close(); err != nil {
			logger.ErrorLogger.Errorf("Failed to close Kafka producer: %v", err)
		}
	}()

	poller := events.NewOutboxPoller(postgres.NewOutboxStore(pool), producer, cfg.Kafka.PollInterval, cfg.Kafka.BatchSize, cfg.Kafka.ClaimLease)

	logger.InfoLogger.Infof("Outbox worker publishing to %s", producer.GetTopic())
	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorLogger.Errorf("Outbox poller stopped: %v", err)
	}
	logger.InfoLogger.Info("Outbox worker exited gracefully.")
}
