// Command notifier consumes booking events and emails the customer.
package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/joy095/travel/config"
	"github.com/joy095/travel/events"
	"github.com/joy095/travel/logger"
	"github.com/joy095/travel/utils/mail"
)

func main() {
	logger.InitLoggers()

	cfg, err := config.New()
	if err != nil {
		logger.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := events.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.ErrorLogger.Errorf("Failed to close Kafka consumer: %v", err)
		}
	}()

	notifier := mail.NewNotifier(mail.NewSMTPSender(cfg.Mail))

	logger.InfoLogger.Infof("Notifier consuming %s as group %s", cfg.Kafka.Topic, cfg.Kafka.GroupID)
	if err := consumer.Run(ctx, notifier.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorLogger.Errorf("Consumer stopped: %v", err)
	}
	logger.InfoLogger.Info("Notifier exited gracefully.")
}
