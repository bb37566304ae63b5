package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"roombook/internal/notifier"
	"roombook/pkg/config"
	"roombook/pkg/kafka"
	kafka_config "roombook/pkg/kafka/config"
	kafka_middleware "roombook/pkg/kafka/middleware"
)

const (
	ServiceName   = "notifier"
	consumerGroup = "roombook-notifier"
)

func main() {
	cfg := config.Load(ServiceName)

	if !cfg.KafkaEnabled {
		cfg.Log.Fatal("Notifier requires Kafka, set KAFKA_ENABLED=true")
	}

	cfg.Log.Info("Starting Notifier service")

	kafkaCfg := kafka_config.Load()
	handler := notifier.NewNotifier(cfg.Log)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.KafkaBookingsTopic,
		consumerGroup,
		cfg.KafkaDLQTopic,
		handler.Handle,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware())

	ctx, cancel := context.WithCancel(context.Background())

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	consumerErrors := make(chan error, 1)
	go func() {
		cfg.Log.Info("Consuming booking events",
			"topic", cfg.KafkaBookingsTopic,
			"group", consumerGroup,
		)
		consumerErrors <- consumer.Start(ctx)
	}()

	select {
	case err := <-consumerErrors:
		cancel()
		cfg.Log.Fatal("Consumer stopped", "error", err)

	case sig := <-shutdown:
		cfg.Log.Info("Shutdown signal received", "signal", sig)
		cancel()
		<-consumerErrors
		if err := consumer.Close(); err != nil {
			cfg.Log.Error("Consumer close failed", "error", err)
		}
		cfg.Log.Info("Notifier stopped gracefully")
	}
}
