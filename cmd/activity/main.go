package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"slotsync/internal/activity/handler"
	"slotsync/internal/activity/repository"
	"slotsync/pkg/config"
	"slotsync/pkg/kafka"
	kafka_config "slotsync/pkg/kafka/config"
	kafka_middleware "slotsync/pkg/kafka/middleware"
)

const (
	ServiceName     = "activity"
	consumerGroupID = "activity-consumers"
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	kafkaCfg := kafka_config.Load()
	if !kafkaCfg.Enabled {
		cfg.Log.Fatal("Activity service requires Kafka, set KAFKA_ENABLED=true")
	}

	activityRepo := repository.NewMongoActivityRepository(cfg)
	eventHandler := handler.NewEventHandler(activityRepo, cfg.Log)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		kafka_config.TopicScheduleEvents,
		consumerGroupID,
		kafka_config.TopicScheduleEventsDLQ,
		eventHandler.Handle,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.MetricsConsumerMiddleware())
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		cfg.Log.Info("Shutdown signal received", "signal", sig)
		cancel()
	}()

	cfg.Log.Info("Starting Activity consumer",
		"topic", kafka_config.TopicScheduleEvents,
		"group_id", consumerGroupID,
	)

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer cleanly", "error", err)
	}
	cfg.Log.Info("Activity consumer stopped")
}
