package main

import (
	"slotsync/internal/schedules/handler"
	"slotsync/internal/schedules/repository"
	"slotsync/internal/schedules/service"
	"slotsync/internal/schedules/validator"
	"slotsync/pkg/app"
	"slotsync/pkg/config"
	"slotsync/pkg/kafka"
	kafka_config "slotsync/pkg/kafka/config"
	kafka_middleware "slotsync/pkg/kafka/middleware"
)

const ServiceName = "schedules"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Schedules service")
	scheduleService, producer := initServices(cfg)
	if producer != nil {
		defer producer.Close()
	}

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewScheduleHandler(scheduleService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) (service.ScheduleService, *kafka.Producer) {
	scheduleValidator := validator.NewScheduleValidator(cfg.Log)
	scheduleRepo := repository.NewMongoScheduleRepository(cfg)

	var events service.EventPublisher
	var producer *kafka.Producer
	kafkaCfg := kafka_config.Load()
	if kafkaCfg.Enabled {
		var err error
		producer, err = kafka.NewProducer(kafkaCfg, kafka_config.TopicScheduleEvents, kafka_config.TopicScheduleEventsDLQ)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
		}
		producer.Use(kafka_middleware.MetricsProducerMiddleware())
		producer.Use(kafka_middleware.LoggingProducerMiddleware())
		events = producer
		cfg.Log.Info("Kafka event publishing enabled", "topic", kafka_config.TopicScheduleEvents)
	} else {
		cfg.Log.Info("Kafka event publishing disabled")
	}

	scheduleService := service.NewScheduleService(
		scheduleRepo,
		scheduleValidator,
		events,
		cfg,
	)

	cfg.Log.Info("Schedules service initialized", "database", cfg.MongoDatabaseName)
	return scheduleService, producer
}
