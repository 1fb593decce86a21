package kafka_config

import "time"

const (
	DefaultKafkaBrokers = "localhost:9092"
	DefaultKafkaEnabled = false

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 100 * time.Millisecond
	DefaultProducerRequireAcks  = -1 // all
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = false

	DefaultConsumerStartOffset    = int64(-1) // newest
	DefaultConsumerMinBytes       = 1
	DefaultConsumerMaxBytes       = 10 * 1024 * 1024
	DefaultConsumerMaxWait        = 500 * time.Millisecond
	DefaultConsumerCommitInterval = 1 * time.Second
	DefaultConsumerMaxRetries     = 3

	// TopicScheduleEvents carries schedule.created and availability.toggled
	// events, keyed by schedule id.
	TopicScheduleEvents    = "schedule-events"
	TopicScheduleEventsDLQ = "schedule-events-dlq"
)
