package data

import (
	"github.com/segmentio/kafka-go"

	"yatube-backend/internal/config"
)

// NewKafkaWriter returns a producer for topic, or nil when kafka is disabled.
func NewKafkaWriter(cfg config.KafkaConfig, topic string) *kafka.Writer {
	if !cfg.Enabled {
		return nil
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaReader returns a consumer-group reader, or nil when kafka is disabled.
func NewKafkaReader(cfg config.KafkaConfig, topic, groupID string) *kafka.Reader {
	if !cfg.Enabled {
		return nil
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}
