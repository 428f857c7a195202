// Package events publishes completed-transaction events to Kafka, with a
// log-only fallback for deployments without a broker.
package events

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/corebank/transactor/internal/domain"
)

// KafkaPublisher writes transaction.completed events to a Kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given brokers.
func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    domain.EventTypeTransactionCompleted,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish writes one event keyed by transaction ID.
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.TransactionCompletedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.TransactionID),
		Value: data,
	})
}

// Close closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher logs events instead of publishing them.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(ctx context.Context, event domain.TransactionCompletedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("event_type", domain.EventTypeTransactionCompleted).
		Str("transaction_id", event.TransactionID).
		RawJSON("payload", payload).
		Msg("event published")

	return nil
}
