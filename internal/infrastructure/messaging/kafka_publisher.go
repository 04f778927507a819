package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cropyield/yield-service/pkg/events"
	"github.com/cropyield/yield-service/pkg/kafka"
)

// Producer is the subset of kafka.Producer the publisher needs.
type Producer interface {
	Publish(ctx context.Context, topic string, messages ...kafka.Message) error
}

// KafkaPublisher implements port.EventPublisher using Kafka. Each event is
// wrapped in an events.Envelope keyed by its aggregate id so all events of
// one prediction land on the same partition.
type KafkaPublisher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
}

// NewKafkaPublisher creates a new Kafka event publisher.
func NewKafkaPublisher(producer Producer, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Publish sends domain events to Kafka in a single batch.
func (p *KafkaPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if len(evts) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(evts))
	for _, evt := range evts {
		env, err := events.NewEnvelope(evt)
		if err != nil {
			return err
		}
		value, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("failed to marshal envelope for %s: %w", env.EventType, err)
		}

		msgs = append(msgs, kafka.Message{
			Key:   []byte(env.AggregateID),
			Value: value,
			Headers: map[string]string{
				"event_type":     env.EventType,
				"event_id":       env.ID,
				"aggregate_type": env.AggregateType,
				"content-type":   "application/json",
			},
		})

		p.logger.Debug("publishing event",
			slog.String("event_type", env.EventType),
			slog.String("topic", p.topic),
			slog.Int("payload_size", len(value)),
		)
	}

	if err := p.producer.Publish(ctx, p.topic, msgs...); err != nil {
		return fmt.Errorf("failed to publish %d events: %w", len(msgs), err)
	}
	return nil
}
