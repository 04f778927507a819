package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cropyield/yield-service/internal/domain/event"
	"github.com/cropyield/yield-service/pkg/events"
	"github.com/cropyield/yield-service/pkg/kafka"
)

type fakeProducer struct {
	topic    string
	messages []kafka.Message
	err      error
}

func (f *fakeProducer) Publish(_ context.Context, topic string, messages ...kafka.Message) error {
	f.topic = topic
	f.messages = append(f.messages, messages...)
	return f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKafkaPublisher_Publish(t *testing.T) {
	producer := &fakeProducer{}
	pub := NewKafkaPublisher(producer, "yield.events", discardLogger())

	id := uuid.New()
	now := time.Now().UTC()
	served := event.NewPredictionServed(id, "abc123", "forest", 0, -0.5, "Low", now)
	outlier := event.NewYieldOutlierDetected(id, "abc123", -0.5, "Low", "Negative yield predicted", now)

	require.NoError(t, pub.Publish(context.Background(), served, outlier))

	assert.Equal(t, "yield.events", producer.topic)
	require.Len(t, producer.messages, 2)

	msg := producer.messages[0]
	assert.Equal(t, id.String(), string(msg.Key))
	assert.Equal(t, event.EventTypePredictionServed, msg.Headers["event_type"])
	assert.Equal(t, served.EventID(), msg.Headers["event_id"])

	var env events.Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, event.AggregateTypePrediction, env.AggregateType)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "forest", payload["model_kind"])
	assert.Equal(t, "Low", payload["confidence_tier"])

	assert.Equal(t, event.EventTypeYieldOutlierDetected, producer.messages[1].Headers["event_type"])
}

func TestKafkaPublisher_NoEvents(t *testing.T) {
	producer := &fakeProducer{}
	pub := NewKafkaPublisher(producer, "yield.events", discardLogger())

	require.NoError(t, pub.Publish(context.Background()))
	assert.Empty(t, producer.topic, "producer must not be called")
}

func TestKafkaPublisher_ProducerError(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker unavailable")}
	pub := NewKafkaPublisher(producer, "yield.events", discardLogger())

	served := event.NewPredictionServed(uuid.New(), "abc123", "linear", 4.2, 4.2, "High", time.Now())
	err := pub.Publish(context.Background(), served)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
}
