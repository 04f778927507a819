package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the broker-facing wrapper around a domain event. The payload
// is the JSON encoding of the event itself.
type Envelope struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewEnvelope wraps a DomainEvent for publication.
func NewEnvelope(event DomainEvent) (Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s event: %w", event.EventType(), err)
	}
	return Envelope{
		ID:            event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		EventType:     event.EventType(),
		Payload:       payload,
		CreatedAt:     event.OccurredAt(),
	}, nil
}
