package model

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/cropyield/yield-service/internal/domain/event"
	"github.com/cropyield/yield-service/internal/domain/valueobject"
	"github.com/cropyield/yield-service/pkg/events"
)

// PredictionRecord is the aggregate root for the audit trail of served predictions.
type PredictionRecord struct {
	events.EventCollector

	createdAt   time.Time
	inputs      map[string]any
	fingerprint string
	modelKind   string
	tier        valueobject.ConfidenceTier
	value       float64
	rawValue    float64
	id          uuid.UUID
}

// NewPredictionRecord records a served prediction and emits PredictionServed,
// plus YieldOutlierDetected when the tier is not High.
func NewPredictionRecord(result PredictionResult, inputs map[string]any) (*PredictionRecord, error) {
	if result.Fingerprint == "" {
		return nil, fmt.Errorf("schema fingerprint is required")
	}
	if result.ModelKind == "" {
		return nil, fmt.Errorf("model kind is required")
	}
	if result.Tier.IsZero() {
		return nil, fmt.Errorf("confidence tier is required")
	}
	if math.IsNaN(result.Value) || math.IsInf(result.Value, 0) {
		return nil, fmt.Errorf("predicted value must be finite")
	}

	now := time.Now().UTC()
	r := &PredictionRecord{
		id:          uuid.New(),
		fingerprint: result.Fingerprint,
		modelKind:   result.ModelKind,
		value:       result.Value,
		rawValue:    result.RawValue,
		tier:        result.Tier,
		inputs:      inputs,
		createdAt:   now,
	}

	r.Record(event.NewPredictionServed(
		r.id, r.fingerprint, r.modelKind,
		r.value, r.rawValue, r.tier.String(), now,
	))
	if !r.tier.Equal(valueobject.ConfidenceHigh) {
		r.Record(event.NewYieldOutlierDetected(
			r.id, r.fingerprint, r.rawValue,
			r.tier.String(), r.tier.Qualifier(), now,
		))
	}

	return r, nil
}

// ReconstructPredictionRecord rebuilds a record from persisted data (no validation, no events).
func ReconstructPredictionRecord(
	id uuid.UUID,
	fingerprint, modelKind string,
	value, rawValue float64,
	tier valueobject.ConfidenceTier,
	inputs map[string]any,
	createdAt time.Time,
) *PredictionRecord {
	return &PredictionRecord{
		id:          id,
		fingerprint: fingerprint,
		modelKind:   modelKind,
		value:       value,
		rawValue:    rawValue,
		tier:        tier,
		inputs:      inputs,
		createdAt:   createdAt,
	}
}

// --- Accessors ---

func (r *PredictionRecord) ID() uuid.UUID                    { return r.id }
func (r *PredictionRecord) Fingerprint() string              { return r.fingerprint }
func (r *PredictionRecord) ModelKind() string                { return r.modelKind }
func (r *PredictionRecord) Value() float64                   { return r.value }
func (r *PredictionRecord) RawValue() float64                { return r.rawValue }
func (r *PredictionRecord) Tier() valueobject.ConfidenceTier { return r.tier }
func (r *PredictionRecord) Inputs() map[string]any           { return r.inputs }
func (r *PredictionRecord) CreatedAt() time.Time             { return r.createdAt }

// DomainEvents returns all accumulated domain events and clears them.
func (r *PredictionRecord) DomainEvents() []events.DomainEvent {
	return r.ClearEvents()
}
