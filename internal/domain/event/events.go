package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/cropyield/yield-service/pkg/events"
)

const (
	// EventTypePredictionServed is emitted for every successful prediction.
	EventTypePredictionServed = "yield.prediction.served"

	// EventTypeYieldOutlierDetected is emitted when a prediction falls outside
	// the normal yield range (Low or Medium tier).
	EventTypeYieldOutlierDetected = "yield.outlier.detected"

	// AggregateTypePrediction names the aggregate producing these events.
	AggregateTypePrediction = "Prediction"
)

// PredictionServed is published when a yield prediction was returned to a client.
type PredictionServed struct {
	events.BaseEvent
	PredictionID uuid.UUID `json:"prediction_id"`
	Fingerprint  string    `json:"schema_fingerprint"`
	ModelKind    string    `json:"model_kind"`
	Value        float64   `json:"predicted_yield"`
	RawValue     float64   `json:"raw_value"`
	Tier         string    `json:"confidence_tier"`
	ServedAt     time.Time `json:"served_at"`
}

// NewPredictionServed builds a PredictionServed event.
func NewPredictionServed(
	predictionID uuid.UUID,
	fingerprint, modelKind string,
	value, rawValue float64,
	tier string,
	servedAt time.Time,
) PredictionServed {
	return PredictionServed{
		BaseEvent:    events.NewBaseEvent(EventTypePredictionServed, predictionID.String(), AggregateTypePrediction),
		PredictionID: predictionID,
		Fingerprint:  fingerprint,
		ModelKind:    modelKind,
		Value:        value,
		RawValue:     rawValue,
		Tier:         tier,
		ServedAt:     servedAt,
	}
}

// YieldOutlierDetected is published when the raw prediction was negative or
// above the dense training region, so downstream consumers can review it.
type YieldOutlierDetected struct {
	events.BaseEvent
	PredictionID uuid.UUID `json:"prediction_id"`
	Fingerprint  string    `json:"schema_fingerprint"`
	RawValue     float64   `json:"raw_value"`
	Tier         string    `json:"confidence_tier"`
	Qualifier    string    `json:"qualifier"`
	DetectedAt   time.Time `json:"detected_at"`
}

// NewYieldOutlierDetected builds a YieldOutlierDetected event.
func NewYieldOutlierDetected(
	predictionID uuid.UUID,
	fingerprint string,
	rawValue float64,
	tier, qualifier string,
	detectedAt time.Time,
) YieldOutlierDetected {
	return YieldOutlierDetected{
		BaseEvent:    events.NewBaseEvent(EventTypeYieldOutlierDetected, predictionID.String(), AggregateTypePrediction),
		PredictionID: predictionID,
		Fingerprint:  fingerprint,
		RawValue:     rawValue,
		Tier:         tier,
		Qualifier:    qualifier,
		DetectedAt:   detectedAt,
	}
}
