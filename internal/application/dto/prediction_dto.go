package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/cropyield/yield-service/internal/domain/model"
)

// PredictRequest is the input DTO for the PredictYield use case. Inputs is
// the client's field map exactly as decoded from JSON.
type PredictRequest struct {
	Inputs map[string]any `json:"inputs"`
}

// PredictionResponse is returned for a served prediction. ModelConfidence
// carries the tier with its qualifier, e.g. "High - Normal yield range".
type PredictionResponse struct {
	PredictionID      *uuid.UUID `json:"prediction_id,omitempty"`
	ModelConfidence   string     `json:"model_confidence"`
	ConfidenceTier    string     `json:"confidence_tier"`
	SchemaFingerprint string     `json:"schema_fingerprint"`
	ModelKind         string     `json:"model_kind"`
	PredictedYield    float64    `json:"predicted_yield"`
}

// FromResult maps an inference result to the response DTO.
func FromResult(r model.PredictionResult) PredictionResponse {
	return PredictionResponse{
		PredictedYield:    r.Value,
		ModelConfidence:   r.Tier.Label(),
		ConfidenceTier:    r.Tier.String(),
		SchemaFingerprint: r.Fingerprint,
		ModelKind:         r.ModelKind,
	}
}

// GetPredictionRequest is the input DTO for retrieving an audited prediction.
type GetPredictionRequest struct {
	PredictionID uuid.UUID `json:"prediction_id"`
}

// PredictionRecordResponse is an audited prediction read back from storage.
type PredictionRecordResponse struct {
	CreatedAt         time.Time      `json:"created_at"`
	Inputs            map[string]any `json:"inputs"`
	ID                uuid.UUID      `json:"id"`
	SchemaFingerprint string         `json:"schema_fingerprint"`
	ModelKind         string         `json:"model_kind"`
	ConfidenceTier    string         `json:"confidence_tier"`
	ModelConfidence   string         `json:"model_confidence"`
	PredictedYield    float64        `json:"predicted_yield"`
	RawValue          float64        `json:"raw_value"`
}

// FromRecord maps a prediction record to the response DTO.
func FromRecord(r *model.PredictionRecord) PredictionRecordResponse {
	return PredictionRecordResponse{
		ID:                r.ID(),
		SchemaFingerprint: r.Fingerprint(),
		ModelKind:         r.ModelKind(),
		PredictedYield:    r.Value(),
		RawValue:          r.RawValue(),
		ConfidenceTier:    r.Tier().String(),
		ModelConfidence:   r.Tier().Label(),
		Inputs:            r.Inputs(),
		CreatedAt:         r.CreatedAt(),
	}
}
