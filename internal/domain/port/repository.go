package port

import (
	"context"

	"github.com/google/uuid"

	"github.com/cropyield/yield-service/internal/domain/model"
	"github.com/cropyield/yield-service/pkg/events"
)

// Predictor is the opaque trained model contract.
type Predictor = model.Predictor

// BundleProvider hands out the currently active artifact bundle. Callers
// capture the returned pointer once per request.
type BundleProvider interface {
	// Current returns the active bundle, or nil before the first successful load.
	Current() *model.ArtifactBundle
}

// PredictionRepository defines the persistence port for the prediction audit trail.
type PredictionRepository interface {
	// Save persists a served prediction.
	Save(ctx context.Context, record *model.PredictionRecord) error

	// FindByID retrieves a prediction by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*model.PredictionRecord, error)

	// FindByFingerprint lists recent predictions served by one schema version.
	FindByFingerprint(ctx context.Context, fingerprint string, limit, offset int) ([]*model.PredictionRecord, error)
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	// Publish sends one or more domain events to the messaging infrastructure.
	Publish(ctx context.Context, evts ...events.DomainEvent) error
}

// PredictionRecorder accepts served predictions for asynchronous auditing.
// Record must not block the caller on I/O.
type PredictionRecorder interface {
	Record(record *model.PredictionRecord)
}
