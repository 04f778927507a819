package usecase

import (
	"context"
	"fmt"

	"github.com/cropyield/yield-service/internal/application/dto"
	"github.com/cropyield/yield-service/internal/domain/port"
)

// GetPrediction is the use case for retrieving an audited prediction by ID.
type GetPrediction struct {
	repo port.PredictionRepository
}

// NewGetPrediction creates a new GetPrediction use case.
func NewGetPrediction(repo port.PredictionRepository) *GetPrediction {
	return &GetPrediction{repo: repo}
}

// Execute retrieves a prediction by its ID.
func (uc *GetPrediction) Execute(ctx context.Context, req dto.GetPredictionRequest) (dto.PredictionRecordResponse, error) {
	record, err := uc.repo.FindByID(ctx, req.PredictionID)
	if err != nil {
		return dto.PredictionRecordResponse{}, fmt.Errorf("failed to find prediction: %w", err)
	}

	return dto.FromRecord(record), nil
}
