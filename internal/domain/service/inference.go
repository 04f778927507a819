package service

import (
	"context"
	"fmt"
	"math"

	"github.com/cropyield/yield-service/internal/domain/model"
)

// InferenceService runs one request through the full serving pipeline
// against a single captured bundle.
type InferenceService struct {
	validator     *Validator
	reconstructor *Reconstructor
	classifier    *ConfidenceClassifier
}

// NewInferenceService creates an InferenceService.
func NewInferenceService(classifier *ConfidenceClassifier) *InferenceService {
	return &InferenceService{
		validator:     NewValidator(),
		reconstructor: NewReconstructor(),
		classifier:    classifier,
	}
}

// Classifier returns the confidence classifier in use.
func (s *InferenceService) Classifier() *ConfidenceClassifier {
	return s.classifier
}

// Vectorize validates, reconstructs and scales a request, returning the
// exact vector the bundle's predictor would receive.
func (s *InferenceService) Vectorize(bundle *model.ArtifactBundle, req InferenceRequest) (model.FeatureVector, error) {
	schema := bundle.Schema()

	in, err := s.validator.Validate(req, schema)
	if err != nil {
		return nil, err
	}
	vec, err := s.reconstructor.Reconstruct(in, schema)
	if err != nil {
		return nil, err
	}
	return Scale(vec, bundle.Scaler(), schema)
}

// Infer returns the post-processed prediction for one request.
func (s *InferenceService) Infer(ctx context.Context, bundle *model.ArtifactBundle, req InferenceRequest) (model.PredictionResult, error) {
	vec, err := s.Vectorize(bundle, req)
	if err != nil {
		return model.PredictionResult{}, err
	}

	predictor := bundle.Predictor()
	if len(vec) != predictor.InputWidth() {
		return model.PredictionResult{}, fmt.Errorf("%w: vector has %d values, predictor expects %d",
			model.ErrArtifactWidthMismatch, len(vec), predictor.InputWidth())
	}

	raw, err := predictor.Predict(ctx, vec)
	if err != nil {
		return model.PredictionResult{}, fmt.Errorf("%w: %w", model.ErrPredictorFailure, err)
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return model.PredictionResult{}, fmt.Errorf("%w: non-finite output %v", model.ErrPredictorFailure, raw)
	}

	value, tier := s.classifier.Classify(raw)
	return model.PredictionResult{
		Value:       value,
		RawValue:    raw,
		Tier:        tier,
		Fingerprint: bundle.Fingerprint(),
		ModelKind:   predictor.Kind(),
	}, nil
}
