package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cropyield/yield-service/internal/application/dto"
	"github.com/cropyield/yield-service/internal/domain/model"
	"github.com/cropyield/yield-service/internal/domain/port"
	"github.com/cropyield/yield-service/internal/domain/service"
)

const tracerName = "github.com/cropyield/yield-service/internal/application/usecase"

// Failure reasons reported to the InferenceObserver.
const (
	FailureValidation  = "validation"
	FailureContract    = "contract"
	FailurePredictor   = "predictor"
	FailureUnavailable = "unavailable"
)

// InferenceObserver receives per-request outcomes for metrics.
type InferenceObserver interface {
	ObservePrediction(ctx context.Context, tier string, elapsed time.Duration)
	ObserveFailure(ctx context.Context, reason string, elapsed time.Duration)
}

// PredictYield is the use case for serving one yield prediction.
type PredictYield struct {
	bundles   port.BundleProvider
	inference *service.InferenceService
	recorder  port.PredictionRecorder
	observer  InferenceObserver
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewPredictYield creates a new PredictYield use case. recorder and
// observer may be nil.
func NewPredictYield(
	bundles port.BundleProvider,
	inference *service.InferenceService,
	recorder port.PredictionRecorder,
	observer InferenceObserver,
	logger *slog.Logger,
) *PredictYield {
	return &PredictYield{
		bundles:   bundles,
		inference: inference,
		recorder:  recorder,
		observer:  observer,
		tracer:    otel.Tracer(tracerName),
		logger:    logger,
	}
}

// Execute runs the request through the active bundle. The bundle pointer
// is captured once so a concurrent reload cannot mix schema versions.
func (uc *PredictYield) Execute(ctx context.Context, req dto.PredictRequest) (dto.PredictionResponse, error) {
	ctx, span := uc.tracer.Start(ctx, "PredictYield")
	defer span.End()
	start := time.Now()

	bundle := uc.bundles.Current()
	if bundle == nil {
		uc.fail(ctx, span, FailureUnavailable, 0, model.ErrModelNotLoaded)
		return dto.PredictionResponse{}, model.ErrModelNotLoaded
	}
	span.SetAttributes(
		attribute.String("yield.schema_fingerprint", bundle.Fingerprint()),
		attribute.String("yield.model_kind", bundle.Predictor().Kind()),
		attribute.Int("yield.input_fields", len(req.Inputs)),
	)

	result, err := uc.inference.Infer(ctx, bundle, service.InferenceRequest(req.Inputs))
	if err != nil {
		reason := failureReason(err)
		uc.fail(ctx, span, reason, time.Since(start), err)
		if reason == FailurePredictor {
			uc.logger.Error("prediction failed",
				slog.String("fingerprint", bundle.Fingerprint()),
				slog.String("model_kind", bundle.Predictor().Kind()),
				slog.String("error", err.Error()),
			)
		}
		return dto.PredictionResponse{}, err
	}

	elapsed := time.Since(start)
	if uc.observer != nil {
		uc.observer.ObservePrediction(ctx, result.Tier.String(), elapsed)
	}
	span.SetAttributes(attribute.String("yield.confidence_tier", result.Tier.String()))

	resp := dto.FromResult(result)
	if uc.recorder != nil {
		record, err := model.NewPredictionRecord(result, req.Inputs)
		if err != nil {
			return dto.PredictionResponse{}, fmt.Errorf("failed to create prediction record: %w", err)
		}
		uc.recorder.Record(record)
		id := record.ID()
		resp.PredictionID = &id
	}

	return resp, nil
}

func (uc *PredictYield) fail(ctx context.Context, span trace.Span, reason string, elapsed time.Duration, err error) {
	span.SetStatus(codes.Error, reason)
	if reason != FailurePredictor {
		span.RecordError(err)
	}
	if uc.observer != nil {
		uc.observer.ObserveFailure(ctx, reason, elapsed)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, model.ErrValidation):
		return FailureValidation
	case model.IsRequestError(err):
		return FailureContract
	default:
		return FailurePredictor
	}
}
