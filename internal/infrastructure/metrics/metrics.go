package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InferenceMetrics holds the service's OpenTelemetry instruments. The
// Prometheus exporter appends _total and unit suffixes to the names.
type InferenceMetrics struct {
	predictions metric.Int64Counter
	failures    metric.Int64Counter
	duration    metric.Float64Histogram
	reloads     metric.Int64Counter
}

// New registers all instruments on meter.
func New(meter metric.Meter) (*InferenceMetrics, error) {
	predictions, err := meter.Int64Counter("yield_predictions",
		metric.WithDescription("Predictions served, by confidence tier."))
	if err != nil {
		return nil, fmt.Errorf("failed to create predictions counter: %w", err)
	}

	failures, err := meter.Int64Counter("yield_prediction_failures",
		metric.WithDescription("Inference requests that did not produce a prediction, by reason."))
	if err != nil {
		return nil, fmt.Errorf("failed to create failures counter: %w", err)
	}

	duration, err := meter.Float64Histogram("yield_inference_duration",
		metric.WithDescription("Time spent in validate, reconstruct, scale, predict and classify."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	reloads, err := meter.Int64Counter("yield_bundle_reloads",
		metric.WithDescription("Artifact bundle reload attempts, by outcome."))
	if err != nil {
		return nil, fmt.Errorf("failed to create reloads counter: %w", err)
	}

	return &InferenceMetrics{
		predictions: predictions,
		failures:    failures,
		duration:    duration,
		reloads:     reloads,
	}, nil
}

// ObservePrediction records one served prediction.
func (m *InferenceMetrics) ObservePrediction(ctx context.Context, tier string, elapsed time.Duration) {
	m.predictions.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))
	m.duration.Record(ctx, elapsed.Seconds())
}

// ObserveFailure records one failed inference request.
func (m *InferenceMetrics) ObserveFailure(ctx context.Context, reason string, elapsed time.Duration) {
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	if elapsed > 0 {
		m.duration.Record(ctx, elapsed.Seconds())
	}
}

// ObserveReload records the outcome of an artifact reload.
func (m *InferenceMetrics) ObserveReload(ctx context.Context, outcome string) {
	m.reloads.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
