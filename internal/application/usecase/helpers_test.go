package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cropyield/yield-service/internal/domain/model"
	"github.com/cropyield/yield-service/internal/domain/valueobject"
)

// --- Mock implementations ---

type fixedPredictor struct {
	names []string
	out   float64
	err   error
}

func (p *fixedPredictor) Kind() string           { return "linear" }
func (p *fixedPredictor) InputWidth() int        { return len(p.names) }
func (p *fixedPredictor) FeatureNames() []string { return p.names }
func (p *fixedPredictor) Predict(_ context.Context, _ []float64) (float64, error) {
	return p.out, p.err
}

type staticBundles struct {
	bundle *model.ArtifactBundle
}

func (s staticBundles) Current() *model.ArtifactBundle { return s.bundle }

type mockRecorder struct {
	records []*model.PredictionRecord
}

func (m *mockRecorder) Record(r *model.PredictionRecord) {
	m.records = append(m.records, r)
}

type mockObserver struct {
	mu       sync.Mutex
	tiers    []string
	failures []string
}

func (m *mockObserver) ObservePrediction(_ context.Context, tier string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiers = append(m.tiers, tier)
}

func (m *mockObserver) ObserveFailure(_ context.Context, reason string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, reason)
}

type mockPredictionRepository struct {
	findByIDFunc func(ctx context.Context, id uuid.UUID) (*model.PredictionRecord, error)
}

func (m *mockPredictionRepository) Save(context.Context, *model.PredictionRecord) error {
	return nil
}

func (m *mockPredictionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PredictionRecord, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, model.ErrPredictionNotFound
}

func (m *mockPredictionRepository) FindByFingerprint(context.Context, string, int, int) ([]*model.PredictionRecord, error) {
	return nil, nil
}

var errModelCrashed = errors.New("segfault in native model")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBundle(t *testing.T, out float64, err error) *model.ArtifactBundle {
	t.Helper()
	schema, buildErr := model.BuildSchema([]model.ColumnSpec{
		{Name: "Rainfall_mm", Kind: model.ColumnContinuous, Min: 0, Max: 500, Aliases: []string{"rainfall_mm"}},
		{Name: "Days_to_Harvest", Kind: model.ColumnContinuous, Min: 30, Max: 365, Integer: true},
		{Name: "Region", Kind: model.ColumnCategorical},
	}, map[string][]string{
		"Region": {"East", "North", "West"},
	}, valueobject.EncodingFull)
	require.NoError(t, buildErr)

	scaler, scErr := model.NewScalerParameters(map[string]model.ScaleParam{
		"Rainfall_mm":     {Mean: 250, Scale: 100},
		"Days_to_Harvest": {Mean: 100, Scale: 20},
	})
	require.NoError(t, scErr)

	bundle, pkgErr := model.PackageArtifact(schema, scaler, &fixedPredictor{names: schema.Names(), out: out, err: err})
	require.NoError(t, pkgErr)
	return bundle
}

func validInputs() map[string]any {
	return map[string]any{
		"rainfall_mm":     120.0,
		"Days_to_Harvest": 100.0,
		"Region":          "East",
	}
}
