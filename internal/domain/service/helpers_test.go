package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cropyield/yield-service/internal/domain/model"
	"github.com/cropyield/yield-service/internal/domain/valueobject"
)

func cropColumns() []model.ColumnSpec {
	return []model.ColumnSpec{
		{Name: "Region", Kind: model.ColumnCategorical, Aliases: []string{"region"}},
		{Name: "Soil_Type", Kind: model.ColumnCategorical, Aliases: []string{"soil_type"}},
		{Name: "Rainfall_mm", Kind: model.ColumnContinuous, Min: 0, Max: 500, Aliases: []string{"rainfall_mm"}},
		{Name: "Temperature_Celsius", Kind: model.ColumnContinuous, Min: -10, Max: 50},
		{Name: "Fertilizer_Used", Kind: model.ColumnContinuous, Min: 0, Max: 500},
		{Name: "Irrigation_Used", Kind: model.ColumnContinuous, Min: 0, Max: 1, Integer: true},
		{Name: "Days_to_Harvest", Kind: model.ColumnContinuous, Min: 30, Max: 365, Integer: true},
	}
}

func cropCategories() map[string][]string {
	return map[string][]string{
		"Region":    {"East", "North", "South", "West"},
		"Soil_Type": {"Clay", "Loam", "Sandy", "Silt"},
	}
}

func cropSchema(t *testing.T, policy valueobject.EncodingPolicy) *model.Schema {
	t.Helper()
	s, err := model.BuildSchema(cropColumns(), cropCategories(), policy)
	require.NoError(t, err)
	return s
}

func cropScaler(t *testing.T) *model.ScalerParameters {
	t.Helper()
	sc, err := model.NewScalerParameters(map[string]model.ScaleParam{
		"Rainfall_mm":         {Mean: 250, Scale: 100},
		"Temperature_Celsius": {Mean: 25, Scale: 5},
		"Fertilizer_Used":     {Mean: 100, Scale: 50},
		"Irrigation_Used":     {Mean: 0.5, Scale: 0.5},
		"Days_to_Harvest":     {Mean: 100, Scale: 20},
	})
	require.NoError(t, err)
	return sc
}

// scenarioRequest is the canonical valid request: East region, every other flag 0.
func scenarioRequest() map[string]any {
	return map[string]any{
		"Rainfall_mm":         120.0,
		"Temperature_Celsius": 25.0,
		"Fertilizer_Used":     50.0,
		"Irrigation_Used":     1.0,
		"Days_to_Harvest":     100.0,
		"Region_East":         1.0,
		"Region_North":        0.0,
		"Region_South":        0.0,
		"Region_West":         0.0,
		"Soil_Type_Clay":      0.0,
		"Soil_Type_Loam":      0.0,
		"Soil_Type_Sandy":     0.0,
		"Soil_Type_Silt":      0.0,
	}
}

type mockPredictor struct {
	width   int
	output  float64
	err     error
	lastVec []float64
	calls   int
}

func (m *mockPredictor) Kind() string           { return "mock" }
func (m *mockPredictor) InputWidth() int        { return m.width }
func (m *mockPredictor) FeatureNames() []string { return nil }
func (m *mockPredictor) Predict(_ context.Context, vec []float64) (float64, error) {
	m.calls++
	m.lastVec = append([]float64(nil), vec...)
	if m.err != nil {
		return 0, m.err
	}
	return m.output, nil
}

func cropBundle(t *testing.T, p *mockPredictor) *model.ArtifactBundle {
	t.Helper()
	s := cropSchema(t, valueobject.EncodingFull)
	p.width = s.Len()
	b, err := model.PackageArtifact(s, cropScaler(t), p)
	require.NoError(t, err)
	return b
}

func fieldCodes(t *testing.T, err error) map[string]string {
	t.Helper()
	fes, ok := model.AsFieldErrors(err)
	require.True(t, ok, "expected field errors, got %v", err)
	out := make(map[string]string, len(fes))
	for _, fe := range fes {
		out[fe.Field] = fe.Code
	}
	return out
}

var errModelCrashed = errors.New("segfault in tree 17: index 42 out of range")
