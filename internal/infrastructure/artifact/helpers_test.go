package artifact_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cropyield/yield-service/internal/domain/model"
	"github.com/cropyield/yield-service/internal/domain/valueobject"
	"github.com/cropyield/yield-service/internal/infrastructure/artifact"
	"github.com/cropyield/yield-service/internal/infrastructure/predictor"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSchema(t *testing.T, regions ...string) *model.Schema {
	t.Helper()
	if len(regions) == 0 {
		regions = []string{"East", "North", "South", "West"}
	}
	s, err := model.BuildSchema([]model.ColumnSpec{
		{Name: "Rainfall_mm", Kind: model.ColumnContinuous, Min: 0, Max: 500, Aliases: []string{"rainfall_mm"}},
		{Name: "Days_to_Harvest", Kind: model.ColumnContinuous, Min: 30, Max: 365, Integer: true},
		{Name: "Region", Kind: model.ColumnCategorical},
	}, map[string][]string{"Region": regions}, valueobject.EncodingDropFirst)
	require.NoError(t, err)
	return s
}

func testScaler(t *testing.T) *model.ScalerParameters {
	t.Helper()
	sc, err := model.NewScalerParameters(map[string]model.ScaleParam{
		"Rainfall_mm":     {Mean: 250, Scale: 100},
		"Days_to_Harvest": {Mean: 100, Scale: 20},
	})
	require.NoError(t, err)
	return sc
}

func testBundle(t *testing.T, intercept float64, regions ...string) *model.ArtifactBundle {
	t.Helper()
	s := testSchema(t, regions...)
	coef := make([]float64, s.Len())
	for i := range coef {
		coef[i] = float64(i + 1)
	}
	p, err := predictor.NewLinear(predictor.LinearParams{Intercept: intercept, Coefficients: coef}, s.Names())
	require.NoError(t, err)
	b, err := model.PackageArtifact(s, testScaler(t), p)
	require.NoError(t, err)
	return b
}

func testBlobs(t *testing.T, intercept float64, regions ...string) artifact.Blobs {
	t.Helper()
	blobs, err := artifact.Encode(testBundle(t, intercept, regions...), map[string]float64{"r2": 0.91})
	require.NoError(t, err)
	return blobs
}
