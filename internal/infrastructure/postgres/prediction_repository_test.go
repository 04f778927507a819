package postgres

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cropyield/yield-service/internal/domain/model"
	"github.com/cropyield/yield-service/internal/domain/valueobject"
	"github.com/cropyield/yield-service/pkg/testutil"
)

func TestNewPredictionRepository(t *testing.T) {
	t.Run("creates repository with nil pool", func(t *testing.T) {
		repo := NewPredictionRepository(nil)
		assert.NotNil(t, repo)
		assert.Nil(t, repo.db)
	})
}

func newRecord(t *testing.T, value, raw float64, tier valueobject.ConfidenceTier) *model.PredictionRecord {
	t.Helper()
	rec, err := model.NewPredictionRecord(model.PredictionResult{
		Value:       value,
		RawValue:    raw,
		Tier:        tier,
		Fingerprint: testutil.TestFingerprint,
		ModelKind:   "forest",
	}, map[string]any{"Rainfall_mm": 120.0, "Region": "East"})
	require.NoError(t, err)
	return rec
}

func TestPredictionRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()
	pg := testutil.NewPostgresContainer(ctx, t)
	defer pg.Cleanup(t)

	migrations, err := filepath.Abs(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	pg.RunMigrations(t, migrations)

	repo := NewPredictionRepository(pg.Pool)

	normal := newRecord(t, 4.21, 4.2149, valueobject.ConfidenceHigh)
	outlier := newRecord(t, 0, -0.5, valueobject.ConfidenceLow)

	require.NoError(t, repo.Save(ctx, normal))
	require.NoError(t, repo.Save(ctx, outlier))
	require.NoError(t, repo.Save(ctx, normal), "saving twice is a no-op")

	t.Run("find by id", func(t *testing.T) {
		got, err := repo.FindByID(ctx, outlier.ID())
		require.NoError(t, err)
		assert.Equal(t, outlier.ID(), got.ID())
		assert.Equal(t, "forest", got.ModelKind())
		assert.Equal(t, 0.0, got.Value())
		assert.Equal(t, -0.5, got.RawValue())
		assert.True(t, valueobject.ConfidenceLow.Equal(got.Tier()))
		assert.Equal(t, "East", got.Inputs()["Region"])
		assert.Equal(t, 120.0, got.Inputs()["Rainfall_mm"])
		assert.WithinDuration(t, outlier.CreatedAt(), got.CreatedAt(), time.Millisecond)
	})

	t.Run("find by id not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		require.ErrorIs(t, err, model.ErrPredictionNotFound)
	})

	t.Run("find by fingerprint", func(t *testing.T) {
		got, err := repo.FindByFingerprint(ctx, testutil.TestFingerprint, 10, 0)
		require.NoError(t, err)
		require.Len(t, got, 2)

		none, err := repo.FindByFingerprint(ctx, "unknown", 10, 0)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("events persisted", func(t *testing.T) {
		var n int
		err := pg.Pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM prediction_events WHERE prediction_id = $1`, outlier.ID(),
		).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 2, n, "served + outlier")
	})
}
