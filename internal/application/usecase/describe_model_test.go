package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cropyield/yield-service/internal/application/usecase"
	"github.com/cropyield/yield-service/internal/domain/model"
	"github.com/cropyield/yield-service/internal/domain/service"
)

func TestDescribeModel_Execute(t *testing.T) {
	classifier := service.NewConfidenceClassifier(service.Thresholds{Low: 0, High: 8})

	t.Run("describes the active bundle", func(t *testing.T) {
		bundle := testBundle(t, 1, nil)
		uc := usecase.NewDescribeModel(staticBundles{bundle: bundle}, classifier)

		desc, err := uc.Execute(context.Background())
		require.NoError(t, err)

		assert.Equal(t, bundle.Fingerprint(), desc.SchemaFingerprint)
		assert.Equal(t, "linear", desc.ModelKind)
		assert.Equal(t, "full", desc.EncodingPolicy)
		assert.Equal(t, 5, desc.InputWidth)
		require.Len(t, desc.Features, 5)
		assert.Equal(t, "Rainfall_mm", desc.Features[0].Name)
		assert.Equal(t, "continuous", desc.Features[0].Kind)
		assert.Equal(t, "Region_East", desc.Features[2].Name)
		assert.Equal(t, "Region", desc.Features[2].Group)
		assert.Equal(t, 2, desc.Features[2].Position)

		require.Len(t, desc.Groups, 1)
		assert.Equal(t, []string{"East", "North", "West"}, desc.Groups[0].Categories)
		assert.Empty(t, desc.Groups[0].Baseline)

		assert.Equal(t, "Rainfall_mm", desc.Aliases["rainfall_mm"])
		_, identity := desc.Aliases["Rainfall_mm"]
		assert.False(t, identity, "identity aliases are omitted")

		assert.Equal(t, 8.0, desc.Thresholds.High)
	})

	t.Run("no bundle loaded", func(t *testing.T) {
		uc := usecase.NewDescribeModel(staticBundles{}, classifier)
		_, err := uc.Execute(context.Background())
		require.ErrorIs(t, err, model.ErrModelNotLoaded)
	})
}
