package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cropyield/yield-service/internal/domain/model"
	"github.com/cropyield/yield-service/internal/domain/service"
	"github.com/cropyield/yield-service/internal/domain/valueobject"
)

func TestDetectSkew(t *testing.T) {
	schema := cropSchema(t, valueobject.EncodingFull)
	names := schema.Names()

	t.Run("identical", func(t *testing.T) {
		r := service.DetectSkew(schema, names)
		assert.True(t, r.Clean())
		assert.Equal(t, -1, r.FirstMismatch)
		assert.Equal(t, "no skew", r.String())
	})

	t.Run("drifted variant", func(t *testing.T) {
		declared := []string{
			"Rainfall_mm", "Temperature_Celsius", "Fertilizer_Used", "Irrigation_Used", "Days_to_Harvest",
			"Region_East", "Region_North", "Region_South",
			"Soil_Type_Clay", "Soil_Type_Loamy", "Soil_Type_Sandy", "Soil_Type_Silt",
		}
		r := service.DetectSkew(schema, declared)
		assert.False(t, r.Clean())
		assert.Equal(t, []string{"Region_West", "Soil_Type_Loam"}, r.Missing)
		assert.Equal(t, []string{"Soil_Type_Loamy"}, r.Unexpected)
		assert.False(t, r.OrderMismatch)
		assert.Contains(t, r.String(), "missing: Region_West, Soil_Type_Loam")
	})

	t.Run("reordered", func(t *testing.T) {
		declared := append([]string(nil), names...)
		declared[5], declared[6] = declared[6], declared[5]
		r := service.DetectSkew(schema, declared)
		assert.True(t, r.OrderMismatch)
		assert.Equal(t, 5, r.FirstMismatch)
		assert.Empty(t, r.Missing)
		assert.Empty(t, r.Unexpected)
	})
}

func TestCheckSkew(t *testing.T) {
	schema := cropSchema(t, valueobject.EncodingFull)
	require.NoError(t, service.CheckSkew(schema, schema.Names()))

	err := service.CheckSkew(schema, schema.Names()[:4])
	require.ErrorIs(t, err, model.ErrSchemaCorrupt)
}
