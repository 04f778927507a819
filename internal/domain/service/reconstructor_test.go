package service_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cropyield/yield-service/internal/domain/model"
	"github.com/cropyield/yield-service/internal/domain/service"
	"github.com/cropyield/yield-service/internal/domain/valueobject"
)

func validateAndReconstruct(t *testing.T, schema *model.Schema, req map[string]any) (model.FeatureVector, error) {
	t.Helper()
	in, err := service.NewValidator().Validate(req, schema)
	require.NoError(t, err)
	return service.NewReconstructor().Reconstruct(in, schema)
}

func TestReconstructor_ScenarioVector(t *testing.T) {
	schema := cropSchema(t, valueobject.EncodingFull)

	vec, err := validateAndReconstruct(t, schema, scenarioRequest())
	require.NoError(t, err)

	want := model.FeatureVector{120, 25, 50, 1, 100, 1, 0, 0, 0, 0, 0, 0, 0}
	if diff := cmp.Diff(want, vec); diff != "" {
		t.Errorf("vector mismatch (-want +got):\n%s", diff)
	}
}

func TestReconstructor_AbsentMembersAreZero(t *testing.T) {
	schema := cropSchema(t, valueobject.EncodingFull)
	req := map[string]any{
		"Rainfall_mm":         120.0,
		"Temperature_Celsius": 25.0,
		"Fertilizer_Used":     50.0,
		"Irrigation_Used":     1.0,
		"Days_to_Harvest":     100.0,
		"Soil_Type_Silt":      1.0,
	}

	vec, err := validateAndReconstruct(t, schema, req)
	require.NoError(t, err)
	require.Len(t, vec, schema.Len())

	silt, _ := schema.Index("Soil_Type_Silt")
	for i := 5; i < schema.Len(); i++ {
		if i == silt {
			assert.Equal(t, 1.0, vec[i])
		} else {
			assert.Equal(t, 0.0, vec[i], schema.Feature(i).Name)
		}
	}
}

func TestReconstructor_ShapeProperty(t *testing.T) {
	for _, policy := range []valueobject.EncodingPolicy{valueobject.EncodingFull, valueobject.EncodingDropFirst} {
		schema := cropSchema(t, policy)
		for _, region := range cropCategories()["Region"] {
			for _, soil := range cropCategories()["Soil_Type"] {
				req := scenarioRequest()
				req["Region_East"] = 0.0
				req["Region_"+region] = 1.0
				req["Soil_Type_"+soil] = 1.0

				vec, err := validateAndReconstruct(t, schema, req)
				require.NoError(t, err)
				require.Len(t, vec, schema.Len())

				for _, g := range schema.Groups() {
					ones := 0
					for _, m := range g.Members {
						pos, _ := schema.Index(m)
						if vec[pos] == 1 {
							ones++
						}
					}
					assert.LessOrEqual(t, ones, 1, "group %s under %s", g.Name, policy)
				}
			}
		}
	}
}

func TestReconstructor_RoundTrip(t *testing.T) {
	for _, policy := range []valueobject.EncodingPolicy{valueobject.EncodingFull, valueobject.EncodingDropFirst} {
		schema := cropSchema(t, policy)
		for _, region := range cropCategories()["Region"] {
			for _, soil := range cropCategories()["Soil_Type"] {
				req := map[string]any{
					"Rainfall_mm":         120.0,
					"Temperature_Celsius": 25.0,
					"Fertilizer_Used":     50.0,
					"Irrigation_Used":     1.0,
					"Days_to_Harvest":     100.0,
					"Region":              region,
					"Soil_Type":           soil,
				}

				vec, err := validateAndReconstruct(t, schema, req)
				require.NoError(t, err)

				got, err := schema.DecodeSelections(vec)
				require.NoError(t, err)
				assert.Equal(t, map[string]string{"Region": region, "Soil_Type": soil}, got, "policy %s", policy)
			}
		}
	}
}

func TestReconstructor_UnknownCategoryValue(t *testing.T) {
	schema := cropSchema(t, valueobject.EncodingFull)

	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"categorical form", "Region", "Central"},
		{"flag form", "Region_Central", 1.0},
		{"drifted soil column", "Soil_Type_Loamy", 1.0},
		{"drifted column sent as zero", "Soil_Type_Peaty", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := scenarioRequest()
			if tt.key == "Region" {
				delete(req, "Region_East")
			}
			req[tt.key] = tt.value

			vec, err := validateAndReconstruct(t, schema, req)
			require.ErrorIs(t, err, model.ErrUnknownCategoryValue)
			assert.Nil(t, vec)
			assert.Equal(t, model.CodeUnknownCategory, fieldCodes(t, err)[tt.key])
		})
	}
}

func TestReconstructor_AmbiguousOneHotSelection(t *testing.T) {
	schema := cropSchema(t, valueobject.EncodingFull)

	req := scenarioRequest()
	req["Region_West"] = 1.0
	_, err := validateAndReconstruct(t, schema, req)
	require.ErrorIs(t, err, model.ErrAmbiguousOneHotSelection)
	assert.Equal(t, map[string]string{"Region": model.CodeAmbiguousSelection}, fieldCodes(t, err))

	req = scenarioRequest()
	req["Region"] = "North"
	_, err = validateAndReconstruct(t, schema, req)
	require.ErrorIs(t, err, model.ErrAmbiguousOneHotSelection)
}

func TestReconstructor_SameCategoryInBothFormsIsNotAmbiguous(t *testing.T) {
	schema := cropSchema(t, valueobject.EncodingFull)
	req := scenarioRequest()
	req["Region"] = "East"

	vec, err := validateAndReconstruct(t, schema, req)
	require.NoError(t, err)
	east, _ := schema.Index("Region_East")
	assert.Equal(t, 1.0, vec[east])
}

func TestReconstructor_BaselineSelectsNoColumn(t *testing.T) {
	schema := cropSchema(t, valueobject.EncodingDropFirst)
	req := map[string]any{
		"Rainfall_mm":         120.0,
		"Temperature_Celsius": 25.0,
		"Fertilizer_Used":     50.0,
		"Irrigation_Used":     1.0,
		"Days_to_Harvest":     100.0,
		"Region":              "East",
	}

	vec, err := validateAndReconstruct(t, schema, req)
	require.NoError(t, err)
	for i := 5; i < schema.Len(); i++ {
		assert.Equal(t, 0.0, vec[i])
	}

	req["Region_North"] = 1.0
	_, err = validateAndReconstruct(t, schema, req)
	require.ErrorIs(t, err, model.ErrAmbiguousOneHotSelection, "baseline plus another member is ambiguous")
}

func TestReconstructor_RejectsIncompleteInput(t *testing.T) {
	schema := cropSchema(t, valueobject.EncodingFull)
	in := model.NewValidatedInput()
	in.Values["Rainfall_mm"] = 1

	_, err := service.NewReconstructor().Reconstruct(in, schema)
	require.ErrorIs(t, err, model.ErrValidation)
	assert.Equal(t, model.CodeMissingRequired, fieldCodes(t, err)["Days_to_Harvest"])
}

func TestReconstructAndScale_Idempotent(t *testing.T) {
	schema := cropSchema(t, valueobject.EncodingFull)
	scaler := cropScaler(t)
	in, err := service.NewValidator().Validate(scenarioRequest(), schema)
	require.NoError(t, err)

	run := func() model.FeatureVector {
		vec, err := service.NewReconstructor().Reconstruct(in, schema)
		require.NoError(t, err)
		scaled, err := service.Scale(vec, scaler, schema)
		require.NoError(t, err)
		return scaled
	}

	first, second := run(), run()
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, math.Float64bits(first[i]), math.Float64bits(second[i]), "position %d", i)
	}
}
