package training

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/cropyield/yield-service/internal/domain/model"
	"github.com/cropyield/yield-service/internal/domain/service"
)

// FitScaler computes mean and population standard deviation of every
// continuous column over rows. A constant column gets scale 1.
func FitScaler(schema *model.Schema, rows []model.FeatureVector) (*model.ScalerParameters, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("cannot fit scaler on zero rows")
	}
	params := make(map[string]model.ScaleParam)
	col := make([]float64, len(rows))
	for i, spec := range schema.Features() {
		if !spec.Kind.IsContinuous() {
			continue
		}
		for r, row := range rows {
			col[r] = row[i]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		params[spec.Name] = model.ScaleParam{Mean: mean, Scale: std}
	}
	return model.NewScalerParameters(params)
}

// ScaleRows applies the serving scaling stage to every row so training sees
// exactly the vectors inference will produce.
func ScaleRows(rows []model.FeatureVector, scaler *model.ScalerParameters, schema *model.Schema) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		scaled, err := service.Scale(r, scaler, schema)
		if err != nil {
			return nil, fmt.Errorf("scale row %d: %w", i+1, err)
		}
		out[i] = scaled
	}
	return out, nil
}
