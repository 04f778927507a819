package training

import (
	"fmt"
	"math"

	"github.com/cropyield/yield-service/internal/domain/model"
	"github.com/cropyield/yield-service/internal/domain/valueobject"
)

// Dataset is the encoded training frame: one unscaled vector per row in
// schema order, plus the target.
type Dataset struct {
	Schema *model.Schema
	X      []model.FeatureVector
	Y      []float64
}

// Len is the number of rows.
func (d *Dataset) Len() int { return len(d.Y) }

// Encode builds the schema from the manifest and the categories observed in
// the frame, then encodes every row against it.
func Encode(frame *Frame, m *Manifest, policy valueobject.EncodingPolicy) (*Dataset, error) {
	if frame.Len() == 0 {
		return nil, fmt.Errorf("training frame has no rows")
	}
	for _, c := range m.Columns {
		if !frame.Has(c.Name) {
			return nil, fmt.Errorf("manifest column %s is missing from the training data", c.Name)
		}
	}
	if !frame.Has(m.Target) {
		return nil, fmt.Errorf("target column %s is missing from the training data", m.Target)
	}

	numeric := make(map[string][]float64)
	labels := make(map[string][]string)
	categories := make(map[string][]string)

	for _, c := range m.Columns {
		if model.ColumnKind(c.Kind) == model.ColumnCategorical {
			cells, err := frame.Strings(c.Name)
			if err != nil {
				return nil, err
			}
			seen := make(map[string]bool)
			for i, v := range cells {
				if v == "" {
					return nil, fmt.Errorf("column %s row %d: empty category", c.Name, i+1)
				}
				if !seen[v] {
					seen[v] = true
					categories[c.Name] = append(categories[c.Name], v)
				}
			}
			labels[c.Name] = cells
			continue
		}
		values, err := frame.Floats(c.Name)
		if err != nil {
			return nil, err
		}
		numeric[c.Name] = values
	}

	y, err := frame.Floats(m.Target)
	if err != nil {
		return nil, err
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("target row %d is not finite", i+1)
		}
	}

	schema, err := model.BuildSchema(m.ColumnSpecs(), categories, policy)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}

	features := schema.Features()
	X := make([]model.FeatureVector, frame.Len())
	for row := range X {
		vec := make(model.FeatureVector, len(features))
		for i, spec := range features {
			if spec.Kind.IsOneHotMember() {
				if labels[spec.Group][row] == spec.Category {
					vec[i] = 1
				}
				continue
			}
			v := numeric[spec.Name][row]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("column %s row %d is not finite", spec.Name, row+1)
			}
			vec[i] = v
		}
		X[row] = vec
	}

	return &Dataset{Schema: schema, X: X, Y: y}, nil
}
