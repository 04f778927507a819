package service

import (
	"fmt"

	"github.com/cropyield/yield-service/internal/domain/model"
)

// Scale standardises the continuous positions of vec and returns a new
// vector. Binary and one-hot positions pass through unchanged.
func Scale(vec model.FeatureVector, scaler *model.ScalerParameters, schema *model.Schema) (model.FeatureVector, error) {
	if len(vec) != schema.Len() {
		return nil, fmt.Errorf("%w: vector has %d values, schema has %d",
			model.ErrArtifactWidthMismatch, len(vec), schema.Len())
	}
	out := vec.Clone()
	for i := range out {
		spec := schema.Feature(i)
		if !spec.Kind.IsContinuous() {
			continue
		}
		p, ok := scaler.Get(spec.Name)
		if !ok {
			return nil, fmt.Errorf("%w: no scaler parameters for %s", model.ErrSchemaCorrupt, spec.Name)
		}
		out[i] = p.Apply(out[i])
	}
	return out, nil
}
