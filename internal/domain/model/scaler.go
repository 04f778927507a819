package model

import (
	"fmt"
	"math"
	"sort"
)

// ScaleParam is the (mean, scale) pair fitted for one continuous feature.
type ScaleParam struct {
	Mean  float64
	Scale float64
}

// Apply standardises x.
func (p ScaleParam) Apply(x float64) float64 {
	return (x - p.Mean) / p.Scale
}

// ScalerParameters maps every continuous feature name to its fitted ScaleParam.
// Immutable once constructed.
type ScalerParameters struct {
	params map[string]ScaleParam
}

// NewScalerParameters validates and copies the fitted parameters. A zero or
// non-finite scale, or a non-finite mean, marks the artifact as corrupt. An
// empty map is valid for schemas without continuous features; CheckDomain
// decides whether it fits a schema.
func NewScalerParameters(params map[string]ScaleParam) (*ScalerParameters, error) {
	copied := make(map[string]ScaleParam, len(params))
	for name, p := range params {
		if math.IsNaN(p.Mean) || math.IsInf(p.Mean, 0) {
			return nil, fmt.Errorf("%w: scaler mean for %s is not finite", ErrSchemaCorrupt, name)
		}
		if p.Scale == 0 || math.IsNaN(p.Scale) || math.IsInf(p.Scale, 0) {
			return nil, fmt.Errorf("%w: scaler scale for %s is %v", ErrSchemaCorrupt, name, p.Scale)
		}
		copied[name] = p
	}
	return &ScalerParameters{params: copied}, nil
}

// Get returns the parameters for one feature.
func (s *ScalerParameters) Get(name string) (ScaleParam, bool) {
	p, ok := s.params[name]
	return p, ok
}

// Len returns the number of scaled features.
func (s *ScalerParameters) Len() int { return len(s.params) }

// Domain returns the scaled feature names, sorted.
func (s *ScalerParameters) Domain() []string {
	names := make([]string, 0, len(s.params))
	for name := range s.params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Params returns a copy of the parameter map.
func (s *ScalerParameters) Params() map[string]ScaleParam {
	out := make(map[string]ScaleParam, len(s.params))
	for k, v := range s.params {
		out[k] = v
	}
	return out
}

// CheckDomain verifies that the scaler covers exactly the schema's continuous features.
func (s *ScalerParameters) CheckDomain(schema *Schema) error {
	continuous := schema.ContinuousNames()
	var missing, extra []string
	want := make(map[string]bool, len(continuous))
	for _, name := range continuous {
		want[name] = true
		if _, ok := s.params[name]; !ok {
			missing = append(missing, name)
		}
	}
	for _, name := range s.Domain() {
		if !want[name] {
			extra = append(extra, name)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		return fmt.Errorf("%w: scaler domain differs from continuous features (missing %v, unexpected %v)",
			ErrSchemaCorrupt, missing, extra)
	}
	return nil
}
