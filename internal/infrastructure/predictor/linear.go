package predictor

import (
	"context"
	"fmt"
	"math"
)

// Linear is an ordinary least squares model: intercept + w·x.
type Linear struct {
	params LinearParams
	names  []string
}

// NewLinear validates and wraps fitted weights.
func NewLinear(params LinearParams, names []string) (*Linear, error) {
	if len(params.Coefficients) == 0 {
		return nil, fmt.Errorf("linear model has no coefficients")
	}
	if names != nil && len(names) != len(params.Coefficients) {
		return nil, fmt.Errorf("linear model has %d coefficients but %d feature names",
			len(params.Coefficients), len(names))
	}
	for i, w := range params.Coefficients {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("linear coefficient %d is not finite", i)
		}
	}
	return &Linear{params: params, names: names}, nil
}

func (l *Linear) Kind() string           { return KindLinear }
func (l *Linear) InputWidth() int        { return len(l.params.Coefficients) }
func (l *Linear) FeatureNames() []string { return l.names }

// Predict returns intercept + w·x.
func (l *Linear) Predict(_ context.Context, x []float64) (float64, error) {
	if len(x) != len(l.params.Coefficients) {
		return 0, fmt.Errorf("linear: got %d features, want %d", len(x), len(l.params.Coefficients))
	}
	y := l.params.Intercept
	for i, w := range l.params.Coefficients {
		y += w * x[i]
	}
	return y, nil
}

// Spec serialises the model.
func (l *Linear) Spec() (Spec, error) {
	return newSpec(KindLinear, l.InputWidth(), l.names, l.params)
}
