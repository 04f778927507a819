package predictor

import (
	"context"
	"fmt"
)

// Forest averages the output of its trees.
type Forest struct {
	trees []*Tree
	width int
	names []string
}

// NewForest validates every member tree.
func NewForest(params ForestParams, width int, names []string) (*Forest, error) {
	if len(params.Trees) == 0 {
		return nil, fmt.Errorf("forest has no trees")
	}
	trees := make([]*Tree, len(params.Trees))
	for i, tp := range params.Trees {
		t, err := NewTree(tp, width, names)
		if err != nil {
			return nil, fmt.Errorf("forest tree %d: %w", i, err)
		}
		trees[i] = t
	}
	return &Forest{trees: trees, width: width, names: names}, nil
}

func (f *Forest) Kind() string           { return KindForest }
func (f *Forest) InputWidth() int        { return f.width }
func (f *Forest) FeatureNames() []string { return f.names }
func (f *Forest) Size() int              { return len(f.trees) }

// Predict returns the mean tree output.
func (f *Forest) Predict(_ context.Context, x []float64) (float64, error) {
	if len(x) != f.width {
		return 0, fmt.Errorf("forest: got %d features, want %d", len(x), f.width)
	}
	var sum float64
	for _, t := range f.trees {
		sum += t.eval(x)
	}
	return sum / float64(len(f.trees)), nil
}

// Spec serialises the model.
func (f *Forest) Spec() (Spec, error) {
	params := ForestParams{Trees: make([]TreeParams, len(f.trees))}
	for i, t := range f.trees {
		params.Trees[i] = t.Params()
	}
	return newSpec(KindForest, f.width, f.names, params)
}
