package predictor

import (
	"context"
	"fmt"
)

// Tree is a CART regression tree stored as a flat node array.
type Tree struct {
	nodes []Node
	width int
	names []string
}

// NewTree validates the node array: every child index must point forward,
// which rules out cycles, and every split feature must exist.
func NewTree(params TreeParams, width int, names []string) (*Tree, error) {
	if err := validateNodes(params.Nodes, width); err != nil {
		return nil, err
	}
	if names != nil && len(names) != width {
		return nil, fmt.Errorf("tree has width %d but %d feature names", width, len(names))
	}
	return &Tree{nodes: params.Nodes, width: width, names: names}, nil
}

func validateNodes(nodes []Node, width int) error {
	if len(nodes) == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	if width <= 0 {
		return fmt.Errorf("tree width must be positive")
	}
	for i, n := range nodes {
		if n.Feature < 0 {
			continue
		}
		if n.Feature >= width {
			return fmt.Errorf("node %d splits on feature %d, width is %d", i, n.Feature, width)
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(nodes) || n.Right >= len(nodes) {
			return fmt.Errorf("node %d has invalid children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}

func (t *Tree) Kind() string           { return KindTree }
func (t *Tree) InputWidth() int        { return t.width }
func (t *Tree) FeatureNames() []string { return t.names }

// Predict walks from the root to a leaf.
func (t *Tree) Predict(_ context.Context, x []float64) (float64, error) {
	if len(x) != t.width {
		return 0, fmt.Errorf("tree: got %d features, want %d", len(x), t.width)
	}
	return t.eval(x), nil
}

func (t *Tree) eval(x []float64) float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth returns the length of the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.nodes[i]
		if n.Feature < 0 {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

// Params returns the flattened nodes.
func (t *Tree) Params() TreeParams {
	return TreeParams{Nodes: t.nodes}
}

// Spec serialises the model.
func (t *Tree) Spec() (Spec, error) {
	return newSpec(KindTree, t.width, t.names, t.Params())
}
