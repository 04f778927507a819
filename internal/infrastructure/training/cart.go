package training

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/cropyield/yield-service/internal/infrastructure/predictor"
)

// TreeOptions configure CART regression tree growth.
type TreeOptions struct {
	MaxDepth        int // root is depth 0; 0 means unlimited
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // features tried per split; 0 means all
}

// DefaultTreeOptions mirror the depth-10 trees the model was selected with.
func DefaultTreeOptions() TreeOptions {
	return TreeOptions{MaxDepth: 10, MinSamplesSplit: 2, MinSamplesLeaf: 1}
}

type treeBuilder struct {
	X     [][]float64
	y     []float64
	opts  TreeOptions
	rng   *rand.Rand
	nodes []predictor.Node
	width int
}

// FitTree grows a regression tree on the rows named by idx, splitting on the
// threshold that minimises the summed squared error of the children. The
// result is a flat node array whose children always follow their parent.
func FitTree(X [][]float64, y []float64, idx []int, opts TreeOptions, rng *rand.Rand) (predictor.TreeParams, error) {
	if len(X) == 0 || len(X) != len(y) {
		return predictor.TreeParams{}, fmt.Errorf("tree: need matching non-empty X and y")
	}
	if idx == nil {
		idx = make([]int, len(X))
		for i := range idx {
			idx[i] = i
		}
	}
	if len(idx) == 0 {
		return predictor.TreeParams{}, fmt.Errorf("tree: no rows to fit")
	}
	if opts.MinSamplesSplit < 2 {
		opts.MinSamplesSplit = 2
	}
	if opts.MinSamplesLeaf < 1 {
		opts.MinSamplesLeaf = 1
	}
	b := &treeBuilder{X: X, y: y, opts: opts, rng: rng, width: len(X[0])}
	b.grow(append([]int(nil), idx...), 0)
	return predictor.TreeParams{Nodes: b.nodes}, nil
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	pos := len(b.nodes)
	b.nodes = append(b.nodes, predictor.Node{Feature: -1, Value: b.mean(idx)})

	if len(idx) < b.opts.MinSamplesSplit || (b.opts.MaxDepth > 0 && depth >= b.opts.MaxDepth) {
		return pos
	}
	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return pos
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[pos] = predictor.Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return pos
}

func (b *treeBuilder) mean(idx []int) float64 {
	var s float64
	for _, i := range idx {
		s += b.y[i]
	}
	return s / float64(len(idx))
}

func (b *treeBuilder) candidateFeatures() []int {
	if b.opts.MaxFeatures <= 0 || b.opts.MaxFeatures >= b.width || b.rng == nil {
		all := make([]int, b.width)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return b.rng.Perm(b.width)[:b.opts.MaxFeatures]
}

// bestSplit scans every candidate feature in sorted order, keeping running
// sums so each threshold is scored in constant time.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	n := len(idx)
	var total, totalSq float64
	for _, i := range idx {
		total += b.y[i]
		totalSq += b.y[i] * b.y[i]
	}
	parentSSE := totalSq - total*total/float64(n)
	if parentSSE <= 1e-12 {
		return 0, 0, false
	}

	bestFeature, bestThreshold := -1, 0.0
	bestSSE := parentSSE
	sorted := make([]int, n)

	for _, f := range b.candidateFeatures() {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool { return b.X[sorted[a]][f] < b.X[sorted[c]][f] })

		var leftSum, leftSq float64
		for k := 0; k < n-1; k++ {
			v := b.y[sorted[k]]
			leftSum += v
			leftSq += v * v

			nl := k + 1
			nr := n - nl
			if nl < b.opts.MinSamplesLeaf || nr < b.opts.MinSamplesLeaf {
				continue
			}
			cur, next := b.X[sorted[k]][f], b.X[sorted[k+1]][f]
			if cur == next {
				continue
			}
			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))
			if sse < bestSSE-1e-12 {
				bestSSE = sse
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
			}
		}
	}
	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}
