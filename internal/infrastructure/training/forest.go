package training

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cropyield/yield-service/internal/infrastructure/predictor"
)

// ForestOptions configure the bootstrap ensemble.
type ForestOptions struct {
	Trees int
	Tree  TreeOptions
	Seed  uint64
}

// FitForest grows opts.Trees trees in parallel, each on its own bootstrap
// sample drawn from a generator seeded by the tree index, so the forest is
// reproducible regardless of scheduling.
func FitForest(ctx context.Context, X [][]float64, y []float64, opts ForestOptions) (predictor.ForestParams, error) {
	if opts.Trees <= 0 {
		return predictor.ForestParams{}, fmt.Errorf("forest: tree count must be positive")
	}
	if len(X) == 0 || len(X) != len(y) {
		return predictor.ForestParams{}, fmt.Errorf("forest: need matching non-empty X and y")
	}

	trees := make([]predictor.TreeParams, opts.Trees)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for t := range opts.Trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(opts.Seed, uint64(t)+1))
			sample := make([]int, len(X))
			for i := range sample {
				sample[i] = rng.IntN(len(X))
			}
			tree, err := FitTree(X, y, sample, opts.Tree, rng)
			if err != nil {
				return fmt.Errorf("forest tree %d: %w", t, err)
			}
			trees[t] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return predictor.ForestParams{}, err
	}
	return predictor.ForestParams{Trees: trees}, nil
}
