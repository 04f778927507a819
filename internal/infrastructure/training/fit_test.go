package training_test

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cropyield/yield-service/internal/infrastructure/predictor"
	"github.com/cropyield/yield-service/internal/infrastructure/training"
)

func TestFitLinear_RecoversWeights(t *testing.T) {
	var X [][]float64
	var y []float64
	for i := 0; i < 50; i++ {
		a := float64(i%7) - 3
		b := float64(i%5) * 0.5
		X = append(X, []float64{a, b})
		y = append(y, 3+2*a-b)
	}

	params, err := training.FitLinear(X, y)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, params.Intercept, 1e-5)
	require.Len(t, params.Coefficients, 2)
	assert.InDelta(t, 2.0, params.Coefficients[0], 1e-5)
	assert.InDelta(t, -1.0, params.Coefficients[1], 1e-5)
}

func TestFitLinear_CollinearColumns(t *testing.T) {
	// Two complementary indicator columns always sum to 1, like a fully
	// encoded one-hot group next to the intercept.
	X := [][]float64{{1, 0}, {0, 1}, {1, 0}, {0, 1}}
	y := []float64{2, 4, 2, 4}

	params, err := training.FitLinear(X, y)
	require.NoError(t, err)

	l, err := predictor.NewLinear(params, nil)
	require.NoError(t, err)
	got, err := l.Predict(context.Background(), []float64{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got, 1e-4)
}

func TestFitLinear_Errors(t *testing.T) {
	tests := []struct {
		name string
		X    [][]float64
		y    []float64
	}{
		{name: "no rows", X: nil, y: nil},
		{name: "target length mismatch", X: [][]float64{{1}}, y: []float64{1, 2}},
		{name: "ragged rows", X: [][]float64{{1, 2}, {3}}, y: []float64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := training.FitLinear(tt.X, tt.y)
			require.Error(t, err)
		})
	}
}

func TestFitTree_StepFunction(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}, {3}, {10}, {11}, {12}, {13}}
	y := []float64{1, 1, 1, 1, 5, 5, 5, 5}

	params, err := training.FitTree(X, y, nil, training.DefaultTreeOptions(), nil)
	require.NoError(t, err)

	tree, err := predictor.NewTree(params, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, tree.Depth())
	assert.Equal(t, 6.5, params.Nodes[0].Threshold)

	for i, x := range X {
		got, err := tree.Predict(context.Background(), x)
		require.NoError(t, err)
		assert.Equal(t, y[i], got)
	}
}

func TestFitTree_MaxDepth(t *testing.T) {
	var X [][]float64
	var y []float64
	for i := 0; i < 64; i++ {
		X = append(X, []float64{float64(i)})
		y = append(y, float64(i*i))
	}

	for _, depth := range []int{1, 3, 5} {
		opts := training.DefaultTreeOptions()
		opts.MaxDepth = depth
		params, err := training.FitTree(X, y, nil, opts, nil)
		require.NoError(t, err)

		tree, err := predictor.NewTree(params, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, depth, tree.Depth())
	}
}

func TestFitTree_ConstantTarget(t *testing.T) {
	params, err := training.FitTree([][]float64{{1}, {2}, {3}}, []float64{4, 4, 4}, nil, training.DefaultTreeOptions(), nil)
	require.NoError(t, err)
	require.Len(t, params.Nodes, 1)
	assert.Equal(t, -1, params.Nodes[0].Feature)
	assert.Equal(t, 4.0, params.Nodes[0].Value)
}

func TestFitTree_MinSamplesLeaf(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}, {3}}
	y := []float64{0, 0, 0, 9}
	opts := training.DefaultTreeOptions()
	opts.MinSamplesLeaf = 2

	params, err := training.FitTree(X, y, nil, opts, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	// The outlier cannot be isolated in a leaf of one.
	assert.Equal(t, 1.5, params.Nodes[0].Threshold)
}

func TestFitForest_Reproducible(t *testing.T) {
	var X [][]float64
	var y []float64
	for i := 0; i < 40; i++ {
		X = append(X, []float64{float64(i % 10), float64(i % 3)})
		y = append(y, float64(i%10)+2*float64(i%3))
	}
	opts := training.ForestOptions{Trees: 8, Tree: training.DefaultTreeOptions(), Seed: 7}

	a, err := training.FitForest(context.Background(), X, y, opts)
	require.NoError(t, err)
	b, err := training.FitForest(context.Background(), X, y, opts)
	require.NoError(t, err)

	require.Len(t, a.Trees, 8)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("forest not reproducible (-first +second):\n%s", diff)
	}

	f, err := predictor.NewForest(a, 2, nil)
	require.NoError(t, err)
	got, err := f.Predict(context.Background(), []float64{4, 1})
	require.NoError(t, err)
	assert.InDelta(t, 6.0, got, 2.0)
}

func TestFitForest_Errors(t *testing.T) {
	_, err := training.FitForest(context.Background(), [][]float64{{1}}, []float64{1}, training.ForestOptions{})
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = training.FitForest(ctx, [][]float64{{1}}, []float64{1}, training.ForestOptions{Trees: 2})
	require.ErrorIs(t, err, context.Canceled)
}

func TestTrainTestSplit(t *testing.T) {
	train, test, err := training.TrainTestSplit(10, 0.2, 42)
	require.NoError(t, err)
	assert.Len(t, train, 8)
	assert.Len(t, test, 2)

	train2, test2, err := training.TrainTestSplit(10, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	seen := make(map[int]bool)
	for _, i := range append(append([]int(nil), train...), test...) {
		seen[i] = true
	}
	assert.Len(t, seen, 10)

	_, _, err = training.TrainTestSplit(10, 1, 42)
	require.Error(t, err)
}

func TestMetrics(t *testing.T) {
	truth := []float64{1, 2, 3}
	assert.Equal(t, 0.0, training.MSE(truth, truth))
	assert.Equal(t, 1.0, training.R2(truth, truth))
	assert.InDelta(t, 1.0/3.0, training.MSE(truth, []float64{1, 2, 4}), 1e-12)
	assert.Equal(t, 0.0, training.R2([]float64{2, 2}, []float64{1, 3}))
}
