package training

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TrainTestSplit shuffles row indices with a seeded generator and holds out
// testSize of them. The split is reproducible for a given seed.
func TrainTestSplit(n int, testSize float64, seed uint64) (train, test []int, err error) {
	if testSize < 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size %v must be in [0, 1)", testSize)
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	perm := rng.Perm(n)
	nTest := int(float64(n) * testSize)
	if nTest >= n {
		nTest = n - 1
	}
	return perm[nTest:], perm[:nTest], nil
}

func gather(rows [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		xs[i] = rows[j]
		ys[i] = y[j]
	}
	return xs, ys
}

// MSE is the mean squared error of pred against truth.
func MSE(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	d := floats.Distance(pred, truth, 2)
	return d * d / float64(len(truth))
}

// R2 is the coefficient of determination. A constant truth scores 0.
func R2(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	if _, std := stat.PopMeanStdDev(truth, nil); std == 0 {
		return 0
	}
	return stat.RSquaredFrom(pred, truth, nil)
}
