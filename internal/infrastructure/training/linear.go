package training

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/cropyield/yield-service/internal/infrastructure/predictor"
)

// ridge keeps the normal equations solvable when one-hot groups are fully
// encoded and therefore collinear with the intercept.
const ridge = 1e-8

// FitLinear fits ordinary least squares with an intercept by solving the
// normal equations with a Cholesky factorisation.
func FitLinear(X [][]float64, y []float64) (predictor.LinearParams, error) {
	if len(X) == 0 || len(X) != len(y) {
		return predictor.LinearParams{}, fmt.Errorf("linear: need matching non-empty X and y")
	}
	n, p := len(X), len(X[0])
	dim := p + 1

	// D = [1 X]
	design := mat.NewDense(n, dim, nil)
	for r, x := range X {
		if len(x) != p {
			return predictor.LinearParams{}, fmt.Errorf("linear: row %d has %d features, want %d", r, len(x), p)
		}
		design.Set(r, 0, 1)
		for c, v := range x {
			design.Set(r, c+1, v)
		}
	}

	// DᵀD + λn·I (intercept unpenalised), Dᵀy
	var gram mat.SymDense
	gram.SymOuterK(1, design.T())
	for i := 1; i < dim; i++ {
		gram.SetSym(i, i, gram.At(i, i)+ridge*float64(n))
	}
	var rhs mat.VecDense
	rhs.MulVec(design.T(), mat.NewVecDense(n, y))

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return predictor.LinearParams{}, fmt.Errorf("linear: normal equations are not positive definite")
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &rhs); err != nil {
		return predictor.LinearParams{}, fmt.Errorf("linear: %w", err)
	}

	coef := make([]float64, p)
	for i := range coef {
		coef[i] = beta.AtVec(i + 1)
	}
	return predictor.LinearParams{Intercept: beta.AtVec(0), Coefficients: coef}, nil
}
