package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Linear is an ordinary-least-squares regressor with an intercept term.
// It carries no hyperparameters, which makes it the family that exercises
// the default-configuration path of the search controller.
type Linear struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// NewLinear creates an unfitted OLS regressor.
func NewLinear() *Linear {
	return &Linear{}
}

// rankTolerance is the relative singular value cutoff for the least-squares
// solve. Singular values below it count as zero, so constant or collinear
// feature columns reduce the effective rank instead of failing the fit.
const rankTolerance = 1e-12

// Fit solves the least-squares problem via SVD, taking the minimum-norm
// solution when the design matrix is rank-deficient.
func (l *Linear) Fit(X [][]float64, y []float64) error {
	if err := validateTrainingData(X, y); err != nil {
		return err
	}
	n := len(X)
	k := len(X[0])
	if n <= k {
		return fmt.Errorf("need more than %d samples to fit %d coefficients", k, k)
	}

	// Design matrix with a leading column of ones for the intercept.
	a := mat.NewDense(n, k+1, nil)
	b := mat.NewVecDense(n, nil)
	for i, row := range X {
		a.Set(i, 0, 1)
		for j, v := range row {
			a.Set(i, j+1, v)
		}
		b.SetVec(i, y[i])
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return fmt.Errorf("failed to factorize design matrix")
	}
	rank := svd.Rank(rankTolerance)
	if rank < 1 {
		return fmt.Errorf("design matrix has rank zero")
	}

	beta := mat.NewVecDense(k+1, nil)
	svd.SolveVecTo(beta, b, rank)

	l.Intercept = beta.AtVec(0)
	l.Coefficients = make([]float64, k)
	for j := 0; j < k; j++ {
		l.Coefficients[j] = beta.AtVec(j + 1)
	}
	return nil
}

// Predict returns the linear estimate for one feature vector.
func (l *Linear) Predict(x []float64) (float64, error) {
	if l.Coefficients == nil {
		return 0, fmt.Errorf("model not fitted")
	}
	if len(x) != len(l.Coefficients) {
		return 0, fmt.Errorf("expected %d features, got %d", len(l.Coefficients), len(x))
	}
	sum := l.Intercept
	for j, v := range x {
		sum += l.Coefficients[j] * v
	}
	return sum, nil
}
