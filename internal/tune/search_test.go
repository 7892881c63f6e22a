package tune

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duralab/frpdur/internal/model"
)

func trainingData(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x0 := rng.Float64() * 10
		x1 := rng.Float64() * 10
		X[i] = []float64{x0, x1}
		y[i] = 4*x0 - 2*x1 + rng.NormFloat64()
	}
	return X, y
}

func TestGridExpansionIsDeterministic(t *testing.T) {
	s := Space{
		"max_depth":    {3, 6},
		"n_estimators": {50, 100},
	}

	grid := s.Grid()
	require.Len(t, grid, 4)
	assert.Equal(t, grid, s.Grid())

	// Sorted knob order: max_depth varies slower than n_estimators.
	assert.Equal(t, model.Params{"max_depth": 3, "n_estimators": 50}, grid[0])
	assert.Equal(t, model.Params{"max_depth": 3, "n_estimators": 100}, grid[1])
	assert.Equal(t, model.Params{"max_depth": 6, "n_estimators": 50}, grid[2])
	assert.Equal(t, model.Params{"max_depth": 6, "n_estimators": 100}, grid[3])
}

func TestEmptySpaceYieldsDefaultCandidate(t *testing.T) {
	grid := Space{}.Grid()
	require.Len(t, grid, 1)
	assert.Empty(t, grid[0])
}

func TestSampleDrawsFromDeclaredValues(t *testing.T) {
	s := Space{"max_depth": {3, 6, 9}}
	rng := rand.New(rand.NewSource(1))

	for _, p := range s.Sample(rng, 10) {
		assert.Contains(t, []float64{3, 6, 9}, p["max_depth"])
	}
}

func TestSearchFindsWorkingCandidate(t *testing.T) {
	X, y := trainingData(120, 2)

	res, err := Search(context.Background(), model.FamilyLinear, Space{}, []string{"x0", "x1"}, X, y, Options{
		Folds: 3,
		Seed:  42,
	})
	require.NoError(t, err)
	assert.Equal(t, model.FamilyLinear, res.Family)
	assert.Len(t, res.CVScores, 3)
	assert.Greater(t, res.MeanCV, 0.9)
	assert.Equal(t, 1, res.Evaluated)
}

func TestSearchGridPicksBestCandidate(t *testing.T) {
	X, y := trainingData(150, 5)
	space := Space{
		"n_estimators": {10, 30},
		"max_depth":    {2, 6},
	}

	res, err := Search(context.Background(), model.FamilyRandomForest, space, []string{"x0", "x1"}, X, y, Options{
		Method: MethodGrid,
		Folds:  3,
		Seed:   42,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Evaluated)
	assert.NotEmpty(t, res.Params)
}

func TestSearchDeterministicUnderParallelism(t *testing.T) {
	X, y := trainingData(120, 7)
	space := Space{
		"n_estimators": {5, 10},
		"max_depth":    {3, 5},
	}

	run := func(parallelism int) Result {
		res, err := Search(context.Background(), model.FamilyRandomForest, space, []string{"x0", "x1"}, X, y, Options{
			Method:      MethodGrid,
			Folds:       3,
			Seed:        9,
			Parallelism: parallelism,
		})
		require.NoError(t, err)
		return res
	}

	serial := run(1)
	parallel := run(4)
	assert.Equal(t, serial.Params, parallel.Params)
	assert.Equal(t, serial.CVScores, parallel.CVScores)
}

func TestSearchRandomBoundsIterations(t *testing.T) {
	X, y := trainingData(100, 3)
	space := Space{
		"n_estimators":      {5, 10, 15},
		"max_depth":         {2, 3, 4},
		"min_samples_split": {2, 4, 8},
	}

	res, err := Search(context.Background(), model.FamilyRandomForest, space, []string{"x0", "x1"}, X, y, Options{
		Method:     MethodRandom,
		Folds:      3,
		Iterations: 5,
		Seed:       11,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Evaluated)
}

func TestSearchRandomFallsBackToGridForSmallSpace(t *testing.T) {
	X, y := trainingData(100, 3)
	space := Space{"max_depth": {2, 4}}

	res, err := Search(context.Background(), model.FamilyRandomForest, space, []string{"x0", "x1"}, X, y, Options{
		Method:     MethodRandom,
		Folds:      3,
		Iterations: 10,
		Seed:       11,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Evaluated)
}

func TestSearchRejectsTinyDataset(t *testing.T) {
	X := [][]float64{{1}, {2}}
	y := []float64{1, 2}

	_, err := Search(context.Background(), model.FamilyLinear, Space{}, []string{"x"}, X, y, Options{Folds: 5})
	assert.ErrorContains(t, err, "cross-validation")
}

func TestSearchUnknownMethod(t *testing.T) {
	X, y := trainingData(50, 1)
	_, err := Search(context.Background(), model.FamilyLinear, Space{}, []string{"x0", "x1"}, X, y, Options{
		Method: "bayesian",
		Folds:  3,
	})
	assert.ErrorContains(t, err, "unknown search method")
}

func TestCrossValidateClampsDegenerateFolds(t *testing.T) {
	// Fold 1 holds out a constant target that no fit of fold 0's varying
	// data can reproduce, so its raw score is -inf.
	var X [][]float64
	var y []float64
	folds := make([]int, 10)
	for i := 0; i < 10; i++ {
		X = append(X, []float64{float64(i)})
		if i < 5 {
			y = append(y, float64(i))
		} else {
			y = append(y, 42)
			folds[i] = 1
		}
	}

	scores, err := crossValidate(model.FamilyLinear, nil, []string{"x"}, X, y, folds, 2, 1)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	for _, s := range scores {
		assert.False(t, math.IsInf(s, 0))
	}
	assert.Equal(t, worstScore, scores[1])
}
