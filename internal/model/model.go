// Package model implements the regression model families, their
// hyperparameters, evaluation metrics, and the normalized pipeline contract
// (ordered transforms + fitted model) used by training and inference.
package model

import (
	"fmt"
	"math"
)

// Model family identifiers.
const (
	FamilyLinear           = "linear"
	FamilyRandomForest     = "random_forest"
	FamilyGradientBoosting = "gradient_boosting"
)

// Families lists the supported families in their canonical training order.
// The order breaks ties when two families score identically.
var Families = []string{FamilyLinear, FamilyRandomForest, FamilyGradientBoosting}

// Params is one hyperparameter candidate: a named tuple of family-specific
// knobs drawn from a declared search space.
type Params map[string]float64

// Int reads an integer knob, falling back to def when absent.
func (p Params) Int(name string, def int) int {
	if v, ok := p[name]; ok {
		return int(v)
	}
	return def
}

// Float reads a float knob, falling back to def when absent.
func (p Params) Float(name string, def float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}

// Clone returns a copy of p.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Regressor is a fittable single-output regression model.
type Regressor interface {
	// Fit trains the model on the feature matrix X and target vector y.
	Fit(X [][]float64, y []float64) error
	// Predict returns the estimate for one feature vector.
	Predict(x []float64) (float64, error)
}

// New constructs an unfitted regressor for the named family. Unknown knobs
// in params are ignored; missing knobs take the family defaults. The seed
// drives all stochastic behavior so that fits are reproducible.
func New(family string, params Params, seed int64) (Regressor, error) {
	switch family {
	case FamilyLinear:
		return NewLinear(), nil
	case FamilyRandomForest:
		return NewForest(ForestOptions{
			NumTrees:        params.Int("n_estimators", 200),
			MaxDepth:        params.Int("max_depth", 6),
			MinSamplesSplit: params.Int("min_samples_split", 2),
			MinSamplesLeaf:  params.Int("min_samples_leaf", 1),
			Seed:            seed,
		}), nil
	case FamilyGradientBoosting:
		return NewGradientBoosting(BoostingOptions{
			NumTrees:     params.Int("n_estimators", 200),
			MaxDepth:     params.Int("max_depth", 6),
			LearningRate: params.Float("learning_rate", 0.1),
			Subsample:    params.Float("subsample", 0.8),
			Seed:         seed,
		}), nil
	default:
		return nil, fmt.Errorf("unknown model family %q", family)
	}
}

// PredictBatch evaluates r over every row of X, preserving row order.
func PredictBatch(r Regressor, X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, x := range X {
		f, err := r.Predict(x)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

func validateTrainingData(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training data")
	}
	if len(X) != len(y) {
		return fmt.Errorf("feature matrix has %d rows but target has %d", len(X), len(y))
	}
	width := len(X[0])
	if width == 0 {
		return fmt.Errorf("training data has no feature columns")
	}
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("row %d has %d features, expected %d", i, len(row), width)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("row %d column %d is not finite", i, j)
			}
		}
	}
	return nil
}
