package model

import (
	"fmt"
	"math/rand"
)

// BoostingOptions configures a gradient boosting regressor.
type BoostingOptions struct {
	NumTrees     int
	MaxDepth     int
	LearningRate float64
	// Subsample is the fraction of rows each stage trains on. Values at or
	// above 1 disable subsampling.
	Subsample float64
	Seed      int64
}

// GradientBoosting fits shallow regression trees sequentially, each one
// trained on the residuals left by the stages before it.
type GradientBoosting struct {
	Options BoostingOptions `json:"options"`
	Init    float64         `json:"init"`
	Trees   []*Tree         `json:"trees"`
}

// NewGradientBoosting creates an unfitted boosting model with defaults
// filled in.
func NewGradientBoosting(opts BoostingOptions) *GradientBoosting {
	if opts.NumTrees <= 0 {
		opts.NumTrees = 100
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 3
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = 0.1
	}
	if opts.Subsample <= 0 || opts.Subsample > 1 {
		opts.Subsample = 1
	}
	return &GradientBoosting{Options: opts}
}

// Fit trains the boosting stages. Stages are inherently sequential; the
// subsample drawn at each stage comes from a single seeded rng so the fit
// is reproducible.
func (g *GradientBoosting) Fit(X [][]float64, y []float64) error {
	if err := validateTrainingData(X, y); err != nil {
		return err
	}
	n := len(y)
	g.Init = meanOf(y)
	g.Trees = make([]*Tree, 0, g.Options.NumTrees)

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = g.Init
	}

	rng := rand.New(rand.NewSource(g.Options.Seed))
	sampleSize := int(g.Options.Subsample * float64(n))
	if sampleSize < 2 {
		sampleSize = n
	}

	residual := make([]float64, n)
	for stage := 0; stage < g.Options.NumTrees; stage++ {
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}

		tx, ty := X, residual
		if sampleSize < n {
			idx := rng.Perm(n)[:sampleSize]
			tx = make([][]float64, sampleSize)
			ty = make([]float64, sampleSize)
			for j, k := range idx {
				tx[j] = X[k]
				ty[j] = residual[k]
			}
		}

		tree := NewTree(g.Options.MaxDepth, 2, 1)
		if err := tree.Fit(tx, ty); err != nil {
			return fmt.Errorf("failed to fit boosting stage %d: %w", stage, err)
		}
		g.Trees = append(g.Trees, tree)

		for i, row := range X {
			v, err := tree.Predict(row)
			if err != nil {
				return err
			}
			pred[i] += g.Options.LearningRate * v
		}
	}
	return nil
}

// Predict sums the initial estimate and the scaled stage outputs.
func (g *GradientBoosting) Predict(x []float64) (float64, error) {
	if len(g.Trees) == 0 {
		return 0, fmt.Errorf("model not fitted")
	}
	out := g.Init
	for _, tree := range g.Trees {
		v, err := tree.Predict(x)
		if err != nil {
			return 0, err
		}
		out += g.Options.LearningRate * v
	}
	return out, nil
}
