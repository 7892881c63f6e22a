package model

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
)

// ForestOptions configures a random forest regressor.
type ForestOptions struct {
	NumTrees        int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	// MaxFeatures caps the candidate features per split. Zero means
	// sqrt(total features), the usual forest heuristic.
	MaxFeatures int
	Seed        int64
}

// Forest is a bagged ensemble of regression trees. Each tree trains on a
// bootstrap sample and restricts splits to a random feature subset.
type Forest struct {
	Options ForestOptions `json:"options"`
	Trees   []*Tree       `json:"trees"`
}

// NewForest creates an unfitted forest with defaults filled in.
func NewForest(opts ForestOptions) *Forest {
	if opts.NumTrees <= 0 {
		opts.NumTrees = 100
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 10
	}
	if opts.MinSamplesSplit <= 1 {
		opts.MinSamplesSplit = 2
	}
	if opts.MinSamplesLeaf <= 0 {
		opts.MinSamplesLeaf = 1
	}
	return &Forest{Options: opts}
}

// Fit trains all trees. Trees train concurrently; each one derives its own
// rng from the forest seed and its index, so results do not depend on
// scheduling order.
func (f *Forest) Fit(X [][]float64, y []float64) error {
	if err := validateTrainingData(X, y); err != nil {
		return err
	}
	n := len(y)
	numFeatures := len(X[0])

	maxFeatures := f.Options.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(numFeatures)))
		if maxFeatures < 1 {
			maxFeatures = 1
		}
	}

	f.Trees = make([]*Tree, f.Options.NumTrees)

	var wg sync.WaitGroup
	for i := range f.Trees {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(f.Options.Seed + int64(idx)))

			bx := make([][]float64, n)
			by := make([]float64, n)
			for j := 0; j < n; j++ {
				k := rng.Intn(n)
				bx[j] = X[k]
				by[j] = y[k]
			}

			tree := NewTree(f.Options.MaxDepth, f.Options.MinSamplesSplit, f.Options.MinSamplesLeaf)
			tree.maxFeatures = maxFeatures
			tree.rng = rng
			tree.NumFeatures = numFeatures
			tree.Root = tree.build(bx, by, 0)
			f.Trees[idx] = tree
		}(i)
	}
	wg.Wait()
	return nil
}

// Predict averages the predictions of all trees.
func (f *Forest) Predict(x []float64) (float64, error) {
	if len(f.Trees) == 0 {
		return 0, fmt.Errorf("model not fitted")
	}
	var sum float64
	for _, tree := range f.Trees {
		v, err := tree.Predict(x)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum / float64(len(f.Trees)), nil
}
