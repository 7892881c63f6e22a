package model

import (
	"fmt"
	"math/rand"
	"sort"
)

// treeNode is one node of a regression tree. Exported fields keep the tree
// JSON-serializable for artifact persistence.
type treeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
	Leaf      bool      `json:"leaf"`
	Value     float64   `json:"value"`
}

// Tree is a CART-style regression tree using variance reduction as the
// split criterion.
type Tree struct {
	MaxDepth        int       `json:"max_depth"`
	MinSamplesSplit int       `json:"min_samples_split"`
	MinSamplesLeaf  int       `json:"min_samples_leaf"`
	NumFeatures     int       `json:"num_features"`
	Root            *treeNode `json:"root,omitempty"`

	// maxFeatures limits the candidate features per split when positive;
	// the random forest sets it together with an rng.
	maxFeatures int
	rng         *rand.Rand
}

// NewTree creates an unfitted regression tree. Non-positive options take the
// conventional defaults.
func NewTree(maxDepth, minSamplesSplit, minSamplesLeaf int) *Tree {
	if maxDepth <= 0 {
		maxDepth = 10
	}
	if minSamplesSplit <= 1 {
		minSamplesSplit = 2
	}
	if minSamplesLeaf <= 0 {
		minSamplesLeaf = 1
	}
	return &Tree{
		MaxDepth:        maxDepth,
		MinSamplesSplit: minSamplesSplit,
		MinSamplesLeaf:  minSamplesLeaf,
	}
}

// Fit builds the tree from the training data.
func (t *Tree) Fit(X [][]float64, y []float64) error {
	if err := validateTrainingData(X, y); err != nil {
		return err
	}
	t.NumFeatures = len(X[0])
	t.Root = t.build(X, y, 0)
	return nil
}

// Predict walks the tree for one feature vector.
func (t *Tree) Predict(x []float64) (float64, error) {
	if t.Root == nil {
		return 0, fmt.Errorf("model not fitted")
	}
	if len(x) != t.NumFeatures {
		return 0, fmt.Errorf("expected %d features, got %d", t.NumFeatures, len(x))
	}
	node := t.Root
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value, nil
}

func (t *Tree) build(X [][]float64, y []float64, depth int) *treeNode {
	if depth >= t.MaxDepth || len(y) < t.MinSamplesSplit || homogeneous(y) {
		return &treeNode{Leaf: true, Value: meanOf(y)}
	}

	feature, threshold, gain := t.bestSplit(X, y)
	if gain <= 0 {
		return &treeNode{Leaf: true, Value: meanOf(y)}
	}

	var lx, rx [][]float64
	var ly, ry []float64
	for i, row := range X {
		if row[feature] <= threshold {
			lx = append(lx, row)
			ly = append(ly, y[i])
		} else {
			rx = append(rx, row)
			ry = append(ry, y[i])
		}
	}
	if len(ly) < t.MinSamplesLeaf || len(ry) < t.MinSamplesLeaf {
		return &treeNode{Leaf: true, Value: meanOf(y)}
	}

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      t.build(lx, ly, depth+1),
		Right:     t.build(rx, ry, depth+1),
	}
}

// bestSplit scans candidate features for the threshold with the largest
// sum-of-squares reduction.
func (t *Tree) bestSplit(X [][]float64, y []float64) (int, float64, float64) {
	numFeatures := len(X[0])
	candidates := t.candidateFeatures(numFeatures)

	parentSSE := sse(y)
	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0

	for _, f := range candidates {
		values := make([]float64, len(X))
		for i, row := range X {
			values[i] = row[f]
		}
		thresholds := splitPoints(values)

		for _, thr := range thresholds {
			var ly, ry []float64
			for i, row := range X {
				if row[f] <= thr {
					ly = append(ly, y[i])
				} else {
					ry = append(ry, y[i])
				}
			}
			if len(ly) < t.MinSamplesLeaf || len(ry) < t.MinSamplesLeaf {
				continue
			}
			gain := parentSSE - sse(ly) - sse(ry)
			if gain > bestGain {
				bestFeature, bestThreshold, bestGain = f, thr, gain
			}
		}
	}
	return bestFeature, bestThreshold, bestGain
}

// candidateFeatures returns all feature indices, or a random subset when the
// forest has configured per-split feature sampling.
func (t *Tree) candidateFeatures(numFeatures int) []int {
	all := make([]int, numFeatures)
	for i := range all {
		all[i] = i
	}
	if t.maxFeatures <= 0 || t.maxFeatures >= numFeatures || t.rng == nil {
		return all
	}
	t.rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	subset := all[:t.maxFeatures]
	sort.Ints(subset)
	return subset
}

// splitPoints returns the midpoints between consecutive distinct values.
func splitPoints(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var points []float64
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			points = append(points, (sorted[i]+sorted[i-1])/2)
		}
	}
	return points
}

func meanOf(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	var sum float64
	for _, v := range y {
		sum += v
	}
	return sum / float64(len(y))
}

func sse(y []float64) float64 {
	m := meanOf(y)
	var total float64
	for _, v := range y {
		total += (v - m) * (v - m)
	}
	return total
}

func homogeneous(y []float64) bool {
	for i := 1; i < len(y); i++ {
		if y[i] != y[0] {
			return false
		}
	}
	return true
}
