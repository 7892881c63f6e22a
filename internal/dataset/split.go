package dataset

import (
	"fmt"
	"math"
	"math/rand"
)

// Split holds the three disjoint, exhaustive subsets of a modeling dataset.
// Membership is assigned once from the seed and never changes.
type Split struct {
	Train      *Dataset
	Validation *Dataset
	Test       *Dataset

	TrainIdx      []int
	ValidationIdx []int
	TestIdx       []int
}

// Partition splits the dataset using a two-stage seeded shuffle: the test
// fraction is carved from the whole first, then the validation fraction is
// carved from the remainder with the adjusted ratio val/(1-test). Both
// stages use the same seed, so the assignment is reproducible bit for bit
// given the same dataset ordering.
func Partition(d *Dataset, testFraction, valFraction float64, seed int64) (*Split, error) {
	n := d.Len()
	if n == 0 {
		return nil, fmt.Errorf("cannot partition an empty dataset")
	}
	if testFraction < 0 || valFraction < 0 || testFraction+valFraction >= 1 {
		return nil, fmt.Errorf("invalid split fractions: test=%v validation=%v", testFraction, valFraction)
	}

	// Stage one: carve out the test subset.
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(math.Round(testFraction * float64(n)))
	testIdx := append([]int(nil), perm[:nTest]...)
	remainder := append([]int(nil), perm[nTest:]...)

	// Stage two: carve the validation subset out of the remainder.
	adjusted := valFraction / (1 - testFraction)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(remainder), func(i, j int) {
		remainder[i], remainder[j] = remainder[j], remainder[i]
	})
	nVal := int(math.Round(adjusted * float64(len(remainder))))
	valIdx := append([]int(nil), remainder[:nVal]...)
	trainIdx := append([]int(nil), remainder[nVal:]...)

	return &Split{
		Train:         d.Subset(trainIdx),
		Validation:    d.Subset(valIdx),
		Test:          d.Subset(testIdx),
		TrainIdx:      trainIdx,
		ValidationIdx: valIdx,
		TestIdx:       testIdx,
	}, nil
}
