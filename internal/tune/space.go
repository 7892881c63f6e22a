// Package tune implements hyperparameter search: declarative search spaces,
// grid and random candidate generation, and k-fold cross-validated scoring.
package tune

import (
	"math/rand"
	"sort"

	"github.com/duralab/frpdur/internal/model"
)

// Space declares the candidate values for each tunable knob of one model
// family. An empty space means the family trains with its defaults.
type Space map[string][]float64

// names returns the knob names in sorted order so candidate enumeration is
// stable across runs.
func (s Space) names() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Grid expands the space into the full cartesian product of knob values.
// Candidates come out in a deterministic order: the last sorted knob varies
// fastest. An empty space yields a single empty candidate.
func (s Space) Grid() []model.Params {
	names := s.names()
	if len(names) == 0 {
		return []model.Params{{}}
	}

	out := []model.Params{{}}
	for _, name := range names {
		values := s[name]
		next := make([]model.Params, 0, len(out)*len(values))
		for _, base := range out {
			for _, v := range values {
				p := base.Clone()
				p[name] = v
				next = append(next, p)
			}
		}
		out = next
	}
	return out
}

// Sample draws n candidates uniformly from the space, one value per knob.
// Duplicates are possible, matching randomized search semantics.
func (s Space) Sample(rng *rand.Rand, n int) []model.Params {
	names := s.names()
	if len(names) == 0 || n <= 0 {
		return []model.Params{{}}
	}

	out := make([]model.Params, n)
	for i := 0; i < n; i++ {
		p := make(model.Params, len(names))
		for _, name := range names {
			values := s[name]
			p[name] = values[rng.Intn(len(values))]
		}
		out[i] = p
	}
	return out
}

// Size returns the number of grid candidates without materializing them.
func (s Space) Size() int {
	size := 1
	for _, values := range s {
		size *= len(values)
	}
	return size
}
