package tune

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/duralab/frpdur/internal/model"
)

// Search methods.
const (
	MethodGrid   = "grid"
	MethodRandom = "random"
)

// worstScore is the finite floor for degenerate fold scores. Small enough to
// lose every comparison, large enough that a per-run mean cannot overflow.
const worstScore = -1e18

// Options configures one hyperparameter search.
type Options struct {
	// Method is grid or random.
	Method string
	// Folds is the number of cross-validation folds.
	Folds int
	// Iterations bounds the candidate count for random search.
	Iterations int
	// Seed drives fold assignment, candidate sampling, and model fits.
	Seed int64
	// Parallelism caps concurrent candidate evaluations. Zero means
	// GOMAXPROCS.
	Parallelism int
	Logger      *slog.Logger
}

func (o *Options) normalize() {
	if o.Method == "" {
		o.Method = MethodGrid
	}
	if o.Folds < 2 {
		o.Folds = 5
	}
	if o.Iterations <= 0 {
		o.Iterations = 20
	}
	if o.Parallelism <= 0 {
		o.Parallelism = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}

// Result is the winning candidate of one family's search.
type Result struct {
	Family   string       `json:"family"`
	Params   model.Params `json:"params"`
	CVScores []float64    `json:"cv_scores"`
	MeanCV   float64      `json:"mean_cv"`
	// Evaluated counts the candidates scored, including failed fits.
	Evaluated int `json:"evaluated"`
}

type scored struct {
	index  int
	params model.Params
	scores []float64
	mean   float64
	ok     bool
}

// Search cross-validates every candidate of the space on the training data
// and returns the candidate with the best mean fold R². Ties go to the
// earlier candidate in enumeration order. Candidates whose fits fail are
// skipped; the search only errors when no candidate fits at all.
func Search(ctx context.Context, family string, space Space, columns []string, X [][]float64, y []float64, opts Options) (Result, error) {
	opts.normalize()

	if len(y) < opts.Folds {
		return Result{}, fmt.Errorf("need at least %d rows for %d-fold cross-validation, got %d", opts.Folds, opts.Folds, len(y))
	}

	var candidates []model.Params
	switch opts.Method {
	case MethodGrid:
		candidates = space.Grid()
	case MethodRandom:
		if space.Size() <= opts.Iterations {
			candidates = space.Grid()
		} else {
			rng := rand.New(rand.NewSource(opts.Seed))
			candidates = space.Sample(rng, opts.Iterations)
		}
	default:
		return Result{}, fmt.Errorf("unknown search method %q", opts.Method)
	}

	opts.Logger.Debug("starting hyperparameter search",
		"family", family,
		"method", opts.Method,
		"candidates", len(candidates),
		"folds", opts.Folds)

	folds := foldAssignments(len(y), opts.Folds, opts.Seed)

	results := make([]scored, len(candidates))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallelism)

	for i, params := range candidates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			// Candidate seed is positional so concurrency cannot change
			// the outcome.
			seed := opts.Seed + int64(i)*1000
			scores, err := crossValidate(family, params, columns, X, y, folds, opts.Folds, seed)
			if err != nil {
				opts.Logger.Warn("candidate failed cross-validation",
					"family", family, "candidate", i, "error", err)
				results[i] = scored{index: i, params: params}
				return nil
			}
			results[i] = scored{index: i, params: params, scores: scores, mean: meanScore(scores), ok: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	best := -1
	for i, r := range results {
		if !r.ok {
			continue
		}
		if best == -1 || r.mean > results[best].mean {
			best = i
		}
	}
	if best == -1 {
		return Result{}, fmt.Errorf("no %s candidate survived cross-validation", family)
	}

	win := results[best]
	opts.Logger.Info("search complete",
		"family", family,
		"mean_cv_r2", win.mean,
		"params", map[string]float64(win.params))

	return Result{
		Family:    family,
		Params:    win.params.Clone(),
		CVScores:  win.scores,
		MeanCV:    win.mean,
		Evaluated: len(candidates),
	}, nil
}

// crossValidate fits one candidate on each fold's training portion and
// scores R² on the held-out portion.
func crossValidate(family string, params model.Params, columns []string, X [][]float64, y []float64, folds []int, k int, seed int64) ([]float64, error) {
	scores := make([]float64, 0, k)
	for fold := 0; fold < k; fold++ {
		var trainX, testX [][]float64
		var trainY, testY []float64
		for i, f := range folds {
			if f == fold {
				testX = append(testX, X[i])
				testY = append(testY, y[i])
			} else {
				trainX = append(trainX, X[i])
				trainY = append(trainY, y[i])
			}
		}
		if len(testY) == 0 || len(trainY) == 0 {
			continue
		}

		p, err := model.NewPipeline(family, params, columns, seed+int64(fold))
		if err != nil {
			return nil, err
		}
		if err := p.Fit(trainX, trainY); err != nil {
			return nil, fmt.Errorf("fold %d: %w", fold, err)
		}
		preds, err := p.PredictBatch(testX)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", fold, err)
		}
		r2, err := model.R2Score(testY, preds)
		if err != nil {
			return nil, err
		}
		// A constant-target fold scores -inf. Clamp it to a finite floor so
		// means stay computable and recorded scores stay serializable; the
		// floor still loses to any real score.
		if math.IsInf(r2, -1) {
			r2 = worstScore
		}
		scores = append(scores, r2)
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("no folds produced a score")
	}
	return scores, nil
}

// foldAssignments maps each row index to a fold, balanced and shuffled by
// the seed.
func foldAssignments(n, k int, seed int64) []int {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	folds := make([]int, n)
	for i, idx := range perm {
		folds[idx] = i % k
	}
	return folds
}

func meanScore(scores []float64) float64 {
	if len(scores) == 0 {
		return math.Inf(-1)
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
