// Package train orchestrates the full modeling run: feature derivation,
// dataset assembly, partitioning, per-family hyperparameter search, final
// refits, ensemble construction, and champion selection.
package train

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/duralab/frpdur/internal/dataset"
	"github.com/duralab/frpdur/internal/feature"
	"github.com/duralab/frpdur/internal/model"
	"github.com/duralab/frpdur/internal/record"
	"github.com/duralab/frpdur/internal/tune"
)

// Options configures a training run.
type Options struct {
	// TargetColumn is the primary name of the target; TargetFallbacks are
	// probed in order when it is absent.
	TargetColumn    string
	TargetFallbacks []string

	// TestFraction and ValidationFraction carve up the dataset. The
	// remainder trains.
	TestFraction       float64
	ValidationFraction float64
	Seed               int64

	// Families lists the model families to train, in tie-break order.
	Families []string
	// Spaces holds the per-family search space. A family without an entry
	// trains on its defaults.
	Spaces map[string]tune.Space

	Tuning   tune.Options
	Assembly dataset.AssembleOptions
	// Materials overrides the density tables used by fiber content
	// derivation. Zero value selects the built-in tables.
	Materials feature.Materials
	Logger    *slog.Logger
}

// DefaultOptions returns the standard run configuration.
func DefaultOptions() Options {
	return Options{
		TargetColumn: feature.ColRetention,
		TargetFallbacks: []string{
			"Tensile_strength_retention",
			"retention1",
		},
		TestFraction:       0.1,
		ValidationFraction: 0.2,
		Seed:               42,
		Families:           append([]string(nil), model.Families...),
		Spaces: map[string]tune.Space{
			model.FamilyRandomForest: {
				"n_estimators":      {100, 200, 300},
				"max_depth":         {4, 6, 8},
				"min_samples_split": {2, 5},
			},
			model.FamilyGradientBoosting: {
				"n_estimators":  {100, 200},
				"max_depth":     {3, 4, 6},
				"learning_rate": {0.05, 0.1},
				"subsample":     {0.8, 1.0},
			},
		},
		Tuning:   tune.Options{Method: tune.MethodGrid, Folds: 5},
		Assembly: dataset.DefaultAssembleOptions(),
	}
}

// FamilyResult is the outcome of one family's search and refit. A family
// that failed carries Err and nothing else.
type FamilyResult struct {
	Family     string        `json:"family"`
	Params     model.Params  `json:"params,omitempty"`
	CVScores   []float64     `json:"cv_scores,omitempty"`
	MeanCV     float64       `json:"mean_cv"`
	Validation model.Metrics `json:"validation"`
	Test       model.Metrics `json:"test"`
	Err        string        `json:"error,omitempty"`

	pipeline *model.Pipeline
}

// Failed reports whether the family produced no usable model.
func (r *FamilyResult) Failed() bool { return r.Err != "" }

// Report is the full outcome of a training run.
type Report struct {
	RunID       string         `json:"run_id"`
	StartedAt   time.Time      `json:"started_at"`
	Duration    time.Duration  `json:"duration"`
	Target      string         `json:"target"`
	Tier        string         `json:"retention_tier"`
	Rows        int            `json:"rows"`
	TrainRows   int            `json:"train_rows"`
	ValRows     int            `json:"validation_rows"`
	TestRows    int            `json:"test_rows"`
	FeatureCols []string       `json:"feature_columns"`
	Families    []FamilyResult `json:"families"`
	// Best names the champion: the family (or ensemble) with the highest
	// test R². Earlier families win ties.
	Best string `json:"best"`

	predictors map[string]model.Predictor
}

// Predictor returns the fitted predictor for a family name from the report,
// or nil when the family failed.
func (r *Report) Predictor(name string) model.Predictor {
	return r.predictors[name]
}

// BestPredictor returns the champion predictor.
func (r *Report) BestPredictor() model.Predictor {
	return r.predictors[r.Best]
}

// Result looks up the family result by name.
func (r *Report) Result(name string) *FamilyResult {
	for i := range r.Families {
		if r.Families[i].Family == name {
			return &r.Families[i]
		}
	}
	return nil
}

// Trainer runs the training pipeline over raw records.
type Trainer struct {
	opts   Options
	engine *feature.Engine
	logger *slog.Logger
}

// New creates a trainer. Zero-valued options fall back to DefaultOptions
// field by field.
func New(opts Options) *Trainer {
	def := DefaultOptions()
	if opts.TargetColumn == "" {
		opts.TargetColumn = def.TargetColumn
		if opts.TargetFallbacks == nil {
			opts.TargetFallbacks = def.TargetFallbacks
		}
	}
	if opts.TestFraction <= 0 {
		opts.TestFraction = def.TestFraction
	}
	if opts.ValidationFraction <= 0 {
		opts.ValidationFraction = def.ValidationFraction
	}
	if opts.Seed == 0 {
		opts.Seed = def.Seed
	}
	if len(opts.Families) == 0 {
		opts.Families = def.Families
	}
	if opts.Spaces == nil {
		opts.Spaces = def.Spaces
	}
	if opts.Tuning.Method == "" {
		opts.Tuning = def.Tuning
	}
	if opts.Assembly.MinRows == 0 {
		opts.Assembly = def.Assembly
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Trainer{
		opts:   opts,
		engine: feature.NewEngine(feature.Config{Materials: opts.Materials, Logger: opts.Logger}),
		logger: opts.Logger,
	}
}

// Run executes the full pipeline on raw records and returns the report.
// Individual family failures are recorded, not fatal; Run errors only when
// no family produces a model.
func (t *Trainer) Run(ctx context.Context, records []record.Record) (*Report, error) {
	started := time.Now()

	vectors := t.engine.DeriveAll(records)
	t.logger.Info("derived feature vectors", "records", len(records))

	asm := t.opts.Assembly
	asm.Logger = t.logger
	assembled, err := dataset.Assemble(vectors, asm)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble dataset: %w", err)
	}

	targetCol, err := assembled.Dataset.ResolveTarget(t.opts.TargetColumn, t.opts.TargetFallbacks)
	if err != nil {
		return nil, err
	}
	targetName := assembled.Dataset.Columns[targetCol]
	ds := assembled.Dataset.DropMissingTarget(targetCol)
	if ds.Len() == 0 {
		return nil, fmt.Errorf("no rows carry target %q", targetName)
	}

	split, err := dataset.Partition(ds, t.opts.TestFraction, t.opts.ValidationFraction, t.opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to partition dataset: %w", err)
	}
	t.logger.Info("partitioned dataset",
		"rows", ds.Len(),
		"train", split.Train.Len(),
		"validation", split.Validation.Len(),
		"test", split.Test.Len(),
		"tier", assembled.Tier.String())

	trainX, trainY, cols := split.Train.Features(targetCol)
	valX, valY, _ := split.Validation.Features(targetCol)
	testX, testY, _ := split.Test.Features(targetCol)

	refitX := append(append([][]float64{}, trainX...), valX...)
	refitY := append(append([]float64{}, trainY...), valY...)

	report := &Report{
		RunID:       uuid.NewString(),
		StartedAt:   started,
		Target:      targetName,
		Tier:        assembled.Tier.String(),
		Rows:        ds.Len(),
		TrainRows:   split.Train.Len(),
		ValRows:     split.Validation.Len(),
		TestRows:    split.Test.Len(),
		FeatureCols: cols,
		predictors:  map[string]model.Predictor{},
	}

	tuning := t.opts.Tuning
	tuning.Seed = t.opts.Seed
	tuning.Logger = t.logger

	var fitted []*model.Pipeline
	for _, family := range t.opts.Families {
		res := t.trainFamily(ctx, family, cols, trainX, trainY, refitX, refitY, valX, valY, testX, testY, tuning)
		if res.Failed() {
			t.logger.Warn("family failed", "family", family, "error", res.Err)
		} else {
			fitted = append(fitted, res.pipeline)
			report.predictors[family] = res.pipeline
		}
		report.Families = append(report.Families, res)
	}

	if len(fitted) >= 2 {
		res := t.trainEnsemble(fitted, valX, valY, testX, testY)
		if !res.Failed() {
			report.predictors[model.FamilyEnsemble] = res.pipelinePredictor
		}
		report.Families = append(report.Families, res.FamilyResult)
	}

	report.Best = pickBest(report.Families)
	if report.Best == "" {
		return nil, fmt.Errorf("all model families failed")
	}
	report.Duration = time.Since(started)
	t.logger.Info("training complete",
		"run_id", report.RunID,
		"best", report.Best,
		"test_r2", report.Result(report.Best).Test.R2,
		"duration", report.Duration)
	return report, nil
}

func (t *Trainer) trainFamily(ctx context.Context, family string, cols []string, trainX [][]float64, trainY []float64, refitX [][]float64, refitY []float64, valX [][]float64, valY []float64, testX [][]float64, testY []float64, tuning tune.Options) FamilyResult {
	fail := func(err error) FamilyResult {
		return FamilyResult{Family: family, Err: err.Error()}
	}

	space := t.opts.Spaces[family]
	search, err := tune.Search(ctx, family, space, cols, trainX, trainY, tuning)
	if err != nil {
		return fail(err)
	}

	// Final fit uses train plus validation. The validation metrics come
	// from a train-only fit so they stay honest.
	valPipe, err := model.NewPipeline(family, search.Params, cols, t.opts.Seed)
	if err != nil {
		return fail(err)
	}
	if err := valPipe.Fit(trainX, trainY); err != nil {
		return fail(fmt.Errorf("failed to fit %s on training split: %w", family, err))
	}
	valPreds, err := valPipe.PredictBatch(valX)
	if err != nil {
		return fail(err)
	}
	valMetrics, err := model.Evaluate(valY, valPreds)
	if err != nil {
		return fail(err)
	}

	final, err := model.NewPipeline(family, search.Params, cols, t.opts.Seed)
	if err != nil {
		return fail(err)
	}
	if err := final.Fit(refitX, refitY); err != nil {
		return fail(fmt.Errorf("failed to refit %s: %w", family, err))
	}
	testPreds, err := final.PredictBatch(testX)
	if err != nil {
		return fail(err)
	}
	testMetrics, err := model.Evaluate(testY, testPreds)
	if err != nil {
		return fail(err)
	}

	return FamilyResult{
		Family:     family,
		Params:     search.Params,
		CVScores:   search.CVScores,
		MeanCV:     search.MeanCV,
		Validation: valMetrics,
		Test:       testMetrics,
		pipeline:   final,
	}
}

type ensembleResult struct {
	FamilyResult
	pipelinePredictor model.Predictor
}

func (t *Trainer) trainEnsemble(members []*model.Pipeline, valX [][]float64, valY []float64, testX [][]float64, testY []float64) ensembleResult {
	fail := func(err error) ensembleResult {
		return ensembleResult{FamilyResult: FamilyResult{Family: model.FamilyEnsemble, Err: err.Error()}}
	}

	ens, err := model.NewEnsemble(members)
	if err != nil {
		return fail(err)
	}
	valPreds, err := ens.PredictBatch(valX)
	if err != nil {
		return fail(err)
	}
	valMetrics, err := model.Evaluate(valY, valPreds)
	if err != nil {
		return fail(err)
	}
	testPreds, err := ens.PredictBatch(testX)
	if err != nil {
		return fail(err)
	}
	testMetrics, err := model.Evaluate(testY, testPreds)
	if err != nil {
		return fail(err)
	}
	return ensembleResult{
		FamilyResult: FamilyResult{
			Family:     model.FamilyEnsemble,
			Validation: valMetrics,
			Test:       testMetrics,
		},
		pipelinePredictor: ens,
	}
}

// pickBest returns the family with the highest test R². The first family in
// report order wins ties, which keeps champion selection stable.
func pickBest(results []FamilyResult) string {
	best := ""
	bestR2 := 0.0
	for _, r := range results {
		if r.Failed() {
			continue
		}
		if best == "" || r.Test.R2 > bestR2 {
			best = r.Family
			bestR2 = r.Test.R2
		}
	}
	return best
}
