package train

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duralab/frpdur/internal/model"
	"github.com/duralab/frpdur/internal/record"
	"github.com/duralab/frpdur/internal/testutil"
	"github.com/duralab/frpdur/internal/tune"
)

// syntheticStudies builds raw literature-style records whose retention
// depends linearly on exposure conditions, so any reasonable model family
// should pick up the signal.
func syntheticStudies(n int, seed int64) []record.Record {
	rng := rand.New(rand.NewSource(seed))
	fibers := []string{"Glass", "Basalt", "Carbon"}
	matrices := []string{"Epoxy", "Vinyl ester"}

	records := make([]record.Record, n)
	for i := 0; i < n; i++ {
		hours := rng.Float64() * 2000
		temp := 20 + rng.Float64()*60
		ph := 5 + rng.Float64()*8

		retention := 98 - 0.015*hours - 0.25*(temp-20) - 1.2*(ph-7) + rng.NormFloat64()
		if retention < 5 {
			retention = 5
		}

		records[i] = record.FromMap(map[string]any{
			"Title":                     fmt.Sprintf("study-%03d", i),
			"solution_condition":        ph,
			"time_field":                hours,
			"temperature":               temp,
			"diameter":                  6 + rng.Float64()*10,
			"Fiber_content_weight":      60 + rng.Float64()*20,
			"Fiber_type":                fibers[rng.Intn(len(fibers))],
			"Matrix_type":               matrices[rng.Intn(len(matrices))],
			"surface_treatment":         "Smooth",
			"ultimate_tensile_strength": 900 + rng.Float64()*300,
			"Value1_1":                  900 + rng.Float64()*300,
			"retention1":                retention,
		})
	}
	return records
}

func fastOptions(t *testing.T) Options {
	opts := DefaultOptions()
	opts.Logger = testutil.NewTestLogger(t)
	opts.Tuning = tune.Options{Method: tune.MethodGrid, Folds: 3}
	opts.Spaces = map[string]tune.Space{
		model.FamilyRandomForest:     {"n_estimators": {15}, "max_depth": {6}},
		model.FamilyGradientBoosting: {"n_estimators": {30}, "max_depth": {3}},
	}
	return opts
}

func TestRunEndToEnd(t *testing.T) {
	records := syntheticStudies(400, 1)

	trainer := New(fastOptions(t))
	report, err := trainer.Run(context.Background(), records)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "Tensile strength retention", report.Target)
	assert.Equal(t, 400, report.Rows)
	assert.Equal(t, report.Rows, report.TrainRows+report.ValRows+report.TestRows)

	// All three families plus the voting ensemble.
	require.Len(t, report.Families, 4)
	for _, fr := range report.Families {
		assert.False(t, fr.Failed(), fr.Family)
	}

	best := report.Result(report.Best)
	require.NotNil(t, best)
	assert.Greater(t, best.Test.R2, 0.3)
	require.NotNil(t, report.BestPredictor())
}

func TestRunIsDeterministic(t *testing.T) {
	records := syntheticStudies(250, 2)

	run := func() *Report {
		report, err := New(fastOptions(t)).Run(context.Background(), records)
		require.NoError(t, err)
		return report
	}

	a := run()
	b := run()
	assert.Equal(t, a.Best, b.Best)
	for i := range a.Families {
		assert.Equal(t, a.Families[i].Test, b.Families[i].Test, a.Families[i].Family)
		assert.Equal(t, a.Families[i].CVScores, b.Families[i].CVScores, a.Families[i].Family)
	}
}

func TestRunRecordsFamilyFailures(t *testing.T) {
	records := syntheticStudies(250, 3)

	opts := fastOptions(t)
	opts.Families = []string{"nonexistent", model.FamilyLinear, model.FamilyRandomForest}

	report, err := New(opts).Run(context.Background(), records)
	require.NoError(t, err)

	failed := report.Result("nonexistent")
	require.NotNil(t, failed)
	assert.True(t, failed.Failed())
	assert.Nil(t, report.Predictor("nonexistent"))

	// The two surviving families still form an ensemble.
	require.NotNil(t, report.Result(model.FamilyEnsemble))
	assert.NotEqual(t, "nonexistent", report.Best)
}

func TestRunAllFamiliesFailed(t *testing.T) {
	records := syntheticStudies(200, 4)

	opts := fastOptions(t)
	opts.Families = []string{"bogus"}

	_, err := New(opts).Run(context.Background(), records)
	assert.ErrorContains(t, err, "all model families failed")
}

func TestRunProbesTargetFallbacks(t *testing.T) {
	records := syntheticStudies(200, 5)

	opts := fastOptions(t)
	opts.TargetColumn = "Nonexistent target"
	opts.TargetFallbacks = []string{"Tensile strength retention"}

	report, err := New(opts).Run(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, "Tensile strength retention", report.Target)
}

func TestRenderComparison(t *testing.T) {
	records := syntheticStudies(250, 6)

	report, err := New(fastOptions(t)).Run(context.Background(), records)
	require.NoError(t, err)

	var buf bytes.Buffer
	report.RenderComparison(&buf)
	out := buf.String()
	// go-pretty upper-cases header cells.
	assert.Contains(t, out, "TEST R²")
	assert.Contains(t, out, "best")
	assert.Contains(t, out, model.FamilyEnsemble)

	// The ensemble has no cross-validation run, so its CV cell is a dash
	// rather than a zero that reads like a real score.
	var ensembleLine string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, model.FamilyEnsemble) {
			ensembleLine = line
			break
		}
	}
	require.NotEmpty(t, ensembleLine)
	assert.Contains(t, ensembleLine, " - ")

	assert.Contains(t, report.Summary(), report.RunID)
}
