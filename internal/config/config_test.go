package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duralab/frpdur/internal/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frpdur.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, DefaultTargetColumn, cfg.Training.TargetColumn)
	assert.Equal(t, []string{"Tensile_strength_retention", "retention1"}, cfg.Training.TargetFallbacks)
	assert.Equal(t, 0.1, cfg.Training.TestFraction)
	assert.Equal(t, 0.2, cfg.Training.ValidationFraction)
	assert.Equal(t, int64(42), cfg.Training.Seed)
	assert.True(t, cfg.Training.Tuning.Enabled)
	assert.Equal(t, 100, cfg.Training.Retention.MinRows)
	assert.Equal(t, 50, cfg.Training.Retention.StrictMinRows)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
store_path: artifacts.db
training:
  seed: 7
  families: [linear, random_forest]
  tuning:
    method: random
    iterations: 8
  search_spaces:
    random_forest:
      n_estimators: [50, 100]
      max_depth: [4, 8]
materials:
  fiber_densities:
    Aramid: 1.44
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(7), cfg.Training.Seed)
	assert.Equal(t, []string{"linear", "random_forest"}, cfg.Training.Families)
	assert.Equal(t, "random", cfg.Training.Tuning.Method)
	assert.Equal(t, 8, cfg.Training.Tuning.Iterations)
	assert.Equal(t, []float64{50, 100}, cfg.Training.Spaces["random_forest"]["n_estimators"])

	// Relative store path anchors at the config file directory.
	assert.Equal(t, filepath.Join(filepath.Dir(path), "artifacts.db"), cfg.StorePath)

	m := cfg.FeatureMaterials()
	assert.Equal(t, 1.44, m.FiberDensities["Aramid"])
	assert.Equal(t, 2.55, m.FiberDensities["Glass"])
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load("/nonexistent/frpdur.yaml", nil)
	assert.ErrorContains(t, err, "not found")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FRPDUR_STORE_PATH", "/tmp/env.db")
	t.Setenv("FRPDUR_TRAINING__SEED", "99")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.StorePath)
	assert.Equal(t, int64(99), cfg.Training.Seed)
}

func TestFlagOverrides(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int64("seed", 0, "")
	flags.String("store", "", "")
	flags.Bool("no-tuning", false, "")
	require.NoError(t, flags.Parse([]string{"--seed=123", "--store=/tmp/flag.db", "--no-tuning"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, int64(123), cfg.Training.Seed)
	assert.Equal(t, "/tmp/flag.db", cfg.StorePath)
	assert.False(t, cfg.Training.Tuning.Enabled)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad output", func(c *Config) { c.Output = "xml" }, "invalid output format"},
		{"bad fractions", func(c *Config) { c.Training.TestFraction = 0.7; c.Training.ValidationFraction = 0.4 }, "split fractions"},
		{"bad method", func(c *Config) { c.Training.Tuning.Method = "bayesian" }, "tuning method"},
		{"bad family", func(c *Config) { c.Training.Families = []string{"svm"} }, "unknown model family"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load("", nil)
			require.NoError(t, err)
			tc.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.want)
		})
	}
}

func TestTrainOptionsTuningDisabled(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	cfg.Training.Tuning.Enabled = false

	opts := cfg.TrainOptions(nil)
	assert.NotNil(t, opts.Spaces)
	assert.Empty(t, opts.Spaces)
	assert.Equal(t, int64(42), opts.Seed)
}

func TestTrainOptionsCustomSpaces(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	cfg.Training.Spaces = map[string]map[string][]float64{
		model.FamilyRandomForest: {"max_depth": {3, 6}},
	}

	opts := cfg.TrainOptions(nil)
	require.Contains(t, opts.Spaces, model.FamilyRandomForest)
	assert.Equal(t, []float64{3, 6}, []float64(opts.Spaces[model.FamilyRandomForest]["max_depth"]))
}
