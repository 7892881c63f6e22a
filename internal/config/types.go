// Package config provides the configuration surface for the durability
// pipeline: data source, training run parameters, search spaces, material
// densities, and the artifact store location.
package config

import (
	"fmt"
	"log/slog"

	"github.com/duralab/frpdur/internal/dataset"
	"github.com/duralab/frpdur/internal/feature"
	"github.com/duralab/frpdur/internal/model"
	"github.com/duralab/frpdur/internal/train"
	"github.com/duralab/frpdur/internal/tune"
)

// Config is the fully resolved application configuration.
type Config struct {
	// ProjectRoot anchors relative paths. Set by the loader, not the file.
	ProjectRoot string `koanf:"-"`

	Verbose   bool   `koanf:"verbose"`
	Output    string `koanf:"output"` // table or json
	StorePath string `koanf:"store_path"`

	Data      DataConfig      `koanf:"data"`
	Training  TrainingConfig  `koanf:"training"`
	Materials MaterialsConfig `koanf:"materials"`
}

// DataConfig locates the raw records.
type DataConfig struct {
	// Path is a CSV or Parquet file.
	Path string `koanf:"path"`
	// Query optionally replaces the plain file scan with a DuckDB SELECT.
	Query string `koanf:"query"`
}

// TrainingConfig drives a training run.
type TrainingConfig struct {
	TargetColumn       string   `koanf:"target_column"`
	TargetFallbacks    []string `koanf:"target_fallbacks"`
	TestFraction       float64  `koanf:"test_fraction"`
	ValidationFraction float64  `koanf:"validation_fraction"`
	Seed               int64    `koanf:"seed"`
	Families           []string `koanf:"families"`

	Tuning    TuningConfig                    `koanf:"tuning"`
	Retention RetentionConfig                 `koanf:"retention"`
	Spaces    map[string]map[string][]float64 `koanf:"search_spaces"`
}

// TuningConfig controls hyperparameter search.
type TuningConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Method      string `koanf:"method"` // grid or random
	Folds       int    `koanf:"folds"`
	Iterations  int    `koanf:"iterations"`
	Parallelism int    `koanf:"parallelism"`
}

// RetentionConfig holds the row-retention relaxation thresholds.
type RetentionConfig struct {
	MinRows       int `koanf:"min_rows"`
	StrictMinRows int `koanf:"strict_min_rows"`
}

// MaterialsConfig overrides the built-in density tables.
type MaterialsConfig struct {
	FiberDensities       map[string]float64 `koanf:"fiber_densities"`
	MatrixDensities      map[string]float64 `koanf:"matrix_densities"`
	DefaultFiberDensity  float64            `koanf:"default_fiber_density"`
	DefaultMatrixDensity float64            `koanf:"default_matrix_density"`
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if c.Output != "" && c.Output != "table" && c.Output != "json" {
		return fmt.Errorf("invalid output format %q (expected table or json)", c.Output)
	}
	t := c.Training
	if t.TestFraction < 0 || t.ValidationFraction < 0 || t.TestFraction+t.ValidationFraction >= 1 {
		return fmt.Errorf("invalid split fractions: test %v + validation %v must be in [0, 1)",
			t.TestFraction, t.ValidationFraction)
	}
	if m := t.Tuning.Method; m != "" && m != tune.MethodGrid && m != tune.MethodRandom {
		return fmt.Errorf("invalid tuning method %q (expected grid or random)", m)
	}
	for _, family := range t.Families {
		switch family {
		case model.FamilyLinear, model.FamilyRandomForest, model.FamilyGradientBoosting:
		default:
			return fmt.Errorf("unknown model family %q", family)
		}
	}
	return nil
}

// TrainOptions converts the configuration into trainer options. With tuning
// disabled every family trains on its default hyperparameters.
func (c *Config) TrainOptions(logger *slog.Logger) train.Options {
	t := c.Training

	spaces := map[string]tune.Space{}
	if t.Tuning.Enabled {
		if t.Spaces == nil {
			spaces = train.DefaultOptions().Spaces
		} else {
			for family, knobs := range t.Spaces {
				spaces[family] = tune.Space(knobs)
			}
		}
	}

	return train.Options{
		TargetColumn:       t.TargetColumn,
		TargetFallbacks:    t.TargetFallbacks,
		TestFraction:       t.TestFraction,
		ValidationFraction: t.ValidationFraction,
		Seed:               t.Seed,
		Families:           t.Families,
		Spaces:             spaces,
		Tuning: tune.Options{
			Method:      t.Tuning.Method,
			Folds:       t.Tuning.Folds,
			Iterations:  t.Tuning.Iterations,
			Parallelism: t.Tuning.Parallelism,
		},
		Assembly: dataset.AssembleOptions{
			MinRows:       t.Retention.MinRows,
			StrictMinRows: t.Retention.StrictMinRows,
		},
		Materials: c.FeatureMaterials(),
		Logger:    logger,
	}
}

// FeatureMaterials merges the configured density overrides over the
// built-in tables.
func (c *Config) FeatureMaterials() feature.Materials {
	m := feature.DefaultMaterials()
	for name, density := range c.Materials.FiberDensities {
		m.FiberDensities[name] = density
	}
	for name, density := range c.Materials.MatrixDensities {
		m.MatrixDensities[name] = density
	}
	if c.Materials.DefaultFiberDensity > 0 {
		m.DefaultFiberDensity = c.Materials.DefaultFiberDensity
	}
	if c.Materials.DefaultMatrixDensity > 0 {
		m.DefaultMatrixDensity = c.Materials.DefaultMatrixDensity
	}
	return m
}
