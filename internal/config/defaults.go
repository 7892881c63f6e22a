package config

// Default configuration values.
const (
	DefaultConfigFile    = "frpdur.yaml"
	DefaultConfigFileAlt = "frpdur.yml"
	DefaultStorePath     = "frpdur.db"
	DefaultOutput        = "table"
	DefaultTargetColumn  = "Tensile strength retention"
	DefaultSeed          = 42
)

// defaultsMap is the lowest-priority configuration layer.
func defaultsMap() map[string]interface{} {
	return map[string]interface{}{
		"verbose":    false,
		"output":     DefaultOutput,
		"store_path": DefaultStorePath,

		"training.target_column":       DefaultTargetColumn,
		"training.target_fallbacks":    []string{"Tensile_strength_retention", "retention1"},
		"training.test_fraction":       0.1,
		"training.validation_fraction": 0.2,
		"training.seed":                int64(DefaultSeed),
		"training.families":            []string{"linear", "random_forest", "gradient_boosting"},

		"training.tuning.enabled":    true,
		"training.tuning.method":     "grid",
		"training.tuning.folds":      5,
		"training.tuning.iterations": 20,

		"training.retention.min_rows":        100,
		"training.retention.strict_min_rows": 50,
	}
}
