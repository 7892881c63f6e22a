package dataset

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/duralab/frpdur/internal/feature"
)

// RetentionTier records which row-retention rule produced the final dataset.
type RetentionTier int

const (
	// TierDropEmpty keeps every row that is not entirely empty.
	TierDropEmpty RetentionTier = iota
	// TierTargetPresent keeps rows with a non-missing target value.
	TierTargetPresent
	// TierTargetOnly keeps rows with a non-missing target regardless of
	// feature completeness.
	TierTargetOnly
)

func (t RetentionTier) String() string {
	switch t {
	case TierDropEmpty:
		return "drop-empty"
	case TierTargetPresent:
		return "target-present"
	case TierTargetOnly:
		return "target-only"
	default:
		return "tier(" + strconv.Itoa(int(t)) + ")"
	}
}

// AssembleOptions configures row retention. The thresholds are tuning knobs,
// not invariants; the defaults match the source database pipeline.
type AssembleOptions struct {
	// MinRows is the viable row count below which retention relaxes to
	// target-present filtering.
	MinRows int
	// StrictMinRows is the smaller threshold below which retention relaxes
	// further to target-only filtering.
	StrictMinRows int
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// DefaultAssembleOptions returns the retention thresholds used by the source
// pipeline.
func DefaultAssembleOptions() AssembleOptions {
	return AssembleOptions{MinRows: 100, StrictMinRows: 50}
}

// Result bundles the assembled dataset with retention diagnostics.
type Result struct {
	Dataset      *Dataset
	Tier         RetentionTier
	DroppedEmpty int
}

// Assemble selects the canonical modeling columns from the derived vectors
// and applies the lenient-then-strict row retention policy. The relaxation
// is deterministic and the tier used is reported. An empty dataset after all
// tiers is a structural failure.
func Assemble(vectors []*feature.Vector, opts AssembleOptions) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.MinRows <= 0 {
		opts.MinRows = DefaultAssembleOptions().MinRows
	}
	if opts.StrictMinRows <= 0 {
		opts.StrictMinRows = DefaultAssembleOptions().StrictMinRows
	}

	full := tabulate(vectors)
	targetCol := full.ColumnIndex(feature.ColRetention)

	// Tier 1: drop only rows that are entirely empty.
	kept := make([]int, 0, full.Len())
	for i, row := range full.Rows {
		if !allMissing(row) {
			kept = append(kept, i)
		}
	}
	result := &Result{
		Dataset:      full.Subset(kept),
		Tier:         TierDropEmpty,
		DroppedEmpty: full.Len() - len(kept),
	}
	logger.Debug("assembled dataset",
		"rows", result.Dataset.Len(),
		"dropped_empty", result.DroppedEmpty)

	// Tier 2: too few rows, keep anything with a target value.
	if result.Dataset.Len() < opts.MinRows {
		result.Dataset = full.DropMissingTarget(targetCol)
		result.Tier = TierTargetPresent
		logger.Info("row count below viable minimum, relaxing retention",
			"tier", result.Tier.String(),
			"min_rows", opts.MinRows,
			"rows", result.Dataset.Len())
	}

	// Tier 3: still too few, keep every row with a target regardless of
	// feature completeness.
	if result.Tier == TierTargetPresent && result.Dataset.Len() < opts.StrictMinRows {
		result.Dataset = full.DropMissingTarget(targetCol)
		result.Tier = TierTargetOnly
		logger.Info("row count still below strict minimum, keeping all target rows",
			"tier", result.Tier.String(),
			"strict_min_rows", opts.StrictMinRows,
			"rows", result.Dataset.Len())
	}

	if result.Dataset.Len() == 0 {
		return nil, fmt.Errorf("dataset empty after all retention tiers (%d input rows)", len(vectors))
	}
	return result, nil
}

// tabulate lays the canonical columns out as a table. The Title column
// becomes the row identifier; missing titles fall back to the row index.
func tabulate(vectors []*feature.Vector) *Dataset {
	cols := make([]string, 0, len(feature.ModelColumns)-1)
	for _, c := range feature.ModelColumns {
		if c != feature.ColTitle {
			cols = append(cols, c)
		}
	}

	d := &Dataset{
		Columns: cols,
		IDs:     make([]string, 0, len(vectors)),
		Rows:    make([][]float64, 0, len(vectors)),
	}
	for i, v := range vectors {
		id := v.Title
		if id == "" {
			id = strconv.Itoa(i)
		}
		row := make([]float64, len(cols))
		for j, c := range cols {
			if f, ok := v.Get(c).Number(); ok {
				row[j] = f
			} else {
				row[j] = math.NaN()
			}
		}
		d.IDs = append(d.IDs, id)
		d.Rows = append(d.Rows, row)
	}
	return d
}

func allMissing(row []float64) bool {
	for _, v := range row {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}
