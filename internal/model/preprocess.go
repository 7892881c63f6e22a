package model

import (
	"fmt"
	"math"
	"sort"
)

// Transform kinds recorded in the artifact so that inference can replay the
// exact preprocessing without introspecting the fitted model.
const (
	TransformImputeMedian = "impute_median"
	TransformImputeZero   = "impute_zero"
	TransformStandardize  = "standardize"
)

// Transform is one fitted, column-scoped preprocessing step.
type Transform struct {
	Column string    `json:"column"`
	Kind   string    `json:"kind"`
	Stats  []float64 `json:"stats"` // median for imputes, mean/std for standardize
}

// Preprocessor imputes missing cells and standardizes continuous columns.
// Binary flag columns are imputed to zero and left unscaled. The fitted
// state serializes as an ordered transform list.
type Preprocessor struct {
	Columns    []string    `json:"columns"`
	Transforms []Transform `json:"transforms"`

	binary  []bool
	medians []float64
	means   []float64
	stds    []float64
}

// NewPreprocessor creates an unfitted preprocessor for the named columns.
func NewPreprocessor(columns []string) *Preprocessor {
	return &Preprocessor{Columns: append([]string(nil), columns...)}
}

// Fit learns imputation and scaling statistics from X. Cells may be NaN.
func (p *Preprocessor) Fit(X [][]float64) error {
	if len(X) == 0 {
		return fmt.Errorf("cannot fit preprocessor on empty data")
	}
	width := len(p.Columns)
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("row %d has %d columns, expected %d", i, len(row), width)
		}
	}

	p.binary = make([]bool, width)
	p.medians = make([]float64, width)
	p.means = make([]float64, width)
	p.stds = make([]float64, width)
	p.Transforms = p.Transforms[:0]

	for j := 0; j < width; j++ {
		col := make([]float64, 0, len(X))
		binary := true
		for _, row := range X {
			v := row[j]
			if math.IsNaN(v) {
				continue
			}
			if v != 0 && v != 1 {
				binary = false
			}
			col = append(col, v)
		}
		p.binary[j] = binary && len(col) > 0

		if p.binary[j] {
			p.Transforms = append(p.Transforms, Transform{
				Column: p.Columns[j], Kind: TransformImputeZero,
			})
			continue
		}

		median := 0.0
		if len(col) > 0 {
			sort.Float64s(col)
			mid := len(col) / 2
			if len(col)%2 == 1 {
				median = col[mid]
			} else {
				median = (col[mid-1] + col[mid]) / 2
			}
		}
		p.medians[j] = median

		var sum float64
		for _, v := range col {
			sum += v
		}
		mean := 0.0
		if len(col) > 0 {
			mean = sum / float64(len(col))
		}
		var sq float64
		for _, v := range col {
			sq += (v - mean) * (v - mean)
		}
		std := 0.0
		if len(col) > 0 {
			std = math.Sqrt(sq / float64(len(col)))
		}
		if std == 0 {
			std = 1
		}
		p.means[j] = mean
		p.stds[j] = std

		p.Transforms = append(p.Transforms,
			Transform{Column: p.Columns[j], Kind: TransformImputeMedian, Stats: []float64{median}},
			Transform{Column: p.Columns[j], Kind: TransformStandardize, Stats: []float64{mean, std}},
		)
	}
	return nil
}

// Transform applies the fitted steps to X, returning new rows.
func (p *Preprocessor) Transform(X [][]float64) ([][]float64, error) {
	if p.binary == nil {
		if err := p.restore(); err != nil {
			return nil, err
		}
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != len(p.Columns) {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", i, len(row), len(p.Columns))
		}
		t := make([]float64, len(row))
		for j, v := range row {
			if p.binary[j] {
				if math.IsNaN(v) {
					v = 0
				}
				t[j] = v
				continue
			}
			if math.IsNaN(v) {
				v = p.medians[j]
			}
			t[j] = (v - p.means[j]) / p.stds[j]
		}
		out[i] = t
	}
	return out, nil
}

// TransformRow applies the fitted steps to a single row.
func (p *Preprocessor) TransformRow(x []float64) ([]float64, error) {
	rows, err := p.Transform([][]float64{x})
	if err != nil {
		return nil, err
	}
	return rows[0], nil
}

// restore rebuilds the working state from the serialized transform list.
// This runs after a preprocessor round-trips through an artifact.
func (p *Preprocessor) restore() error {
	width := len(p.Columns)
	if width == 0 {
		return fmt.Errorf("preprocessor has no columns")
	}
	p.binary = make([]bool, width)
	p.medians = make([]float64, width)
	p.means = make([]float64, width)
	p.stds = make([]float64, width)
	for j := range p.stds {
		p.stds[j] = 1
	}

	index := make(map[string]int, width)
	for j, c := range p.Columns {
		index[c] = j
	}

	for _, t := range p.Transforms {
		j, ok := index[t.Column]
		if !ok {
			return fmt.Errorf("transform references unknown column %q", t.Column)
		}
		switch t.Kind {
		case TransformImputeZero:
			p.binary[j] = true
		case TransformImputeMedian:
			if len(t.Stats) != 1 {
				return fmt.Errorf("impute transform for %q has %d stats", t.Column, len(t.Stats))
			}
			p.medians[j] = t.Stats[0]
		case TransformStandardize:
			if len(t.Stats) != 2 {
				return fmt.Errorf("standardize transform for %q has %d stats", t.Column, len(t.Stats))
			}
			p.means[j] = t.Stats[0]
			if t.Stats[1] != 0 {
				p.stds[j] = t.Stats[1]
			}
		default:
			return fmt.Errorf("unknown transform kind %q", t.Kind)
		}
	}
	return nil
}
