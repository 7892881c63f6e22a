// Package dataset assembles derived feature vectors into the modeling
// dataset and partitions it into train/validation/test subsets.
package dataset

import (
	"fmt"
	"math"
)

// Dataset is an ordered table of canonical feature values plus a row
// identifier column. Missing cells are NaN; no sentinel tokens or range
// strings survive to this point.
type Dataset struct {
	// Columns names every value column, in fixed order.
	Columns []string
	// IDs holds the row identifiers, aligned with Rows.
	IDs []string
	// Rows holds one value slice per row, aligned with Columns.
	Rows [][]float64
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Rows) }

// ColumnIndex returns the index of the named column, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Subset returns a new dataset containing the given row indices, in order.
// Row slices are shared, not copied; datasets are read-only after assembly.
func (d *Dataset) Subset(idx []int) *Dataset {
	out := &Dataset{
		Columns: d.Columns,
		IDs:     make([]string, 0, len(idx)),
		Rows:    make([][]float64, 0, len(idx)),
	}
	for _, i := range idx {
		out.IDs = append(out.IDs, d.IDs[i])
		out.Rows = append(out.Rows, d.Rows[i])
	}
	return out
}

// ResolveTarget locates the target column, probing the fallback names when
// the primary name is absent. A target column missing after probing is a
// structural failure.
func (d *Dataset) ResolveTarget(primary string, fallbacks []string) (int, error) {
	names := append([]string{primary}, fallbacks...)
	for _, name := range names {
		if name == "" {
			continue
		}
		if i := d.ColumnIndex(name); i >= 0 {
			return i, nil
		}
	}
	return -1, fmt.Errorf("target column %q not found (also probed %v)", primary, fallbacks)
}

// DropMissingTarget returns the rows whose target cell is present.
func (d *Dataset) DropMissingTarget(targetCol int) *Dataset {
	keep := make([]int, 0, d.Len())
	for i, row := range d.Rows {
		if !math.IsNaN(row[targetCol]) {
			keep = append(keep, i)
		}
	}
	return d.Subset(keep)
}

// Features splits the table into a feature matrix and target vector,
// excluding the target column from the features.
func (d *Dataset) Features(targetCol int) (X [][]float64, y []float64, names []string) {
	names = make([]string, 0, len(d.Columns)-1)
	for i, c := range d.Columns {
		if i != targetCol {
			names = append(names, c)
		}
	}

	X = make([][]float64, d.Len())
	y = make([]float64, d.Len())
	for i, row := range d.Rows {
		x := make([]float64, 0, len(row)-1)
		for j, v := range row {
			if j == targetCol {
				y[i] = v
				continue
			}
			x = append(x, v)
		}
		X[i] = x
	}
	return X, y, names
}
