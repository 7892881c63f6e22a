package train

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderComparison writes the family comparison table to w, sorted by test
// R² descending. Failed families sink to the bottom with their error.
func (r *Report) RenderComparison(w io.Writer) {
	rows := append([]FamilyResult(nil), r.Families...)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Failed() != rows[j].Failed() {
			return !rows[i].Failed()
		}
		return rows[i].Test.R2 > rows[j].Test.R2
	})

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Model", "Mean CV R²", "Val R²", "Test R²", "Test RMSE", "Test MAE", "Status"})

	for _, fr := range rows {
		if fr.Failed() {
			t.AppendRow(table.Row{fr.Family, "-", "-", "-", "-", "-", "failed: " + fr.Err})
			continue
		}
		status := "ok"
		if fr.Family == r.Best {
			status = "best"
		}
		// The ensemble never runs its own cross-validation.
		cv := "-"
		if len(fr.CVScores) > 0 {
			cv = formatScore(fr.MeanCV)
		}
		t.AppendRow(table.Row{
			fr.Family,
			cv,
			formatScore(fr.Validation.R2),
			formatScore(fr.Test.R2),
			formatScore(fr.Test.RMSE),
			formatScore(fr.Test.MAE),
			status,
		})
	}
	t.Render()
}

// Summary returns a short human-readable description of the run.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: target %q, %d rows (%d train / %d val / %d test), tier %s\n",
		r.RunID, r.Target, r.Rows, r.TrainRows, r.ValRows, r.TestRows, r.Tier)
	if best := r.Result(r.Best); best != nil {
		fmt.Fprintf(&b, "best model: %s (test R² %s, RMSE %s)",
			r.Best, formatScore(best.Test.R2), formatScore(best.Test.RMSE))
	}
	return b.String()
}

func formatScore(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	if math.IsInf(v, -1) {
		return "-inf"
	}
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.4f", v)
}
