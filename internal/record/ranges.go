package record

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// RangeColumns lists the numeric-bearing source columns whose cells sometimes
// hold a literal range such as "20,30". Only these columns are eligible for
// range collapsing.
var RangeColumns = []string{
	"glass_transition_temperature", "glass_transition_temperature_run_2",
	"cure_ratio", "Fiber_content_weight", "Fiber_content_volume",
	"Void_content", "diameter", "average_area", "nominal_area",
	"num_1", "temperature", "pH_of_concrete", "strength_of_concrete",
	"crack", "pH_1", "pHafter", "RH_1", "field_average_humidity",
	"field_average_temperature", "temp", "temp2", "value_load",
	"Value1_1", "COV1_1", "Value2_1", "COV2_1", "Value3_1", "COV3_1",
}

var numberPattern = regexp.MustCompile(`\d+\.?\d*`)

// ResolveRanges collapses range strings in the eligible columns of r to their
// arithmetic mean. A cell fires only when it is a string containing a comma
// and no colon; colon notation is reserved for ratios and is never altered.
// Cells that yield no numbers are left untouched.
func ResolveRanges(r Record) Record {
	out := r.Clone()
	for _, col := range RangeColumns {
		v, ok := out[col]
		if !ok {
			continue
		}
		if resolved, changed := resolveRangeValue(v); changed {
			out[col] = resolved
		}
	}
	return out
}

func resolveRangeValue(v Value) (Value, bool) {
	s, ok := v.Text()
	if !ok {
		return v, false
	}
	if !strings.Contains(s, ",") || strings.Contains(s, ":") {
		return v, false
	}

	matches := numberPattern.FindAllString(s, -1)
	if len(matches) == 0 {
		return v, false
	}

	sum := 0.0
	count := 0
	for _, m := range matches {
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		sum += f
		count++
	}
	if count == 0 {
		return v, false
	}

	mean := sum / float64(count)
	if math.IsNaN(mean) {
		return v, false
	}
	return Num(mean), true
}
