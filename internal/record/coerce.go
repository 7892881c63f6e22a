package record

// Coerce converts every text cell that parses as a finite number into a
// numeric cell. Tabular ingestion often delivers whole columns as text (CSV
// readers fall back to varchar when any cell in a column is non-numeric), so
// reported numbers arrive as strings; coercion restores the numeric typing
// the derivation rules depend on. Non-numeric text passes through untouched,
// so free-text and categorical cells survive.
func Coerce(r Record) Record {
	out := make(Record, len(r))
	for name, v := range r {
		out[name] = coerceValue(v)
	}
	return out
}

func coerceValue(v Value) Value {
	if _, ok := v.Text(); !ok {
		return v
	}
	if f, ok := v.Numeric(); ok {
		return Num(f)
	}
	return v
}
