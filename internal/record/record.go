package record

// Record is one raw literature row: a mapping from source column name to a
// scalar value. Records are treated as immutable inputs; every pipeline stage
// that changes field values returns a new Record.
type Record map[string]Value

// FromMap builds a Record from a name -> any mapping, coercing each scalar
// via FromAny.
func FromMap(m map[string]any) Record {
	r := make(Record, len(m))
	for k, v := range m {
		r[k] = FromAny(v)
	}
	return r
}

// Clone returns a shallow copy of r. Values are immutable, so a shallow copy
// is a full copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Get returns the value for the named column, or the missing marker when the
// column is absent.
func (r Record) Get(name string) Value {
	if v, ok := r[name]; ok {
		return v
	}
	return Missing()
}

// Has reports whether the named column is present and non-missing.
func (r Record) Has(name string) bool {
	v, ok := r[name]
	return ok && !v.IsMissing()
}
