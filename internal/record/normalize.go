package record

import "strings"

// The literature database uses a handful of sentinel tokens for "no data".
// "SMD" (source marked datum) variants become the canonical missing marker;
// "not reported" variants become the literal category "Unknown" instead,
// because downstream categorical handling distinguishes an unreported label
// from a truly absent cell. That asymmetry is deliberate.
var (
	missingTokens = map[string]struct{}{
		"smd":  {},
		"":     {},
		"null": {},
		"none": {},
		"nan":  {},
		"n/a":  {},
	}

	unknownTokens = map[string]struct{}{
		"notreported":  {},
		"not reported": {},
	}
)

// Normalize maps known sentinel tokens in every field of r to either the
// canonical missing marker or the literal "Unknown". Unmatched values pass
// through untouched; Normalize never fails and is idempotent.
func Normalize(r Record) Record {
	out := make(Record, len(r))
	for name, v := range r {
		out[name] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v Value) Value {
	s, ok := v.Text()
	if !ok {
		return v
	}
	key := strings.ToLower(strings.TrimSpace(s))
	if _, hit := missingTokens[key]; hit {
		return Missing()
	}
	if _, hit := unknownTokens[key]; hit {
		return Text("Unknown")
	}
	return v
}
