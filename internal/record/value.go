// Package record models the raw, heterogeneous literature records that feed
// the feature pipeline. A record is a mapping from source column name to a
// dynamically typed scalar; columns present in one record may be absent in
// another, reflecting the hand-curated source documents.
package record

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind discriminates the scalar variants a raw field can hold.
type Kind int

const (
	// KindMissing marks the canonical "no data" state.
	KindMissing Kind = iota
	// KindNumber holds a finite float64.
	KindNumber
	// KindText holds a short free-text or categorical string.
	KindText
)

// Value is a dynamically typed scalar: a number, a short string, or missing.
// The zero value is missing.
type Value struct {
	kind Kind
	num  float64
	str  string
}

// Missing returns the canonical missing marker.
func Missing() Value {
	return Value{}
}

// Num wraps a float64. NaN and infinities collapse to missing so that no
// non-finite number survives into the pipeline.
func Num(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing()
	}
	return Value{kind: KindNumber, num: f}
}

// Text wraps a string verbatim.
func Text(s string) Value {
	return Value{kind: KindText, str: s}
}

// FromAny coerces an arbitrary scalar (as produced by database/sql or CSV
// ingestion) into a Value. Unrecognized types stringify.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Missing()
	case float64:
		return Num(x)
	case float32:
		return Num(float64(x))
	case int:
		return Num(float64(x))
	case int32:
		return Num(float64(x))
	case int64:
		return Num(float64(x))
	case bool:
		if x {
			return Num(1)
		}
		return Num(0)
	case string:
		return Text(x)
	case []byte:
		return Text(string(x))
	default:
		return Text(fmt.Sprintf("%v", x))
	}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether v is the missing marker.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Number returns the numeric payload. The second return is false when v does
// not hold a number.
func (v Value) Number() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Text returns the string payload. The second return is false when v does not
// hold text.
func (v Value) Text() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.str, true
}

// Numeric returns the value as a float64 when it holds a number, or when it
// holds text that parses as one. This mirrors the lenient coercion applied to
// directly mapped source columns.
func (v Value) Numeric() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindText:
		s := strings.TrimSpace(v.str)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// String renders the value for diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindText:
		return v.str
	default:
		return "<missing>"
	}
}
