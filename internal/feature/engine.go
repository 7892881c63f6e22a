package feature

import (
	"fmt"
	"log/slog"

	"github.com/duralab/frpdur/internal/record"
)

// Engine runs the derivation rule pipeline over normalized raw records.
type Engine struct {
	materials Materials
	logger    *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// Materials provides the density tables for fiber content conversion.
	// Zero-valued maps fall back to DefaultMaterials.
	Materials Materials
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// NewEngine creates a derivation engine.
func NewEngine(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	materials := cfg.Materials
	if materials.FiberDensities == nil && materials.MatrixDensities == nil {
		materials = DefaultMaterials()
	}
	return &Engine{materials: materials, logger: logger}
}

// Derive produces the canonical feature vector for one raw record. The
// record is expected to be normalized and range-resolved already. A failure
// inside one rule is logged and isolated; the remaining rules still run, so
// a partially derived vector is always returned.
func (e *Engine) Derive(r record.Record) *Vector {
	in := newInput(r)
	v := &Vector{Title: in.title}

	for _, rl := range rules {
		e.applyRule(rl, in, v)
	}
	return v
}

// DeriveAll normalizes, range-resolves, coerces, and derives every record in
// order. Coercion runs last so that numbers ingested as text (CSV columns
// fall back to varchar) reach the rules with their numeric typing restored.
func (e *Engine) DeriveAll(records []record.Record) []*Vector {
	out := make([]*Vector, 0, len(records))
	for _, r := range records {
		prepared := record.Coerce(record.ResolveRanges(record.Normalize(r)))
		out = append(out, e.Derive(prepared))
	}
	return out
}

// applyRule runs one rule with panic isolation. Per-field derivation errors
// are recoverable: the field keeps its documented default and the pipeline
// continues.
func (e *Engine) applyRule(rl rule, in *input, v *Vector) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Warn("feature rule failed",
				"rule", rl.name,
				"record", in.title,
				"error", fmt.Sprint(rec))
		}
	}()
	rl.derive(e, in, v)
}
