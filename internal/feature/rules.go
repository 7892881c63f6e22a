package feature

import (
	"math"
	"strings"

	"github.com/duralab/frpdur/internal/record"
)

// Keyword vocabularies used by the environment and chloride rules. These
// encode the source database's curation conventions; they are preserved as
// control logic, not asserted as chemistry.
var (
	concreteKeywords = []string{"concrete", "cover", "crack", "cement", "mortar"}
	waterTypes       = []string{
		"tap water", "sea water", "seawater", "distilled water",
		"deionized water", "di water", "pure water",
	}
	chlorideKeywords = []string{"cl", "chloride", "nacl", "cacl2", "mgcl2", "salt"}
)

const (
	defaultConcretePH = 13.0
	defaultSolutionPH = 7.0
)

// rule derives one canonical field (or one tightly coupled field pair) from
// the typed input. Rules are pure with respect to the input and must tolerate
// any combination of missing source fields.
type rule struct {
	name   string
	derive func(e *Engine, in *input, v *Vector)
}

// rules is the ordered derivation pipeline applied to every record.
var rules = []rule{
	{"ph_and_chloride", deriveEnvironmentPH},
	{"concrete_flag", deriveConcreteFlag},
	{"diameter", deriveDiameter},
	{"load_fraction", deriveLoadFraction},
	{"fiber_content", deriveFiberContent},
	{"material_types", deriveMaterialTypes},
	{"surface_treatment", deriveSurfaceTreatment},
	{"direct_fields", deriveDirectFields},
}

// isConcreteEnvironment classifies the record as concrete versus solution
// exposure. A concrete keyword in the condition-environment text, or any
// present concrete-related column, marks the record as concrete.
func isConcreteEnvironment(in *input) bool {
	if s, ok := in.conditionEnvironment.Text(); ok {
		lower := strings.ToLower(s)
		for _, kw := range concreteKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	for _, v := range []record.Value{in.concrete, in.crack, in.cover, in.cement} {
		if !v.IsMissing() {
			return true
		}
	}
	return false
}

// deriveEnvironmentPH sets the environment pH and the chloride flag. The
// chloride flag defaults to 0 and can only ever be raised, never unset.
func deriveEnvironmentPH(e *Engine, in *input, v *Vector) {
	v.ChlorideIon = record.Num(0)
	finalPH := defaultSolutionPH

	if isConcreteEnvironment(in) {
		if ph, ok := in.phOfConcrete.Number(); ok {
			finalPH = ph
		} else {
			finalPH = defaultConcretePH
		}
	} else {
		phFound := false

		if ph, ok := in.solutionCondition.Number(); ok {
			finalPH = ph
			phFound = true
		}
		if !phFound {
			for _, cand := range in.phFallbacks {
				if ph, ok := cand.Number(); ok {
					finalPH = ph
					phFound = true
					break
				}
			}
		}
		if !phFound {
			text := ""
			if s, ok := in.solutionCondition.Text(); ok {
				text = strings.ToLower(s)
			}
			if text == "" {
				if s, ok := in.ingredient.Text(); ok {
					text = strings.ToLower(s)
				}
			}
			for _, wt := range waterTypes {
				if strings.Contains(text, wt) {
					finalPH = defaultSolutionPH
					if strings.Contains(text, "sea") {
						v.ChlorideIon = record.Num(1)
					}
					break
				}
			}
		}
	}

	if after, ok := in.phAfter.Number(); ok {
		finalPH = (finalPH + after) / 2.0
	}
	v.PH = record.Num(finalPH)

	// The ingredient text can raise the chloride flag independently of the
	// environment classification above.
	if s, ok := in.ingredient.Text(); ok {
		lower := strings.ToLower(s)
		for _, kw := range chlorideKeywords {
			if strings.Contains(lower, kw) {
				v.ChlorideIon = record.Num(1)
				break
			}
		}
	}
}

func deriveConcreteFlag(e *Engine, in *input, v *Vector) {
	for _, iv := range []record.Value{in.concrete, in.crack, in.cover} {
		if !iv.IsMissing() {
			v.Concrete = record.Num(1)
			return
		}
	}
	v.Concrete = record.Num(0)
}

func deriveDiameter(e *Engine, in *input, v *Vector) {
	if d, ok := in.diameter.Number(); ok {
		v.Diameter = record.Num(d)
		return
	}
	if area, ok := in.nominalArea.Number(); ok && area > 0 {
		v.Diameter = record.Num(2 * math.Sqrt(area/math.Pi))
	}
}

// deriveLoadFraction computes the sustained load as a fraction of ultimate
// tensile strength. Preloading records carry no sustained load; any unmet
// precondition leaves the running default of 0.
func deriveLoadFraction(e *Engine, in *input, v *Vector) {
	v.Load = record.Num(0)

	if s, ok := in.typeOfLoad.Text(); ok && s == "preloading" {
		return
	}

	mode, ok := in.stressOrStrain.Text()
	if !ok {
		return
	}
	value, ok := in.valueLoad.Number()
	if !ok {
		return
	}

	switch mode {
	case "stress":
		if uts, ok := in.uts.Number(); ok && uts > 0 {
			v.Load = record.Num(value / uts)
		}
	case "strain":
		modulus, okM := in.tensileModulus.Number()
		uts, okU := in.uts.Number()
		if okM && okU && modulus > 0 && uts > 0 {
			// Strain is recorded in millistrain; 0.001 converts to stress
			// via the tensile modulus.
			v.Load = record.Num(value * 0.001 * modulus / uts)
		}
	}
}

// deriveFiberContent prefers the reported weight percentage. A volume
// percentage converts via the fiber/matrix mass densities:
// weight% = 100·V·ρf / (V·ρf + (100−V)·ρm).
func deriveFiberContent(e *Engine, in *input, v *Vector) {
	if w, ok := in.fiberContentWeight.Number(); ok {
		v.FiberContent = record.Num(w)
		return
	}
	volume, ok := in.fiberContentVolume.Number()
	if !ok {
		return
	}

	fiberType := "Unknown"
	if s, ok := in.fiberType.Text(); ok {
		fiberType = s
	}
	matrixType := "Unknown"
	if s, ok := in.matrixType.Text(); ok {
		matrixType = s
	}

	rhoFiber := e.materials.FiberDensity(fiberType)
	rhoMatrix := e.materials.MatrixDensity(matrixType)

	weight := (100.0 * volume * rhoFiber) /
		(volume*rhoFiber + (100.0-volume)*rhoMatrix)
	v.FiberContent = record.Num(weight)
}

func deriveMaterialTypes(e *Engine, in *input, v *Vector) {
	if s, ok := in.fiberType.Text(); ok {
		switch s {
		case "Glass":
			v.FiberType = record.Num(1)
		case "Basalt":
			v.FiberType = record.Num(0)
		}
	}
	if s, ok := in.matrixType.Text(); ok {
		switch s {
		case "Vinyl ester":
			v.MatrixType = record.Num(1)
		case "Epoxy":
			v.MatrixType = record.Num(0)
		}
	}
}

func deriveSurfaceTreatment(e *Engine, in *input, v *Vector) {
	if s, ok := in.surfaceTreatment.Text(); ok {
		switch s {
		case "sand coated":
			v.SurfaceTreatment = record.Num(0)
		case "Smooth":
			v.SurfaceTreatment = record.Num(1)
		}
	}
}

// deriveDirectFields copies the directly mapped source columns, coercing
// numeric strings where possible.
func deriveDirectFields(e *Engine, in *input, v *Vector) {
	v.ExposureTime = coerceNumeric(in.timeField)
	v.Temperature = coerceNumeric(in.temperature)
	v.Retention = coerceNumeric(in.retention)
	v.MaxStrength = coerceNumeric(in.maxStrength)
	v.GlassTransition = coerceNumeric(in.glassTransition)
}

func coerceNumeric(v record.Value) record.Value {
	if f, ok := v.Numeric(); ok {
		return record.Num(f)
	}
	return record.Missing()
}
