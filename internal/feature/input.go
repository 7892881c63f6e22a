package feature

import "github.com/duralab/frpdur/internal/record"

// Source column names the derivation rules read. Spellings follow the
// literature database schema.
const (
	srcTitle                = "Title"
	srcConditionEnvironment = "Condition_environment"
	srcPHOfConcrete         = "pH_of_concrete"
	srcSolutionCondition    = "solution_condition"
	srcPHAfter              = "pHafter"
	srcIngredient           = "ingredient_1"
	srcConcrete             = "concrete"
	srcCrack                = "crack"
	srcCover                = "cover"
	srcCement               = "cement"
	srcDiameter             = "diameter"
	srcNominalArea          = "nominal_area"
	srcTypeOfLoad           = "type_of_load"
	srcStressOrStrain       = "stress_or_strain"
	srcValueLoad            = "value_load"
	srcUTS                  = "ultimate_tensile_strength"
	srcTensileModulus       = "tensile_modulus"
	srcFiberContentWeight   = "Fiber_content_weight"
	srcFiberContentVolume   = "Fiber_content_volume"
	srcFiberType            = "Fiber_type"
	srcMatrixType           = "Matrix_type"
	srcSurfaceTreatment     = "surface_treatment"
	srcTimeField            = "time_field"
	srcTemperature          = "temperature"
	srcRetention            = "retention1"
	srcMaxStrength          = "Value1_1"
	srcGlassTransition      = "glass_transition_temperature"
)

// phFallbackColumns is the prioritized list of alternate pH-labeled columns
// consulted for solution environments.
var phFallbackColumns = []string{"pH_1", "pH", "ph", "PH"}

// input is the strongly typed view of a raw record that the rules consume.
// Raw heterogeneous maps are narrowed to this schema at the package boundary
// so the rules never carry open-ended lookups.
type input struct {
	title string

	conditionEnvironment record.Value
	phOfConcrete         record.Value
	solutionCondition    record.Value
	phFallbacks          []record.Value
	phAfter              record.Value
	ingredient           record.Value

	concrete record.Value
	crack    record.Value
	cover    record.Value
	cement   record.Value

	diameter    record.Value
	nominalArea record.Value

	typeOfLoad     record.Value
	stressOrStrain record.Value
	valueLoad      record.Value
	uts            record.Value
	tensileModulus record.Value

	fiberContentWeight record.Value
	fiberContentVolume record.Value
	fiberType          record.Value
	matrixType         record.Value
	surfaceTreatment   record.Value

	timeField       record.Value
	temperature     record.Value
	retention       record.Value
	maxStrength     record.Value
	glassTransition record.Value
}

func newInput(r record.Record) *input {
	in := &input{
		conditionEnvironment: r.Get(srcConditionEnvironment),
		phOfConcrete:         r.Get(srcPHOfConcrete),
		solutionCondition:    r.Get(srcSolutionCondition),
		phAfter:              r.Get(srcPHAfter),
		ingredient:           r.Get(srcIngredient),
		concrete:             r.Get(srcConcrete),
		crack:                r.Get(srcCrack),
		cover:                r.Get(srcCover),
		cement:               r.Get(srcCement),
		diameter:             r.Get(srcDiameter),
		nominalArea:          r.Get(srcNominalArea),
		typeOfLoad:           r.Get(srcTypeOfLoad),
		stressOrStrain:       r.Get(srcStressOrStrain),
		valueLoad:            r.Get(srcValueLoad),
		uts:                  r.Get(srcUTS),
		tensileModulus:       r.Get(srcTensileModulus),
		fiberContentWeight:   r.Get(srcFiberContentWeight),
		fiberContentVolume:   r.Get(srcFiberContentVolume),
		fiberType:            r.Get(srcFiberType),
		matrixType:           r.Get(srcMatrixType),
		surfaceTreatment:     r.Get(srcSurfaceTreatment),
		timeField:            r.Get(srcTimeField),
		temperature:          r.Get(srcTemperature),
		retention:            r.Get(srcRetention),
		maxStrength:          r.Get(srcMaxStrength),
		glassTransition:      r.Get(srcGlassTransition),
	}
	if s, ok := r.Get(srcTitle).Text(); ok {
		in.title = s
	} else if f, ok := r.Get(srcTitle).Number(); ok {
		in.title = record.Num(f).String()
	}
	for _, col := range phFallbackColumns {
		in.phFallbacks = append(in.phFallbacks, r.Get(col))
	}
	return in
}
