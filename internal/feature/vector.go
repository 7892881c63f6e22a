// Package feature derives the canonical engineering feature vector from raw
// literature records. Each canonical field is produced by an independent,
// field-scoped rule; the driver isolates failures so that one broken rule
// never aborts derivation of the remaining fields for a record.
package feature

import "github.com/duralab/frpdur/internal/record"

// Canonical column names used by the modeling dataset. The spelling matches
// the published database schema.
const (
	ColTitle            = "Title"
	ColRetention        = "Tensile strength retention"
	ColPH               = "pH of condition environment"
	ColExposureTime     = "Exposure time"
	ColFiberContent     = "Fibre content"
	ColTemperature      = "Exposure temperature"
	ColDiameter         = "Diameter"
	ColConcrete         = "Presence of concrete"
	ColLoad             = "Load"
	ColChlorideIon      = "Presence of chloride ion"
	ColFiberType        = "Fibre type"
	ColMatrixType       = "Matrix type"
	ColSurfaceTreatment = "Surface treatment"
	ColMaxStrength      = "Strength of unconditioned rebar"
	ColGlassTransition  = "Glass transition temperature"
)

// Vector is the canonical feature vector for one record. Every field is a
// finite number, a binary flag in {0,1}, or explicitly missing; raw range
// strings and sentinel tokens never survive derivation.
type Vector struct {
	Title string

	PH               record.Value // environment pH
	ChlorideIon      record.Value // 1 when chloride exposure is indicated
	Concrete         record.Value // 1 when embedded in concrete
	Diameter         record.Value // mm
	Load             record.Value // sustained load as a fraction of UTS
	FiberContent     record.Value // fiber weight percentage
	FiberType        record.Value // 1 = Glass, 0 = Basalt
	MatrixType       record.Value // 1 = Vinyl ester, 0 = Epoxy
	ExposureTime     record.Value // conditioning duration
	Temperature      record.Value // exposure temperature
	Retention        record.Value // target: tensile strength retention
	SurfaceTreatment record.Value // 0 = sand coated, 1 = smooth
	MaxStrength      record.Value // unconditioned tensile strength
	GlassTransition  record.Value // glass transition temperature
}

// ModelColumns is the fixed, ordered column set the Dataset Assembler selects
// for modeling. Glass transition temperature is derived but intentionally not
// part of the modeling set.
var ModelColumns = []string{
	ColTitle, ColRetention, ColPH, ColExposureTime, ColFiberContent,
	ColTemperature, ColDiameter, ColConcrete, ColLoad, ColChlorideIon,
	ColFiberType, ColMatrixType, ColSurfaceTreatment, ColMaxStrength,
}

// IsCanonical reports whether col names a derivable canonical field.
func IsCanonical(col string) bool {
	switch col {
	case ColRetention, ColPH, ColExposureTime, ColFiberContent, ColTemperature,
		ColDiameter, ColConcrete, ColLoad, ColChlorideIon, ColFiberType,
		ColMatrixType, ColSurfaceTreatment, ColMaxStrength, ColGlassTransition:
		return true
	}
	return false
}

// Get returns the canonical field by its column name. Unknown names return
// the missing marker.
func (v *Vector) Get(col string) record.Value {
	switch col {
	case ColRetention:
		return v.Retention
	case ColPH:
		return v.PH
	case ColExposureTime:
		return v.ExposureTime
	case ColFiberContent:
		return v.FiberContent
	case ColTemperature:
		return v.Temperature
	case ColDiameter:
		return v.Diameter
	case ColConcrete:
		return v.Concrete
	case ColLoad:
		return v.Load
	case ColChlorideIon:
		return v.ChlorideIon
	case ColFiberType:
		return v.FiberType
	case ColMatrixType:
		return v.MatrixType
	case ColSurfaceTreatment:
		return v.SurfaceTreatment
	case ColMaxStrength:
		return v.MaxStrength
	case ColGlassTransition:
		return v.GlassTransition
	default:
		return record.Missing()
	}
}
