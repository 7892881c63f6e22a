package feature

// Materials holds the mass-density lookup tables used by the fiber content
// conversion. Unrecognized material types fall back to the default densities.
type Materials struct {
	FiberDensities  map[string]float64
	MatrixDensities map[string]float64

	DefaultFiberDensity  float64
	DefaultMatrixDensity float64
}

// DefaultMaterials returns the density tables from the source database.
func DefaultMaterials() Materials {
	return Materials{
		FiberDensities: map[string]float64{
			"Glass":  2.55,
			"Carbon": 1.84,
			"Basalt": 2.67,
		},
		MatrixDensities: map[string]float64{
			"Vinyl ester": 1.09,
			"Epoxy":       1.1,
			"Polyester":   1.38,
		},
		DefaultFiberDensity:  2.0,
		DefaultMatrixDensity: 1.2,
	}
}

// FiberDensity looks up the mass density for a fiber type.
func (m Materials) FiberDensity(fiberType string) float64 {
	if rho, ok := m.FiberDensities[fiberType]; ok {
		return rho
	}
	return m.DefaultFiberDensity
}

// MatrixDensity looks up the mass density for a matrix type.
func (m Materials) MatrixDensity(matrixType string) float64 {
	if rho, ok := m.MatrixDensities[matrixType]; ok {
		return rho
	}
	return m.DefaultMatrixDensity
}
