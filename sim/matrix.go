package sim

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a read-only 2-D result grid: rows are sensor points, columns are
// sky or time samples. It wraps a gonum Dense that nothing else references.
type Matrix struct {
	d *mat.Dense
}

// NewMatrix takes ownership of d. The caller must not keep or mutate d.
func NewMatrix(d *mat.Dense) *Matrix {
	return &Matrix{d: d}
}

// Dims returns the number of rows and columns.
func (m *Matrix) Dims() (rows, cols int) {
	if m == nil || m.d == nil {
		return 0, 0
	}
	return m.d.Dims()
}

// At returns the element at row i, column j.
func (m *Matrix) At(i, j int) float64 {
	return m.d.At(i, j)
}

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []float64 {
	return mat.Row(nil, i, m.d)
}

// Col returns a copy of column j.
func (m *Matrix) Col(j int) []float64 {
	return mat.Col(nil, j, m.d)
}

// Matrix exposes the data as a read-only gonum Matrix for numeric routines.
func (m *Matrix) Matrix() mat.Matrix {
	return m.d
}

func (m *Matrix) String() string {
	r, c := m.Dims()
	return fmt.Sprintf("Matrix(%dx%d)", r, c)
}
