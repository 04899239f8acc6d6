// Package linalg is the dense-matrix collaborator described in the core's
// external-interfaces contract: plain BLAS-style operations plus the
// submatrix, skew-symmetric and inverse helpers the Kalman machinery needs.
// It is a thin, explicit wrapper around gonum/mat so that callers never see
// a gonum type directly.
package linalg

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SingularMatrixError is returned by Inverse when the operand has no inverse.
type SingularMatrixError struct {
	Rows, Cols int
}

func (e *SingularMatrixError) Error() string {
	return fmt.Sprintf("linalg: %dx%d matrix is singular", e.Rows, e.Cols)
}

// Matrix is a real, dense, row-major matrix.
type Matrix struct {
	d *mat.Dense
}

// NewMatrix allocates an r x c matrix. If data is non-nil it must hold r*c
// row-major values.
func NewMatrix(r, c int, data []float64) *Matrix {
	return &Matrix{d: mat.NewDense(r, c, data)}
}

// Identity returns the n x n identity matrix.
func Identity(n int) *Matrix {
	m := NewMatrix(n, n, nil)
	for i := 0; i < n; i++ {
		m.d.Set(i, i, 1)
	}
	return m
}

// Diagonal returns a square matrix whose diagonal is values and whose
// off-diagonal entries are zero.
func Diagonal(values []float64) *Matrix {
	n := len(values)
	m := NewMatrix(n, n, nil)
	for i, v := range values {
		m.d.Set(i, i, v)
	}
	return m
}

// FromArray builds a matrix from a flat slice, interpreting it as row-major
// when rowMajor is true and column-major otherwise.
func FromArray(values []float64, rows, cols int, rowMajor bool) *Matrix {
	m := NewMatrix(rows, cols, nil)
	if rowMajor {
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				m.d.Set(i, j, values[i*cols+j])
			}
		}
		return m
	}
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			m.d.Set(i, j, values[j*rows+i])
		}
	}
	return m
}

// Skew returns the 3x3 skew-symmetric (cross-product) matrix of v.
func Skew(v [3]float64) *Matrix {
	return NewMatrix(3, 3, []float64{
		0, -v[2], v[1],
		v[2], 0, -v[0],
		-v[1], v[0], 0,
	})
}

// Dims returns the matrix's row and column count.
func (m *Matrix) Dims() (rows, cols int) {
	return m.d.Dims()
}

// At returns the element at (r, c).
func (m *Matrix) At(r, c int) float64 {
	return m.d.At(r, c)
}

// Set writes the element at (r, c).
func (m *Matrix) Set(r, c int, v float64) {
	m.d.Set(r, c, v)
}

// Multiply returns m * other.
func (m *Matrix) Multiply(other *Matrix) *Matrix {
	_, oc := other.Dims()
	r, _ := m.Dims()
	out := NewMatrix(r, oc, nil)
	out.d.Mul(m.d, other.d)
	return out
}

// Add returns m + other.
func (m *Matrix) Add(other *Matrix) *Matrix {
	r, c := m.Dims()
	out := NewMatrix(r, c, nil)
	out.d.Add(m.d, other.d)
	return out
}

// Subtract returns m - other.
func (m *Matrix) Subtract(other *Matrix) *Matrix {
	r, c := m.Dims()
	out := NewMatrix(r, c, nil)
	out.d.Sub(m.d, other.d)
	return out
}

// Transpose returns mᵀ.
func (m *Matrix) Transpose() *Matrix {
	r, c := m.Dims()
	out := NewMatrix(c, r, nil)
	out.d.Copy(m.d.T())
	return out
}

// ScalarMultiply returns s*m.
func (m *Matrix) ScalarMultiply(s float64) *Matrix {
	r, c := m.Dims()
	out := NewMatrix(r, c, nil)
	out.d.Scale(s, m.d)
	return out
}

// Submatrix extracts the block [r0:r1) x [c0:c1).
func (m *Matrix) Submatrix(r0, c0, r1, c1 int) *Matrix {
	out := NewMatrix(r1-r0, c1-c0, nil)
	for i := r0; i < r1; i++ {
		for j := c0; j < c1; j++ {
			out.d.Set(i-r0, j-c0, m.d.At(i, j))
		}
	}
	return out
}

// SetSubmatrix writes src into the block starting at (r0, c0).
func (m *Matrix) SetSubmatrix(r0, c0 int, src *Matrix) {
	sr, sc := src.Dims()
	for i := 0; i < sr; i++ {
		for j := 0; j < sc; j++ {
			m.d.Set(r0+i, c0+j, src.d.At(i, j))
		}
	}
}

// NormF returns the Frobenius norm of m.
func (m *Matrix) NormF() float64 {
	r, c := m.Dims()
	var sumSq float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.d.At(i, j)
			sumSq += v * v
		}
	}
	return math.Sqrt(sumSq)
}

// Inverse returns the inverse of m, failing with *SingularMatrixError when m
// has no inverse.
func Inverse(m *Matrix) (*Matrix, error) {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	if err := out.Inverse(m.d); err != nil {
		// gonum also reports a finite Condition for an ill-conditioned but
		// invertible operand, after storing its inverse; only an infinite
		// condition number means m has no inverse.
		if cond, ok := err.(mat.Condition); !ok || math.IsInf(float64(cond), 1) {
			return nil, &SingularMatrixError{Rows: r, Cols: c}
		}
	}
	return &Matrix{d: out}, nil
}

// RawDense exposes the underlying gonum matrix for callers (within this
// module) that need to call a gonum routine not wrapped above, e.g. solving
// normal equations via mat.Solve.
func (m *Matrix) RawDense() *mat.Dense {
	return m.d
}
