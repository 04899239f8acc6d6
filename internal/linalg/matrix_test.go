package linalg

import (
	"math"
	"testing"
)

func within(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestIdentityAndMultiply(t *testing.T) {
	id := Identity(3)
	m := NewMatrix(3, 3, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	got := id.Multiply(m)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !within(got.At(i, j), m.At(i, j), 1e-12) {
				t.Fatalf("I*m[%d,%d] = %f, want %f", i, j, got.At(i, j), m.At(i, j))
			}
		}
	}
}

func TestDiagonal(t *testing.T) {
	d := Diagonal([]float64{1, 2, 3})
	if d.At(0, 0) != 1 || d.At(1, 1) != 2 || d.At(2, 2) != 3 {
		t.Fatal("diagonal entries wrong")
	}
	if d.At(0, 1) != 0 || d.At(2, 0) != 0 {
		t.Fatal("off-diagonal entries should be zero")
	}
}

func TestFromArrayRowColMajor(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6}
	row := FromArray(vals, 2, 3, true)
	if row.At(0, 0) != 1 || row.At(0, 2) != 3 || row.At(1, 0) != 4 {
		t.Fatal("row-major layout wrong")
	}
	col := FromArray(vals, 2, 3, false)
	if col.At(0, 0) != 1 || col.At(1, 0) != 2 || col.At(0, 1) != 3 {
		t.Fatal("column-major layout wrong")
	}
}

func TestSkew(t *testing.T) {
	s := Skew([3]float64{1, 2, 3})
	v := NewMatrix(3, 1, []float64{4, 5, 6})
	got := s.Multiply(v)
	want := []float64{2*6 - 3*5, 3*4 - 1*6, 1*5 - 2*4}
	for i := 0; i < 3; i++ {
		if !within(got.At(i, 0), want[i], 1e-9) {
			t.Fatalf("skew(v)*w[%d] = %f, want %f (cross product)", i, got.At(i, 0), want[i])
		}
	}
}

func TestTransposeAndSubmatrix(t *testing.T) {
	m := NewMatrix(2, 3, []float64{1, 2, 3, 4, 5, 6})
	tr := m.Transpose()
	rr, cc := tr.Dims()
	if rr != 3 || cc != 2 {
		t.Fatalf("transpose dims = %dx%d, want 3x2", rr, cc)
	}
	sub := m.Submatrix(0, 1, 2, 3)
	if sub.At(0, 0) != 2 || sub.At(1, 1) != 6 {
		t.Fatal("submatrix extraction wrong")
	}
	m.SetSubmatrix(0, 0, Identity(2))
	if m.At(0, 0) != 1 || m.At(0, 1) != 0 || m.At(1, 0) != 0 || m.At(1, 1) != 1 {
		t.Fatal("set-submatrix wrote wrong values")
	}
}

func TestInverseSingular(t *testing.T) {
	singular := NewMatrix(2, 2, []float64{1, 2, 2, 4})
	if _, err := Inverse(singular); err == nil {
		t.Fatal("expected SingularMatrixError for a rank-deficient matrix")
	}
	id := Identity(4)
	inv, err := Inverse(id)
	if err != nil {
		t.Fatalf("inverse of identity failed: %v", err)
	}
	for i := 0; i < 4; i++ {
		if !within(inv.At(i, i), 1, 1e-12) {
			t.Fatalf("inverse of identity[%d,%d] = %f, want 1", i, i, inv.At(i, i))
		}
	}
}

func TestNormF(t *testing.T) {
	m := NewMatrix(2, 2, []float64{3, 0, 0, 4})
	if !within(m.NormF(), 5, 1e-12) {
		t.Fatalf("NormF = %f, want 5", m.NormF())
	}
}
