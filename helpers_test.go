package gnss

import "github.com/ChristopherRabotin/gnssfilter/internal/linalg"

// stateMatrixForTest returns an n x 1 zero matrix, used by tests that only
// care about shape checks.
func stateMatrixForTest(n int) *linalg.Matrix {
	return linalg.NewMatrix(n, 1, nil)
}

// linalgZero returns an n x n zero matrix.
func linalgZero(n int) *linalg.Matrix {
	return linalg.NewMatrix(n, n, nil)
}
