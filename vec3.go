package gnss

import "math"

// Small 3-vector helpers, kept as plain arrays rather than linalg.Matrix for
// the same reason the teacher's math.go keeps Cross/Dot/Norm on raw
// []float64: these are called in tight per-satellite loops where boxing
// every triple into a matrix would only add allocation noise.

// norm3 returns the Euclidean norm of a 3-vector.
func norm3(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// dot3 returns the inner product of two 3-vectors.
func dot3(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// cross3 returns a x b.
func cross3(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// add3 returns a + b.
func add3(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// sub3 returns a - b.
func sub3(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// scale3 returns s*a.
func scale3(s float64, a [3]float64) [3]float64 {
	return [3]float64{s * a[0], s * a[1], s * a[2]}
}

// deg2rad converts degrees to radians.
func deg2rad(d float64) float64 {
	return d * math.Pi / 180
}

// rad2deg converts radians to degrees.
func rad2deg(r float64) float64 {
	return r * 180 / math.Pi
}
