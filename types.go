package gnss

import (
	"math"

	"github.com/ChristopherRabotin/gnssfilter/internal/linalg"
)

// stateDim is the fixed length of the Kalman state vector:
// [x, y, z, vx, vy, vz, clockOffset, clockDrift].
const stateDim = 8

// EcefPositionAndVelocity is a position (m) and velocity (m/s) pair in the
// Earth-Centered Earth-Fixed frame.
type EcefPositionAndVelocity struct {
	X, Y, Z    float64
	VX, VY, VZ float64
}

// Position returns the position as a 3-vector.
func (e EcefPositionAndVelocity) Position() [3]float64 {
	return [3]float64{e.X, e.Y, e.Z}
}

// Velocity returns the velocity as a 3-vector.
func (e EcefPositionAndVelocity) Velocity() [3]float64 {
	return [3]float64{e.VX, e.VY, e.VZ}
}

// GnssMeasurement is one satellite observable: pseudorange, pseudorange
// rate, and the satellite's ECEF position and velocity at time of
// transmission.
type GnssMeasurement struct {
	PseudoRange     float64 // ρ, metres, >= 0
	PseudoRangeRate float64 // ρ̇, m/s
	SatPosition     [3]float64
	SatVelocity     [3]float64
}

// GnssEstimation is the 8-scalar Kalman state: user ECEF position and
// velocity, receiver clock offset (m) and clock drift (m/s).
type GnssEstimation struct {
	X, Y, Z     float64
	VX, VY, VZ  float64
	ClockOffset float64
	ClockDrift  float64
}

// ToMatrix returns the estimation as an 8x1 column matrix, in the fixed
// order [x, y, z, vx, vy, vz, clockOffset, clockDrift].
func (e GnssEstimation) ToMatrix() *linalg.Matrix {
	return linalg.NewMatrix(stateDim, 1, []float64{
		e.X, e.Y, e.Z,
		e.VX, e.VY, e.VZ,
		e.ClockOffset, e.ClockDrift,
	})
}

// GnssEstimationFromMatrix rebuilds a GnssEstimation from an 8x1 column
// matrix in the order used by ToMatrix. It panics if m is not 8x1: a
// mismatched dimension here is a programmer error, not an operational one.
func GnssEstimationFromMatrix(m *linalg.Matrix) GnssEstimation {
	r, c := m.Dims()
	if r != stateDim || c != 1 {
		panic("gnss: state matrix must be 8x1")
	}
	return GnssEstimation{
		X: m.At(0, 0), Y: m.At(1, 0), Z: m.At(2, 0),
		VX: m.At(3, 0), VY: m.At(4, 0), VZ: m.At(5, 0),
		ClockOffset: m.At(6, 0), ClockDrift: m.At(7, 0),
	}
}

// Position returns the position component as a 3-vector.
func (e GnssEstimation) Position() [3]float64 {
	return [3]float64{e.X, e.Y, e.Z}
}

// Velocity returns the velocity component as a 3-vector.
func (e GnssEstimation) Velocity() [3]float64 {
	return [3]float64{e.VX, e.VY, e.VZ}
}

// IsFinite reports whether every component is a finite number, used to
// surface a *NumericalError from the epoch estimator.
func (e GnssEstimation) IsFinite() bool {
	vals := []float64{e.X, e.Y, e.Z, e.VX, e.VY, e.VZ, e.ClockOffset, e.ClockDrift}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// IsValid reports whether the pseudorange satisfies the invariant in
// spec §3: finite and non-negative.
func (m GnssMeasurement) IsValid() bool {
	return !math.IsNaN(m.PseudoRange) && !math.IsInf(m.PseudoRange, 0) && m.PseudoRange >= 0
}

// GnssKalmanState is the filter's belief: the current estimation and its
// 8x8 error covariance.
type GnssKalmanState struct {
	Estimation GnssEstimation
	Covariance *linalg.Matrix
}

// Copy returns a deep copy of the state (the covariance matrix is not
// shared with the original).
func (s GnssKalmanState) Copy() GnssKalmanState {
	r, c := s.Covariance.Dims()
	cov := linalg.NewMatrix(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			cov.Set(i, j, s.Covariance.At(i, j))
		}
	}
	return GnssKalmanState{Estimation: s.Estimation, Covariance: cov}
}
