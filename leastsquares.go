package gnss

import (
	"math"

	"github.com/ChristopherRabotin/gnssfilter/internal/linalg"
)

const (
	leastSquaresMaxIterations = 20
	leastSquaresTolerance     = 1e-9
)

// PseudorangesEquations is the nonlinear residual/Jacobian block
// LeastSquaresPvtSolver linearises to solve for position and clock offset
// (spec §4.1).
type PseudorangesEquations struct{}

// Evaluate returns, for the linearisation point x = [x, y, z, clockOffset],
// the residual vector δρ = ρ_observed - ρ_predicted and the Jacobian
// [-u_j^T, 1], along with the per-satellite line-of-sight vectors used to
// build it (needed by PseudorangeRatesEquations once position converges).
func (PseudorangesEquations) Evaluate(measurements []GnssMeasurement, x [4]float64) (residual, jacobian *linalg.Matrix, los [][3]float64) {
	m := len(measurements)
	userPos := [3]float64{x[0], x[1], x[2]}
	clockOffset := x[3]

	residual = linalg.NewMatrix(m, 1, nil)
	jacobian = linalg.NewMatrix(m, 4, nil)
	los = make([][3]float64, m)

	for j, meas := range measurements {
		rawDelta := sub3(meas.SatPosition, userPos)
		_, r, _ := sagnacCorrectedRange(userPos, meas.SatPosition)
		u := scale3(1/r, rawDelta)
		los[j] = u

		predicted := r + clockOffset
		residual.Set(j, 0, meas.PseudoRange-predicted)
		jacobian.Set(j, 0, -u[0])
		jacobian.Set(j, 1, -u[1])
		jacobian.Set(j, 2, -u[2])
		jacobian.Set(j, 3, 1)
	}
	return residual, jacobian, los
}

// PseudorangeRatesEquations is the analogous block for velocity and clock
// drift, linearised at the position already converged by
// PseudorangesEquations.
type PseudorangeRatesEquations struct{}

// Evaluate returns the residual and Jacobian for v = [vx, vy, vz,
// clockDrift], given the converged user position userPos, clock offset
// clockOffset, and the line-of-sight vectors los computed at that position.
func (PseudorangeRatesEquations) Evaluate(measurements []GnssMeasurement, userPos [3]float64, clockOffset float64, v [4]float64, los [][3]float64) (residual, jacobian *linalg.Matrix) {
	m := len(measurements)
	userVel := [3]float64{v[0], v[1], v[2]}
	clockDrift := v[3]

	residual = linalg.NewMatrix(m, 1, nil)
	jacobian = linalg.NewMatrix(m, 4, nil)

	for j, meas := range measurements {
		_, predictedRate, _ := predictPseudorangeAndRate(userPos, userVel, clockOffset, clockDrift, meas)
		residual.Set(j, 0, meas.PseudoRangeRate-predictedRate)
		u := los[j]
		jacobian.Set(j, 0, -u[0])
		jacobian.Set(j, 1, -u[1])
		jacobian.Set(j, 2, -u[2])
		jacobian.Set(j, 3, 1)
	}
	return residual, jacobian
}

// LeastSquaresPvtSolver is the Gauss-Newton bootstrap estimator of spec
// §4.1: it produces an initial position+clock-offset and velocity+
// clock-drift estimate from raw pseudoranges/pseudorange-rates alone,
// without any prior Kalman state.
type LeastSquaresPvtSolver struct{}

// SolvePosition refines priorPosClock = [x, y, z, clockOffset] against
// measurements by Gauss-Newton iteration, returning the converged estimate
// and the line-of-sight vectors at convergence (consumed by SolveVelocity).
func (s LeastSquaresPvtSolver) SolvePosition(measurements []GnssMeasurement, priorPosClock [4]float64) (posClock [4]float64, los [][3]float64, err error) {
	if len(measurements) < 4 {
		return [4]float64{}, nil, &InsufficientMeasurementsError{Got: len(measurements), Want: 4}
	}
	var eqs PseudorangesEquations
	x := priorPosClock
	for iter := 0; iter < leastSquaresMaxIterations; iter++ {
		residual, jacobian, u := eqs.Evaluate(measurements, x)
		delta, err := gaussNewtonStep(jacobian, residual)
		if err != nil {
			return [4]float64{}, nil, err
		}
		x = addVec4(x, delta)
		if vec4Norm(delta) <= leastSquaresTolerance {
			return x, u, nil
		}
	}
	return [4]float64{}, nil, &ConvergenceError{Iterations: leastSquaresMaxIterations}
}

// SolveVelocity refines priorVelDrift = [vx, vy, vz, clockDrift] against
// measurements, given the position and clock offset already converged by
// SolvePosition and its line-of-sight vectors.
func (s LeastSquaresPvtSolver) SolveVelocity(measurements []GnssMeasurement, userPos [3]float64, clockOffset float64, los [][3]float64, priorVelDrift [4]float64) (velDrift [4]float64, err error) {
	if len(measurements) < 4 {
		return [4]float64{}, &InsufficientMeasurementsError{Got: len(measurements), Want: 4}
	}
	var eqs PseudorangeRatesEquations
	v := priorVelDrift
	for iter := 0; iter < leastSquaresMaxIterations; iter++ {
		residual, jacobian := eqs.Evaluate(measurements, userPos, clockOffset, v, los)
		delta, err := gaussNewtonStep(jacobian, residual)
		if err != nil {
			return [4]float64{}, err
		}
		v = addVec4(v, delta)
		if vec4Norm(delta) <= leastSquaresTolerance {
			return v, nil
		}
	}
	return [4]float64{}, &ConvergenceError{Iterations: leastSquaresMaxIterations}
}

// Solve runs SolvePosition then SolveVelocity and assembles the result into
// a GnssEstimation, the shape GnssKalmanFilteredEstimator needs to bootstrap
// its first GnssKalmanState.
func (s LeastSquaresPvtSolver) Solve(measurements []GnssMeasurement, priorPosClock, priorVelDrift [4]float64) (GnssEstimation, error) {
	posClock, los, err := s.SolvePosition(measurements, priorPosClock)
	if err != nil {
		return GnssEstimation{}, err
	}
	velDrift, err := s.SolveVelocity(measurements, [3]float64{posClock[0], posClock[1], posClock[2]}, posClock[3], los, priorVelDrift)
	if err != nil {
		return GnssEstimation{}, err
	}
	return GnssEstimation{
		X: posClock[0], Y: posClock[1], Z: posClock[2],
		VX: velDrift[0], VY: velDrift[1], VZ: velDrift[2],
		ClockOffset: posClock[3], ClockDrift: velDrift[3],
	}, nil
}

// gaussNewtonStep solves the normal equations HᵀH Δ = Hᵀδ, failing with
// *SingularGeometryError when HᵀH cannot be inverted (colinear satellites).
func gaussNewtonStep(h, residual *linalg.Matrix) ([4]float64, error) {
	ht := h.Transpose()
	hth := ht.Multiply(h)
	htd := ht.Multiply(residual)
	hthInv, err := linalg.Inverse(hth)
	if err != nil {
		return [4]float64{}, &SingularGeometryError{}
	}
	deltaM := hthInv.Multiply(htd)
	return [4]float64{deltaM.At(0, 0), deltaM.At(1, 0), deltaM.At(2, 0), deltaM.At(3, 0)}, nil
}

func addVec4(a, b [4]float64) [4]float64 {
	return [4]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
}

func vec4Norm(a [4]float64) float64 {
	return math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2] + a[3]*a[3])
}
