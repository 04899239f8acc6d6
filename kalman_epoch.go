package gnss

import (
	"math"

	"github.com/ChristopherRabotin/gnssfilter/internal/linalg"
)

// GnssKalmanEpochEstimator is the stateless one-shot epoch update of
// spec §4.3: predict, then (if any measurements are supplied) correct. It
// owns no state of its own, so the same function may be called directly
// outside GnssKalmanFilteredEstimator, e.g. from a test harness.
type GnssKalmanEpochEstimator struct{}

// Estimate runs one Kalman epoch: propagate (prior, Δt) through the
// constant-velocity/clock model, then, if measurements is non-empty,
// correct with the pseudorange/pseudorange-rate observations. An empty
// measurements slice performs a pure predict (spec §4.4's "propagate").
func (GnssKalmanEpochEstimator) Estimate(measurements []GnssMeasurement, dt float64, prior GnssKalmanState, cfg GnssKalmanConfig) (GnssKalmanState, error) {
	phi := transitionMatrix(dt)
	q := processNoiseMatrix(dt, cfg)

	xPriorVec := prior.Estimation.ToMatrix()
	xPredVec := phi.Multiply(xPriorVec)
	xPred := GnssEstimationFromMatrix(xPredVec)

	pPred := phi.Multiply(prior.Covariance).Multiply(phi.Transpose()).Add(q)

	if len(measurements) == 0 {
		if !xPred.IsFinite() {
			return GnssKalmanState{}, &NumericalError{Where: "state propagation"}
		}
		return GnssKalmanState{Estimation: xPred, Covariance: pPred}, nil
	}

	m := len(measurements)
	userPos := xPred.Position()
	userVel := xPred.Velocity()

	u := make([][3]float64, m)
	predRho := make([]float64, m)
	predRhoDot := make([]float64, m)
	for j, meas := range measurements {
		rho, rhoDot, uj := predictPseudorangeAndRate(userPos, userVel, xPred.ClockOffset, xPred.ClockDrift, meas)
		u[j] = uj
		predRho[j] = rho
		predRhoDot[j] = rhoDot
	}

	h := measurementMatrix(u)
	r := measurementNoiseMatrix(m, cfg)
	dz := innovationVector(measurements, predRho, predRhoDot)

	ht := h.Transpose()
	innovationCov := h.Multiply(pPred).Multiply(ht).Add(r)
	innovationCovInv, err := linalg.Inverse(innovationCov)
	if err != nil {
		return GnssKalmanState{}, &SingularGainError{}
	}
	k := pPred.Multiply(ht).Multiply(innovationCovInv)

	xPostVec := xPredVec.Add(k.Multiply(dz))
	xPost := GnssEstimationFromMatrix(xPostVec)

	n, _ := pPred.Dims()
	pPost := linalg.Identity(n).Subtract(k.Multiply(h)).Multiply(pPred)

	if !xPost.IsFinite() {
		return GnssKalmanState{}, &NumericalError{Where: "state update"}
	}
	for i := 0; i < n; i++ {
		for jj := 0; jj < n; jj++ {
			v := pPost.At(i, jj)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return GnssKalmanState{}, &NumericalError{Where: "covariance update"}
			}
		}
	}

	return GnssKalmanState{Estimation: xPost, Covariance: pPost}, nil
}

// transitionMatrix builds Φ: identity plus Δt coupling position↔velocity
// and clockOffset↔clockDrift (spec §4.3 step 1).
func transitionMatrix(dt float64) *linalg.Matrix {
	phi := linalg.Identity(stateDim)
	phi.Set(0, 3, dt)
	phi.Set(1, 4, dt)
	phi.Set(2, 5, dt)
	phi.Set(6, 7, dt)
	return phi
}

// processNoiseMatrix builds Q: a white-noise-acceleration kinematic block
// and a phase+frequency clock-noise block (spec §4.3 step 2).
func processNoiseMatrix(dt float64, cfg GnssKalmanConfig) *linalg.Matrix {
	q := linalg.NewMatrix(stateDim, stateDim, nil)
	a := cfg.AccelerationPSD
	dt2 := dt * dt
	dt3 := dt2 * dt
	posVar := a * dt3 / 3
	crossVar := a * dt2 / 2
	velVar := a * dt
	for i := 0; i < 3; i++ {
		q.Set(i, i, posVar)
		q.Set(i, i+3, crossVar)
		q.Set(i+3, i, crossVar)
		q.Set(i+3, i+3, velVar)
	}
	sf := cfg.ClockFrequencyPSD
	sg := cfg.ClockPhasePSD
	q.Set(6, 6, sf*dt3/3+sg*dt)
	q.Set(6, 7, sf*dt2/2)
	q.Set(7, 6, sf*dt2/2)
	q.Set(7, 7, sf*dt)
	return q
}

// applyCei rotates v by the Sagnac correction matrix built from k = ωe·r̃/c:
//
//	[[1, k, 0], [-k, 1, 0], [0, 0, 1]]
func applyCei(k float64, v [3]float64) [3]float64 {
	return [3]float64{
		v[0] + k*v[1],
		-k*v[0] + v[1],
		v[2],
	}
}

// earthRotationCross returns Ωe·v = ωe ẑ × v.
func earthRotationCross(v [3]float64) [3]float64 {
	return cross3([3]float64{0, 0, EarthRotationRate}, v)
}

// sagnacCorrectedRange computes the Sagnac-corrected range vector and
// scalar range between a (possibly propagated) user position and a
// satellite position, per spec §4.3 step 5a-c.
func sagnacCorrectedRange(userPos, satPos [3]float64) (deltaR [3]float64, r, k float64) {
	provisional := sub3(satPos, userPos)
	rProvisional := norm3(provisional)
	k = EarthRotationRate * rProvisional / SpeedOfLight
	correctedSatPos := applyCei(k, satPos)
	deltaR = sub3(correctedSatPos, userPos)
	r = norm3(deltaR)
	return deltaR, r, k
}

// predictPseudorangeAndRate predicts the pseudorange and pseudorange-rate a
// satellite would produce given the (propagated) user state, per spec §4.3
// steps 5d-f. It also returns the line-of-sight unit vector u_j.
func predictPseudorangeAndRate(userPos, userVel [3]float64, clockOffset, clockDrift float64, meas GnssMeasurement) (rho, rhoDot float64, u [3]float64) {
	deltaR, r, k := sagnacCorrectedRange(userPos, meas.SatPosition)
	rho = r + clockOffset
	u = scale3(1/r, deltaR)

	satVelCorrected := applyCei(k, add3(meas.SatVelocity, earthRotationCross(meas.SatPosition)))
	userVelTerm := add3(userVel, earthRotationCross(userPos))
	relVel := sub3(satVelCorrected, userVelTerm)
	rhoDot = dot3(u, relVel) + clockDrift
	return rho, rhoDot, u
}

// measurementMatrix builds H (2m x 8) from the line-of-sight rows (spec §4.3
// step 6).
func measurementMatrix(u [][3]float64) *linalg.Matrix {
	m := len(u)
	h := linalg.NewMatrix(2*m, stateDim, nil)
	for j := 0; j < m; j++ {
		for c := 0; c < 3; c++ {
			h.Set(j, c, -u[j][c])
			h.Set(m+j, 3+c, -u[j][c])
		}
		h.Set(j, 6, 1)
		h.Set(m+j, 7, 1)
	}
	return h
}

// measurementNoiseMatrix builds the block-diagonal measurement noise
// covariance R (spec §4.3 step 7).
func measurementNoiseMatrix(m int, cfg GnssKalmanConfig) *linalg.Matrix {
	r := linalg.NewMatrix(2*m, 2*m, nil)
	rhoVar := cfg.PseudorangeMeasSD * cfg.PseudorangeMeasSD
	rhoDotVar := cfg.RangeRateMeasSD * cfg.RangeRateMeasSD
	for j := 0; j < m; j++ {
		r.Set(j, j, rhoVar)
		r.Set(m+j, m+j, rhoDotVar)
	}
	return r
}

// innovationVector builds Δz (spec §4.3 step 9).
func innovationVector(measurements []GnssMeasurement, predRho, predRhoDot []float64) *linalg.Matrix {
	m := len(measurements)
	dz := linalg.NewMatrix(2*m, 1, nil)
	for j, meas := range measurements {
		dz.Set(j, 0, meas.PseudoRange-predRho[j])
		dz.Set(m+j, 0, meas.PseudoRangeRate-predRhoDot[j])
	}
	return dz
}
