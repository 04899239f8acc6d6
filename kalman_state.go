package gnss

import "github.com/ChristopherRabotin/gnssfilter/internal/linalg"

// NewGnssKalmanState builds the initial GnssKalmanState from a seed
// estimation and the filter tuning configuration (spec §4.2): the
// covariance is the 8x8 diagonal matrix of squared 1σ uncertainties.
func NewGnssKalmanState(seed GnssEstimation, cfg GnssKalmanConfig) GnssKalmanState {
	var state GnssKalmanState
	FillGnssKalmanState(&state, seed, cfg)
	return state
}

// FillGnssKalmanState is the output-parameter form of NewGnssKalmanState,
// for callers that want to avoid an allocation in a tight loop (the same
// "fill this output, or return a new one" duality the spec's design notes
// call out).
func FillGnssKalmanState(out *GnssKalmanState, seed GnssEstimation, cfg GnssKalmanConfig) {
	out.Estimation = seed
	out.Covariance = linalg.Diagonal([]float64{
		cfg.InitialPositionSD * cfg.InitialPositionSD,
		cfg.InitialPositionSD * cfg.InitialPositionSD,
		cfg.InitialPositionSD * cfg.InitialPositionSD,
		cfg.InitialVelocitySD * cfg.InitialVelocitySD,
		cfg.InitialVelocitySD * cfg.InitialVelocitySD,
		cfg.InitialVelocitySD * cfg.InitialVelocitySD,
		cfg.InitialClockOffsetSD * cfg.InitialClockOffsetSD,
		cfg.InitialClockDriftSD * cfg.InitialClockDriftSD,
	})
}
