package gnss

import (
	"sync"

	kitlog "github.com/go-kit/kit/log"
)

// GnssKalmanListener is the capability record of spec §9: a small set of
// optional, function-valued lifecycle hooks, invoked synchronously from
// inside the driver's lock. A nil field is simply skipped.
type GnssKalmanListener struct {
	OnUpdateStart    func()
	OnUpdateEnd      func()
	OnPropagateStart func()
	OnPropagateEnd   func()
	OnReset          func()
}

// bootstrapPositionGuess is the linearisation point handed to
// LeastSquaresPvtSolver on the very first update_measurements call: a point
// on the Earth's surface is a far better starting guess for Gauss-Newton
// than the geocenter.
var bootstrapPositionGuess = [4]float64{EarthEquatorialRadiusWGS84, 0, 0, 0}
var bootstrapVelocityGuess = [4]float64{0, 0, 0, 0}

// GnssKalmanFilteredEstimator is the stateful driver of spec §4.4: it owns
// the latest (x̂, P, t_last), the measurements backing the last update, and
// serialises every mutator through a run-lock so that a mutator called
// re-entrantly from a listener callback observes LockedError rather than
// deadlocking or corrupting state.
type GnssKalmanFilteredEstimator struct {
	mu      sync.Mutex
	running bool

	logger kitlog.Logger

	hasConfig bool
	cfg       GnssKalmanConfig

	epochInterval float64
	listener      GnssKalmanListener

	hasState      bool
	state         GnssKalmanState
	lastTimestamp float64
	measurements  []GnssMeasurement
}

// NewGnssKalmanFilteredEstimator returns an Uninitialised driver. logger may
// be nil, in which case a no-op logger is used.
func NewGnssKalmanFilteredEstimator(logger kitlog.Logger) *GnssKalmanFilteredEstimator {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return &GnssKalmanFilteredEstimator{logger: kitlog.With(logger, "component", "GnssKalmanFilteredEstimator")}
}

// lock enters the run-lock, failing with *LockedError if another mutator
// (including one further up the call stack, invoked from inside a listener
// callback) is already running.
func (e *GnssKalmanFilteredEstimator) lock() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return &LockedError{}
	}
	e.running = true
	return nil
}

func (e *GnssKalmanFilteredEstimator) unlock() {
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
}

// SetConfig validates and installs cfg.
func (e *GnssKalmanFilteredEstimator) SetConfig(cfg GnssKalmanConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := e.lock(); err != nil {
		return err
	}
	defer e.unlock()
	e.cfg = cfg
	e.hasConfig = true
	return nil
}

// Config returns the current configuration; the zero value if none was set.
func (e *GnssKalmanFilteredEstimator) Config() GnssKalmanConfig {
	return e.cfg
}

// SetEpochInterval sets the sub-stepping interval used by
// UpdateMeasurements when a gap larger than it is observed.
func (e *GnssKalmanFilteredEstimator) SetEpochInterval(dt float64) error {
	if dt < 0 {
		return &InvalidConfigError{Field: "EpochInterval", Reason: "must be >= 0"}
	}
	if err := e.lock(); err != nil {
		return err
	}
	defer e.unlock()
	e.epochInterval = dt
	return nil
}

// SetListener installs l as the lifecycle observer, replacing any previous
// listener.
func (e *GnssKalmanFilteredEstimator) SetListener(l GnssKalmanListener) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.unlock()
	e.listener = l
	return nil
}

// IsUpdateMeasurementsReady reports whether measurements carries enough
// observations for a bootstrap or epoch update.
func (e *GnssKalmanFilteredEstimator) IsUpdateMeasurementsReady(measurements []GnssMeasurement) bool {
	return len(measurements) >= 4
}

// UpdateMeasurements is the main entry point: on the first call it
// bootstraps via LeastSquaresPvtSolver, on subsequent calls it runs the
// epoch estimator (with sub-stepped pure propagation first, if the gap
// since the last update exceeds the configured epoch interval).
func (e *GnssKalmanFilteredEstimator) UpdateMeasurements(measurements []GnssMeasurement, t float64) (bool, error) {
	if !e.IsUpdateMeasurementsReady(measurements) {
		return false, &NotReadyError{Reason: "fewer than 4 measurements"}
	}
	if !e.hasConfig {
		return false, &NotReadyError{Reason: "no GnssKalmanConfig set"}
	}
	if err := e.lock(); err != nil {
		return false, err
	}
	defer e.unlock()

	stored := append([]GnssMeasurement(nil), measurements...)

	if !e.hasState {
		var solver LeastSquaresPvtSolver
		est, err := solver.Solve(measurements, bootstrapPositionGuess, bootstrapVelocityGuess)
		if err != nil {
			e.logger.Log("level", "warning", "message", "bootstrap failed", "err", err)
			return false, err
		}
		e.state = NewGnssKalmanState(est, e.cfg)
		e.hasState = true
		e.lastTimestamp = t
		e.measurements = stored
		e.fire(e.listener.OnUpdateStart)
		e.fire(e.listener.OnUpdateEnd)
		return true, nil
	}

	if t <= e.lastTimestamp {
		return false, nil
	}

	var estimator GnssKalmanEpochEstimator
	working := e.state
	remaining := t - e.lastTimestamp

	if e.epochInterval > 0 && remaining > e.epochInterval {
		e.fire(e.listener.OnPropagateStart)
		for remaining > e.epochInterval {
			next, err := estimator.Estimate(nil, e.epochInterval, working, e.cfg)
			if err != nil {
				e.logger.Log("level", "warning", "message", "sub-step propagation failed", "err", err)
				return false, err
			}
			working = next
			remaining -= e.epochInterval
		}
		e.fire(e.listener.OnPropagateEnd)
	}

	e.fire(e.listener.OnUpdateStart)
	next, err := estimator.Estimate(measurements, remaining, working, e.cfg)
	if err != nil {
		e.logger.Log("level", "warning", "message", "epoch update failed", "err", err)
		return false, err
	}
	e.state = next
	e.lastTimestamp = t
	e.measurements = stored
	e.fire(e.listener.OnUpdateEnd)
	return true, nil
}

// Propagate advances the filter to time t with no new measurements (a pure
// predict), leaving the prior state untouched on failure.
func (e *GnssKalmanFilteredEstimator) Propagate(t float64) (bool, error) {
	if !e.hasState || !e.hasConfig {
		return false, &NotReadyError{Reason: "no prior state or configuration"}
	}
	if err := e.lock(); err != nil {
		return false, err
	}
	defer e.unlock()

	if t <= e.lastTimestamp {
		return false, nil
	}

	var estimator GnssKalmanEpochEstimator
	e.fire(e.listener.OnPropagateStart)
	next, err := estimator.Estimate(nil, t-e.lastTimestamp, e.state, e.cfg)
	if err != nil {
		e.logger.Log("level", "warning", "message", "propagate failed", "err", err)
		return false, err
	}
	e.state = next
	e.lastTimestamp = t
	e.fire(e.listener.OnPropagateEnd)
	return true, nil
}

// Estimation returns the current state's GnssEstimation; the zero value if
// Uninitialised.
func (e *GnssKalmanFilteredEstimator) Estimation() GnssEstimation {
	return e.state.Estimation
}

// State returns a deep copy of the current GnssKalmanState.
func (e *GnssKalmanFilteredEstimator) State() GnssKalmanState {
	return e.state.Copy()
}

// LastStateTimestamp returns the timestamp of the last committed state and
// whether one exists yet.
func (e *GnssKalmanFilteredEstimator) LastStateTimestamp() (float64, bool) {
	return e.lastTimestamp, e.hasState
}

// Measurements returns the measurement set backing the last update.
func (e *GnssKalmanFilteredEstimator) Measurements() []GnssMeasurement {
	return e.measurements
}

// IsRunning reports whether a mutator is currently executing (true while
// inside a listener callback).
func (e *GnssKalmanFilteredEstimator) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Reset clears the stored state, measurements and timestamp, returning the
// driver to Uninitialised.
func (e *GnssKalmanFilteredEstimator) Reset() error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.unlock()
	e.hasState = false
	e.state = GnssKalmanState{}
	e.measurements = nil
	e.lastTimestamp = 0
	e.fire(e.listener.OnReset)
	return nil
}

// fire invokes cb if non-nil. Callbacks run synchronously while the driver
// is still marked running, so a mutator called back into observes
// LockedError.
func (e *GnssKalmanFilteredEstimator) fire(cb func()) {
	if cb != nil {
		cb()
	}
}
