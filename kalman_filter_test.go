package gnss

import (
	"math"
	"testing"
)

func syntheticUpdate(t *testing.T, driver *GnssKalmanFilteredEstimator, truth GnssEstimation, epoch float64) bool {
	t.Helper()
	cfg := validConstellationConfig()
	cfg.OrbitalRadius = 26560000
	cfg.MaskAngleDegrees = 5
	cfg.SisErrorSD, cfg.ZenithIonosphereSD, cfg.ZenithTroposphereSD = 0, 0, 0
	cfg.CodeTrackingSD, cfg.RangeRateTrackingSD = 0, 0

	userPos := truth.Position()
	user := EcefPositionAndVelocity{X: truth.X, Y: truth.Y, Z: truth.Z, VX: truth.VX, VY: truth.VY, VZ: truth.VZ}
	sats := regularConstellation(userPos, cfg)
	biases := make([]float64, len(sats))

	var mgen GnssMeasurementsGenerator
	rng := NewConstantGaussianSource(0)
	meas := mgen.Generate(epoch, sats, user, biases, cfg, rng)
	if len(meas) < 4 {
		t.Fatalf("need at least 4 visible satellites, got %d", len(meas))
	}
	ok, err := driver.UpdateMeasurements(meas, epoch)
	if err != nil {
		t.Fatalf("UpdateMeasurements failed: %v", err)
	}
	return ok
}

func TestDriverBootstrapConvergesNearTruth(t *testing.T) {
	truth := GnssEstimation{X: EarthEquatorialRadiusWGS84, Y: 0, Z: 0, VX: 1, VY: 2, VZ: 0}

	driver := NewGnssKalmanFilteredEstimator(nil)
	if err := driver.SetConfig(validKalmanConfig()); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}

	ok := syntheticUpdate(t, driver, truth, 100)
	if !ok {
		t.Fatal("expected first UpdateMeasurements to succeed")
	}

	got := driver.Estimation()
	posErr := norm3(sub3(got.Position(), truth.Position()))
	velErr := norm3(sub3(got.Velocity(), truth.Velocity()))
	if posErr > 0.5 {
		t.Fatalf("bootstrap position error %f m exceeds 0.5 m", posErr)
	}
	if velErr > 0.05 {
		t.Fatalf("bootstrap velocity error %f m/s exceeds 0.05 m/s", velErr)
	}
}

func TestDriverIdempotentAtSameTimestamp(t *testing.T) {
	truth := GnssEstimation{X: EarthEquatorialRadiusWGS84, Y: 0, Z: 0, VX: 1, VY: 2, VZ: 0}
	driver := NewGnssKalmanFilteredEstimator(nil)
	if err := driver.SetConfig(validKalmanConfig()); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	if !syntheticUpdate(t, driver, truth, 100) {
		t.Fatal("expected bootstrap to succeed")
	}

	before := driver.State()
	ok, err := driver.UpdateMeasurements(make([]GnssMeasurement, 4), 100)
	if err != nil {
		t.Fatalf("unexpected error on stale-timestamp update: %v", err)
	}
	if ok {
		t.Fatal("expected update at t == t_last to return false")
	}
	after := driver.State()
	if after.Estimation != before.Estimation {
		t.Fatalf("state changed on stale-timestamp update: before=%+v after=%+v", before.Estimation, after.Estimation)
	}
}

func TestDriverResetInvariants(t *testing.T) {
	truth := GnssEstimation{X: EarthEquatorialRadiusWGS84, Y: 0, Z: 0, VX: 1, VY: 2, VZ: 0}
	driver := NewGnssKalmanFilteredEstimator(nil)
	if err := driver.SetConfig(validKalmanConfig()); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	if !syntheticUpdate(t, driver, truth, 100) {
		t.Fatal("expected bootstrap to succeed")
	}

	if err := driver.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, has := driver.LastStateTimestamp(); has {
		t.Fatal("expected no last-state timestamp after reset")
	}
	if driver.Measurements() != nil {
		t.Fatal("expected nil measurements after reset")
	}

	if !syntheticUpdate(t, driver, truth, 200) {
		t.Fatal("expected update_measurements after reset to bootstrap again")
	}
}

func TestDriverLockedDuringCallback(t *testing.T) {
	truth := GnssEstimation{X: EarthEquatorialRadiusWGS84, Y: 0, Z: 0, VX: 1, VY: 2, VZ: 0}
	driver := NewGnssKalmanFilteredEstimator(nil)
	if err := driver.SetConfig(validKalmanConfig()); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}

	var reentryErr error
	listener := GnssKalmanListener{
		OnUpdateStart: func() {
			reentryErr = driver.SetEpochInterval(1)
		},
	}
	if err := driver.SetListener(listener); err != nil {
		t.Fatalf("SetListener failed: %v", err)
	}

	if !syntheticUpdate(t, driver, truth, 100) {
		t.Fatal("expected bootstrap to succeed")
	}
	if _, ok := reentryErr.(*LockedError); !ok {
		t.Fatalf("expected *LockedError from mutator called inside callback, got %v (%T)", reentryErr, reentryErr)
	}
}

func TestDriverPropagateGrowsCovariance(t *testing.T) {
	truth := GnssEstimation{X: EarthEquatorialRadiusWGS84, Y: 0, Z: 0, VX: 1, VY: 2, VZ: 0}
	driver := NewGnssKalmanFilteredEstimator(nil)
	cfg := validKalmanConfig()
	cfg.AccelerationPSD = 1e-2
	cfg.ClockFrequencyPSD = 1e-2
	cfg.ClockPhasePSD = 1e-2
	if err := driver.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	if !syntheticUpdate(t, driver, truth, 100) {
		t.Fatal("expected bootstrap to succeed")
	}
	before := driver.State().Covariance.NormF()

	ok, err := driver.Propagate(200)
	if err != nil {
		t.Fatalf("Propagate failed: %v", err)
	}
	if !ok {
		t.Fatal("expected Propagate to succeed")
	}
	after := driver.State().Covariance.NormF()
	if after < before {
		t.Fatalf("covariance norm shrank after propagation: before=%f after=%f", before, after)
	}
}

func TestDriverNotReadyWithoutConfig(t *testing.T) {
	driver := NewGnssKalmanFilteredEstimator(nil)
	_, err := driver.UpdateMeasurements(make([]GnssMeasurement, 4), 1)
	if _, ok := err.(*NotReadyError); !ok {
		t.Fatalf("expected *NotReadyError, got %v (%T)", err, err)
	}
}

func TestDriverNotReadyWithFewMeasurements(t *testing.T) {
	driver := NewGnssKalmanFilteredEstimator(nil)
	if err := driver.SetConfig(validKalmanConfig()); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	_, err := driver.UpdateMeasurements(make([]GnssMeasurement, 3), 1)
	if _, ok := err.(*NotReadyError); !ok {
		t.Fatalf("expected *NotReadyError, got %v (%T)", err, err)
	}
}

func TestDriverSubsteppedPropagation(t *testing.T) {
	truth := GnssEstimation{X: EarthEquatorialRadiusWGS84, Y: 0, Z: 0, VX: 1, VY: 2, VZ: 0}
	driver := NewGnssKalmanFilteredEstimator(nil)
	if err := driver.SetConfig(validKalmanConfig()); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	if err := driver.SetEpochInterval(1); err != nil {
		t.Fatalf("SetEpochInterval failed: %v", err)
	}

	var propagateStarts, propagateEnds, updateStarts, updateEnds int
	listener := GnssKalmanListener{
		OnPropagateStart: func() { propagateStarts++ },
		OnPropagateEnd:   func() { propagateEnds++ },
		OnUpdateStart:    func() { updateStarts++ },
		OnUpdateEnd:      func() { updateEnds++ },
	}
	if err := driver.SetListener(listener); err != nil {
		t.Fatalf("SetListener failed: %v", err)
	}

	if !syntheticUpdate(t, driver, truth, 100) {
		t.Fatal("expected bootstrap to succeed")
	}
	if updateStarts != 1 || updateEnds != 1 {
		t.Fatalf("bootstrap callback counts = (%d,%d), want (1,1)", updateStarts, updateEnds)
	}

	if !syntheticUpdate(t, driver, truth, 105) {
		t.Fatal("expected second update (gap > epoch interval) to succeed")
	}
	if propagateStarts != 1 || propagateEnds != 1 {
		t.Fatalf("propagate callback counts = (%d,%d), want (1,1)", propagateStarts, propagateEnds)
	}
	if updateStarts != 2 || updateEnds != 2 {
		t.Fatalf("update callback counts = (%d,%d), want (2,2)", updateStarts, updateEnds)
	}

	if math.IsNaN(driver.Estimation().X) {
		t.Fatal("estimation is NaN after substepped update")
	}
}
