// Command gnsssim drives the synthetic constellation and the tightly-coupled
// Kalman filter end to end: it seeds a regular satellite geometry, generates
// measurements each epoch, bootstraps the filter via the least-squares
// solver on the first epoch, and then updates it epoch by epoch, logging
// the position error against the known truth state.
package main

import (
	"flag"
	"math"
	"os"
	"time"

	"github.com/ChristopherRabotin/ode"
	kitlog "github.com/go-kit/kit/log"
	"github.com/soniakeys/meeus/julian"

	gnss "github.com/ChristopherRabotin/gnssfilter"
)

// constellationIntegrable advances the synthetic constellation's flattened
// [pos, vel] state (6 scalars per satellite) forward in time under
// straight-line (zero-acceleration) kinematics. It satisfies
// ode.Integrable, the same "blocking Solve() drives a callback-bearing
// integrable" shape the teacher uses to propagate an orbit estimate.
type constellationIntegrable struct {
	state  []float64
	stopAt float64
}

func (c *constellationIntegrable) GetState() []float64 { return c.state }

func (c *constellationIntegrable) SetState(t float64, s []float64) { c.state = s }

func (c *constellationIntegrable) Stop(t float64) bool { return t >= c.stopAt }

func (c *constellationIntegrable) Func(t float64, f []float64) (fDot []float64) {
	fDot = make([]float64, len(f))
	for i := 0; i+5 < len(f); i += 6 {
		fDot[i], fDot[i+1], fDot[i+2] = f[i+3], f[i+4], f[i+5]
	}
	return fDot
}

func flattenSatellites(sats []gnss.EcefPositionAndVelocity) []float64 {
	state := make([]float64, 6*len(sats))
	for i, s := range sats {
		base := 6 * i
		state[base], state[base+1], state[base+2] = s.X, s.Y, s.Z
		state[base+3], state[base+4], state[base+5] = s.VX, s.VY, s.VZ
	}
	return state
}

func unflattenSatellites(state []float64) []gnss.EcefPositionAndVelocity {
	sats := make([]gnss.EcefPositionAndVelocity, len(state)/6)
	for i := range sats {
		base := 6 * i
		sats[i] = gnss.EcefPositionAndVelocity{
			X: state[base], Y: state[base+1], Z: state[base+2],
			VX: state[base+3], VY: state[base+4], VZ: state[base+5],
		}
	}
	return sats
}

func main() {
	numEpochs := flag.Int("epochs", 20, "number of simulated epochs to run")
	epochInterval := flag.Float64("interval", 1.0, "seconds between epochs")
	seed := flag.Uint64("seed", 42, "RNG seed for bias and tracking-noise draws")
	flag.Parse()

	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC, "caller", kitlog.DefaultCaller)

	constellationCfg, err := gnss.NewGnssConstellationConfig(gnss.GnssConstellationConfig{
		EpochInterval:       *epochInterval,
		NumSatellites:       8,
		OrbitalRadius:       26560000,
		InclinationDegrees:  55,
		MaskAngleDegrees:    10,
		SisErrorSD:          0.3,
		ZenithIonosphereSD:  2.0,
		ZenithTroposphereSD: 0.3,
		CodeTrackingSD:      0.5,
		RangeRateTrackingSD: 0.05,
	})
	if err != nil {
		logger.Log("level", "error", "message", "invalid constellation config", "err", err)
		os.Exit(1)
	}

	kalmanCfg, err := gnss.NewGnssKalmanConfig(gnss.GnssKalmanConfig{
		InitialPositionSD:    100,
		InitialVelocitySD:    10,
		InitialClockOffsetSD: 1e4,
		InitialClockDriftSD:  1e2,
		AccelerationPSD:      1e-3,
		ClockFrequencyPSD:    1e-3,
		ClockPhasePSD:        1e-3,
		PseudorangeMeasSD:    0.5,
		RangeRateMeasSD:      0.05,
	})
	if err != nil {
		logger.Log("level", "error", "message", "invalid kalman config", "err", err)
		os.Exit(1)
	}

	truth := gnss.GnssEstimation{X: gnss.EarthEquatorialRadiusWGS84, Y: 0, Z: 0, VX: 3, VY: -1, VZ: 0.2}
	satellites := regularConstellation(truth.Position(), constellationCfg)

	driver := gnss.NewGnssKalmanFilteredEstimator(logger)
	if err := driver.SetConfig(kalmanCfg); err != nil {
		logger.Log("level", "error", "message", "SetConfig failed", "err", err)
		os.Exit(1)
	}
	if err := driver.SetEpochInterval(constellationCfg.EpochInterval); err != nil {
		logger.Log("level", "error", "message", "SetEpochInterval failed", "err", err)
		os.Exit(1)
	}
	listener := gnss.GnssKalmanListener{
		OnPropagateStart: func() { logger.Log("level", "debug", "message", "propagate start") },
		OnPropagateEnd:   func() { logger.Log("level", "debug", "message", "propagate end") },
	}
	if err := driver.SetListener(listener); err != nil {
		logger.Log("level", "error", "message", "SetListener failed", "err", err)
		os.Exit(1)
	}

	var biasGen gnss.GnssBiasesGenerator
	var measGen gnss.GnssMeasurementsGenerator
	rng := gnss.NewNormalSource(*seed)

	epochZero := julian.TimeToJD(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	satState := flattenSatellites(satellites)
	for epoch := 0; epoch < *numEpochs; epoch++ {
		if epoch > 0 {
			integrable := &constellationIntegrable{state: satState, stopAt: constellationCfg.EpochInterval}
			ode.NewRK4(0, constellationCfg.EpochInterval, integrable).Solve() // Blocking.
			satState = integrable.GetState()
			satellites = unflattenSatellites(satState)
		}

		t := float64(epoch) * constellationCfg.EpochInterval
		jd := epochZero + t/86400

		satPositions := make([][3]float64, len(satellites))
		for i, s := range satellites {
			satPositions[i] = s.Position()
		}
		biases := biasGen.GenerateBatch(satPositions, truth.Position(), constellationCfg, rng)

		measurements := measGen.Generate(t, satellites, gnss.EcefPositionAndVelocity{
			X: truth.X, Y: truth.Y, Z: truth.Z, VX: truth.VX, VY: truth.VY, VZ: truth.VZ,
		}, biases, constellationCfg, rng)

		if !driver.IsUpdateMeasurementsReady(measurements) {
			logger.Log("level", "warning", "message", "not enough visible satellites this epoch", "jd", jd, "count", len(measurements))
			continue
		}

		ok, err := driver.UpdateMeasurements(measurements, t)
		if err != nil {
			logger.Log("level", "error", "message", "update_measurements failed", "epoch", epoch, "err", err)
			continue
		}
		if !ok {
			continue
		}

		est := driver.Estimation()
		posErr := distance(est.Position(), truth.Position())
		velErr := distance(est.Velocity(), truth.Velocity())
		logger.Log("level", "info", "message", "epoch complete", "epoch", epoch, "jd", jd, "pos_err_m", posErr, "vel_err_mps", velErr)
	}
}

func distance(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// regularConstellation places cfg.NumSatellites satellites in a regular
// azimuthal ring around userPos at cfg.OrbitalRadius, alternating between
// two elevations so that a visibility mask has something to filter.
func regularConstellation(userPos [3]float64, cfg gnss.GnssConstellationConfig) []gnss.EcefPositionAndVelocity {
	sats := make([]gnss.EcefPositionAndVelocity, cfg.NumSatellites)
	lat, lon, h := gnss.EcefToGeodetic(userPos)
	for i := 0; i < cfg.NumSatellites; i++ {
		az := 2 * math.Pi * float64(i) / float64(cfg.NumSatellites)
		el := (20 + 40*math.Mod(float64(i), 2)) * math.Pi / 180
		north := cfg.OrbitalRadius * math.Cos(el) * math.Cos(az)
		east := cfg.OrbitalRadius * math.Cos(el) * math.Sin(az)
		down := -cfg.OrbitalRadius * math.Sin(el)
		vel := [3]float64{-200 * math.Sin(az), 200 * math.Cos(az), 50}
		pos, velEcef := gnss.NedToEcefPositionVelocity(lat, lon, h, [3]float64{north, east, down}, vel)
		sats[i] = gnss.EcefPositionAndVelocity{X: pos[0], Y: pos[1], Z: pos[2], VX: velEcef[0], VY: velEcef[1], VZ: velEcef[2]}
	}
	return sats
}
