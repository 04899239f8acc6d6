package gnss

// GnssConstellationConfig holds the scenario/simulation parameters consumed
// by GnssBiasesGenerator and GnssMeasurementsGenerator. Validate checks its
// invariants and NewGnssConstellationConfig runs it at construction; the
// fields are plain exported values, and assignments to them afterwards are
// not validated.
type GnssConstellationConfig struct {
	EpochInterval                float64 // seconds, >= 0
	InitialEstimatedPosition     EcefPositionAndVelocity
	NumSatellites                int     // >= 4
	OrbitalRadius                float64 // metres, >= 0
	InclinationDegrees           float64
	ConstellationLongitudeOffset float64 // degrees
	ConstellationTimingOffset    float64 // seconds
	MaskAngleDegrees             float64 // [0, 90]
	SisErrorSD                   float64 // metres, >= 0
	ZenithIonosphereSD           float64 // metres, >= 0
	ZenithTroposphereSD          float64 // metres, >= 0
	CodeTrackingSD               float64 // metres, >= 0
	RangeRateTrackingSD          float64 // m/s, >= 0
	InitialReceiverClockOffset   float64 // metres
	InitialReceiverClockDrift    float64 // m/s
}

// Validate checks every invariant in spec §3 and returns an
// *InvalidConfigError naming one offending field. The scalar fields are
// checked in declaration order; among the standard deviations, which
// negative one is named is not fixed.
func (c GnssConstellationConfig) Validate() error {
	if c.EpochInterval < 0 {
		return &InvalidConfigError{Field: "EpochInterval", Reason: "must be >= 0"}
	}
	if c.NumSatellites < 4 {
		return &InvalidConfigError{Field: "NumSatellites", Reason: "must be >= 4"}
	}
	if c.OrbitalRadius < 0 {
		return &InvalidConfigError{Field: "OrbitalRadius", Reason: "must be >= 0"}
	}
	if c.MaskAngleDegrees < 0 || c.MaskAngleDegrees > 90 {
		return &InvalidConfigError{Field: "MaskAngleDegrees", Reason: "must be within [0, 90]"}
	}
	for name, v := range map[string]float64{
		"SisErrorSD":          c.SisErrorSD,
		"ZenithIonosphereSD":  c.ZenithIonosphereSD,
		"ZenithTroposphereSD": c.ZenithTroposphereSD,
		"CodeTrackingSD":      c.CodeTrackingSD,
		"RangeRateTrackingSD": c.RangeRateTrackingSD,
	} {
		if v < 0 {
			return &InvalidConfigError{Field: name, Reason: "must be >= 0"}
		}
	}
	return nil
}

// NewGnssConstellationConfig validates cfg and returns it, matching every
// constructor in the teacher's "validate at construction" convention.
func NewGnssConstellationConfig(cfg GnssConstellationConfig) (GnssConstellationConfig, error) {
	if err := cfg.Validate(); err != nil {
		return GnssConstellationConfig{}, err
	}
	return cfg, nil
}

// GnssKalmanConfig holds the filter tuning parameters consumed by
// NewGnssKalmanState/FillGnssKalmanState and GnssKalmanEpochEstimator.
type GnssKalmanConfig struct {
	InitialPositionSD    float64 // metres, 1σ
	InitialVelocitySD    float64 // m/s, 1σ
	InitialClockOffsetSD float64 // metres, 1σ
	InitialClockDriftSD  float64 // m/s, 1σ
	AccelerationPSD      float64 // (m/s^2)^2/Hz
	ClockFrequencyPSD    float64 // sf
	ClockPhasePSD        float64 // sg
	PseudorangeMeasSD    float64 // metres, 1σ
	RangeRateMeasSD      float64 // m/s, 1σ
}

// Validate checks that every field is non-negative (spec §3).
func (c GnssKalmanConfig) Validate() error {
	fields := map[string]float64{
		"InitialPositionSD":    c.InitialPositionSD,
		"InitialVelocitySD":    c.InitialVelocitySD,
		"InitialClockOffsetSD": c.InitialClockOffsetSD,
		"InitialClockDriftSD":  c.InitialClockDriftSD,
		"AccelerationPSD":      c.AccelerationPSD,
		"ClockFrequencyPSD":    c.ClockFrequencyPSD,
		"ClockPhasePSD":        c.ClockPhasePSD,
		"PseudorangeMeasSD":    c.PseudorangeMeasSD,
		"RangeRateMeasSD":      c.RangeRateMeasSD,
	}
	for name, v := range fields {
		if v < 0 {
			return &InvalidConfigError{Field: name, Reason: "must be >= 0"}
		}
	}
	return nil
}

// NewGnssKalmanConfig validates cfg and returns it.
func NewGnssKalmanConfig(cfg GnssKalmanConfig) (GnssKalmanConfig, error) {
	if err := cfg.Validate(); err != nil {
		return GnssKalmanConfig{}, err
	}
	return cfg, nil
}
