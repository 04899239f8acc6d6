package gnss

// GnssMeasurementsGenerator synthesises the visible subset of
// GnssMeasurement for a constellation snapshot, given per-satellite biases
// and tracking noise (spec §4.6). It is the validation-only counterpart to
// GnssKalmanEpochEstimator: real receivers never call it, but it is what
// end-to-end tests drive through the filter.
type GnssMeasurementsGenerator struct{}

// satellite bundles a satellite's ECEF position/velocity for the
// generator's input, mirroring EcefPositionAndVelocity.
type satellite = EcefPositionAndVelocity

// Generate returns the GnssMeasurement list for the visible satellites
// among satellites, as seen from userState, using the supplied per-satellite
// biases (same order as satellites) and tracking noise drawn from rng. The
// epoch timestamp t is accepted for signature fidelity with spec §4.6 but
// does not otherwise enter the computation: visibility and range synthesis
// are purely geometric given userState and the satellite states.
func (GnssMeasurementsGenerator) Generate(t float64, satellites []satellite, userState EcefPositionAndVelocity, biases []float64, cfg GnssConstellationConfig, rng GaussianSource) []GnssMeasurement {
	if len(biases) != len(satellites) {
		panic("gnss: biases must have one entry per satellite")
	}
	mask := deg2rad(cfg.MaskAngleDegrees)
	userPos := userState.Position()
	userVel := userState.Velocity()

	visible := make([]GnssMeasurement, 0, len(satellites))
	for i, sat := range satellites {
		satPos := sat.Position()
		satVel := sat.Velocity()

		e := elevation(userPos, satPos)
		if e < mask {
			continue
		}

		rho, rhoDot, _ := predictPseudorangeAndRate(userPos, userVel, 0, 0, GnssMeasurement{SatPosition: satPos, SatVelocity: satVel})
		rho += biases[i] + cfg.CodeTrackingSD*rng.NextGaussian()
		rhoDot += cfg.RangeRateTrackingSD * rng.NextGaussian()

		visible = append(visible, GnssMeasurement{
			PseudoRange:     rho,
			PseudoRangeRate: rhoDot,
			SatPosition:     satPos,
			SatVelocity:     satVel,
		})
	}
	return visible
}
