package gnss

import "math"

// elevation returns the elevation angle (radians, positive above the local
// horizon) of a satellite as seen from userPos, computed in the local NED
// frame at userPos (spec §4.5 steps 1-3).
func elevation(userPos, satPos [3]float64) float64 {
	lat, lon, _ := EcefToGeodetic(userPos)
	cen := EcefToNedMatrix(lat, lon)
	los := sub3(satPos, userPos)
	u := scale3(1/norm3(los), los)
	// Cen's third row is the Down axis expressed in ECEF; its dot product
	// with the line-of-sight unit vector is -sin(elevation).
	down := [3]float64{cen.At(2, 0), cen.At(2, 1), cen.At(2, 2)}
	return -math.Asin(dot3(down, u))
}

// GnssBiasesGenerator draws the per-satellite range bias modelling
// signal-in-space plus obliquity-inflated ionospheric and tropospheric
// error, gated by the mask angle (spec §4.5).
type GnssBiasesGenerator struct{}

// Generate returns the range bias (metres) for one satellite.
func (GnssBiasesGenerator) Generate(satPos, userPos [3]float64, cfg GnssConstellationConfig, rng GaussianSource) float64 {
	e := elevation(userPos, satPos)
	mask := deg2rad(cfg.MaskAngleDegrees)
	if e < mask {
		e = mask
	}
	cos2e := math.Cos(e) * math.Cos(e)
	sigmaIono := cfg.ZenithIonosphereSD / math.Sqrt(1-0.899*cos2e)
	sigmaTropo := cfg.ZenithTroposphereSD / math.Sqrt(1-0.998*cos2e)
	return cfg.SisErrorSD*rng.NextGaussian() + sigmaIono*rng.NextGaussian() + sigmaTropo*rng.NextGaussian()
}

// GenerateBatch returns the biases for satPositions, in order, calling
// Generate once per satellite against the same rng (spec §4.5's batch
// form). It allocates the result slice; FillBatch is the output-parameter
// twin for callers that want to reuse a buffer across epochs.
func (g GnssBiasesGenerator) GenerateBatch(satPositions [][3]float64, userPos [3]float64, cfg GnssConstellationConfig, rng GaussianSource) []float64 {
	out := make([]float64, len(satPositions))
	g.FillBatch(out, satPositions, userPos, cfg, rng)
	return out
}

// FillBatch writes len(satPositions) biases into out, which must already
// have that length.
func (g GnssBiasesGenerator) FillBatch(out []float64, satPositions [][3]float64, userPos [3]float64, cfg GnssConstellationConfig, rng GaussianSource) {
	for i, satPos := range satPositions {
		out[i] = g.Generate(satPos, userPos, cfg, rng)
	}
}
