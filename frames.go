package gnss

import (
	"math"

	"github.com/ChristopherRabotin/gnssfilter/internal/linalg"
)

// Frame-conversion helpers between ECEF and the local NED (North-East-Down)
// tangent frame. In the language of spec §6 these are the "external"
// collaborators; this module provides a concrete WGS-84 implementation of
// them so the repository is self-contained, in the same rotation-matrix
// style as the teacher's R1/R2/R3 helpers.

// GeodeticToEcef converts WGS-84 geodetic latitude/longitude (radians) and
// height above the ellipsoid (metres) to an ECEF position.
func GeodeticToEcef(lat, lon, height float64) [3]float64 {
	sLat, cLat := math.Sincos(lat)
	sLon, cLon := math.Sincos(lon)
	e2 := earthFlatteningWGS84 * (2 - earthFlatteningWGS84)
	n := EarthEquatorialRadiusWGS84 / math.Sqrt(1-e2*sLat*sLat)
	return [3]float64{
		(n + height) * cLat * cLon,
		(n + height) * cLat * sLon,
		(n*(1-e2) + height) * sLat,
	}
}

// EcefToGeodetic converts an ECEF position to WGS-84 geodetic
// latitude/longitude (radians) and height above the ellipsoid (metres),
// by a fixed eight-step iteration on latitude and height.
func EcefToGeodetic(pos [3]float64) (lat, lon, height float64) {
	x, y, z := pos[0], pos[1], pos[2]
	e2 := earthFlatteningWGS84 * (2 - earthFlatteningWGS84)
	p := math.Hypot(x, y)
	lon = math.Atan2(y, x)
	lat = math.Atan2(z, p*(1-e2))
	for i := 0; i < 8; i++ {
		sLat := math.Sin(lat)
		n := EarthEquatorialRadiusWGS84 / math.Sqrt(1-e2*sLat*sLat)
		height = p/math.Cos(lat) - n
		lat = math.Atan2(z, p*(1-e2*n/(n+height)))
	}
	return lat, lon, height
}

// EcefToNedMatrix returns Cen, the 3x3 rotation from ECEF into the local
// NED tangent frame at the given geodetic latitude/longitude (radians).
func EcefToNedMatrix(lat, lon float64) *linalg.Matrix {
	sLat, cLat := math.Sincos(lat)
	sLon, cLon := math.Sincos(lon)
	return linalg.NewMatrix(3, 3, []float64{
		-sLat * cLon, -sLat * sLon, cLat,
		-sLon, cLon, 0,
		-cLat * cLon, -cLat * sLon, -sLat,
	})
}

// EcefToNedPositionVelocity converts an ECEF position/velocity pair into
// the NED frame local to that position: nedPos is the offset from the
// ellipsoid-surface point directly below/above pos (zero in north/east,
// minus height in down), and nedVel is the velocity rotated into NED.
func EcefToNedPositionVelocity(pos, vel [3]float64) (nedPos, nedVel [3]float64) {
	lat, lon, height := EcefToGeodetic(pos)
	cen := EcefToNedMatrix(lat, lon)
	nedPos = [3]float64{0, 0, -height}
	nedVel = mulVec3(cen, vel)
	return nedPos, nedVel
}

// NedToEcefPositionVelocity converts a NED position/velocity pair, expressed
// relative to the geodetic reference (refLat, refLon, refHeight in
// radians/radians/metres), back into ECEF.
func NedToEcefPositionVelocity(refLat, refLon, refHeight float64, nedPos, nedVel [3]float64) (ecefPos, ecefVel [3]float64) {
	origin := GeodeticToEcef(refLat, refLon, refHeight)
	cne := EcefToNedMatrix(refLat, refLon).Transpose()
	offset := mulVec3(cne, nedPos)
	ecefPos = [3]float64{origin[0] + offset[0], origin[1] + offset[1], origin[2] + offset[2]}
	ecefVel = mulVec3(cne, nedVel)
	return ecefPos, ecefVel
}

// mulVec3 multiplies a 3x3 matrix by a 3-vector.
func mulVec3(m *linalg.Matrix, v [3]float64) [3]float64 {
	col := linalg.NewMatrix(3, 1, []float64{v[0], v[1], v[2]})
	out := m.Multiply(col)
	return [3]float64{out.At(0, 0), out.At(1, 0), out.At(2, 0)}
}
