package gnss

// WGS-84 and physical constants used by the Sagnac correction and the
// synthetic constellation. Compile-time values; no global mutable state.
const (
	// EarthRotationRate is ωe, the WGS-84 Earth rotation rate, in rad/s.
	EarthRotationRate = 7.2921151467e-5
	// SpeedOfLight is c in m/s.
	SpeedOfLight = 299792458.0
	// EarthEquatorialRadiusWGS84 is the WGS-84 semi-major axis, in metres.
	EarthEquatorialRadiusWGS84 = 6378137.0
	// earthFlatteningWGS84 is the WGS-84 ellipsoid flattening, used by the
	// ECEF<->geodetic conversion in frames.go.
	earthFlatteningWGS84 = 1 / 298.257223563
)
