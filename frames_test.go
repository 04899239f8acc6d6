package gnss

import (
	"math"
	"testing"
)

func TestGeodeticEcefRoundTrip(t *testing.T) {
	cases := []struct{ lat, lon, h float64 }{
		{30 * math.Pi / 180, 45 * math.Pi / 180, 0},
		{-33.8688 * math.Pi / 180, 151.2093 * math.Pi / 180, 52},
		{0, 0, 1000},
	}
	for _, c := range cases {
		pos := GeodeticToEcef(c.lat, c.lon, c.h)
		lat, lon, h := EcefToGeodetic(pos)
		if math.Abs(lat-c.lat) > 1e-9 || math.Abs(lon-c.lon) > 1e-9 || math.Abs(h-c.h) > 1e-6 {
			t.Fatalf("round-trip mismatch: got (%f,%f,%f), want (%f,%f,%f)", lat, lon, h, c.lat, c.lon, c.h)
		}
	}
}

func TestEcefToNedMatrixIsOrthonormal(t *testing.T) {
	cen := EcefToNedMatrix(30*math.Pi/180, 45*math.Pi/180)
	cne := cen.Transpose()
	product := cen.Multiply(cne)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			if math.Abs(product.At(i, j)-want) > 1e-9 {
				t.Fatalf("Cen*Cen^T[%d,%d] = %f, want %f", i, j, product.At(i, j), want)
			}
		}
	}
}

func TestNedEcefVelocityRoundTrip(t *testing.T) {
	lat, lon, h := 30*math.Pi/180, 45*math.Pi/180, 10.0
	ecefPos := GeodeticToEcef(lat, lon, h)
	ecefVel := [3]float64{10, -5, 2}
	_, nedVel := EcefToNedPositionVelocity(ecefPos, ecefVel)
	_, gotVel := NedToEcefPositionVelocity(lat, lon, h, [3]float64{}, nedVel)
	for i := 0; i < 3; i++ {
		if math.Abs(gotVel[i]-ecefVel[i]) > 1e-9 {
			t.Fatalf("velocity round-trip[%d] = %f, want %f", i, gotVel[i], ecefVel[i])
		}
	}
}
