package gnss

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// GaussianSource is the RNG collaborator of spec §6: a source of standard
// normal draws. GnssBiasesGenerator and GnssMeasurementsGenerator consume it
// by reference and draw a bounded, deterministic number of samples per call
// so that results are reproducible given a deterministic source.
type GaussianSource interface {
	NextGaussian() float64
}

// NormalSource is the default GaussianSource, a standard normal distribution
// sampled via gonum/stat/distuv and seeded from a math/rand source, the same
// pairing the teacher uses for its station noise (gonum/stat/distmv.Normal
// seeded off math/rand) except scalar rather than multivariate.
type NormalSource struct {
	dist distuv.Normal
}

// NewNormalSource returns a NormalSource seeded with seed. Two sources
// constructed with the same seed produce identical draw sequences.
func NewNormalSource(seed uint64) *NormalSource {
	return &NormalSource{dist: distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(int64(seed))}}
}

// NextGaussian returns the next standard normal draw.
func (n *NormalSource) NextGaussian() float64 {
	return n.dist.Rand()
}

// constantGaussianSource always returns the same value; used by tests that
// need a deterministic bias/noise draw (see spec §8-S1).
type constantGaussianSource struct {
	value float64
}

// NewConstantGaussianSource returns a GaussianSource whose NextGaussian
// always returns value.
func NewConstantGaussianSource(value float64) GaussianSource {
	return &constantGaussianSource{value: value}
}

func (c *constantGaussianSource) NextGaussian() float64 {
	return c.value
}
