// Package dataset generates small 2-D binary classification sets with labels
// in {-1, +1}, the shape the explorer's hinge and MSE losses expect.
package dataset

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrTooFewSamples is returned when fewer than two samples are requested.
var ErrTooFewSamples = errors.New("dataset: need at least two samples")

// Sample is one labelled point.
type Sample struct {
	X []float64 `json:"x"`
	Y float64   `json:"y"`
}

// gaussian draws from N(0, sigma²) by inverting the CDF of a uniform draw
// from rng, so results are reproducible for a seeded rng.
func gaussian(rng *rand.Rand, sigma float64) float64 {
	if sigma <= 0 {
		return 0
	}
	n := distuv.Normal{Mu: 0, Sigma: sigma}
	p := rng.Float64()
	for p == 0 {
		p = rng.Float64()
	}
	return n.Quantile(p)
}

// Moons returns two interleaving half circles. The upper moon is labelled -1,
// the lower one +1; the first n/2 samples belong to the upper moon.
func Moons(rng *rand.Rand, n int, noise float64) ([]Sample, error) {
	if n < 2 {
		return nil, errors.Wrapf(ErrTooFewSamples, "got %d", n)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	nOut := n / 2
	nIn := n - nOut

	out := make([]Sample, 0, n)
	for i := 0; i < nOut; i++ {
		t := math.Pi * float64(i) / float64(max(nOut-1, 1))
		out = append(out, Sample{
			X: []float64{math.Cos(t) + gaussian(rng, noise), math.Sin(t) + gaussian(rng, noise)},
			Y: -1,
		})
	}
	for i := 0; i < nIn; i++ {
		t := math.Pi * float64(i) / float64(max(nIn-1, 1))
		out = append(out, Sample{
			X: []float64{1 - math.Cos(t) + gaussian(rng, noise), 0.5 - math.Sin(t) + gaussian(rng, noise)},
			Y: 1,
		})
	}
	return out, nil
}

// Blobs returns two Gaussian clusters centred at (-1, -1) (label -1) and
// (1, 1) (label +1), alternating labels.
func Blobs(rng *rand.Rand, n int, spread float64) ([]Sample, error) {
	if n < 2 {
		return nil, errors.Wrapf(ErrTooFewSamples, "got %d", n)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	out := make([]Sample, n)
	for i := range out {
		y := 1.0
		if i%2 == 0 {
			y = -1
		}
		out[i] = Sample{
			X: []float64{y + gaussian(rng, spread), y + gaussian(rng, spread)},
			Y: y,
		}
	}
	return out, nil
}

// Shuffle permutes samples in place.
func Shuffle(rng *rand.Rand, samples []Sample) {
	rng.Shuffle(len(samples), func(i, j int) {
		samples[i], samples[j] = samples[j], samples[i]
	})
}

// Labels returns the Y of every sample.
func Labels(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Y
	}
	return out
}
