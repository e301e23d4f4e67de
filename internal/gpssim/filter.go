package gpssim

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

type filterState struct {
	particles []receiver
	weights   []float64
}

func newFilterState(n int, posSD, velSD float64, src rand.Source) *filterState {
	pos := distuv.Normal{Mu: 0, Sigma: posSD, Src: src}
	vel := distuv.Normal{Mu: 0, Sigma: velSD, Src: src}

	fs := &filterState{particles: make([]receiver, n), weights: make([]float64, n)}
	for i := range fs.particles {
		fs.particles[i] = receiver{altitude: pos.Rand(), speed: vel.Rand()}
		fs.weights[i] = 1.0 / float64(n)
	}
	return fs
}

// updateWeights multiplies each weight by its likelihood, given as a log, and
// returns the products rescaled so the largest is one. Rescaling keeps a
// step from underflowing to all-zero weights.
func (fs *filterState) updateWeights(logLikelihood []float64) []float64 {
	raw := make([]float64, len(fs.weights))
	for i, w := range fs.weights {
		raw[i] = math.Log(w) + logLikelihood[i]
	}
	peak := floats.Max(raw)
	for i := range raw {
		raw[i] = math.Exp(raw[i] - peak)
	}
	copy(fs.weights, raw)
	return raw
}

// normalizeWeights scales weights to sum to one and returns the effective
// particle count 1/sum(w^2).
func (fs *filterState) normalizeWeights() float64 {
	sum := floats.Sum(fs.weights)
	squared := 0.0
	for i := range fs.weights {
		fs.weights[i] /= sum
		squared += fs.weights[i] * fs.weights[i]
	}
	return 1 / squared
}

// resample draws a new particle set with the resampling wheel and resets
// every weight to 1/N.
func (fs *filterState) resample(rng *rand.Rand) {
	n := len(fs.particles)
	next := make([]receiver, n)

	index := rng.IntN(n)
	beta := 0.0
	wheel := distuv.Uniform{Min: 0, Max: floats.Max(fs.weights) * 2, Src: rng}
	for i := 0; i < n; i++ {
		beta += wheel.Rand()
		for beta > fs.weights[index] {
			beta -= fs.weights[index]
			index = (index + 1) % n
		}
		next[i] = fs.particles[index]
	}

	fs.particles = next
	for i := range fs.weights {
		fs.weights[i] = 1.0 / float64(n)
	}
}

// propagate applies a random acceleration to rx for dt seconds.
func propagate(rx *receiver, dt float64, accel distuv.Normal) {
	rx.speed += accel.Rand() * dt
	rx.altitude += rx.speed * dt
}
