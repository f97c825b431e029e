package source

import (
	"math"
	"math/rand/v2"
)

// Synthetic signal shape.
const (
	alphaHz         = 10.0
	driftHz         = 0.5
	baseAmplitudeUV = 20.0
	noiseUV         = 4.0
)

// Synthetic is an EEG-like signal: a per-channel alpha-band sinusoid with a
// slow drift and seeded pseudo-noise. The same seed gives the same signal.
type Synthetic struct {
	channels int
	rate     float64
	seed     uint64
	rng      *rand.Rand
}

// NewSynthetic creates a generator of channels signals sampled at rate Hz.
func NewSynthetic(channels int, rate float64, seed int64) *Synthetic {
	s := &Synthetic{channels: channels, rate: rate, seed: uint64(seed)}
	s.Reset()
	return s
}

// Name implements Generator.
func (s *Synthetic) Name() string { return "synthetic" }

// Channels implements Generator.
func (s *Synthetic) Channels() int { return s.channels }

// Reset implements Generator.
func (s *Synthetic) Reset() {
	s.rng = rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15))
}

// Sample implements Generator.
func (s *Synthetic) Sample(index int, dst []float64) {
	t := float64(index) / s.rate
	for c := range dst {
		amp := baseAmplitudeUV + 2*float64(c)
		phase := float64(c) * math.Pi / 4
		v := amp*math.Sin(2*math.Pi*alphaHz*t+phase) +
			0.5*amp*math.Sin(2*math.Pi*driftHz*t) +
			noiseUV*(2*s.rng.Float64()-1)
		dst[c] = v
	}
}
