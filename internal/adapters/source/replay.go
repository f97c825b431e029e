package source

import (
	"fmt"

	"github.com/juraj-juraj/BRIA-project/internal/adapters/dataset/edf"
)

// Replay loops over the continuous signal of a previously written dataset.
type Replay struct {
	path   string
	signal [][]float64
}

// NewReplay loads the dataset at path. It returns the generator and the
// dataset's sample rate.
func NewReplay(path string) (*Replay, float64, error) {
	ds, err := edf.NewReader().Read(path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("load replay %s: %w", path, err)
	}
	if len(ds.Continuous) == 0 || len(ds.Continuous[0]) == 0 {
		return nil, 0, fmt.Errorf("%w: replay %s holds no samples", ErrInvalidArgument, path)
	}
	return &Replay{path: path, signal: ds.Continuous}, ds.SampleRate, nil
}

// Name implements Generator.
func (r *Replay) Name() string { return "replay" }

// Channels implements Generator.
func (r *Replay) Channels() int { return len(r.signal) }

// Len returns the number of samples before the replay loops.
func (r *Replay) Len() int { return len(r.signal[0]) }

// Reset implements Generator. Every session replays from the start.
func (r *Replay) Reset() {}

// Sample implements Generator.
func (r *Replay) Sample(index int, dst []float64) {
	i := index % len(r.signal[0])
	for c := range dst {
		dst[c] = r.signal[c][i]
	}
}
