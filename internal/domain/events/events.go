// Package events derives the event table locating each epoch on the virtual
// timeline obtained by laying all epochs end to end.
package events

import (
	"errors"
	"fmt"

	"github.com/juraj-juraj/BRIA-project/internal/domain/model"
)

// ErrSampleRate is returned for a non-positive sample rate.
var ErrSampleRate = errors.New("sample rate must be positive")

// Table is the event table plus per-epoch timing in seconds.
type Table struct {
	Entries   []model.EventEntry
	Onsets    []float64
	Durations []float64
	Short     []bool
}

// Pairs returns the two-column (offset, code) form.
func (t Table) Pairs() [][2]int {
	out := make([][2]int, len(t.Entries))
	for i, e := range t.Entries {
		out[i] = [2]int{e.SampleOffset, e.EventCode}
	}
	return out
}

// Build computes cumulative sample offsets for the ordered epochs: the first
// epoch starts at 0 and each later one starts where the previous ended.
func Build(epochs []model.Epoch, sampleRate float64) (Table, error) {
	if sampleRate <= 0 {
		return Table{}, fmt.Errorf("%w: %v", ErrSampleRate, sampleRate)
	}

	t := Table{
		Entries:   make([]model.EventEntry, len(epochs)),
		Onsets:    make([]float64, len(epochs)),
		Durations: make([]float64, len(epochs)),
		Short:     make([]bool, len(epochs)),
	}
	offset := 0
	for i, e := range epochs {
		n := e.Len()
		t.Entries[i] = model.EventEntry{SampleOffset: offset, EventCode: e.EventCode}
		t.Onsets[i] = float64(offset) / sampleRate
		t.Durations[i] = float64(n) / sampleRate
		t.Short[i] = e.Short
		offset += n
	}
	return t, nil
}
