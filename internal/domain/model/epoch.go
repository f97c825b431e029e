package model

import (
	"time"
)

// Chunk is one window pulled from the source: rows are channels, columns
// are samples.
type Chunk [][]float64

// Samples returns the number of columns.
func (c Chunk) Samples() int {
	if len(c) == 0 {
		return 0
	}
	return len(c[0])
}

// Epoch is the finalized, rescaled array for one coded phase.
type Epoch struct {
	Data               [][]float64 // channels x samples, values in [-50, 50]
	EventCode          int
	Nominal            int   // target sample count of the phase
	Short              bool  // fewer samples than Nominal were acquired
	DegenerateChannels []int // channel rows that were constant and zeroed
}

// Len returns the number of samples per channel.
func (e Epoch) Len() int {
	if len(e.Data) == 0 {
		return 0
	}
	return len(e.Data[0])
}

// Channels returns the number of rows.
func (e Epoch) Channels() int { return len(e.Data) }

// EventEntry is one row of the event table in the three-column
// (offset, unused, code) convention.
type EventEntry struct {
	SampleOffset int
	Unused       int
	EventCode    int
}

// Run is the complete result of one acquisition session.
type Run struct {
	ID         string
	StartedAt  time.Time
	Channels   ChannelSet
	SampleRate float64
	Epochs     []Epoch
	Events     []EventEntry
	Onsets     []float64 // seconds
	Durations  []float64 // seconds
	Labels     map[int]string
}

// ShortEpochs returns the indices of epochs flagged short.
func (r Run) ShortEpochs() []int {
	var out []int
	for i, e := range r.Epochs {
		if e.Short {
			out = append(out, i)
		}
	}
	return out
}

// Label returns the configured label for code, or "" when none is known.
func (r Run) Label(code int) string {
	return r.Labels[code]
}
