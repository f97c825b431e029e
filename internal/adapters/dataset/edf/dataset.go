// Package edf stores acquisition runs as EDF+ files and reads them back.
//
// Epochs are laid end to end on one continuous timeline, one data record
// per second, with an "EDF Annotations" signal locating every epoch.
package edf

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/juraj-juraj/BRIA-project/internal/domain/model"
)

// ShortEpochLabel marks an epoch that under-ran its nominal length.
const ShortEpochLabel = "SHORT_EPOCH"

// Physical and digital ranges of the data signals.
const (
	PhysicalMin = -50.0
	PhysicalMax = 50.0
	DigitalMin  = -32768
	DigitalMax  = 32767
)

// Dataset is the persisted form of a run.
type Dataset struct {
	ChannelNames []string
	SampleRate   float64
	StartTime    time.Time
	Epochs       [][][]float64 // epoch x channel x sample
	Events       []model.EventEntry
	Onsets       []float64
	Durations    []float64
	Short        []bool
	Labels       map[int]string
	// Continuous is the end-to-end signal, channel x sample. Filled by Read.
	Continuous [][]float64
}

// FromRun converts a completed run into a dataset.
func FromRun(run model.Run) Dataset {
	ds := Dataset{
		ChannelNames: run.Channels.Labels(),
		SampleRate:   run.SampleRate,
		StartTime:    run.StartedAt,
		Epochs:       make([][][]float64, len(run.Epochs)),
		Events:       run.Events,
		Onsets:       run.Onsets,
		Durations:    run.Durations,
		Short:        make([]bool, len(run.Epochs)),
		Labels:       run.Labels,
	}
	for i, e := range run.Epochs {
		ds.Epochs[i] = e.Data
		ds.Short[i] = e.Short
	}
	return ds
}

// FileName returns the timestamped dataset file name for prefix at t.
func FileName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%s.edf", prefix, t.Format("2006-01-02_15-04-05"))
}

// Path joins dir and the timestamped file name.
func Path(dir, prefix string, t time.Time) string {
	return filepath.Join(dir, FileName(prefix, t))
}

// Label returns the annotation text for code.
func (d Dataset) Label(code int) string {
	if l, ok := d.Labels[code]; ok && l != "" {
		return l
	}
	return strconv.Itoa(code)
}

// TotalSamples is the length of the continuous timeline.
func (d Dataset) TotalSamples() int {
	n := 0
	for _, e := range d.Epochs {
		if len(e) > 0 {
			n += len(e[0])
		}
	}
	return n
}

// samplesPerRecord returns the whole number of samples in a 1 s record.
func samplesPerRecord(rate float64) (int, error) {
	if rate <= 0 || rate != math.Trunc(rate) {
		return 0, fmt.Errorf("%w: %v", ErrSampleRate, rate)
	}
	return int(rate), nil
}

// validate checks the dataset is internally consistent.
func (d Dataset) validate() error {
	channels := len(d.ChannelNames)
	if channels == 0 {
		return fmt.Errorf("%w: no channels", ErrFormat)
	}
	n := len(d.Epochs)
	if len(d.Events) != n || len(d.Onsets) != n || len(d.Durations) != n {
		return fmt.Errorf("%w: %d epochs, %d events, %d onsets, %d durations",
			ErrFormat, n, len(d.Events), len(d.Onsets), len(d.Durations))
	}
	if d.Short != nil && len(d.Short) != n {
		return fmt.Errorf("%w: %d short flags for %d epochs", ErrFormat, len(d.Short), n)
	}
	for i, e := range d.Epochs {
		if len(e) != channels {
			return fmt.Errorf("%w: epoch %d has %d channels, want %d", ErrFormat, i, len(e), channels)
		}
		for c := range e {
			if len(e[c]) != len(e[0]) {
				return fmt.Errorf("%w: epoch %d channel %d is ragged", ErrFormat, i, c)
			}
		}
	}
	return nil
}
