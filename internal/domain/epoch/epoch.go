// Package epoch turns a phase's chunk sequence into a length-normalized,
// per-channel rescaled epoch.
package epoch

import (
	"fmt"

	"github.com/juraj-juraj/BRIA-project/internal/domain/model"
)

// Rescaled range bounds.
const (
	RangeMin = -50.0
	RangeMax = 50.0
)

// Result is an assembled epoch before it is tagged with an event code.
type Result struct {
	Data               [][]float64
	Target             int
	Short              bool
	DegenerateChannels []int
}

// Len returns the number of samples per channel.
func (r Result) Len() int {
	if len(r.Data) == 0 {
		return 0
	}
	return len(r.Data[0])
}

// Epoch tags the result with an event code.
func (r Result) Epoch(code int) model.Epoch {
	return model.Epoch{
		Data:               r.Data,
		EventCode:          code,
		Nominal:            r.Target,
		Short:              r.Short,
		DegenerateChannels: r.DegenerateChannels,
	}
}

// Assemble concatenates chunks in arrival order, trims the result to target
// samples and rescales every channel into [RangeMin, RangeMax]. When fewer
// than target samples are available the shorter array is returned with Short
// set; no samples are fabricated. Inputs are never modified.
func Assemble(chunks []model.Chunk, target, channels int) (Result, error) {
	if channels <= 0 {
		return Result{}, fmt.Errorf("%w: channel count %d", ErrChannelMismatch, channels)
	}
	if target <= 0 {
		return Result{}, fmt.Errorf("%w: target %d samples", ErrNoData, target)
	}

	total := 0
	for i, chunk := range chunks {
		if len(chunk) != channels {
			return Result{}, fmt.Errorf("%w: chunk %d has %d channels, want %d", ErrChannelMismatch, i, len(chunk), channels)
		}
		width := len(chunk[0])
		for c, row := range chunk {
			if len(row) != width {
				return Result{}, fmt.Errorf("%w: chunk %d channel %d has %d samples, want %d", ErrChannelMismatch, i, c, len(row), width)
			}
		}
		total += width
	}
	if total == 0 {
		return Result{}, ErrNoData
	}

	length := total
	if length > target {
		length = target
	}

	data := make([][]float64, channels)
	for c := range data {
		row := make([]float64, 0, length)
		for _, chunk := range chunks {
			if len(row) == length {
				break
			}
			need := length - len(row)
			src := chunk[c]
			if len(src) > need {
				src = src[:need]
			}
			row = append(row, src...)
		}
		data[c] = row
	}

	res := Result{
		Data:   data,
		Target: target,
		Short:  total < target,
	}
	for c, row := range data {
		if !Rescale(row) {
			res.DegenerateChannels = append(res.DegenerateChannels, c)
		}
	}
	return res, nil
}

// Rescale maps row affinely so its minimum becomes RangeMin and its maximum
// RangeMax, in place. A constant row is zeroed and false is returned.
func Rescale(row []float64) bool {
	if len(row) == 0 {
		return true
	}
	lo, hi := row[0], row[0]
	for _, v := range row[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if !(hi > lo) {
		for i := range row {
			row[i] = 0
		}
		return false
	}
	span := hi - lo
	for i, v := range row {
		row[i] = ((v-lo)/span)*(RangeMax-RangeMin) + RangeMin
	}
	return true
}
