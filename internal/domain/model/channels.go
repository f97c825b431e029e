// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strconv"
)

// ChannelSet is the ordered selection of source channels acquired in a run.
// It is validated once and never changes for the lifetime of a run.
type ChannelSet struct {
	Indices []int    // positions in the source's full channel list
	Names   []string // optional labels, parallel to Indices
}

// NewChannelSet builds a channel set and validates it against the source's
// total channel count. A non-positive sourceChannels skips the range check.
func NewChannelSet(indices []int, names []string, sourceChannels int) (ChannelSet, error) {
	cs := ChannelSet{
		Indices: append([]int(nil), indices...),
		Names:   append([]string(nil), names...),
	}
	if err := cs.Validate(sourceChannels); err != nil {
		return ChannelSet{}, err
	}
	return cs, nil
}

// Validate checks the set is non-empty, duplicate-free, within range and
// that names (when given) match the index count.
func (c ChannelSet) Validate(sourceChannels int) error {
	if len(c.Indices) == 0 {
		return fmt.Errorf("%w: no channels selected", ErrInvalidChannelSet)
	}
	seen := make(map[int]struct{}, len(c.Indices))
	for _, idx := range c.Indices {
		if idx < 0 {
			return fmt.Errorf("%w: negative channel index %d", ErrInvalidChannelSet, idx)
		}
		if sourceChannels > 0 && idx >= sourceChannels {
			return fmt.Errorf("%w: channel index %d out of range [0,%d)", ErrInvalidChannelSet, idx, sourceChannels)
		}
		if _, dup := seen[idx]; dup {
			return fmt.Errorf("%w: duplicate channel index %d", ErrInvalidChannelSet, idx)
		}
		seen[idx] = struct{}{}
	}
	if len(c.Names) != 0 && len(c.Names) != len(c.Indices) {
		return fmt.Errorf("%w: %d names for %d channels", ErrInvalidChannelSet, len(c.Names), len(c.Indices))
	}
	return nil
}

// Len returns the number of channels.
func (c ChannelSet) Len() int { return len(c.Indices) }

// Labels returns channel names, falling back to the source index for
// channels without a configured name.
func (c ChannelSet) Labels() []string {
	out := make([]string, len(c.Indices))
	for i, idx := range c.Indices {
		if i < len(c.Names) && c.Names[i] != "" {
			out[i] = c.Names[i]
			continue
		}
		out[i] = strconv.Itoa(idx)
	}
	return out
}
