package model

import (
	"fmt"
	"math"
	"time"
)

// Phase is one timed segment of the protocol. A nil EventCode marks a rest
// phase: it is acquired but never turned into an epoch.
type Phase struct {
	Duration  time.Duration
	EventCode *int
}

// Rest returns a rest phase of the given length.
func Rest(d time.Duration) Phase { return Phase{Duration: d} }

// Coded returns a phase tagged with code.
func Coded(d time.Duration, code int) Phase {
	c := code
	return Phase{Duration: d, EventCode: &c}
}

// IsRest reports whether the phase data is discarded.
func (p Phase) IsRest() bool { return p.EventCode == nil }

// Code returns the event code and whether the phase carries one.
func (p Phase) Code() (int, bool) {
	if p.EventCode == nil {
		return 0, false
	}
	return *p.EventCode, true
}

// TargetSamples is the nominal epoch length: round(seconds * rate).
func (p Phase) TargetSamples(sampleRate float64) int {
	return int(math.Round(p.Duration.Seconds() * sampleRate))
}

// Validate rejects non-positive durations.
func (p Phase) Validate() error {
	if p.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %s", ErrInvalidPhase, p.Duration)
	}
	return nil
}

// String renders the phase for logs.
func (p Phase) String() string {
	if code, ok := p.Code(); ok {
		return fmt.Sprintf("%s code=%d", p.Duration, code)
	}
	return fmt.Sprintf("%s rest", p.Duration)
}
