// Package cue plays the short tone that tells the subject a phase ended.
package cue

import (
	"encoding/binary"
	"math"
	"time"
)

// Tone rendering.
const (
	toneAmplitude = 0.3
	toneFade      = 5 * time.Millisecond
)

// Nop discards cues. Used in tests and headless runs.
type Nop struct{}

// Play does nothing.
func (Nop) Play(float64, time.Duration) {}

// Tone renders a sine of frequency Hz lasting d as signed 16-bit little
// endian mono PCM at rate Hz. The edges are faded to avoid clicks.
func Tone(frequency float64, d time.Duration, rate int) []byte {
	n := int(math.Round(d.Seconds() * float64(rate)))
	if n <= 0 || frequency <= 0 {
		return nil
	}
	fade := int(toneFade.Seconds() * float64(rate))
	if fade > n/2 {
		fade = n / 2
	}

	out := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		gain := toneAmplitude
		switch {
		case i < fade:
			gain *= float64(i) / float64(fade)
		case i >= n-fade:
			gain *= float64(n-1-i) / float64(fade)
		}
		v := gain * math.Sin(2*math.Pi*frequency*float64(i)/float64(rate))
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(v*math.MaxInt16)))
	}
	return out
}
