package edf

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TAL separators.
const (
	talOnsetEnd    = 0x14
	talDurationSep = 0x15
	talEnd         = 0x00
)

// Annotation is one time-stamped annotation list entry.
type Annotation struct {
	Onset    float64 // seconds from file start
	Duration float64 // seconds, 0 when absent
	Texts    []string
}

// toDigital maps a physical value into the digital range, clamping values
// outside the physical range.
func toDigital(v float64, s Signal) int16 {
	if s.PhysicalMax == s.PhysicalMin {
		return 0
	}
	d := (v-s.PhysicalMin)*float64(s.DigitalMax-s.DigitalMin)/(s.PhysicalMax-s.PhysicalMin) + float64(s.DigitalMin)
	d = math.Round(d)
	d = math.Max(float64(s.DigitalMin), math.Min(float64(s.DigitalMax), d))
	return int16(d)
}

func toPhysical(d int16, s Signal) float64 {
	if s.DigitalMax == s.DigitalMin {
		return 0
	}
	return s.PhysicalMin + (float64(d)-float64(s.DigitalMin))*(s.PhysicalMax-s.PhysicalMin)/float64(s.DigitalMax-s.DigitalMin)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// encodeTAL renders one annotation. A zero duration is omitted.
func encodeTAL(a Annotation) []byte {
	var b bytes.Buffer
	if a.Onset >= 0 {
		b.WriteByte('+')
	}
	b.WriteString(formatSeconds(a.Onset))
	if a.Duration > 0 {
		b.WriteByte(talDurationSep)
		b.WriteString(formatSeconds(a.Duration))
	}
	b.WriteByte(talOnsetEnd)
	if len(a.Texts) == 0 {
		// Time-keeping TAL: empty annotation.
		b.WriteByte(talOnsetEnd)
	}
	for _, t := range a.Texts {
		b.WriteString(t)
		b.WriteByte(talOnsetEnd)
	}
	b.WriteByte(talEnd)
	return b.Bytes()
}

// decodeTALs parses the annotation bytes of one data record. Time-keeping
// TALs are returned with no texts.
func decodeTALs(raw []byte) ([]Annotation, error) {
	var out []Annotation
	for _, tal := range bytes.Split(raw, []byte{talEnd}) {
		if len(tal) == 0 {
			continue
		}
		parts := strings.Split(string(tal), string(rune(talOnsetEnd)))
		if len(parts) < 2 {
			return nil, fmt.Errorf("%w: annotation %q has no onset terminator", ErrFormat, tal)
		}
		timing := strings.SplitN(parts[0], string(rune(talDurationSep)), 2)
		onset, err := strconv.ParseFloat(timing[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: annotation onset %q", ErrFormat, timing[0])
		}
		a := Annotation{Onset: onset}
		if len(timing) == 2 && timing[1] != "" {
			if a.Duration, err = strconv.ParseFloat(timing[1], 64); err != nil {
				return nil, fmt.Errorf("%w: annotation duration %q", ErrFormat, timing[1])
			}
		}
		for _, text := range parts[1:] {
			if text != "" {
				a.Texts = append(a.Texts, text)
			}
		}
		out = append(out, a)
	}
	return out, nil
}
