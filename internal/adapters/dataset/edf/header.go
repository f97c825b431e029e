package edf

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Fixed header layout.
const (
	headerFixedBytes  = 256
	headerSignalBytes = 256

	versionZero  = "0"
	reservedEDFC = "EDF+C"

	// AnnotationsLabel is the label of the EDF+ annotation signal.
	AnnotationsLabel = "EDF Annotations"
)

// Header is the EDF+ file header.
type Header struct {
	PatientID      string
	RecordingID    string
	StartTime      time.Time
	Reserved       string
	DataRecords    int
	RecordDuration time.Duration
	Signals        []Signal
}

// Signal describes one signal of a data record.
type Signal struct {
	Label             string
	TransducerType    string
	PhysicalDimension string
	PhysicalMin       float64
	PhysicalMax       float64
	DigitalMin        int
	DigitalMax        int
	Prefiltering      string
	SamplesPerRecord  int
}

// IsAnnotations reports whether s is the EDF+ annotation signal.
func (s Signal) IsAnnotations() bool { return s.Label == AnnotationsLabel }

// HeaderBytes is the total header size.
func (h Header) HeaderBytes() int {
	return headerFixedBytes + len(h.Signals)*headerSignalBytes
}

// RecordBytes is the size of one data record.
func (h Header) RecordBytes() int {
	n := 0
	for _, s := range h.Signals {
		n += s.SamplesPerRecord * 2
	}
	return n
}

// fieldWriter writes space-padded ASCII fields of fixed width.
type fieldWriter struct {
	buf bytes.Buffer
	err error
}

func (w *fieldWriter) field(width int, v string) {
	if w.err != nil {
		return
	}
	if len(v) > width {
		w.err = fmt.Errorf("%w: %q does not fit in %d bytes", ErrFormat, v, width)
		return
	}
	w.buf.WriteString(v)
	w.buf.WriteString(strings.Repeat(" ", width-len(v)))
}

func (w *fieldWriter) each(signals []Signal, width int, get func(Signal) string) {
	for _, s := range signals {
		w.field(width, get(s))
	}
}

func encodeHeader(h Header) ([]byte, error) {
	w := &fieldWriter{}
	w.field(8, versionZero)
	w.field(80, h.PatientID)
	w.field(80, h.RecordingID)
	w.field(8, h.StartTime.Format("02.01.06"))
	w.field(8, h.StartTime.Format("15.04.05"))
	w.field(8, strconv.Itoa(h.HeaderBytes()))
	w.field(44, h.Reserved)
	w.field(8, strconv.Itoa(h.DataRecords))
	w.field(8, formatNumber(h.RecordDuration.Seconds()))
	w.field(4, strconv.Itoa(len(h.Signals)))

	w.each(h.Signals, 16, func(s Signal) string { return s.Label })
	w.each(h.Signals, 80, func(s Signal) string { return s.TransducerType })
	w.each(h.Signals, 8, func(s Signal) string { return s.PhysicalDimension })
	w.each(h.Signals, 8, func(s Signal) string { return formatNumber(s.PhysicalMin) })
	w.each(h.Signals, 8, func(s Signal) string { return formatNumber(s.PhysicalMax) })
	w.each(h.Signals, 8, func(s Signal) string { return strconv.Itoa(s.DigitalMin) })
	w.each(h.Signals, 8, func(s Signal) string { return strconv.Itoa(s.DigitalMax) })
	w.each(h.Signals, 80, func(s Signal) string { return s.Prefiltering })
	w.each(h.Signals, 8, func(s Signal) string { return strconv.Itoa(s.SamplesPerRecord) })
	w.each(h.Signals, 32, func(Signal) string { return "" })

	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}

// fieldReader reads fixed-width ASCII fields, keeping the first error.
type fieldReader struct {
	r   io.Reader
	err error
}

func (r *fieldReader) text(width int) string {
	if r.err != nil {
		return ""
	}
	b := make([]byte, width)
	if _, err := io.ReadFull(r.r, b); err != nil {
		r.err = fmt.Errorf("%w: truncated header: %w", ErrFormat, err)
		return ""
	}
	return strings.TrimSpace(string(b))
}

func (r *fieldReader) integer(width int, name string) int {
	s := r.text(width)
	if r.err != nil {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		r.err = fmt.Errorf("%w: %s %q", ErrFormat, name, s)
	}
	return v
}

func (r *fieldReader) number(width int, name string) float64 {
	s := r.text(width)
	if r.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.err = fmt.Errorf("%w: %s %q", ErrFormat, name, s)
	}
	return v
}

func decodeHeader(rd io.Reader) (Header, error) {
	r := &fieldReader{r: rd}
	var h Header

	if v := r.text(8); r.err == nil && v != versionZero {
		return Header{}, fmt.Errorf("%w: version %q", ErrFormat, v)
	}
	h.PatientID = r.text(80)
	h.RecordingID = r.text(80)
	date := r.text(8)
	clock := r.text(8)
	headerBytes := r.integer(8, "header bytes")
	h.Reserved = r.text(44)
	h.DataRecords = r.integer(8, "data records")
	seconds := r.number(8, "record duration")
	count := r.integer(4, "signal count")
	if r.err != nil {
		return Header{}, r.err
	}

	start, err := time.Parse("02.01.06 15.04.05", date+" "+clock)
	if err != nil {
		return Header{}, fmt.Errorf("%w: start time: %w", ErrFormat, err)
	}
	h.StartTime = start
	h.RecordDuration = time.Duration(seconds * float64(time.Second))

	if count <= 0 || headerBytes != headerFixedBytes+count*headerSignalBytes {
		return Header{}, fmt.Errorf("%w: %d signals in %d header bytes", ErrFormat, count, headerBytes)
	}

	h.Signals = make([]Signal, count)
	for i := range h.Signals {
		h.Signals[i].Label = r.text(16)
	}
	for i := range h.Signals {
		h.Signals[i].TransducerType = r.text(80)
	}
	for i := range h.Signals {
		h.Signals[i].PhysicalDimension = r.text(8)
	}
	for i := range h.Signals {
		h.Signals[i].PhysicalMin = r.number(8, "physical minimum")
	}
	for i := range h.Signals {
		h.Signals[i].PhysicalMax = r.number(8, "physical maximum")
	}
	for i := range h.Signals {
		h.Signals[i].DigitalMin = r.integer(8, "digital minimum")
	}
	for i := range h.Signals {
		h.Signals[i].DigitalMax = r.integer(8, "digital maximum")
	}
	for i := range h.Signals {
		h.Signals[i].Prefiltering = r.text(80)
	}
	for i := range h.Signals {
		h.Signals[i].SamplesPerRecord = r.integer(8, "samples per record")
	}
	for range h.Signals {
		r.text(32)
	}
	if r.err != nil {
		return Header{}, r.err
	}
	return h, nil
}

// formatNumber renders v in the shortest form that fits an 8 byte field.
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if len(s) > 8 {
		s = strconv.FormatFloat(v, 'f', 2, 64)
	}
	if len(s) > 8 {
		s = strconv.FormatFloat(v, 'f', 0, 64)
	}
	return s
}
