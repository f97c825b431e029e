package edf

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	anonymousPatient = "X X X X"
	recordDuration   = time.Second

	// maxRecordBytes is the largest data record EDF recommends.
	maxRecordBytes = 61440
)

// Writer encodes datasets as EDF+C files.
type Writer struct {
	patientID string
	equipment string
}

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithPatientID sets the EDF+ patient identification field.
func WithPatientID(id string) Option {
	return func(w *Writer) {
		if id != "" {
			w.patientID = id
		}
	}
}

// WithEquipment sets the equipment subfield of the recording identification.
func WithEquipment(name string) Option {
	return func(w *Writer) {
		if name != "" {
			w.equipment = strings.ReplaceAll(name, " ", "_")
		}
	}
}

// NewWriter creates a Writer.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{patientID: anonymousPatient, equipment: "X"}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write encodes ds into path. The file is written next to path and renamed
// into place, so a failed write never leaves a partial dataset behind.
func (w *Writer) Write(ctx context.Context, path string, ds Dataset) error {
	spr, err := samplesPerRecord(ds.SampleRate)
	if err != nil {
		return err
	}
	if err := ds.validate(); err != nil {
		return err
	}

	total := ds.TotalSamples()
	records := (total + spr - 1) / spr
	if records == 0 {
		records = 1
	}
	annotations := w.annotations(ds, spr, records)
	annSamples := 0
	for _, a := range annotations {
		if n := (len(a) + 1) / 2; n > annSamples {
			annSamples = n
		}
	}

	hdr := w.header(ds, spr, annSamples, records)
	if n := hdr.RecordBytes(); n > maxRecordBytes {
		return fmt.Errorf("%w: data record of %d bytes exceeds %d", ErrFormat, n, maxRecordBytes)
	}
	head, err := encodeHeader(hdr)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create dataset directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create dataset file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := w.encode(ctx, tmp, head, hdr, continuous(ds, records*spr), annotations); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close dataset file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move dataset into place: %w", err)
	}
	return nil
}

func (w *Writer) encode(ctx context.Context, f *os.File, head []byte, hdr Header, signal [][]float64, annotations [][]byte) error {
	bw := bufio.NewWriter(f)
	if _, err := bw.Write(head); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	dataSignals := hdr.Signals[:len(hdr.Signals)-1]
	annSignal := hdr.Signals[len(hdr.Signals)-1]
	record := make([]byte, hdr.RecordBytes())

	for r := 0; r < hdr.DataRecords; r++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		pos := 0
		for c, s := range dataSignals {
			from := r * s.SamplesPerRecord
			for _, v := range signal[c][from : from+s.SamplesPerRecord] {
				binary.LittleEndian.PutUint16(record[pos:], uint16(toDigital(v, s)))
				pos += 2
			}
		}
		ann := record[pos : pos+annSignal.SamplesPerRecord*2]
		clear(ann)
		copy(ann, annotations[r])

		if _, err := bw.Write(record); err != nil {
			return fmt.Errorf("write record %d: %w", r, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush dataset: %w", err)
	}
	return nil
}

func (w *Writer) header(ds Dataset, spr, annSamples, records int) Header {
	start := ds.StartTime
	if start.IsZero() {
		start = time.Now()
	}
	hdr := Header{
		PatientID:      w.patientID,
		RecordingID:    fmt.Sprintf("Startdate %s X X %s", strings.ToUpper(start.Format("02-Jan-2006")), w.equipment),
		StartTime:      start,
		Reserved:       reservedEDFC,
		DataRecords:    records,
		RecordDuration: recordDuration,
	}
	for _, name := range ds.ChannelNames {
		hdr.Signals = append(hdr.Signals, Signal{
			Label:             name,
			TransducerType:    "EEG electrode",
			PhysicalDimension: "uV",
			PhysicalMin:       PhysicalMin,
			PhysicalMax:       PhysicalMax,
			DigitalMin:        DigitalMin,
			DigitalMax:        DigitalMax,
			SamplesPerRecord:  spr,
		})
	}
	hdr.Signals = append(hdr.Signals, Signal{
		Label:            AnnotationsLabel,
		PhysicalMin:      -1,
		PhysicalMax:      1,
		DigitalMin:       DigitalMin,
		DigitalMax:       DigitalMax,
		SamplesPerRecord: annSamples,
	})
	return hdr
}

// annotations renders the TAL bytes of every record: the time-keeping TAL
// first, then one TAL per epoch starting in that record.
func (w *Writer) annotations(ds Dataset, spr, records int) [][]byte {
	out := make([][]byte, records)
	for r := range out {
		out[r] = encodeTAL(Annotation{Onset: float64(r)})
	}
	for i, ev := range ds.Events {
		r := ev.SampleOffset / spr
		if r >= records {
			r = records - 1
		}
		out[r] = append(out[r], encodeTAL(Annotation{
			Onset:    ds.Onsets[i],
			Duration: ds.Durations[i],
			Texts:    []string{ds.Label(ev.EventCode)},
		})...)
		if ds.Short != nil && ds.Short[i] {
			out[r] = append(out[r], encodeTAL(Annotation{
				Onset: ds.Onsets[i],
				Texts: []string{ShortEpochLabel},
			})...)
		}
	}
	return out
}

// continuous lays the epochs end to end and zero-pads to n samples.
func continuous(ds Dataset, n int) [][]float64 {
	out := make([][]float64, len(ds.ChannelNames))
	for c := range out {
		out[c] = make([]float64, 0, n)
		for _, e := range ds.Epochs {
			out[c] = append(out[c], e[c]...)
		}
		out[c] = out[c][:n]
	}
	return out
}
