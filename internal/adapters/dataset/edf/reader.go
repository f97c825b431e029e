package edf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/juraj-juraj/BRIA-project/internal/domain/model"
)

// Reader decodes EDF+ datasets written by Writer.
type Reader struct{}

// NewReader creates a Reader.
func NewReader() *Reader { return &Reader{} }

// Read decodes the file at path. Epoch labels are mapped to codes through
// labelCodes; labels missing from it get codes in sorted label order,
// starting at 1 and skipping codes already taken.
func (r *Reader) Read(path string, labelCodes map[string]int) (Dataset, error) {
	f, err := os.Open(path) //nolint:gosec // path is chosen by the operator
	if err != nil {
		return Dataset{}, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()
	return decode(bufio.NewReader(f), labelCodes)
}

func decode(rd io.Reader, labelCodes map[string]int) (Dataset, error) {
	hdr, err := decodeHeader(rd)
	if err != nil {
		return Dataset{}, err
	}
	if hdr.DataRecords < 0 {
		return Dataset{}, fmt.Errorf("%w: unknown number of data records", ErrFormat)
	}
	if hdr.RecordDuration <= 0 {
		return Dataset{}, fmt.Errorf("%w: record duration %s", ErrFormat, hdr.RecordDuration)
	}

	var data []Signal
	annIndex := -1
	for i, s := range hdr.Signals {
		if s.IsAnnotations() {
			annIndex = i
			continue
		}
		if len(data) > 0 && s.SamplesPerRecord != data[0].SamplesPerRecord {
			return Dataset{}, fmt.Errorf("%w: signals with different sample rates", ErrFormat)
		}
		data = append(data, s)
	}
	if len(data) == 0 {
		return Dataset{}, fmt.Errorf("%w: no data signals", ErrFormat)
	}
	spr := data[0].SamplesPerRecord

	ds := Dataset{
		SampleRate: float64(spr) / hdr.RecordDuration.Seconds(),
		StartTime:  hdr.StartTime,
		Continuous: make([][]float64, len(data)),
		Labels:     map[int]string{},
	}
	for c, s := range data {
		ds.ChannelNames = append(ds.ChannelNames, s.Label)
		ds.Continuous[c] = make([]float64, 0, hdr.DataRecords*spr)
	}

	var annotations []Annotation
	record := make([]byte, hdr.RecordBytes())
	for n := 0; n < hdr.DataRecords; n++ {
		if _, err := io.ReadFull(rd, record); err != nil {
			return Dataset{}, fmt.Errorf("%w: record %d: %w", ErrFormat, n, err)
		}
		pos, c := 0, 0
		for i, s := range hdr.Signals {
			size := s.SamplesPerRecord * 2
			chunk := record[pos : pos+size]
			pos += size
			if i == annIndex {
				tals, err := decodeTALs(chunk)
				if err != nil {
					return Dataset{}, fmt.Errorf("record %d: %w", n, err)
				}
				annotations = append(annotations, tals...)
				continue
			}
			for j := 0; j < len(chunk); j += 2 {
				ds.Continuous[c] = append(ds.Continuous[c], toPhysical(int16(binary.LittleEndian.Uint16(chunk[j:])), s))
			}
			c++
		}
	}

	if err := ds.collectEpochs(annotations, labelCodes); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

// collectEpochs rebuilds the event table and epoch arrays from the
// annotations and trims the record padding off the continuous signal.
func (d *Dataset) collectEpochs(annotations []Annotation, labelCodes map[string]int) error {
	short := map[float64]bool{}
	var epochs []Annotation
	for _, a := range annotations {
		if len(a.Texts) == 0 {
			continue
		}
		if a.Texts[0] == ShortEpochLabel {
			short[a.Onset] = true
			continue
		}
		if a.Duration > 0 {
			epochs = append(epochs, a)
		}
	}
	sort.SliceStable(epochs, func(i, j int) bool { return epochs[i].Onset < epochs[j].Onset })

	codes := assignCodes(epochs, labelCodes)
	end := 0
	for _, a := range epochs {
		label := a.Texts[0]
		code := codes[label]
		offset := int(math.Round(a.Onset * d.SampleRate))
		n := int(math.Round(a.Duration * d.SampleRate))
		if offset < 0 || offset+n > len(d.Continuous[0]) {
			return fmt.Errorf("%w: epoch %q at %vs exceeds the signal", ErrFormat, label, a.Onset)
		}
		epoch := make([][]float64, len(d.Continuous))
		for c := range epoch {
			epoch[c] = append([]float64(nil), d.Continuous[c][offset:offset+n]...)
		}
		d.Epochs = append(d.Epochs, epoch)
		d.Events = append(d.Events, model.EventEntry{SampleOffset: offset, EventCode: code})
		d.Onsets = append(d.Onsets, a.Onset)
		d.Durations = append(d.Durations, a.Duration)
		d.Short = append(d.Short, short[a.Onset])
		d.Labels[code] = label
		if offset+n > end {
			end = offset + n
		}
	}
	if len(epochs) > 0 {
		for c := range d.Continuous {
			d.Continuous[c] = d.Continuous[c][:end]
		}
	}
	return nil
}

func assignCodes(epochs []Annotation, labelCodes map[string]int) map[string]int {
	codes := make(map[string]int, len(labelCodes))
	used := map[int]bool{}
	for label, code := range labelCodes {
		codes[label] = code
		used[code] = true
	}
	var unknown []string
	for _, a := range epochs {
		label := a.Texts[0]
		if _, ok := codes[label]; !ok {
			codes[label] = 0
			unknown = append(unknown, label)
		}
	}
	sort.Strings(unknown)
	next := 1
	for _, label := range unknown {
		for used[next] {
			next++
		}
		codes[label] = next
		used[next] = true
	}
	return codes
}
