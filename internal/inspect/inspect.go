// Package inspect reads acquisition datasets back and renders their event table.
package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/juraj-juraj/BRIA-project/internal/adapters/dataset/edf"
	"github.com/juraj-juraj/BRIA-project/pkg/logger"
)

// Summary describes a dataset file.
type Summary struct {
	Path       string     `json:"path"`
	Channels   []string   `json:"channels"`
	SampleRate float64    `json:"sample_rate"`
	Samples    int        `json:"samples"`
	Seconds    float64    `json:"seconds"`
	Epochs     []EpochRow `json:"epochs"`
}

// EpochRow is one line of the event table.
type EpochRow struct {
	Index    int     `json:"index"`
	Offset   int     `json:"offset"`
	Onset    float64 `json:"onset"`
	Duration float64 `json:"duration"`
	Samples  int     `json:"samples"`
	Code     int     `json:"code"`
	Label    string  `json:"label"`
	Short    bool    `json:"short"`
}

// Load reads the dataset at path and summarizes it.
func Load(path string, labels map[string]int) (Summary, error) {
	ds, err := edf.NewReader().Read(path, labels)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		Path:       path,
		Channels:   ds.ChannelNames,
		SampleRate: ds.SampleRate,
		Epochs:     make([]EpochRow, len(ds.Epochs)),
	}
	if len(ds.Continuous) > 0 {
		s.Samples = len(ds.Continuous[0])
	}
	if ds.SampleRate > 0 {
		s.Seconds = float64(s.Samples) / ds.SampleRate
	}
	for i := range ds.Epochs {
		row := EpochRow{Index: i}
		if i < len(ds.Events) {
			row.Offset = ds.Events[i].SampleOffset
			row.Code = ds.Events[i].EventCode
			row.Label = ds.Label(row.Code)
		}
		if i < len(ds.Onsets) {
			row.Onset = ds.Onsets[i]
		}
		if i < len(ds.Durations) {
			row.Duration = ds.Durations[i]
		}
		if i < len(ds.Short) {
			row.Short = ds.Short[i]
		}
		if len(ds.Epochs[i]) > 0 {
			row.Samples = len(ds.Epochs[i][0])
		}
		s.Epochs[i] = row
	}
	return s, nil
}

// Render writes s as a human readable report.
func Render(w io.Writer, s Summary, useColor bool) error {
	title := color.New(color.FgCyan, color.Bold)
	warn := color.New(color.FgYellow)
	if !useColor {
		title.DisableColor()
		warn.DisableColor()
	}

	if _, err := title.Fprintf(w, "%s\n", s.Path); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(w, "channels:    %d %v\n", len(s.Channels), s.Channels)
	fmt.Fprintf(w, "sample rate: %g Hz\n", s.SampleRate)
	fmt.Fprintf(w, "signal:      %d samples (%.2f s)\n", s.Samples, s.Seconds)
	fmt.Fprintf(w, "epochs:      %d\n\n", len(s.Epochs))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tOFFSET\tONSET\tDURATION\tSAMPLES\tCODE\tLABEL\tSHORT")
	for _, e := range s.Epochs {
		short := ""
		if e.Short {
			short = warn.Sprint("yes")
		}
		fmt.Fprintf(tw, "%d\t%d\t%.3f\t%.3f\t%d\t%d\t%s\t%s\n",
			e.Index, e.Offset, e.Onset, e.Duration, e.Samples, e.Code, e.Label, short)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Run loads the configured dataset and writes the report to w.
func Run(ctx context.Context, cfg *Config, w io.Writer) error {
	if cfg.Path == "" {
		return fmt.Errorf("%w: missing -file", ErrUsage)
	}
	s, err := Load(cfg.Path, cfg.Labels)
	if err != nil {
		return err
	}
	logger.Get().Debug(ctx, "dataset loaded",
		logger.String("path", cfg.Path),
		logger.Int("epochs", len(s.Epochs)),
		logger.Float64("sample_rate", s.SampleRate),
	)

	if cfg.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		return nil
	}
	return Render(w, s, !cfg.NoColor)
}
