// Package config defines acquisition configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/juraj-juraj/BRIA-project/internal/domain/model"
)

// Source kinds.
const (
	SourceSynthetic = "synthetic"
	SourceReplay    = "replay"
)

// maxPollIntervalMS keeps the sleep between polls a small fraction of the
// 1 s window.
const maxPollIntervalMS = 100

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile, when set, receives a rotated copy of the log output.
	LogFile string `koanf:"log_file"`

	// Addr configures the status/metrics HTTP listen address, e.g. ":9080".
	// Empty disables the HTTP surface.
	Addr string `koanf:"addr"`

	// SampleRate of the device in Hz.
	SampleRate float64 `koanf:"sample_rate"`

	// Channels are the source channel indices to acquire, in order.
	Channels []int `koanf:"channels"`

	// ChannelNames label Channels in the dataset.
	ChannelNames []string `koanf:"channel_names"`

	// Phases is the ordered protocol. A phase without event_code is a rest phase.
	Phases []PhaseConfig `koanf:"phases"`

	// EventLabels maps annotation labels to event codes.
	EventLabels map[string]int `koanf:"event_labels"`

	// GuardMarginMS extends every phase deadline to absorb scheduling jitter.
	GuardMarginMS int `koanf:"guard_margin_ms"`

	// PollIntervalMS is the sleep between polls of the source.
	PollIntervalMS int `koanf:"poll_interval_ms"`

	// CapacityFactor oversizes the capture ring buffer relative to the phase.
	CapacityFactor float64 `koanf:"capacity_factor"`

	// OutputDir and OutputPrefix locate the timestamped dataset file.
	OutputDir    string `koanf:"output_dir"`
	OutputPrefix string `koanf:"output_prefix"`

	Cue    CueConfig    `koanf:"cue"`
	Source SourceConfig `koanf:"source"`
}

// PhaseConfig is one protocol phase as written in the config file.
type PhaseConfig struct {
	DurationSeconds float64 `koanf:"duration_seconds"`
	EventCode       *int    `koanf:"event_code"`
}

// CueConfig controls the end-of-phase beep.
type CueConfig struct {
	Enabled     bool    `koanf:"enabled"`
	FrequencyHz float64 `koanf:"frequency_hz"`
	DurationMS  int     `koanf:"duration_ms"`
}

// SourceConfig selects the sample source.
type SourceConfig struct {
	Kind          string `koanf:"kind"`
	ReplayPath    string `koanf:"replay_path"`
	BoardChannels int    `koanf:"board_channels"`
	Seed          int64  `koanf:"seed"`
}

func intPtr(v int) *int { return &v }

// New creates a Config with defaults matching the eyes-open/eyes-closed
// protocol.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		SampleRate:   500,
		Channels:     []int{0, 1, 2, 3, 4, 5, 6, 7},
		ChannelNames: []string{"fp1", "fp2", "oz", "t5", "t6", "t4", "t3", "cz"},
		Phases: []PhaseConfig{
			{DurationSeconds: 5},
			{DurationSeconds: 20, EventCode: intPtr(1)},
			{DurationSeconds: 5},
			{DurationSeconds: 20, EventCode: intPtr(2)},
		},
		EventLabels: map[string]int{
			"open_eye":   1,
			"closed_eye": 2,
		},
		GuardMarginMS:  1000,
		PollIntervalMS: 10,
		CapacityFactor: 2,
		OutputDir:      ".",
		OutputPrefix:   "measure",
		Cue: CueConfig{
			Enabled:     true,
			FrequencyHz: 800,
			DurationMS:  200,
		},
		Source: SourceConfig{
			Kind:          SourceSynthetic,
			BoardChannels: 12,
			Seed:          1,
		},
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample_rate must be positive", ErrInvalidConfig)
	}
	if len(c.Phases) == 0 {
		return fmt.Errorf("%w: at least one phase is required", ErrInvalidConfig)
	}
	if _, err := c.ChannelSet(c.Source.BoardChannels); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.PollIntervalMS <= 0 || c.PollIntervalMS > maxPollIntervalMS {
		return fmt.Errorf("%w: poll_interval_ms must be within (0,%d]", ErrInvalidConfig, maxPollIntervalMS)
	}
	if c.GuardMarginMS < 0 {
		return fmt.Errorf("%w: guard_margin_ms must not be negative", ErrInvalidConfig)
	}
	if c.CapacityFactor < 1 {
		return fmt.Errorf("%w: capacity_factor must be at least 1", ErrInvalidConfig)
	}
	labels := c.Labels()
	for i, p := range c.Phases {
		if p.DurationSeconds <= 0 {
			return fmt.Errorf("%w: phase %d: duration_seconds must be positive", ErrInvalidConfig, i)
		}
		if p.EventCode == nil {
			continue
		}
		if _, ok := labels[*p.EventCode]; !ok {
			return fmt.Errorf("%w: phase %d: event code %d has no label", ErrInvalidConfig, i, *p.EventCode)
		}
	}
	if len(labels) != len(c.EventLabels) {
		return fmt.Errorf("%w: event_labels must map each code to one label", ErrInvalidConfig)
	}
	switch c.Source.Kind {
	case SourceSynthetic:
	case SourceReplay:
		if c.Source.ReplayPath == "" {
			return fmt.Errorf("%w: source.replay_path is required for replay", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown source.kind %q", ErrInvalidConfig, c.Source.Kind)
	}
	if c.Cue.Enabled && (c.Cue.FrequencyHz <= 0 || c.Cue.DurationMS <= 0) {
		return fmt.Errorf("%w: cue frequency and duration must be positive", ErrInvalidConfig)
	}
	return nil
}

// PhaseList converts the configured phases into domain phases.
func (c *Config) PhaseList() []model.Phase {
	out := make([]model.Phase, len(c.Phases))
	for i, p := range c.Phases {
		d := time.Duration(p.DurationSeconds * float64(time.Second))
		if p.EventCode == nil {
			out[i] = model.Rest(d)
			continue
		}
		out[i] = model.Coded(d, *p.EventCode)
	}
	return out
}

// ChannelSet builds the validated channel selection.
func (c *Config) ChannelSet(sourceChannels int) (model.ChannelSet, error) {
	return model.NewChannelSet(c.Channels, c.ChannelNames, sourceChannels)
}

// Labels inverts EventLabels into code -> label. When two labels share a
// code the alphabetically first wins; Validate rejects that case.
func (c *Config) Labels() map[int]string {
	names := make([]string, 0, len(c.EventLabels))
	for name := range c.EventLabels {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make(map[int]string, len(names))
	for _, name := range names {
		code := c.EventLabels[name]
		if _, taken := out[code]; !taken {
			out[code] = name
		}
	}
	return out
}

// GuardMargin returns the deadline guard as a duration.
func (c *Config) GuardMargin() time.Duration {
	return time.Duration(c.GuardMarginMS) * time.Millisecond
}

// PollInterval returns the sleep between polls.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// CueDuration returns the beep length.
func (c *Config) CueDuration() time.Duration {
	return time.Duration(c.Cue.DurationMS) * time.Millisecond
}
