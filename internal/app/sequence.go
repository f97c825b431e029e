package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/juraj-juraj/BRIA-project/internal/domain/epoch"
	"github.com/juraj-juraj/BRIA-project/internal/domain/events"
	"github.com/juraj-juraj/BRIA-project/internal/domain/model"
	"github.com/juraj-juraj/BRIA-project/pkg/logger"
	"github.com/juraj-juraj/BRIA-project/pkg/metrics"
)

// Runner acquires the chunks of one phase. Deadline is the polling budget
// Run will spend on phase.
type Runner interface {
	Run(ctx context.Context, phase model.Phase, sampleRate float64) ([]model.Chunk, error)
	Deadline(phase model.Phase) time.Duration
}

// ProgressReporter observes phase transitions.
type ProgressReporter interface {
	PhaseStarted(index int, phase model.Phase, endsAt time.Time)
	PhaseFinished(index int, phase model.Phase, err error)
}

// Sequencer runs the protocol phase by phase and collects the epochs of the
// coded phases into a Run.
type Sequencer struct {
	runner   Runner
	channels model.ChannelSet
	labels   map[int]string
	clock    Clock
	reporter ProgressReporter
	logger   logger.Logger
}

// SequenceOption applies a configuration option to the Sequencer.
type SequenceOption func(*Sequencer)

// WithLabels sets the code -> label mapping copied into the Run.
func WithLabels(labels map[int]string) SequenceOption {
	return func(s *Sequencer) {
		s.labels = make(map[int]string, len(labels))
		for code, label := range labels {
			s.labels[code] = label
		}
	}
}

// WithProgressReporter sets the phase progress observer.
func WithProgressReporter(p ProgressReporter) SequenceOption {
	return func(s *Sequencer) {
		s.reporter = p
	}
}

// WithSequenceClock sets the time source used for run and phase timestamps.
func WithSequenceClock(c Clock) SequenceOption {
	return func(s *Sequencer) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithSequenceLogger sets a custom logger.
func WithSequenceLogger(l logger.Logger) SequenceOption {
	return func(s *Sequencer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSequencer creates a sequencer driving runner over channels.
func NewSequencer(runner Runner, channels model.ChannelSet, opts ...SequenceOption) *Sequencer {
	s := &Sequencer{
		runner:   runner,
		channels: channels,
		labels:   map[int]string{},
		clock:    SystemClock{},
		logger:   logger.Get().Named("sequence"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunAll executes phases in order. Rest phases are acquired and discarded;
// each coded phase becomes one epoch. Any phase failure aborts the run.
func (s *Sequencer) RunAll(ctx context.Context, phases []model.Phase, sampleRate float64) (model.Run, error) {
	if sampleRate <= 0 {
		return model.Run{}, fmt.Errorf("%w: %v", events.ErrSampleRate, sampleRate)
	}
	if err := s.channels.Validate(0); err != nil {
		return model.Run{}, err
	}
	for i, p := range phases {
		if err := p.Validate(); err != nil {
			return model.Run{}, fmt.Errorf("phase %d: %w", i, err)
		}
	}

	run := model.Run{
		ID:         uuid.NewString(),
		StartedAt:  s.clock.Now(),
		Channels:   s.channels,
		SampleRate: sampleRate,
		Labels:     s.labels,
	}
	defer metrics.UpdateCurrentPhase(-1)

	s.logger.Info(ctx, "acquisition started",
		logger.String("run", run.ID),
		logger.Int("phases", len(phases)),
		logger.Float64("sample_rate", sampleRate),
		logger.Any("channels", s.channels.Labels()),
	)

	for i, phase := range phases {
		metrics.UpdateCurrentPhase(i)
		s.reportStart(i, phase)

		ep, kept, err := s.runPhase(ctx, phase, sampleRate)
		s.reportFinish(i, phase, err)
		if err != nil {
			return model.Run{}, fmt.Errorf("phase %d (%s): %w", i, phase, err)
		}
		if !kept {
			continue
		}
		if ep.Short {
			s.logger.Warn(ctx, "short epoch",
				logger.Int("phase", i),
				logger.Int("samples", ep.Len()),
				logger.Int("nominal", ep.Nominal),
			)
			metrics.RecordShortEpoch()
		}
		if n := len(ep.DegenerateChannels); n > 0 {
			s.logger.Warn(ctx, "constant channels zeroed",
				logger.Int("phase", i),
				logger.Any("channels", ep.DegenerateChannels),
			)
			metrics.RecordDegenerateChannels(n)
		}
		metrics.RecordEpochRetained(ep.Len())
		run.Epochs = append(run.Epochs, ep)
	}

	table, err := events.Build(run.Epochs, sampleRate)
	if err != nil {
		return model.Run{}, err
	}
	run.Events = table.Entries
	run.Onsets = table.Onsets
	run.Durations = table.Durations

	s.logger.Info(ctx, "acquisition finished",
		logger.String("run", run.ID),
		logger.Int("epochs", len(run.Epochs)),
		logger.Int("short_epochs", len(run.ShortEpochs())),
	)
	return run, nil
}

func (s *Sequencer) runPhase(ctx context.Context, phase model.Phase, sampleRate float64) (model.Epoch, bool, error) {
	chunks, err := s.runner.Run(ctx, phase, sampleRate)
	if err != nil {
		return model.Epoch{}, false, err
	}
	code, ok := phase.Code()
	if !ok {
		s.logger.Debug(ctx, "rest phase discarded", logger.Int("chunks", len(chunks)))
		return model.Epoch{}, false, nil
	}
	res, err := epoch.Assemble(chunks, phase.TargetSamples(sampleRate), s.channels.Len())
	if err != nil {
		return model.Epoch{}, false, err
	}
	return res.Epoch(code), true, nil
}

func (s *Sequencer) reportStart(i int, phase model.Phase) {
	if s.reporter == nil {
		return
	}
	s.reporter.PhaseStarted(i, phase, s.clock.Now().Add(s.runner.Deadline(phase)))
}

func (s *Sequencer) reportFinish(i int, phase model.Phase, err error) {
	if s.reporter == nil {
		return
	}
	s.reporter.PhaseFinished(i, phase, err)
}
