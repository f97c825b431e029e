// Package app runs the acquisition protocol: phase by phase polling of the
// sample source, epoch assembly, and persistence of the finished run.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/juraj-juraj/BRIA-project/internal/adapters/dataset/edf"
	"github.com/juraj-juraj/BRIA-project/internal/adapters/repository"
	"github.com/juraj-juraj/BRIA-project/internal/domain/model"
	"github.com/juraj-juraj/BRIA-project/internal/domain/types"
	"github.com/juraj-juraj/BRIA-project/pkg/logger"
	"github.com/juraj-juraj/BRIA-project/pkg/metrics"
)

// Service implements the dependencies required by the entry point and the
// HTTP API.
type Service struct {
	mu sync.RWMutex

	// Core components
	source SessionSource
	writer DatasetWriter
	store  repository.Store
	clock  Clock
	cue    Cue

	// Protocol
	channels   model.ChannelSet
	phases     []model.Phase
	sampleRate float64
	labels     map[int]string

	// Phase runner tuning
	guard          time.Duration
	pollInterval   time.Duration
	capacityFactor float64
	cueFrequency   float64
	cueDuration    time.Duration

	// Output
	outputDir    string
	outputPrefix string

	// State
	status types.Status

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithProtocol sets the ordered phases and the sample rate.
func WithProtocol(phases []model.Phase, sampleRate float64) Option {
	return func(s *Service) {
		s.phases = append([]model.Phase(nil), phases...)
		if sampleRate > 0 {
			s.sampleRate = sampleRate
		}
	}
}

// WithEventLabels sets the code -> label mapping written to the dataset.
func WithEventLabels(labels map[int]string) Option {
	return func(s *Service) {
		if labels != nil {
			s.labels = labels
		}
	}
}

// WithWriter sets the dataset writer.
func WithWriter(w DatasetWriter) Option {
	return func(s *Service) {
		if w != nil {
			s.writer = w
		}
	}
}

// WithStore sets the run store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithServiceClock sets the time source.
func WithServiceClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithServiceCue sets the end-of-phase tone.
func WithServiceCue(c Cue, frequency float64, d time.Duration) Option {
	return func(s *Service) {
		if c != nil {
			s.cue = c
			s.cueFrequency = frequency
			s.cueDuration = d
		}
	}
}

// WithTiming sets the guard margin, poll interval and capacity factor.
func WithTiming(guard, pollInterval time.Duration, capacityFactor float64) Option {
	return func(s *Service) {
		s.guard = guard
		s.pollInterval = pollInterval
		s.capacityFactor = capacityFactor
	}
}

// WithOutput sets where datasets are written.
func WithOutput(dir, prefix string) Option {
	return func(s *Service) {
		if dir != "" {
			s.outputDir = dir
		}
		if prefix != "" {
			s.outputPrefix = prefix
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service reading channels from source.
func New(source SessionSource, channels model.ChannelSet, opts ...Option) *Service {
	s := &Service{
		source:         source,
		writer:         edf.NewWriter(),
		store:          repository.NewMemoryStore(),
		clock:          SystemClock{},
		cue:            nopCue{},
		channels:       channels,
		sampleRate:     500,
		labels:         map[int]string{},
		guard:          DefaultGuard,
		pollInterval:   DefaultPollInterval,
		capacityFactor: DefaultCapacityFactor,
		cueFrequency:   DefaultCueFrequency,
		cueDuration:    DefaultCueDuration,
		outputDir:      ".",
		outputPrefix:   "measure",
		status:         types.Status{State: types.StateIdle, Phase: -1},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.status.PhaseCount = len(s.phases)
	return s
}

// Acquire runs the whole protocol once and stores the resulting run.
func (s *Service) Acquire(ctx context.Context) (model.Run, error) {
	s.mu.Lock()
	if s.status.State == types.StateAcquiring || s.status.State == types.StateWriting {
		s.mu.Unlock()
		return model.Run{}, ErrBusy
	}
	s.status = types.Status{State: types.StateAcquiring, Phase: -1, PhaseCount: len(s.phases)}
	s.mu.Unlock()

	runner := NewPhaseRunner(s.source, s.channels,
		WithClock(s.clock),
		WithCue(s.cue, s.cueFrequency, s.cueDuration),
		WithDeadlinePolicy(DeadlinePolicy{Guard: s.guard}),
		WithPollInterval(s.pollInterval),
		WithCapacityFactor(s.capacityFactor),
		WithPhaseLogger(s.logger.Named("phase")),
	)
	seq := NewSequencer(runner, s.channels,
		WithLabels(s.labels),
		WithSequenceClock(s.clock),
		WithProgressReporter(s),
		WithSequenceLogger(s.logger.Named("sequence")),
	)

	run, err := seq.RunAll(ctx, s.phases, s.sampleRate)
	if err != nil {
		metrics.RecordErrorByComponent("sequencer", errorType(err))
		s.fail(err)
		return model.Run{}, err
	}
	if err := s.store.Save(ctx, run); err != nil {
		s.fail(err)
		return model.Run{}, err
	}

	s.mu.Lock()
	s.status.State = types.StateDone
	s.status.RunID = run.ID
	s.status.Epochs = len(run.Epochs)
	s.status.Phase = -1
	s.status.PhaseLabel = ""
	s.status.PhaseEndsAt = nil
	s.mu.Unlock()
	return run, nil
}

// Write persists the stored run id to a new timestamped dataset file and
// returns its path. On failure the run stays in the store for a retry.
func (s *Service) Write(ctx context.Context, id string) (string, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	if s.status.State == types.StateAcquiring || s.status.State == types.StateWriting {
		s.mu.Unlock()
		return "", ErrBusy
	}
	s.status.State = types.StateWriting
	s.status.RunID = id
	s.status.Error = ""
	s.mu.Unlock()

	path := edf.Path(s.outputDir, s.outputPrefix, s.clock.Now())
	start := time.Now()
	err = s.writer.Write(ctx, path, edf.FromRun(rec.Run))
	metrics.RecordDatasetWrite(err == nil, float64(time.Since(start).Milliseconds()))

	if err != nil {
		metrics.RecordErrorByComponent("writer", errorType(err))
		if markErr := s.store.MarkWriteFailed(ctx, id, err); markErr != nil {
			s.logger.Error(ctx, "failed to record write failure", logger.Error(markErr))
		}
		werr := fmt.Errorf("%w: %s: %w", ErrWriterFailure, path, err)
		s.fail(werr)
		return "", werr
	}
	if err := s.store.MarkWritten(ctx, id, path); err != nil {
		return "", err
	}

	s.logger.Info(ctx, "dataset written",
		logger.String("run", id),
		logger.String("path", path),
		logger.Int("epochs", len(rec.Run.Epochs)),
	)
	s.setState(types.StateDone, id)
	return path, nil
}

// Run acquires the protocol and writes the dataset.
func (s *Service) Run(ctx context.Context) (model.Run, string, error) {
	run, err := s.Acquire(ctx)
	if err != nil {
		return model.Run{}, "", err
	}
	path, err := s.Write(ctx, run.ID)
	return run, path, err
}

// Status returns a snapshot of acquisition progress.
func (s *Service) Status() types.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	if st.PhaseEndsAt != nil {
		t := *st.PhaseEndsAt
		st.PhaseEndsAt = &t
	}
	return st
}

// Summaries describes every stored run.
func (s *Service) Summaries(ctx context.Context) ([]types.RunSummary, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.RunSummary, len(records))
	for i, rec := range records {
		out[i] = types.RunSummary{
			ID:          rec.Run.ID,
			StartedAt:   rec.Run.StartedAt,
			Epochs:      len(rec.Run.Epochs),
			ShortEpochs: len(rec.Run.ShortEpochs()),
			SampleRate:  rec.Run.SampleRate,
			Channels:    rec.Run.Channels.Labels(),
			Path:        rec.Path,
			Written:     rec.Written,
			WriteError:  rec.WriteError,
		}
	}
	return out, nil
}

// PhaseStarted implements ProgressReporter.
func (s *Service) PhaseStarted(index int, phase model.Phase, endsAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Phase = index
	s.status.PhaseLabel = s.phaseLabel(phase)
	s.status.PhaseEndsAt = &endsAt
}

// PhaseFinished implements ProgressReporter.
func (s *Service) PhaseFinished(_ int, phase model.Phase, err error) {
	if err != nil || phase.IsRest() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Epochs++
}

func (s *Service) phaseLabel(phase model.Phase) string {
	code, ok := phase.Code()
	if !ok {
		return "rest"
	}
	if label, ok := s.labels[code]; ok {
		return label
	}
	return phase.String()
}

func (s *Service) setState(state, runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.State = state
	s.status.RunID = runID
	s.status.Error = ""
}

func (s *Service) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.State = types.StateFailed
	s.status.Error = err.Error()
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, ErrEmptyPhase):
		return "empty_phase"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, edf.ErrSampleRate), errors.Is(err, edf.ErrFormat):
		return "format"
	default:
		return "other"
	}
}
