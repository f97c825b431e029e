package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/juraj-juraj/BRIA-project/internal/domain/model"
	"github.com/juraj-juraj/BRIA-project/internal/domain/window"
	"github.com/juraj-juraj/BRIA-project/pkg/logger"
	"github.com/juraj-juraj/BRIA-project/pkg/metrics"
)

// Phase runner defaults.
const (
	// MinCapacity is the smallest ring buffer requested from the source.
	MinCapacity = 80000

	DefaultGuard          = time.Second
	DefaultPollInterval   = 10 * time.Millisecond
	MaxPollInterval       = 100 * time.Millisecond
	DefaultCapacityFactor = 2.0
	DefaultCueFrequency   = 800.0
	DefaultCueDuration    = 200 * time.Millisecond

	windowLength = time.Second
)

// DeadlinePolicy decides how long a phase keeps polling. A phase polls
// while elapsed < Duration + Guard so the last window of the phase has time
// to arrive.
type DeadlinePolicy struct {
	Guard time.Duration
}

// Deadline returns the polling budget for a phase.
func (p DeadlinePolicy) Deadline(phase model.Phase) time.Duration {
	return phase.Duration + p.Guard
}

// PhaseRunner acquires the chunks of a single phase from one capture session.
type PhaseRunner struct {
	source         SessionSource
	channels       model.ChannelSet
	clock          Clock
	cue            Cue
	cueFrequency   float64
	cueDuration    time.Duration
	policy         DeadlinePolicy
	pollInterval   time.Duration
	capacityFactor float64
	logger         logger.Logger
}

// PhaseOption applies a configuration option to the PhaseRunner.
type PhaseOption func(*PhaseRunner)

// WithClock sets the time source.
func WithClock(c Clock) PhaseOption {
	return func(r *PhaseRunner) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithCue sets the end-of-phase tone.
func WithCue(c Cue, frequency float64, d time.Duration) PhaseOption {
	return func(r *PhaseRunner) {
		if c == nil {
			return
		}
		r.cue = c
		if frequency > 0 {
			r.cueFrequency = frequency
		}
		if d > 0 {
			r.cueDuration = d
		}
	}
}

// WithDeadlinePolicy sets the guard margin.
func WithDeadlinePolicy(p DeadlinePolicy) PhaseOption {
	return func(r *PhaseRunner) {
		if p.Guard >= 0 {
			r.policy = p
		}
	}
}

// WithPollInterval sets the sleep between polls. Values outside
// (0, MaxPollInterval] are ignored.
func WithPollInterval(d time.Duration) PhaseOption {
	return func(r *PhaseRunner) {
		if d > 0 && d <= MaxPollInterval {
			r.pollInterval = d
		}
	}
}

// WithCapacityFactor sets the ring buffer oversizing factor.
func WithCapacityFactor(f float64) PhaseOption {
	return func(r *PhaseRunner) {
		if f >= 1 {
			r.capacityFactor = f
		}
	}
}

// WithPhaseLogger sets a custom logger.
func WithPhaseLogger(l logger.Logger) PhaseOption {
	return func(r *PhaseRunner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewPhaseRunner creates a runner reading channels from source.
func NewPhaseRunner(source SessionSource, channels model.ChannelSet, opts ...PhaseOption) *PhaseRunner {
	r := &PhaseRunner{
		source:         source,
		channels:       channels,
		clock:          SystemClock{},
		cue:            nopCue{},
		cueFrequency:   DefaultCueFrequency,
		cueDuration:    DefaultCueDuration,
		policy:         DeadlinePolicy{Guard: DefaultGuard},
		pollInterval:   DefaultPollInterval,
		capacityFactor: DefaultCapacityFactor,
		logger:         logger.Get().Named("phase"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WindowSamples is the number of samples in one 1 s window.
func WindowSamples(sampleRate float64) int {
	return int(math.Round(sampleRate * windowLength.Seconds()))
}

// Deadline returns the polling budget for phase under the runner's policy.
func (r *PhaseRunner) Deadline(phase model.Phase) time.Duration {
	return r.policy.Deadline(phase)
}

// Capacity returns the ring buffer size requested for phase.
func (r *PhaseRunner) Capacity(phase model.Phase, sampleRate float64) int {
	budget := r.Deadline(phase).Seconds()
	n := int(math.Ceil(budget * sampleRate * r.capacityFactor))
	if n < MinCapacity {
		return MinCapacity
	}
	return n
}

// Run starts a capture session, polls it until the phase deadline, stops the
// session, plays the cue and returns the chunks in arrival order. The session
// is stopped on every exit path.
func (r *PhaseRunner) Run(ctx context.Context, phase model.Phase, sampleRate float64) ([]model.Chunk, error) {
	if err := phase.Validate(); err != nil {
		return nil, err
	}
	windowSamples := WindowSamples(sampleRate)
	if windowSamples <= 0 {
		return nil, fmt.Errorf("%w: sample rate %v gives an empty window", model.ErrInvalidPhase, sampleRate)
	}

	capacity := r.Capacity(phase, sampleRate)
	if err := r.source.StartSession(ctx, capacity); err != nil {
		return nil, fmt.Errorf("%w: start session: %w", ErrSourceUnavailable, err)
	}
	stopped := false
	defer func() {
		if stopped {
			return
		}
		// The caller's context may already be done; release regardless.
		if err := r.source.StopSession(context.Background()); err != nil {
			r.logger.Warn(ctx, "failed to stop session", logger.Error(err))
		}
	}()

	poller := window.NewPoller(r.source, r.channels, window.WithLogger(r.logger.Named("poller")))
	deadline := r.policy.Deadline(phase)
	start := r.clock.Now()

	r.logger.Debug(ctx, "phase polling",
		logger.String("phase", phase.String()),
		logger.Int("capacity", capacity),
		logger.Int("window", windowSamples),
		logger.Duration("deadline", deadline),
	)

	var chunks []model.Chunk
	for r.clock.Now().Sub(start) < deadline {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunk, ok, err := poller.Poll(ctx, windowSamples)
		if err != nil {
			metrics.RecordErrorByComponent("phase_runner", "poll")
			return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		if ok {
			chunks = append(chunks, chunk)
		}
		if err := r.clock.Sleep(ctx, r.pollInterval); err != nil {
			return nil, err
		}
	}
	elapsed := r.clock.Now().Sub(start)

	stopped = true
	if err := r.source.StopSession(ctx); err != nil {
		return nil, fmt.Errorf("%w: stop session: %w", ErrSourceUnavailable, err)
	}
	r.cue.Play(r.cueFrequency, r.cueDuration)

	kind := "epoch"
	if phase.IsRest() {
		kind = "rest"
	}
	metrics.RecordPhaseCompleted(kind, elapsed.Seconds())

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyPhase, phase)
	}
	r.logger.Info(ctx, "phase acquired",
		logger.String("phase", phase.String()),
		logger.Int("chunks", len(chunks)),
		logger.Duration("elapsed", elapsed),
	)
	return chunks, nil
}
