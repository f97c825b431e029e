// Package window drains a live sample source in fixed, non-overlapping windows.
package window

import (
	"context"
	"fmt"

	"github.com/juraj-juraj/BRIA-project/internal/domain/model"
	"github.com/juraj-juraj/BRIA-project/pkg/logger"
	"github.com/juraj-juraj/BRIA-project/pkg/metrics"
)

// Source is the read side of a sample source needed for polling.
type Source interface {
	// BufferedCount returns the number of samples currently buffered by the
	// capture session.
	BufferedCount(ctx context.Context) (int, error)
	// PullLatest returns the n most recent samples of the given channels,
	// shaped channels x n. Callers only ask for n <= BufferedCount.
	PullLatest(ctx context.Context, n int, channels []int) ([][]float64, error)
}

// Poller fires once a full window of unseen samples is buffered. It owns the
// consumed-count baseline for one capture session.
type Poller struct {
	source   Source
	channels model.ChannelSet
	consumed int
	logger   logger.Logger
}

// Option applies a configuration option to the Poller.
type Option func(*Poller)

// WithLogger sets a custom logger for the poller.
func WithLogger(l logger.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPoller creates a poller bound to one source and channel set.
func NewPoller(source Source, channels model.ChannelSet, opts ...Option) *Poller {
	p := &Poller{
		source:   source,
		channels: channels,
		logger:   logger.Get().Named("poller"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Consumed returns the buffered count observed at the last fire.
func (p *Poller) Consumed() int { return p.consumed }

// Reset clears the baseline; used when a new capture session starts.
func (p *Poller) Reset() { p.consumed = 0 }

// Poll returns the next chunk when at least windowSamples unseen samples are
// buffered, and ok=false otherwise. It never blocks.
func (p *Poller) Poll(ctx context.Context, windowSamples int) (model.Chunk, bool, error) {
	if windowSamples <= 0 {
		return nil, false, fmt.Errorf("%w: %d", ErrWindow, windowSamples)
	}

	available, err := p.source.BufferedCount(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("buffered count: %w", err)
	}
	metrics.RecordPoll(available)

	if available < p.consumed {
		// The device counter went backwards: the session was restarted.
		p.logger.Warn(ctx, "source counter decreased; resetting baseline",
			logger.Int("available", available),
			logger.Int("consumed", p.consumed),
		)
		metrics.RecordCounterReset()
		p.consumed = 0
	}

	if available < p.consumed+windowSamples {
		return nil, false, nil
	}

	data, err := p.source.PullLatest(ctx, windowSamples, p.channels.Indices)
	if err != nil {
		return nil, false, fmt.Errorf("pull latest %d samples: %w", windowSamples, err)
	}
	if err := checkShape(data, p.channels.Len(), windowSamples); err != nil {
		return nil, false, err
	}

	p.consumed = available
	metrics.RecordChunk(windowSamples)
	p.logger.Debug(ctx, "window pulled",
		logger.Int("available", available),
		logger.Int("window", windowSamples),
	)
	return model.Chunk(data), true, nil
}

func checkShape(data [][]float64, rows, cols int) error {
	if len(data) != rows {
		return fmt.Errorf("%w: got %d channels, want %d", ErrShape, len(data), rows)
	}
	for i, row := range data {
		if len(row) != cols {
			return fmt.Errorf("%w: channel %d has %d samples, want %d", ErrShape, i, len(row), cols)
		}
	}
	return nil
}
