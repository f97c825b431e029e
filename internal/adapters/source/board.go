// Package source provides sample sources for acquisition: a ring-buffered
// board that produces samples at its nominal rate, fed by a synthetic or a
// replayed signal.
package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/juraj-juraj/BRIA-project/pkg/logger"
)

// Generator yields the signal value of every channel at an absolute sample
// index. Indices are requested in increasing order within a session.
type Generator interface {
	Name() string
	Channels() int
	Sample(index int, dst []float64)
	// Reset restarts the signal at index 0.
	Reset()
}

// Board emulates a streaming acquisition board: once a session starts it
// produces rate samples per second of clock time into a ring buffer of the
// requested capacity.
type Board struct {
	mu     sync.Mutex
	gen    Generator
	rate   float64
	clock  Clock
	logger logger.Logger

	active    bool
	started   time.Time
	generated int
	capacity  int
	ring      [][]float64
	scratch   []float64
}

// NewBoard creates a board sampling gen at rate Hz.
func NewBoard(gen Generator, rate float64, opts ...Option) (*Board, error) {
	if gen == nil || gen.Channels() <= 0 {
		return nil, fmt.Errorf("%w: generator without channels", ErrInvalidArgument)
	}
	if rate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %v", ErrInvalidArgument, rate)
	}
	b := &Board{
		gen:     gen,
		rate:    rate,
		clock:   wallClock{},
		logger:  logger.Get().Named("board"),
		scratch: make([]float64, gen.Channels()),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Channels returns the number of channels the board streams.
func (b *Board) Channels() int { return b.gen.Channels() }

// SampleRate returns the board's nominal rate in Hz.
func (b *Board) SampleRate() float64 { return b.rate }

// Describe summarizes the board for startup logs.
func (b *Board) Describe() string {
	return fmt.Sprintf("%s board: %d channels at %g Hz", b.gen.Name(), b.gen.Channels(), b.rate)
}

// StartSession allocates the ring buffer and resets the sample counter.
func (b *Board) StartSession(ctx context.Context, capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("%w: capacity %d", ErrInvalidArgument, capacity)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ring = make([][]float64, b.gen.Channels())
	for c := range b.ring {
		b.ring[c] = make([]float64, capacity)
	}
	b.capacity = capacity
	b.generated = 0
	b.gen.Reset()
	b.started = b.clock.Now()
	b.active = true

	b.logger.Debug(ctx, "session started", logger.Int("capacity", capacity))
	return nil
}

// StopSession ends the session and releases the buffer.
func (b *Board) StopSession(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.active {
		return ErrNoSession
	}
	b.active = false
	b.ring = nil
	b.logger.Debug(ctx, "session stopped", logger.Int("generated", b.generated))
	return nil
}

// BufferedCount returns the number of samples held by the ring buffer.
func (b *Board) BufferedCount(context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.active {
		return 0, ErrNoSession
	}
	b.advance()
	return b.buffered(), nil
}

// PullLatest copies the n newest samples of channels, shaped channels x n.
// It does not remove them from the buffer.
func (b *Board) PullLatest(_ context.Context, n int, channels []int) ([][]float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.active {
		return nil, ErrNoSession
	}
	b.advance()
	if n <= 0 || n > b.buffered() {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrInsufficientData, n, b.buffered())
	}
	for _, ch := range channels {
		if ch < 0 || ch >= len(b.ring) {
			return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrChannelRange, ch, len(b.ring))
		}
	}

	first := b.generated - n
	out := make([][]float64, len(channels))
	for r, ch := range channels {
		row := make([]float64, n)
		for j := range row {
			row[j] = b.ring[ch][(first+j)%b.capacity]
		}
		out[r] = row
	}
	return out, nil
}

func (b *Board) buffered() int {
	return min(b.generated, b.capacity)
}

// advance produces every sample due by now.
func (b *Board) advance() {
	due := int(b.clock.Now().Sub(b.started).Seconds() * b.rate)
	for ; b.generated < due; b.generated++ {
		b.gen.Sample(b.generated, b.scratch)
		slot := b.generated % b.capacity
		for c, v := range b.scratch {
			b.ring[c][slot] = v
		}
	}
}
