package source

import (
	"time"

	"github.com/juraj-juraj/BRIA-project/pkg/logger"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// Option applies a configuration option to the Board.
type Option func(*Board)

// WithClock sets the time source that drives sample production.
func WithClock(c Clock) Option {
	return func(b *Board) {
		if c != nil {
			b.clock = c
		}
	}
}

// WithLogger sets a custom logger for the board.
func WithLogger(l logger.Logger) Option {
	return func(b *Board) {
		if l != nil {
			b.logger = l
		}
	}
}
