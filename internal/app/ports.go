package app

import (
	"context"
	"time"

	"github.com/juraj-juraj/BRIA-project/internal/adapters/dataset/edf"
	"github.com/juraj-juraj/BRIA-project/internal/domain/window"
)

// SessionSource is a sample source with an explicit capture session.
type SessionSource interface {
	window.Source
	// StartSession begins buffering with room for at least capacity samples
	// and resets the buffered count.
	StartSession(ctx context.Context, capacity int) error
	// StopSession ends buffering.
	StopSession(ctx context.Context) error
}

// Cue plays a short audible tone. It never fails from the caller's view.
type Cue interface {
	Play(frequency float64, d time.Duration)
}

// DatasetWriter persists a dataset to path.
type DatasetWriter interface {
	Write(ctx context.Context, path string, ds edf.Dataset) error
}

// nopCue is used when no cue is configured.
type nopCue struct{}

func (nopCue) Play(float64, time.Duration) {}
