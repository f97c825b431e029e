// Package types contains common types used across the application
package types

import "time"

// Acquisition states reported by the status endpoint.
const (
	StateIdle      = "idle"
	StateAcquiring = "acquiring"
	StateWriting   = "writing"
	StateDone      = "done"
	StateFailed    = "failed"
)

// Status is a snapshot of acquisition progress.
type Status struct {
	State       string     `json:"state"`
	RunID       string     `json:"run_id,omitempty"`
	Phase       int        `json:"phase"`
	PhaseCount  int        `json:"phase_count"`
	PhaseLabel  string     `json:"phase_label,omitempty"`
	PhaseEndsAt *time.Time `json:"phase_ends_at,omitempty"`
	Epochs      int        `json:"epochs"`
	Error       string     `json:"error,omitempty"`
}

// RunSummary describes a stored run.
type RunSummary struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	Epochs      int       `json:"epochs"`
	ShortEpochs int       `json:"short_epochs"`
	SampleRate  float64   `json:"sample_rate"`
	Channels    []string  `json:"channels"`
	Path        string    `json:"path,omitempty"`
	Written     bool      `json:"written"`
	WriteError  string    `json:"write_error,omitempty"`
}
