package app

import "errors"

// Sentinel errors surfaced by the acquisition pipeline.
var (
	// ErrSourceUnavailable means the sample source could not start, stop, or be read.
	ErrSourceUnavailable = errors.New("sample source unavailable")
	// ErrEmptyPhase means a phase deadline passed without a single full window.
	ErrEmptyPhase = errors.New("phase produced no data")
	// ErrWriterFailure means the dataset could not be persisted. The run is kept.
	ErrWriterFailure = errors.New("dataset write failed")
	// ErrBusy is returned when an acquisition is already in progress.
	ErrBusy = errors.New("acquisition already running")
)
