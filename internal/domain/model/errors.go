package model

import "errors"

// Sentinel kinds for model validation errors.
var (
	ErrInvalidChannelSet = errors.New("invalid channel set")
	ErrInvalidPhase      = errors.New("invalid phase")
)
