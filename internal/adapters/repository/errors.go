package repository

import "errors"

// Sentinel kinds for run store errors.
var (
	ErrNotFound  = errors.New("run not found")
	ErrInvalidID = errors.New("invalid run id")
)
