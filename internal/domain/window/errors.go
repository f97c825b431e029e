package window

import "errors"

// Sentinel kinds for polling errors.
var (
	ErrShape  = errors.New("chunk shape mismatch")
	ErrWindow = errors.New("invalid window size")
)
