package epoch

import "errors"

// Sentinel kinds for epoch assembly errors.
var (
	ErrNoData          = errors.New("no data to assemble")
	ErrChannelMismatch = errors.New("channel count mismatch")
)
