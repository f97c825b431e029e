package source

import "errors"

// Sentinel errors returned by the board.
var (
	ErrNoSession        = errors.New("no capture session")
	ErrInsufficientData = errors.New("not enough buffered samples")
	ErrChannelRange     = errors.New("channel index out of range")
	ErrInvalidArgument  = errors.New("invalid argument")
)
