package inspect

import "errors"

// ErrUsage reports invalid command-line input.
var ErrUsage = errors.New("invalid usage")
