package edf

import "errors"

// Sentinel errors for dataset encoding and decoding.
var (
	// ErrSampleRate means the rate does not fit a whole number of samples per 1 s record.
	ErrSampleRate = errors.New("sample rate must be a positive whole number of samples per second")
	// ErrFormat means the dataset or file is malformed.
	ErrFormat = errors.New("malformed dataset")
)
