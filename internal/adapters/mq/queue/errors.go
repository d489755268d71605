package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrFull   = errors.New("assessment queue full")
	ErrClosed = errors.New("assessment queue closed")
)
