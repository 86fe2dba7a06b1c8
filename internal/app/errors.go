package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted       = errors.New("service not started")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrUnknownPlayer    = errors.New("unknown player")
	ErrUnknownSplit     = errors.New("unknown split")
	ErrAlreadyFinalized = errors.New("split already finalized")
	ErrBackpressure     = errors.New("finalize queue is full")
)
