package rosterfile

import "errors"

// Sentinel kinds for roster file errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported roster format")
	ErrMissingColumn     = errors.New("missing roster column")
	ErrMalformedRow      = errors.New("malformed roster row")
	ErrInvalidPlayer     = errors.New("invalid player")
	ErrDuplicatePlayer   = errors.New("duplicate player")
)
