package lines

import "errors"

// Sentinel kinds for line building errors.
var (
	ErrInvalidOptions   = errors.New("invalid line options")
	ErrIncompleteGroups = errors.New("pool does not fill every group")
	ErrNilRand          = errors.New("random source is nil")
)
