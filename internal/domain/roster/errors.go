package roster

import "errors"

// Sentinel kinds for roster errors.
var (
	ErrInvalidQuota = errors.New("invalid role quota")
)
