package teams

import "errors"

// Sentinel kinds for team assignment errors.
var (
	ErrInvalidGroups    = errors.New("need exactly four forward lines and four defense pairs")
	ErrIncompleteGroups = errors.New("incomplete group")
	ErrInvalidWeight    = errors.New("invalid penalty weight")
)
