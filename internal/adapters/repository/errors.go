package repository

import "errors"

// Sentinel kinds for history and ledger store errors.
var (
	ErrInvalidLimit = errors.New("invalid history limit")
	ErrInvalidEntry = errors.New("invalid history entry")
	ErrDuplicateID  = errors.New("history entry already exists")
	ErrNilClient    = errors.New("redis client is nil")
)
