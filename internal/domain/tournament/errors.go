package tournament

import "errors"

// Sentinel kinds for tournament errors.
var (
	ErrInvalidTeamCount = errors.New("tournament needs at least two teams")
	ErrNilRand          = errors.New("random source is nil")
	ErrNotEnoughTeams   = errors.New("not enough ranked teams for playoffs")
	ErrNotDecided       = errors.New("match not decided")
)
