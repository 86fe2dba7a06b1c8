package lines

import (
	"fmt"
	"strings"
)

// Policy decides what happens to players that do not fit GroupSize x GroupCount.
type Policy string

const (
	// PolicyDrop returns surplus players as leftovers.
	PolicyDrop Policy = "drop"
	// PolicyUndersized appends the surplus as extra groups flagged incomplete.
	PolicyUndersized Policy = "undersized"
	// PolicyError refuses any pool that does not fill every group exactly.
	PolicyError Policy = "error"
)

// ParsePolicy accepts drop, undersized (or undersized-group) and error.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PolicyDrop):
		return PolicyDrop, nil
	case string(PolicyUndersized), "undersized-group":
		return PolicyUndersized, nil
	case string(PolicyError):
		return PolicyError, nil
	default:
		return "", fmt.Errorf("%w: unknown leftover policy %q", ErrInvalidOptions, s)
	}
}

// Options bounds a Build run.
type Options struct {
	GroupSize  int
	GroupCount int
	Trials     int
	Policy     Policy
}

// Capacity is the number of players the primary groups can hold.
func (o Options) Capacity() int { return o.GroupSize * o.GroupCount }

func (o Options) validate() error {
	switch {
	case o.GroupSize != 2 && o.GroupSize != 3:
		return fmt.Errorf("%w: group size %d not in {2,3}", ErrInvalidOptions, o.GroupSize)
	case o.GroupCount < 1:
		return fmt.Errorf("%w: group count %d", ErrInvalidOptions, o.GroupCount)
	case o.Trials < 1:
		return fmt.Errorf("%w: trials %d", ErrInvalidOptions, o.Trials)
	}
	switch o.Policy {
	case PolicyDrop, PolicyUndersized, PolicyError:
		return nil
	default:
		return fmt.Errorf("%w: policy %q", ErrInvalidOptions, o.Policy)
	}
}

// Forwards is the standard trio layout for a two-team split.
func Forwards(trials int, policy Policy) Options {
	return Options{GroupSize: 3, GroupCount: 4, Trials: trials, Policy: policy}
}

// Pairs is the standard duo layout for a two-team split.
func Pairs(trials int, policy Policy) Options {
	return Options{GroupSize: 2, GroupCount: 4, Trials: trials, Policy: policy}
}
