// Package teams splits four forward lines and four defense pairs into two
// teams by exhaustive search over the 36 ways to pick two of each.
package teams

import (
	"fmt"
	"math"

	"github.com/okian/linemate/internal/domain/model"
)

// GroupsPerKind is the number of forward lines and of defense pairs.
const GroupsPerKind = 4

// PairCounter reports how often two players have been grouped before.
// Count must be symmetric in its arguments.
type PairCounter interface {
	Count(a, b string) int
}

// Scope selects which player pairs the penalty is summed over.
type Scope int

const (
	// ScopeTeam counts every pair of teammates, across lines and pairs.
	// It is the default: pairs inside a group are the same in every
	// combination, so only cross-group pairs can move the choice.
	ScopeTeam Scope = iota
	// ScopeGroup counts only pairs sharing a line or pair. It adds the same
	// amount to every combination.
	ScopeGroup
)

// Assignment is the winning combination.
type Assignment struct {
	TeamA model.Team `json:"team_a"`
	TeamB model.Team `json:"team_b"`
	// ForwardsA and DefenseA are the group indexes placed on Team A.
	ForwardsA [2]int  `json:"forwards_a"`
	DefenseA  [2]int  `json:"defense_a"`
	ScoreA    float64 `json:"score_a"`
	ScoreB    float64 `json:"score_b"`
	Diff      float64 `json:"diff"`
	Penalty   int     `json:"penalty"`
	Cost      float64 `json:"cost"`
}

// Candidate is one of the 36 combinations with its cost breakdown.
type Candidate struct {
	ForwardsA [2]int
	DefenseA  [2]int
	ScoreA    float64
	ScoreB    float64
	Penalty   int
	Cost      float64
}

type assigner struct {
	allowIncomplete bool
	scope           Scope
}

// Option configures Assign.
type Option func(*assigner)

// AllowIncomplete lets flagged groups through; their missing slots count as zero talent.
func AllowIncomplete() Option {
	return func(a *assigner) { a.allowIncomplete = true }
}

// WithScope sets the penalty scope. The default is ScopeTeam.
func WithScope(s Scope) Option {
	return func(a *assigner) { a.scope = s }
}

// pairs is C(4,2) in lexicographic order.
var pairs = [6][2]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}

func complement(p [2]int) [2]int {
	var out [2]int
	n := 0
	for i := 0; i < GroupsPerKind; i++ {
		if i != p[0] && i != p[1] {
			out[n] = i
			n++
		}
	}
	return out
}

// Candidates scores all 36 combinations in enumeration order: forward
// choices outermost, each in lexicographic order.
func Candidates(forwards, defense []model.Group, weight float64, counter PairCounter, opts ...Option) ([]Candidate, error) {
	a := &assigner{}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.check(forwards, defense, weight); err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(pairs)*len(pairs))
	for _, fa := range pairs {
		fb := complement(fa)
		for _, da := range pairs {
			db := complement(da)
			teamA := pick(forwards, defense, fa, da)
			teamB := pick(forwards, defense, fb, db)
			penalty := a.penalty(teamA, counter) + a.penalty(teamB, counter)
			scoreA, scoreB := teamA.Total(), teamB.Total()
			out = append(out, Candidate{
				ForwardsA: fa,
				DefenseA:  da,
				ScoreA:    scoreA,
				ScoreB:    scoreB,
				Penalty:   penalty,
				Cost:      math.Abs(scoreA-scoreB) + weight*float64(penalty),
			})
		}
	}
	return out, nil
}

// Assign returns the combination of minimum cost
// |scoreA - scoreB| + weight * penalty. The first minimum in enumeration
// order wins. A nil counter disables the penalty.
func Assign(forwards, defense []model.Group, weight float64, counter PairCounter, opts ...Option) (Assignment, error) {
	cands, err := Candidates(forwards, defense, weight, counter, opts...)
	if err != nil {
		return Assignment{}, err
	}

	best := cands[0]
	for _, c := range cands[1:] {
		if c.Cost < best.Cost {
			best = c
		}
	}

	return Assignment{
		TeamA:     pick(forwards, defense, best.ForwardsA, best.DefenseA),
		TeamB:     pick(forwards, defense, complement(best.ForwardsA), complement(best.DefenseA)),
		ForwardsA: best.ForwardsA,
		DefenseA:  best.DefenseA,
		ScoreA:    best.ScoreA,
		ScoreB:    best.ScoreB,
		Diff:      math.Abs(best.ScoreA - best.ScoreB),
		Penalty:   best.Penalty,
		Cost:      best.Cost,
	}, nil
}

func (a *assigner) check(forwards, defense []model.Group, weight float64) error {
	if len(forwards) != GroupsPerKind || len(defense) != GroupsPerKind {
		return fmt.Errorf("%w: %d forward lines and %d defense pairs", ErrInvalidGroups, len(forwards), len(defense))
	}
	if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidWeight, weight)
	}
	if a.allowIncomplete {
		return nil
	}
	for i, g := range forwards {
		if g.Incomplete {
			return fmt.Errorf("%w: forward line %d", ErrIncompleteGroups, i)
		}
	}
	for i, g := range defense {
		if g.Incomplete {
			return fmt.Errorf("%w: defense pair %d", ErrIncompleteGroups, i)
		}
	}
	return nil
}

func (a *assigner) penalty(t model.Team, counter PairCounter) int {
	if counter == nil {
		return 0
	}
	if a.scope == ScopeGroup {
		sum := 0
		for _, g := range t.Groups() {
			sum += pairSum(g.Members, counter)
		}
		return sum
	}
	return pairSum(t.Players(), counter)
}

func pairSum(players []model.Player, counter PairCounter) int {
	sum := 0
	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			sum += counter.Count(players[i].Key(), players[j].Key())
		}
	}
	return sum
}

func pick(forwards, defense []model.Group, f, d [2]int) model.Team {
	return model.Team{
		Forwards: []model.Group{forwards[f[0]], forwards[f[1]]},
		Defense:  []model.Group{defense[d[0]], defense[d[1]]},
	}
}
