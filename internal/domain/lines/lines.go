// Package lines partitions a single-role pool into balanced groups.
//
// Each trial shuffles the pool, sorts it by role talent and deals it
// snake-wise into the groups. The trial whose group totals have the
// lowest population variance wins; the first one wins ties.
package lines

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/okian/linemate/internal/domain/model"
)

// Result is the chosen trial.
type Result struct {
	// Groups holds GroupCount primary groups, followed by any extra
	// undersized groups under PolicyUndersized.
	Groups []model.Group
	// Leftover holds players beyond capacity under PolicyDrop.
	Leftover []model.Player
	// Sums are the primary group totals.
	Sums []float64
	// Variance is the population variance of Sums.
	Variance float64
	// Trial is the zero-based index of the winning trial.
	Trial int
}

// Complete reports whether every returned group is full.
func (r Result) Complete() bool {
	return r.IncompleteCount() == 0
}

// IncompleteCount is the number of flagged groups.
func (r Result) IncompleteCount() int {
	n := 0
	for _, g := range r.Groups {
		if g.Incomplete {
			n++
		}
	}
	return n
}

// Build runs opts.Trials snake-draft trials over pool and keeps the most
// balanced one. The pool is never mutated. An empty pool yields GroupCount
// empty groups flagged incomplete.
func Build(pool []model.Player, role model.Role, opts Options, rng *rand.Rand) (Result, error) {
	if err := opts.validate(); err != nil {
		return Result{}, err
	}
	if rng == nil {
		return Result{}, ErrNilRand
	}

	if len(pool) == 0 {
		groups := make([]model.Group, opts.GroupCount)
		for i := range groups {
			groups[i] = model.Group{Role: role, Size: opts.GroupSize, Members: []model.Player{}, Incomplete: true}
		}
		return Result{Groups: groups, Sums: make([]float64, opts.GroupCount)}, nil
	}

	capacity := opts.Capacity()
	if opts.Policy == PolicyError && len(pool) != capacity {
		return Result{}, fmt.Errorf("%w: %d players for %d groups of %d", ErrIncompleteGroups, len(pool), opts.GroupCount, opts.GroupSize)
	}

	work := make([]model.Player, len(pool))
	var best Result
	for trial := 0; trial < opts.Trials; trial++ {
		copy(work, pool)
		rng.Shuffle(len(work), func(i, j int) { work[i], work[j] = work[j], work[i] })
		sort.SliceStable(work, func(i, j int) bool {
			return work[i].Talent(role) > work[j].Talent(role)
		})

		drafted := work[:min(len(work), capacity)]
		groups := snake(drafted, role, opts.GroupSize, opts.GroupCount)
		sums := totals(groups)
		v := variance(sums)
		if trial == 0 || v < best.Variance {
			best = Result{Groups: groups, Sums: sums, Variance: v, Trial: trial}
			if len(work) > capacity {
				best.Leftover = append([]model.Player(nil), work[capacity:]...)
			} else {
				best.Leftover = nil
			}
		}
	}

	if opts.Policy == PolicyUndersized && len(best.Leftover) > 0 {
		best.Groups = append(best.Groups, chunk(best.Leftover, role, opts.GroupSize)...)
		best.Leftover = nil
	}
	return best, nil
}

// snake deals sorted players into count groups, reversing direction each round.
func snake(sorted []model.Player, role model.Role, size, count int) []model.Group {
	groups := make([]model.Group, count)
	for i := range groups {
		groups[i] = model.Group{Role: role, Size: size, Members: make([]model.Player, 0, size)}
	}
	for i, p := range sorted {
		round, pos := i/count, i%count
		if round%2 == 1 {
			pos = count - 1 - pos
		}
		groups[pos].Members = append(groups[pos].Members, p)
	}
	for i := range groups {
		groups[i].Incomplete = len(groups[i].Members) != size
	}
	return groups
}

// chunk packs surplus players into extra groups of at most size members.
func chunk(players []model.Player, role model.Role, size int) []model.Group {
	var out []model.Group
	for start := 0; start < len(players); start += size {
		end := min(start+size, len(players))
		members := append([]model.Player(nil), players[start:end]...)
		out = append(out, model.Group{Role: role, Size: size, Members: members, Incomplete: len(members) != size})
	}
	return out
}

func totals(groups []model.Group) []float64 {
	out := make([]float64, len(groups))
	for i, g := range groups {
		out[i] = g.Total()
	}
	return out
}

// variance is the population variance of xs.
func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return ss / float64(len(xs))
}
