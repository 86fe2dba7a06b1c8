// Package roster splits present players into attack and defense pools.
package roster

import (
	"fmt"
	"sort"

	"github.com/okian/linemate/internal/domain/model"
)

// Pools is the outcome of a role split.
// A positive shortfall means the quota for that role could not be met.
type Pools struct {
	Attack           []model.Player
	Defense          []model.Player
	AttackShortfall  int
	DefenseShortfall int
}

// QuotaUnmet reports whether either role is short of its target.
func (p Pools) QuotaUnmet() bool {
	return p.AttackShortfall > 0 || p.DefenseShortfall > 0
}

// Empty reports whether both pools are empty.
func (p Pools) Empty() bool {
	return len(p.Attack) == 0 && len(p.Defense) == 0
}

// Size is the number of players across both pools.
func (p Pools) Size() int {
	return len(p.Attack) + len(p.Defense)
}

// Split assigns each player to its natural role, then reconciles counts
// against the targets by moving the players whose switch costs the least.
// Moves never take a source pool below its own target.
func Split(players []model.Player, targetAttack, targetDefense int) (Pools, error) {
	if targetAttack < 0 || targetDefense < 0 {
		return Pools{}, fmt.Errorf("%w: attack=%d defense=%d", ErrInvalidQuota, targetAttack, targetDefense)
	}

	attack := make([]model.Player, 0, len(players))
	defense := make([]model.Player, 0, len(players))
	for _, p := range players {
		if p.NaturalRole() == model.RoleAttack {
			attack = append(attack, p)
		} else {
			defense = append(defense, p)
		}
	}

	if short := targetAttack - len(attack); short > 0 {
		if n := min(short, len(defense)-targetDefense); n > 0 {
			var moved []model.Player
			moved, defense = move(defense, model.RoleAttack, n)
			attack = append(attack, moved...)
		}
	}
	if short := targetDefense - len(defense); short > 0 {
		if n := min(short, len(attack)-targetAttack); n > 0 {
			var moved []model.Player
			moved, attack = move(attack, model.RoleDefense, n)
			defense = append(defense, moved...)
		}
	}

	return Pools{
		Attack:           attack,
		Defense:          defense,
		AttackShortfall:  max(0, targetAttack-len(attack)),
		DefenseShortfall: max(0, targetDefense-len(defense)),
	}, nil
}

// move picks the n players of source with the largest gap toward role.
// Equal gaps keep source order. The remaining players keep source order too.
func move(source []model.Player, role model.Role, n int) (moved, kept []model.Player) {
	idx := make([]int, len(source))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return source[idx[a]].Gap(role) > source[idx[b]].Gap(role)
	})

	picked := make(map[int]bool, n)
	moved = make([]model.Player, 0, n)
	for _, i := range idx[:n] {
		picked[i] = true
		moved = append(moved, source[i])
	}
	kept = make([]model.Player, 0, len(source)-n)
	for i, p := range source {
		if !picked[i] {
			kept = append(kept, p)
		}
	}
	return moved, kept
}

// Present returns the players marked present, in roster order.
func Present(players []model.Player) []model.Player {
	out := make([]model.Player, 0, len(players))
	for _, p := range players {
		if p.Present {
			out = append(out, p)
		}
	}
	return out
}

// Select trims each pool to its target in pool order.
// Players beyond the targets are returned as the bench.
func Select(p Pools, targetAttack, targetDefense int) (Pools, []model.Player) {
	var bench []model.Player
	out := p
	if len(out.Attack) > targetAttack {
		bench = append(bench, out.Attack[targetAttack:]...)
		out.Attack = out.Attack[:targetAttack:targetAttack]
	}
	if len(out.Defense) > targetDefense {
		bench = append(bench, out.Defense[targetDefense:]...)
		out.Defense = out.Defense[:targetDefense:targetDefense]
	}
	return out, bench
}
