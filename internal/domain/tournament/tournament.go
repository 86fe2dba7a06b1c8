// Package tournament builds balanced tournament teams, a round-robin
// schedule, standings and the playoff bracket.
package tournament

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/okian/linemate/internal/domain/model"
)

// Points awarded per round-robin result.
const (
	PointsWin    = 2
	PointsOTLoss = 1
	PointsTie    = 1
)

// scheduleBudget caps the steps of the schedule search; the best order found
// so far, at worst the greedy one, is kept.
const scheduleBudget = 200_000

// Team is one tournament side.
type Team struct {
	Name     string         `json:"name"`
	Forwards []model.Player `json:"forwards"`
	Defense  []model.Player `json:"defense"`
	Average  float64        `json:"average"`
}

// Size is the number of players on the team.
func (t Team) Size() int { return len(t.Forwards) + len(t.Defense) }

// BuildTeams splits players into count teams. Each role is shuffled, sorted
// by role talent and snake-drafted; defense is dealt from the last team
// backwards so the first pick of each role lands on different teams.
func BuildTeams(players []model.Player, count int, rng *rand.Rand) ([]Team, error) {
	if count < 2 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTeamCount, count)
	}
	if rng == nil {
		return nil, ErrNilRand
	}

	out := make([]Team, count)
	for i := range out {
		out[i].Name = fmt.Sprintf("Team %d", i+1)
	}

	var fw, df []model.Player
	for _, p := range players {
		if p.NaturalRole() == model.RoleAttack {
			fw = append(fw, p)
		} else {
			df = append(df, p)
		}
	}

	for i, p := range draftOrder(fw, model.RoleAttack, rng) {
		t := snakeIndex(i, count)
		out[t].Forwards = append(out[t].Forwards, p)
	}
	for i, p := range draftOrder(df, model.RoleDefense, rng) {
		t := count - 1 - snakeIndex(i, count)
		out[t].Defense = append(out[t].Defense, p)
	}

	for i := range out {
		var sum float64
		for _, p := range out[i].Forwards {
			sum += p.Attack
		}
		for _, p := range out[i].Defense {
			sum += p.Defense
		}
		if n := out[i].Size(); n > 0 {
			out[i].Average = sum / float64(n)
		}
	}
	return out, nil
}

func draftOrder(players []model.Player, role model.Role, rng *rand.Rand) []model.Player {
	out := append([]model.Player(nil), players...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Talent(role) > out[j].Talent(role) })
	return out
}

func snakeIndex(i, n int) int {
	if (i/n)%2 == 1 {
		return n - 1 - i%n
	}
	return i % n
}

// Names lists team names in order.
func Names(teams []Team) []string {
	out := make([]string, len(teams))
	for i, t := range teams {
		out[i] = t.Name
	}
	return out
}

// Schedule returns every pairing once, ordered to keep back-to-back games
// for the same team to a minimum. Four teams can do no better than two such
// games; five or more can usually avoid them entirely.
func Schedule(names []string, rng *rand.Rand) []Match {
	var games []Match
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			games = append(games, Match{Phase: PhaseRound, Home: names[i], Away: names[j]})
		}
	}
	if rng != nil {
		rng.Shuffle(len(games), func(i, j int) { games[i], games[j] = games[j], games[i] })
	}

	best := greedy(games)
	s := &scheduler{
		games:  games,
		used:   make([]bool, len(games)),
		budget: scheduleBudget,
		best:   best,
		cost:   Conflicts(best),
	}
	s.search(make([]Match, 0, len(games)), 0)
	return s.best
}

// Conflicts counts consecutive games that share a team.
func Conflicts(games []Match) int {
	n := 0
	for i := 1; i < len(games); i++ {
		if shares(games[i-1], games[i]) {
			n++
		}
	}
	return n
}

// scheduler is a depth-first branch and bound over game orders, seeded with
// the greedy order and bounded by a step budget.
type scheduler struct {
	games  []Match
	used   []bool
	budget int
	best   []Match
	cost   int
}

func (s *scheduler) search(order []Match, cost int) {
	if cost >= s.cost || s.budget <= 0 {
		return
	}
	if len(order) == len(s.games) {
		s.best = append([]Match(nil), order...)
		s.cost = cost
		return
	}
	// Disjoint games first so cheap orders are found early.
	for _, wantShared := range []bool{false, true} {
		for i, g := range s.games {
			if s.used[i] {
				continue
			}
			shared := len(order) > 0 && shares(order[len(order)-1], g)
			if shared != wantShared {
				continue
			}
			s.budget--
			s.used[i] = true
			next := cost
			if shared {
				next++
			}
			s.search(append(order, g), next)
			s.used[i] = false
			if s.cost == 0 || s.budget <= 0 {
				return
			}
		}
	}
}

// greedy takes the first game not sharing a team with the previous one,
// or the first remaining game when none qualifies.
func greedy(games []Match) []Match {
	remaining := append([]Match(nil), games...)
	out := make([]Match, 0, len(games))
	for len(remaining) > 0 {
		pick := 0
		if len(out) > 0 {
			for i, g := range remaining {
				if !shares(out[len(out)-1], g) {
					pick = i
					break
				}
			}
		}
		out = append(out, remaining[pick])
		remaining = append(remaining[:pick], remaining[pick+1:]...)
	}
	return out
}

func shares(a, b Match) bool {
	return a.Home == b.Home || a.Home == b.Away || a.Away == b.Home || a.Away == b.Away
}
