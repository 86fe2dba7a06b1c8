package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/samber/lo"

	"github.com/okian/linemate/internal/adapters/rosterfile"
	"github.com/okian/linemate/internal/domain/model"
	"github.com/okian/linemate/internal/domain/roster"
	"github.com/okian/linemate/internal/domain/tournament"
	"github.com/okian/linemate/pkg/logger"
	"github.com/okian/linemate/pkg/metrics"
)

const defaultTournamentTeams = 4

// TournamentRequest configures a tournament draw. Without Players the
// present roster is used.
type TournamentRequest struct {
	Teams   int            `json:"teams,omitempty"`
	Seed    *int64         `json:"seed,omitempty"`
	Players []model.Player `json:"players,omitempty"`
}

// TournamentPlan is the drawn teams and the round-robin schedule.
type TournamentPlan struct {
	Seed     int64              `json:"seed"`
	Teams    []tournament.Team  `json:"teams"`
	Schedule []tournament.Match `json:"schedule"`
}

// StandingsRequest carries played games. Semifinals and Final are optional
// and only count when they match the seeded bracket.
type StandingsRequest struct {
	Matches    []tournament.Match `json:"matches"`
	Semifinals []tournament.Match `json:"semifinals,omitempty"`
	Final      *tournament.Match  `json:"final,omitempty"`
}

// Bracket is the table and as much of the playoff as can be decided.
type Bracket struct {
	Standings  []tournament.Standing `json:"standings"`
	Semifinals []tournament.Match    `json:"semifinals,omitempty"`
	Final      *tournament.Match     `json:"final,omitempty"`
	Champion   string                `json:"champion,omitempty"`
}

// Tournament drafts balanced teams and schedules every pairing once.
func (s *Service) Tournament(ctx context.Context, req TournamentRequest) (TournamentPlan, error) {
	count := req.Teams
	if count == 0 {
		count = defaultTournamentTeams
	}

	players := roster.Present(s.Players())
	if len(req.Players) > 0 {
		if err := rosterfile.Validate(req.Players); err != nil {
			return TournamentPlan{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		players = req.Players
	}
	if len(players) < count {
		return TournamentPlan{}, fmt.Errorf("%w: %d players for %d teams", ErrInvalidRequest, len(players), count)
	}

	seed := valueOr(req.Seed, s.seed())
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // balancing, not security
	teams, err := tournament.BuildTeams(players, count, rng)
	if err != nil {
		return TournamentPlan{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	plan := TournamentPlan{
		Seed:     seed,
		Teams:    teams,
		Schedule: tournament.Schedule(tournament.Names(teams), rng),
	}

	metrics.RecordTournament()
	s.log().Info(ctx, "tournament drawn",
		logger.Int64("seed", seed),
		logger.Int("teams", count),
		logger.Int("games", len(plan.Schedule)),
	)
	return plan, nil
}

// Standings ranks the round robin and advances the playoff as far as the
// supplied results allow.
func (s *Service) Standings(req StandingsRequest) (Bracket, error) {
	if len(req.Matches) == 0 {
		return Bracket{}, fmt.Errorf("%w: no matches", ErrInvalidRequest)
	}
	matches := lo.Map(req.Matches, func(m tournament.Match, _ int) tournament.Match {
		if m.Phase == "" {
			m.Phase = tournament.PhaseRound
		}
		return m
	})
	out := Bracket{Standings: tournament.Standings(matches)}

	semis, err := tournament.Semifinals(out.Standings)
	if errors.Is(err, tournament.ErrNotEnoughTeams) {
		return out, nil
	}
	if err != nil {
		return Bracket{}, err
	}
	out.Semifinals = lo.Map(semis, func(m tournament.Match, _ int) tournament.Match {
		return played(m, req.Semifinals)
	})

	final, err := tournament.Final(out.Semifinals)
	if err != nil {
		return out, nil
	}
	if req.Final != nil {
		final = played(final, []tournament.Match{*req.Final})
	}
	out.Final = &final
	if champion, err := tournament.Champion(final); err == nil {
		out.Champion = champion
	}
	return out, nil
}

// played returns the result in results for the fixture, if any, oriented
// as scheduled.
func played(fixture tournament.Match, results []tournament.Match) tournament.Match {
	for _, r := range results {
		switch {
		case r.Home == fixture.Home && r.Away == fixture.Away:
			r.Phase = fixture.Phase
			return r
		case r.Home == fixture.Away && r.Away == fixture.Home:
			fixture.HomeScore, fixture.AwayScore = r.AwayScore, r.HomeScore
			fixture.Overtime, fixture.Finished = r.Overtime, r.Finished
			return fixture
		}
	}
	return fixture
}
