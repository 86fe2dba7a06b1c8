package tournament

import (
	"fmt"
	"sort"
)

// Phase is the stage a match belongs to.
type Phase string

const (
	PhaseRound     Phase = "round"
	PhaseSemifinal Phase = "semifinal"
	PhaseFinal     Phase = "final"
)

// Match is a scheduled or played game.
type Match struct {
	Phase     Phase  `json:"phase"`
	Home      string `json:"home"`
	Away      string `json:"away"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
	Overtime  bool   `json:"overtime"`
	Finished  bool   `json:"finished"`
}

// Winner returns the winning side of a finished, untied match.
func (m Match) Winner() (string, bool) {
	switch {
	case !m.Finished:
		return "", false
	case m.HomeScore > m.AwayScore:
		return m.Home, true
	case m.AwayScore > m.HomeScore:
		return m.Away, true
	default:
		return "", false
	}
}

// Standing is one row of the round-robin table.
type Standing struct {
	Rank         int    `json:"rank"`
	Team         string `json:"team"`
	Points       int    `json:"points"`
	GoalsFor     int    `json:"goals_for"`
	GoalsAgainst int    `json:"goals_against"`
	Diff         int    `json:"diff"`
	Wins         int    `json:"wins"`
	OTLosses     int    `json:"ot_losses"`
	Losses       int    `json:"losses"`
	Ties         int    `json:"ties"`
	Played       int    `json:"played"`
}

// Standings tallies finished round-robin matches. Rows are ordered by
// points, goal difference, goals for, then team name.
func Standings(matches []Match) []Standing {
	rows := map[string]*Standing{}
	row := func(name string) *Standing {
		if r, ok := rows[name]; ok {
			return r
		}
		r := &Standing{Team: name}
		rows[name] = r
		return r
	}

	for _, m := range matches {
		if m.Phase != PhaseRound || !m.Finished {
			continue
		}
		h, a := row(m.Home), row(m.Away)
		h.Played++
		a.Played++
		h.GoalsFor += m.HomeScore
		h.GoalsAgainst += m.AwayScore
		a.GoalsFor += m.AwayScore
		a.GoalsAgainst += m.HomeScore

		win, loss := h, a
		switch {
		case m.AwayScore > m.HomeScore:
			win, loss = a, h
		case m.AwayScore == m.HomeScore:
			h.Ties++
			a.Ties++
			h.Points += PointsTie
			a.Points += PointsTie
			continue
		}
		win.Wins++
		win.Points += PointsWin
		if m.Overtime {
			loss.OTLosses++
			loss.Points += PointsOTLoss
		} else {
			loss.Losses++
		}
	}

	out := make([]Standing, 0, len(rows))
	for _, r := range rows {
		r.Diff = r.GoalsFor - r.GoalsAgainst
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Diff != b.Diff {
			return a.Diff > b.Diff
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return a.Team < b.Team
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Semifinals seeds first against fourth and second against third.
func Semifinals(standings []Standing) ([]Match, error) {
	if len(standings) < 4 {
		return nil, fmt.Errorf("%w: %d teams ranked", ErrNotEnoughTeams, len(standings))
	}
	return []Match{
		{Phase: PhaseSemifinal, Home: standings[0].Team, Away: standings[3].Team},
		{Phase: PhaseSemifinal, Home: standings[1].Team, Away: standings[2].Team},
	}, nil
}

// Final pairs the two semifinal winners.
func Final(semis []Match) (Match, error) {
	if len(semis) != 2 {
		return Match{}, fmt.Errorf("%w: %d semifinals", ErrNotDecided, len(semis))
	}
	w1, ok1 := semis[0].Winner()
	w2, ok2 := semis[1].Winner()
	if !ok1 || !ok2 {
		return Match{}, ErrNotDecided
	}
	return Match{Phase: PhaseFinal, Home: w1, Away: w2}, nil
}

// Champion returns the final's winner once it is played.
func Champion(final Match) (string, error) {
	w, ok := final.Winner()
	if !ok {
		return "", ErrNotDecided
	}
	return w, nil
}
