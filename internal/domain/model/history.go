package model

import "time"

// TeamSummary is the persisted shape of one side of a finalized split.
type TeamSummary struct {
	Forwards [][]string `json:"forwards"`
	Defense  [][]string `json:"defense"`
	Total    float64    `json:"total"`
	Average  float64    `json:"average"`
}

// Summarize flattens a team to member names and its talent aggregates.
func Summarize(t Team) TeamSummary {
	s := TeamSummary{
		Forwards: make([][]string, len(t.Forwards)),
		Defense:  make([][]string, len(t.Defense)),
		Total:    t.Total(),
		Average:  t.Average(),
	}
	for i, g := range t.Forwards {
		s.Forwards[i] = g.Names()
	}
	for i, g := range t.Defense {
		s.Defense[i] = g.Names()
	}
	return s
}

// Groups returns every line and pair on the team.
func (s TeamSummary) Groups() [][]string {
	out := make([][]string, 0, len(s.Forwards)+len(s.Defense))
	out = append(out, s.Forwards...)
	return append(out, s.Defense...)
}

// Names returns every player on the team.
func (s TeamSummary) Names() []string {
	var out []string
	for _, g := range s.Groups() {
		out = append(out, g...)
	}
	return out
}

// HistoryEntry is a snapshot of one finalized split.
type HistoryEntry struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	TeamA     TeamSummary `json:"team_a"`
	TeamB     TeamSummary `json:"team_b"`
}

// Groups returns every group of both teams, Team A first.
func (h HistoryEntry) Groups() [][]string {
	return append(h.TeamA.Groups(), h.TeamB.Groups()...)
}

// PairingRecord is the co-occurrence count of an unordered pair of players.
type PairingRecord struct {
	A     string `json:"a"`
	B     string `json:"b"`
	Count int    `json:"count"`
}

// PlayerStats aggregates a player's appearances in history.
type PlayerStats struct {
	Name     string `json:"name"`
	Sessions int    `json:"sessions"`
	TeamA    int    `json:"team_a"`
	TeamB    int    `json:"team_b"`
	Forward  int    `json:"forward"`
	Defense  int    `json:"defense"`
}
