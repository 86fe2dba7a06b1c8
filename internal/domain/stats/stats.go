// Package stats derives per-player appearance counts from split history.
package stats

import (
	"sort"

	"github.com/okian/linemate/internal/domain/model"
)

// FromHistory counts sessions, sides and positions for every player seen
// in entries. Rows are ordered by sessions descending, then name.
func FromHistory(entries []model.HistoryEntry) []model.PlayerStats {
	rows := map[string]*model.PlayerStats{}
	row := func(name string) *model.PlayerStats {
		key := model.NormalizeName(name)
		if r, ok := rows[key]; ok {
			return r
		}
		r := &model.PlayerStats{Name: name}
		rows[key] = r
		return r
	}

	tally := func(s model.TeamSummary, teamA bool) {
		seen := map[string]bool{}
		count := func(names []string, forward bool) {
			for _, n := range names {
				key := model.NormalizeName(n)
				if seen[key] {
					continue
				}
				seen[key] = true
				r := row(n)
				r.Sessions++
				if teamA {
					r.TeamA++
				} else {
					r.TeamB++
				}
				if forward {
					r.Forward++
				} else {
					r.Defense++
				}
			}
		}
		for _, g := range s.Forwards {
			count(g, true)
		}
		for _, g := range s.Defense {
			count(g, false)
		}
	}

	for _, e := range entries {
		tally(e.TeamA, true)
		tally(e.TeamB, false)
	}

	out := make([]model.PlayerStats, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sessions != out[j].Sessions {
			return out[i].Sessions > out[j].Sessions
		}
		return model.NormalizeName(out[i].Name) < model.NormalizeName(out[j].Name)
	})
	return out
}
