package model

import "time"

// Split is one computed two-team split, ready to be finalized.
type Split struct {
	ID        string    `json:"id"`
	Seed      int64     `json:"seed"`
	CreatedAt time.Time `json:"created_at"`
	Trials    int       `json:"trials"`
	Weight    float64   `json:"penalty_weight"`

	AttackPool       []string `json:"attack_pool"`
	DefensePool      []string `json:"defense_pool"`
	Bench            []string `json:"bench"`
	Leftover         []string `json:"leftover"`
	QuotaUnmet       bool     `json:"quota_unmet"`
	AttackShortfall  int      `json:"attack_shortfall"`
	DefenseShortfall int      `json:"defense_shortfall"`

	Forwards        []Group `json:"forwards"`
	Defense         []Group `json:"defense"`
	Extra           []Group `json:"extra,omitempty"`
	ForwardVariance float64 `json:"forward_variance"`
	DefenseVariance float64 `json:"defense_variance"`

	TeamA   TeamSummary `json:"team_a"`
	TeamB   TeamSummary `json:"team_b"`
	Diff    float64     `json:"diff"`
	Penalty int         `json:"penalty"`
	Cost    float64     `json:"cost"`

	Warnings []string `json:"warnings,omitempty"`
}
