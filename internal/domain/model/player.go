// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Talent bounds accepted at the roster boundary.
const (
	MinTalent = 0
	MaxTalent = 10
)

// Role is the position family a player is drafted into.
type Role int

const (
	RoleAttack Role = iota
	RoleDefense
)

// String returns the wire name of the role.
func (r Role) String() string {
	switch r {
	case RoleAttack:
		return "attack"
	case RoleDefense:
		return "defense"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Other returns the opposite role.
func (r Role) Other() Role {
	if r == RoleAttack {
		return RoleDefense
	}
	return RoleAttack
}

// MarshalText encodes the role as its wire name.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a wire name produced by MarshalText.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRole accepts attack/forward/a and defense/d (case-insensitive).
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "attack", "forward", "a":
		return RoleAttack, nil
	case "defense", "defence", "d":
		return RoleDefense, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

// Player is a roster member with a talent score per role.
type Player struct {
	Name    string  `json:"name" yaml:"name" validate:"required,notblank"`
	Attack  float64 `json:"attack" yaml:"attack" validate:"gte=0,lte=10"`
	Defense float64 `json:"defense" yaml:"defense" validate:"gte=0,lte=10"`
	Present bool    `json:"present" yaml:"present"`
}

// Key returns the case-normalized name used for uniqueness and ledger lookups.
func (p Player) Key() string { return NormalizeName(p.Name) }

// NaturalRole is Attack when attack talent is at least defense talent.
func (p Player) NaturalRole() Role {
	if p.Attack >= p.Defense {
		return RoleAttack
	}
	return RoleDefense
}

// Talent returns the player's score for role.
func (p Player) Talent(role Role) float64 {
	if role == RoleDefense {
		return p.Defense
	}
	return p.Attack
}

// Gap is how much better the player is at role than at the other role.
func (p Player) Gap(role Role) float64 {
	return p.Talent(role) - p.Talent(role.Other())
}

// NormalizeName trims, collapses inner whitespace and lower-cases a name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Keys maps players to their normalized names.
func Keys(players []Player) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.Key()
	}
	return out
}
