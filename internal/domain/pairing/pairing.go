// Package pairing defines the co-occurrence ledger for players grouped together.
package pairing

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/okian/linemate/internal/domain/model"
)

// Ledger records how often each unordered pair of players shared a group.
// Names are normalized with model.NormalizeName before use.
type Ledger interface {
	// Count returns the co-occurrence count of a and b; order does not matter.
	Count(ctx context.Context, a, b string) (int, error)

	// RecordGroup adds one to the count of every unordered pair in members.
	// Duplicate names in members are recorded once.
	RecordGroup(ctx context.Context, members []string) error

	// RecordGroups applies RecordGroup to every group as one all-or-nothing
	// update.
	RecordGroups(ctx context.Context, groups [][]string) error

	// Snapshot returns a point-in-time copy of all counts.
	Snapshot(ctx context.Context) (Counts, error)

	// Reset clears every count.
	Reset(ctx context.Context) error
}

// Pair is an unordered pair of normalized names with A <= B.
type Pair struct {
	A string
	B string
}

// NewPair normalizes and orders two names.
func NewPair(a, b string) Pair {
	a, b = model.NormalizeName(a), model.NormalizeName(b)
	if a > b {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// String joins the pair with a separator that cannot appear in a normalized name.
func (p Pair) String() string { return p.A + Separator + p.B }

// Separator is the unit separator used in flat pair keys.
const Separator = "\x1f"

// ParsePair reverses Pair.String.
func ParsePair(s string) (Pair, bool) {
	a, b, ok := strings.Cut(s, Separator)
	if !ok {
		return Pair{}, false
	}
	return Pair{A: a, B: b}, true
}

// Pairs expands members into their distinct unordered pairs.
func Pairs(members []string) []Pair {
	uniq := make([]string, 0, len(members))
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		k := model.NormalizeName(m)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		uniq = append(uniq, k)
	}
	sort.Strings(uniq)

	out := make([]Pair, 0, len(uniq)*(len(uniq)-1)/2)
	for i := 0; i < len(uniq); i++ {
		for j := i + 1; j < len(uniq); j++ {
			out = append(out, Pair{A: uniq[i], B: uniq[j]})
		}
	}
	return out
}

// Counts is an immutable view of ledger counts. It satisfies the pure
// counter consumed by team assignment.
type Counts map[Pair]int

// Count returns the count for a and b in either order.
func (c Counts) Count(a, b string) int {
	return c[NewPair(a, b)]
}

// Records returns the counts sorted by count descending, then by names.
func (c Counts) Records() []model.PairingRecord {
	out := make([]model.PairingRecord, 0, len(c))
	for p, n := range c {
		out = append(out, model.PairingRecord{A: p.A, B: p.B, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// Top returns at most n of the most frequent pairs. n <= 0 returns all.
func Top(c Counts, n int) []model.PairingRecord {
	recs := c.Records()
	if n > 0 && len(recs) > n {
		recs = recs[:n]
	}
	return recs
}

// InMemoryLedger is a mutex-guarded Ledger.
type InMemoryLedger struct {
	mu     sync.RWMutex
	counts map[Pair]int
}

// NewInMemoryLedger creates an empty ledger.
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{counts: make(map[Pair]int)}
}

// Count implements Ledger.
func (l *InMemoryLedger) Count(_ context.Context, a, b string) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.counts[NewPair(a, b)], nil
}

// RecordGroup implements Ledger.
func (l *InMemoryLedger) RecordGroup(ctx context.Context, members []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pairs := Pairs(members)
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range pairs {
		l.counts[p]++
	}
	return nil
}

// RecordGroups implements Ledger.
func (l *InMemoryLedger) RecordGroups(ctx context.Context, groups [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var pairs []Pair
	for _, g := range groups {
		pairs = append(pairs, Pairs(g)...)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range pairs {
		l.counts[p]++
	}
	return nil
}

// Snapshot implements Ledger.
func (l *InMemoryLedger) Snapshot(_ context.Context) (Counts, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(Counts, len(l.counts))
	for p, n := range l.counts {
		out[p] = n
	}
	return out, nil
}

// Reset implements Ledger.
func (l *InMemoryLedger) Reset(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts = make(map[Pair]int)
	return nil
}
