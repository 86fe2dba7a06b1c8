package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/linemate/internal/adapters/mq/queue"
	"github.com/okian/linemate/internal/domain/model"
	"github.com/okian/linemate/internal/domain/pairing"
	"github.com/okian/linemate/internal/domain/stats"
	"github.com/okian/linemate/pkg/logger"
	"github.com/okian/linemate/pkg/metrics"
)

// TeamLines is a caller-edited team: forward lines and defense pairs by name.
type TeamLines struct {
	Forwards [][]string `json:"forwards"`
	Defense  [][]string `json:"defense"`
}

// FinalizeRequest names a computed split, edited lines, or both.
// With both teams set they win over the cached split; SplitID then only
// identifies the entry.
type FinalizeRequest struct {
	SplitID string     `json:"split_id,omitempty"`
	TeamA   *TeamLines `json:"team_a,omitempty"`
	TeamB   *TeamLines `json:"team_b,omitempty"`
}

// Finalize validates the lines and queues them for the recorder, which
// appends history and bumps the pairing ledger.
func (s *Service) Finalize(ctx context.Context, req FinalizeRequest) (model.HistoryEntry, error) {
	if !s.isStarted() {
		return model.HistoryEntry{}, ErrNotStarted
	}

	known := make(map[string]model.Player)
	for _, p := range s.Players() {
		known[p.Key()] = p
	}

	var teamA, teamB TeamLines
	id := req.SplitID
	switch {
	case req.TeamA != nil && req.TeamB != nil:
		teamA, teamB = *req.TeamA, *req.TeamB
		if id == "" {
			id = uuid.NewString()
		}
	case req.TeamA != nil || req.TeamB != nil:
		return model.HistoryEntry{}, fmt.Errorf("%w: both teams are required", ErrInvalidRequest)
	case id != "":
		split, ok := s.lookup(id)
		if !ok {
			return model.HistoryEntry{}, fmt.Errorf("%w: %s", ErrUnknownSplit, id)
		}
		teamA = TeamLines{Forwards: split.TeamA.Forwards, Defense: split.TeamA.Defense}
		teamB = TeamLines{Forwards: split.TeamB.Forwards, Defense: split.TeamB.Defense}
		// The split's own records win so totals match what was shown,
		// even after a roster edit or for an inline roster.
		for _, groups := range [][]model.Group{split.Forwards, split.Defense} {
			for _, g := range groups {
				for _, p := range g.Members {
					known[p.Key()] = p
				}
			}
		}
	default:
		return model.HistoryEntry{}, fmt.Errorf("%w: split_id or both teams required", ErrInvalidRequest)
	}

	seen := make(map[string]bool)
	a, err := summarize(teamA, known, seen)
	if err != nil {
		return model.HistoryEntry{}, err
	}
	b, err := summarize(teamB, known, seen)
	if err != nil {
		return model.HistoryEntry{}, err
	}

	entry := model.HistoryEntry{ID: id, Timestamp: s.now().UTC(), TeamA: a, TeamB: b}
	if s.deduper.SeenAndRecord(ctx, id) {
		metrics.RecordFinalizeDuplicate()
		return model.HistoryEntry{}, fmt.Errorf("%w: %s", ErrAlreadyFinalized, id)
	}
	if err := s.queue.Enqueue(ctx, entry); err != nil {
		s.deduper.Unrecord(ctx, id)
		if errors.Is(err, queue.ErrFull) {
			return model.HistoryEntry{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return model.HistoryEntry{}, fmt.Errorf("enqueue finalized split: %w", err)
	}

	metrics.RecordFinalizeQueued()
	s.log().Info(ctx, "split finalized",
		logger.String("split_id", id),
		logger.Float64("team_a", a.Total),
		logger.Float64("team_b", b.Total),
	)
	return entry, nil
}

// summarize resolves names against known, rejecting unknown and repeated
// players, and totals each group by its role talent.
func summarize(t TeamLines, known map[string]model.Player, seen map[string]bool) (model.TeamSummary, error) {
	if len(t.Forwards) == 0 && len(t.Defense) == 0 {
		return model.TeamSummary{}, fmt.Errorf("%w: empty team", ErrInvalidRequest)
	}
	out := model.TeamSummary{
		Forwards: make([][]string, len(t.Forwards)),
		Defense:  make([][]string, len(t.Defense)),
	}
	count := 0
	resolve := func(group []string, role model.Role) ([]string, error) {
		names := make([]string, 0, len(group))
		for _, n := range group {
			key := model.NormalizeName(n)
			p, ok := known[key]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownPlayer, n)
			}
			if seen[key] {
				return nil, fmt.Errorf("%w: %q appears more than once", ErrInvalidRequest, n)
			}
			seen[key] = true
			names = append(names, p.Name)
			out.Total += p.Talent(role)
			count++
		}
		return names, nil
	}

	for i, g := range t.Forwards {
		names, err := resolve(g, model.RoleAttack)
		if err != nil {
			return model.TeamSummary{}, err
		}
		out.Forwards[i] = names
	}
	for i, g := range t.Defense {
		names, err := resolve(g, model.RoleDefense)
		if err != nil {
			return model.TeamSummary{}, err
		}
		out.Defense[i] = names
	}
	if count > 0 {
		out.Average = out.Total / float64(count)
	}
	return out, nil
}

// History returns the n most recent finalized splits, newest first.
// n <= 0 means the default limit; larger values are capped.
func (s *Service) History(ctx context.Context, n int) ([]model.HistoryEntry, error) {
	switch {
	case n <= 0:
		n = s.historyLimit
	case n > s.historyMax:
		n = s.historyMax
	}
	return s.history.Recent(ctx, n)
}

// ResetHistory clears history and forgets which splits were finalized.
func (s *Service) ResetHistory(ctx context.Context) error {
	if err := s.history.Reset(ctx); err != nil {
		return err
	}
	s.deduper.Reset(ctx)
	s.log().Info(ctx, "history reset")
	return nil
}

// PlayerStats aggregates appearances over the whole history.
func (s *Service) PlayerStats(ctx context.Context) ([]model.PlayerStats, error) {
	entries, err := s.history.All(ctx)
	if err != nil {
		return nil, err
	}
	return stats.FromHistory(entries), nil
}

// Pairings returns the n most frequent pairs; n <= 0 returns all.
func (s *Service) Pairings(ctx context.Context, n int) ([]model.PairingRecord, error) {
	counts, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return pairing.Top(counts, n), nil
}

// ResetPairings clears the pairing ledger.
func (s *Service) ResetPairings(ctx context.Context) error {
	if err := s.ledger.Reset(ctx); err != nil {
		return err
	}
	s.log().Info(ctx, "pairings reset")
	return nil
}
