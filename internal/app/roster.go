package service

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/okian/linemate/internal/adapters/rosterfile"
	"github.com/okian/linemate/internal/domain/model"
	"github.com/okian/linemate/pkg/logger"
	"github.com/okian/linemate/pkg/metrics"
)

// Players returns a copy of the roster.
func (s *Service) Players() []model.Player {
	s.rosterMu.RLock()
	defer s.rosterMu.RUnlock()
	return append([]model.Player(nil), s.players...)
}

// ReplacePlayers validates and installs a new roster, saving it to the
// roster file when one is configured.
func (s *Service) ReplacePlayers(ctx context.Context, players []model.Player) error {
	if err := rosterfile.Validate(players); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	s.rosterMu.Lock()
	defer s.rosterMu.Unlock()
	if err := s.persist(players); err != nil {
		return err
	}
	s.players = append([]model.Player(nil), players...)
	s.updateRosterMetricsLocked()
	s.log().Info(ctx, "roster replaced", logger.Int("players", len(players)))
	return nil
}

// SetPresence marks the named players present or absent. Unknown names
// fail the whole call without changing the roster.
func (s *Service) SetPresence(ctx context.Context, names []string, present bool) ([]model.Player, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no player names", ErrInvalidRequest)
	}

	s.rosterMu.Lock()
	defer s.rosterMu.Unlock()

	index := make(map[string]int, len(s.players))
	for i, p := range s.players {
		index[p.Key()] = i
	}
	missing := lo.Filter(names, func(n string, _ int) bool {
		_, ok := index[model.NormalizeName(n)]
		return !ok
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnknownPlayer, missing)
	}

	next := append([]model.Player(nil), s.players...)
	for _, n := range names {
		next[index[model.NormalizeName(n)]].Present = present
	}
	if err := s.persist(next); err != nil {
		return nil, err
	}
	s.players = next
	s.updateRosterMetricsLocked()
	s.log().Debug(ctx, "presence updated", logger.Int("players", len(names)), logger.Bool("present", present))
	return append([]model.Player(nil), next...), nil
}

// ResetPresence marks every player absent.
func (s *Service) ResetPresence(ctx context.Context) error {
	s.rosterMu.Lock()
	defer s.rosterMu.Unlock()

	next := lo.Map(s.players, func(p model.Player, _ int) model.Player {
		p.Present = false
		return p
	})
	if err := s.persist(next); err != nil {
		return err
	}
	s.players = next
	s.updateRosterMetricsLocked()
	s.log().Info(ctx, "presence reset", logger.Int("players", len(next)))
	return nil
}

func (s *Service) persist(players []model.Player) error {
	if s.rosterFile == "" {
		return nil
	}
	if err := rosterfile.Save(s.rosterFile, players); err != nil {
		return fmt.Errorf("saving roster: %w", err)
	}
	return nil
}

func (s *Service) updateRosterMetrics() {
	s.rosterMu.RLock()
	defer s.rosterMu.RUnlock()
	s.updateRosterMetricsLocked()
}

func (s *Service) updateRosterMetricsLocked() {
	present := lo.CountBy(s.players, func(p model.Player) bool { return p.Present })
	metrics.UpdateRoster(len(s.players), present)
}

// log returns the service logger. It is fixed by New, so no lock is taken
// and it is safe to call while holding rosterMu.
func (s *Service) log() logger.Logger {
	return s.logger
}
