package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/okian/linemate/internal/adapters/rosterfile"
	"github.com/okian/linemate/internal/domain/lines"
	"github.com/okian/linemate/internal/domain/model"
	"github.com/okian/linemate/internal/domain/roster"
	"github.com/okian/linemate/internal/domain/teams"
	"github.com/okian/linemate/pkg/logger"
	"github.com/okian/linemate/pkg/metrics"
)

// SplitRequest overrides the service defaults for one split.
// When Players is set the split uses that list instead of the roster, taking
// every player as present; the stored roster is left as it is.
type SplitRequest struct {
	ForwardsTotal   *int           `json:"forwards_total,omitempty"`
	DefenseTotal    *int           `json:"defense_total,omitempty"`
	Trials          *int           `json:"trials,omitempty"`
	PenaltyWeight   *float64       `json:"penalty_weight,omitempty"`
	Seed            *int64         `json:"seed,omitempty"`
	LeftoverPolicy  string         `json:"leftover_policy,omitempty"`
	AllowIncomplete *bool          `json:"allow_incomplete,omitempty"`
	Players         []model.Player `json:"players,omitempty"`
}

type splitParams struct {
	forwards        int
	defense         int
	trials          int
	weight          float64
	seed            int64
	policy          lines.Policy
	allowIncomplete bool
}

func (s *Service) resolve(req *SplitRequest) (splitParams, error) {
	p := splitParams{
		forwards:        valueOr(req.ForwardsTotal, s.defaults.ForwardsTotal),
		defense:         valueOr(req.DefenseTotal, s.defaults.DefenseTotal),
		trials:          valueOr(req.Trials, s.defaults.Trials),
		weight:          valueOr(req.PenaltyWeight, s.defaults.PenaltyWeight),
		allowIncomplete: valueOr(req.AllowIncomplete, s.defaults.AllowIncomplete),
		policy:          s.defaults.Policy,
	}
	if req.Seed != nil {
		p.seed = *req.Seed
	} else {
		p.seed = s.seed()
	}

	switch {
	case p.forwards < 0 || p.defense < 0:
		return p, fmt.Errorf("%w: totals must not be negative", ErrInvalidRequest)
	case p.trials < 1:
		return p, fmt.Errorf("%w: trials must be at least 1", ErrInvalidRequest)
	case p.weight < 0 || math.IsNaN(p.weight) || math.IsInf(p.weight, 0):
		return p, fmt.Errorf("%w: penalty weight must be a finite non-negative number", ErrInvalidRequest)
	}
	if req.LeftoverPolicy != "" {
		policy, err := lines.ParsePolicy(req.LeftoverPolicy)
		if err != nil {
			return p, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		p.policy = policy
	}
	return p, nil
}

func (s *Service) present(req *SplitRequest) ([]model.Player, error) {
	if len(req.Players) == 0 {
		return roster.Present(s.Players()), nil
	}
	if err := rosterfile.Validate(req.Players); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return lo.Map(req.Players, func(p model.Player, _ int) model.Player {
		p.Present = true
		return p
	}), nil
}

// ComputeSplit builds lines for the present players and assigns them to
// two teams. Nothing is recorded until the split is finalized.
func (s *Service) ComputeSplit(ctx context.Context, req SplitRequest) (model.Split, error) {
	start := time.Now()
	split, err := s.computeSplit(ctx, &req)
	metrics.RecordSplitDuration(float64(time.Since(start).Microseconds()) / 1000)
	switch {
	case err == nil && split.QuotaUnmet:
		metrics.RecordSplit("quota_unmet")
	case err == nil:
		metrics.RecordSplit("ok")
	case errors.Is(err, lines.ErrIncompleteGroups) || errors.Is(err, teams.ErrIncompleteGroups):
		metrics.RecordSplit("incomplete")
	case errors.Is(err, ErrInvalidRequest):
		metrics.RecordSplit("rejected")
	default:
		metrics.RecordSplit("error")
		metrics.RecordErrorByComponent("service", "split")
	}
	return split, err
}

func (s *Service) computeSplit(ctx context.Context, req *SplitRequest) (model.Split, error) {
	params, err := s.resolve(req)
	if err != nil {
		return model.Split{}, err
	}
	players, err := s.present(req)
	if err != nil {
		return model.Split{}, err
	}

	pools, err := roster.Split(players, params.forwards, params.defense)
	if err != nil {
		return model.Split{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	pools, bench := roster.Select(pools, params.forwards, params.defense)

	rng := rand.New(rand.NewSource(params.seed)) //nolint:gosec // balancing, not security
	fwd, err := lines.Build(pools.Attack, model.RoleAttack, lines.Forwards(params.trials, params.policy), rng)
	if err != nil {
		return model.Split{}, fmt.Errorf("forward lines: %w", err)
	}
	def, err := lines.Build(pools.Defense, model.RoleDefense, lines.Pairs(params.trials, params.policy), rng)
	if err != nil {
		return model.Split{}, fmt.Errorf("defense pairs: %w", err)
	}

	counts, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return model.Split{}, fmt.Errorf("reading pairings: %w", err)
	}

	var opts []teams.Option
	if params.allowIncomplete {
		opts = append(opts, teams.AllowIncomplete())
	}
	forwards, defense := fwd.Groups[:teams.GroupsPerKind], def.Groups[:teams.GroupsPerKind]
	assignment, err := teams.Assign(forwards, defense, params.weight, counts, opts...)
	if err != nil {
		return model.Split{}, err
	}

	split := model.Split{
		ID:               uuid.NewString(),
		Seed:             params.seed,
		CreatedAt:        s.now().UTC(),
		Trials:           params.trials,
		Weight:           params.weight,
		AttackPool:       names(pools.Attack),
		DefensePool:      names(pools.Defense),
		Bench:            names(bench),
		Leftover:         append(names(fwd.Leftover), names(def.Leftover)...),
		QuotaUnmet:       pools.QuotaUnmet(),
		AttackShortfall:  pools.AttackShortfall,
		DefenseShortfall: pools.DefenseShortfall,
		Forwards:         forwards,
		Defense:          defense,
		Extra:            append(append([]model.Group(nil), fwd.Groups[teams.GroupsPerKind:]...), def.Groups[teams.GroupsPerKind:]...),
		ForwardVariance:  fwd.Variance,
		DefenseVariance:  def.Variance,
		TeamA:            model.Summarize(assignment.TeamA),
		TeamB:            model.Summarize(assignment.TeamB),
		Diff:             assignment.Diff,
		Penalty:          assignment.Penalty,
		Cost:             assignment.Cost,
	}
	split.Warnings = warnings(&split, fwd, def)
	s.remember(split)

	metrics.RecordLineVariance(model.RoleAttack.String(), fwd.Variance)
	metrics.RecordLineVariance(model.RoleDefense.String(), def.Variance)
	metrics.RecordIncompleteGroups(model.RoleAttack.String(), fwd.IncompleteCount())
	metrics.RecordIncompleteGroups(model.RoleDefense.String(), def.IncompleteCount())
	metrics.RecordBenched(len(bench))
	metrics.RecordSplitBalance(split.Diff, split.Penalty)
	if pools.AttackShortfall > 0 {
		metrics.RecordQuotaUnmet(model.RoleAttack.String())
	}
	if pools.DefenseShortfall > 0 {
		metrics.RecordQuotaUnmet(model.RoleDefense.String())
	}

	s.log().Info(ctx, "split computed",
		logger.String("split_id", split.ID),
		logger.Int64("seed", split.Seed),
		logger.Float64("diff", split.Diff),
		logger.Int("penalty", split.Penalty),
		logger.Int("bench", len(bench)),
		logger.Bool("quota_unmet", split.QuotaUnmet),
	)
	return split, nil
}

func warnings(split *model.Split, fwd, def lines.Result) []string {
	var out []string
	if split.AttackShortfall > 0 {
		out = append(out, fmt.Sprintf("attack quota short by %d", split.AttackShortfall))
	}
	if split.DefenseShortfall > 0 {
		out = append(out, fmt.Sprintf("defense quota short by %d", split.DefenseShortfall))
	}
	if n := fwd.IncompleteCount(); n > 0 {
		out = append(out, fmt.Sprintf("%d incomplete forward line(s)", n))
	}
	if n := def.IncompleteCount(); n > 0 {
		out = append(out, fmt.Sprintf("%d incomplete defense pair(s)", n))
	}
	if len(split.Leftover) > 0 {
		out = append(out, fmt.Sprintf("%d player(s) left out of the lines", len(split.Leftover)))
	}
	if len(split.Extra) > 0 {
		out = append(out, fmt.Sprintf("%d extra undersized group(s) not assigned to a team", len(split.Extra)))
	}
	if len(split.Bench) > 0 {
		out = append(out, fmt.Sprintf("%d player(s) benched", len(split.Bench)))
	}
	return out
}

func names(players []model.Player) []string {
	return lo.Map(players, func(p model.Player, _ int) string { return p.Name })
}

// remember keeps the most recent splits so they can be finalized by ID.
func (s *Service) remember(split model.Split) { //nolint:gocritic // hugeParam: stored by value
	s.splitMu.Lock()
	defer s.splitMu.Unlock()
	s.splits[split.ID] = split
	s.splitOrder = append(s.splitOrder, split.ID)
	if len(s.splitOrder) > recentSplits {
		delete(s.splits, s.splitOrder[0])
		s.splitOrder = s.splitOrder[1:]
	}
}

func (s *Service) lookup(id string) (model.Split, bool) {
	s.splitMu.Lock()
	defer s.splitMu.Unlock()
	split, ok := s.splits[id]
	return split, ok
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
