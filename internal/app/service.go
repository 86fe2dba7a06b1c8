// Package service orchestrates roster, split, finalize and tournament
// operations for the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"io/fs"
	"sync"
	"time"

	"github.com/okian/linemate/internal/adapters/mq/queue"
	"github.com/okian/linemate/internal/adapters/mq/worker"
	"github.com/okian/linemate/internal/adapters/repository"
	"github.com/okian/linemate/internal/adapters/rosterfile"
	"github.com/okian/linemate/internal/domain/dedupe"
	"github.com/okian/linemate/internal/domain/lines"
	"github.com/okian/linemate/internal/domain/model"
	"github.com/okian/linemate/internal/domain/pairing"
	"github.com/okian/linemate/pkg/logger"
	"github.com/okian/linemate/pkg/metrics"
)

const recentSplits = 32

// SplitDefaults are the parameters used when a request does not override them.
type SplitDefaults struct {
	ForwardsTotal   int
	DefenseTotal    int
	Trials          int
	PenaltyWeight   float64
	Policy          lines.Policy
	AllowIncomplete bool
}

// DefaultSplit mirrors a standard evening: 12 forwards, 8 defensemen.
func DefaultSplit() SplitDefaults {
	return SplitDefaults{
		ForwardsTotal: 12,
		DefenseTotal:  8,
		Trials:        500,
		PenaltyWeight: 1.5,
		Policy:        lines.PolicyDrop,
	}
}

// Service implements the API dependencies for the balancer.
type Service struct {
	mu sync.RWMutex

	ledger  pairing.Ledger
	history repository.HistoryStore
	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	pool    *worker.Pool

	// rosterMu nests inside mu and never the other way round.
	rosterMu   sync.RWMutex
	players    []model.Player
	rosterFile string

	splitMu    sync.Mutex
	splits     map[string]model.Split
	splitOrder []string

	workerCount  int
	queueSize    int
	dedupeSize   int
	defaults     SplitDefaults
	historyLimit int
	historyMax   int
	seed         func() int64
	now          func() time.Time

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of recorder workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the finalize queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds how many finalized split IDs are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLedger replaces the in-memory pairing ledger.
func WithLedger(l pairing.Ledger) Option {
	return func(s *Service) {
		if l != nil {
			s.ledger = l
		}
	}
}

// WithHistoryStore replaces the in-memory history.
func WithHistoryStore(h repository.HistoryStore) Option {
	return func(s *Service) {
		if h != nil {
			s.history = h
		}
	}
}

// WithSplitDefaults sets the parameters of splits that do not override them.
func WithSplitDefaults(d SplitDefaults) Option {
	return func(s *Service) {
		s.defaults = d
	}
}

// WithSeedSource sets where split seeds come from when a request has none.
func WithSeedSource(fn func() int64) Option {
	return func(s *Service) {
		if fn != nil {
			s.seed = fn
		}
	}
}

// WithFixedSeed makes every split use seed unless the request overrides it.
func WithFixedSeed(seed int64) Option {
	return WithSeedSource(func() int64 { return seed })
}

// WithClock sets the time source used for timestamps.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithRoster seeds the roster.
func WithRoster(players []model.Player) Option {
	return func(s *Service) {
		s.players = append([]model.Player(nil), players...)
	}
}

// WithRosterFile loads the roster from path on Start and saves every change.
func WithRosterFile(path string) Option {
	return func(s *Service) {
		s.rosterFile = path
	}
}

// WithHistoryLimits sets the default and maximum GET /history page size.
func WithHistoryLimits(def, maxLimit int) Option {
	return func(s *Service) {
		if def > 0 {
			s.historyLimit = def
		}
		if maxLimit >= s.historyLimit {
			s.historyMax = maxLimit
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  1,
		queueSize:    1024,
		dedupeSize:   10_000,
		defaults:     DefaultSplit(),
		historyLimit: 20,
		historyMax:   200,
		splits:       make(map[string]model.Split),
		seed:         func() int64 { return time.Now().UnixNano() },
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.ledger == nil {
		s.ledger = pairing.NewInMemoryLedger()
	}
	if s.history == nil {
		s.history = repository.NewMemoryHistory()
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start loads the roster file and starts the recorder workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting linemate service...")

	if s.rosterFile != "" {
		players, err := rosterfile.Load(s.rosterFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			s.logger.Warn(ctx, "roster file not found, starting empty", logger.String("path", s.rosterFile))
		case err != nil:
			return err
		default:
			s.rosterMu.Lock()
			s.players = players
			s.rosterMu.Unlock()
		}
	}

	// Workers outlive the caller's ctx; Stop cancels them after draining.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.ledger, s.history,
		worker.WithFailureHandler(s.recordFailed))
	s.pool.Start(runCtx)

	s.started = true
	metrics.UpdateWorkerCount(s.workerCount)
	s.updateRosterMetrics()
	s.logger.Info(ctx, "linemate service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("players", len(s.Players())),
	)
	return nil
}

// Stop drains the finalize queue and stops the workers.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping linemate service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "recorder shutdown incomplete", logger.Error(err))
	}
	s.cancel()
	if closer, ok := s.ledger.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(ctx, "closing ledger failed", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "linemate service stopped")
}

// recordFailed lets a split that could not be recorded be finalized again.
func (s *Service) recordFailed(ctx context.Context, e model.HistoryEntry, err error) {
	s.deduper.Unrecord(ctx, e.ID)
	s.logger.Warn(ctx, "finalize will need a retry", logger.String("split_id", e.ID), logger.Error(err))
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	players := s.Players()
	present := 0
	for _, p := range players {
		if p.Present {
			present++
		}
	}
	stats := map[string]interface{}{
		"started":        s.started,
		"workerCount":    s.workerCount,
		"queueSize":      s.queueSize,
		"players":        len(players),
		"presentPlayers": present,
		"historyEntries": s.history.Count(ctx),
		"finalizedIds":   s.deduper.Size(),
		"forwardsTotal":  s.defaults.ForwardsTotal,
		"defenseTotal":   s.defaults.DefenseTotal,
		"trials":         s.defaults.Trials,
		"penaltyWeight":  s.defaults.PenaltyWeight,
	}
	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["recorded"] = s.pool.Processed()
		metrics.UpdateQueueSize(queueLen)
	}
	metrics.UpdateRoster(len(players), present)
	return stats
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
