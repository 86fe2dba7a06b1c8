// Package worker applies finalized splits to the history store and the
// pairing ledger.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/linemate/internal/adapters/mq/queue"
	"github.com/okian/linemate/pkg/logger"
	"github.com/okian/linemate/pkg/metrics"
)

const (
	defaultWorkerCount  = 1
	poolShutdownTimeout = 30 * time.Second
)

// Entry is what workers read off the queue.
type Entry = queue.Entry

// Ledger receives the groups of a finalized split in one update.
type Ledger interface {
	RecordGroups(ctx context.Context, groups [][]string) error
}

// History receives finalized splits.
type History interface {
	Append(ctx context.Context, e Entry) error
	Remove(ctx context.Context, id string) error
}

// Queue defines how workers receive entries.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Entry
}

// FailureHandler observes entries that could not be recorded.
type FailureHandler func(ctx context.Context, e Entry, err error)

// Worker records finalized splits.
type Worker interface {
	// Run starts the worker loop until the queue is drained or ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker once queued entries are processed.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	ledger    Ledger
	history   History
	name      string
	onFailure FailureHandler
	processed atomic.Int64
	started   atomic.Bool

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, ledger Ledger, history History, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		ledger:    ledger,
		history:   history,
		name:      "recorder",
		onFailure: func(context.Context, Entry, error) {},
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("recorder"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "recorder" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Start marks the worker running and launches Run, so a Shutdown that
// follows waits for the queue to drain.
func (w *InMemoryWorker) Start(ctx context.Context) {
	w.started.Store(true)
	go w.Run(ctx)
}

// Run drains the queue. After Shutdown it keeps going until the queue
// channel is closed so accepted entries are not lost.
func (w *InMemoryWorker) Run(ctx context.Context) {
	w.started.Store(true)
	defer close(w.done)

	entries := w.queue.Dequeue(ctx)
	shutdown := w.shutdown
	for {
		select {
		case <-ctx.Done():
			return
		case <-shutdown:
			shutdown = nil
		case e, ok := <-entries:
			if !ok {
				return
			}
			if err := w.record(ctx, e); err != nil {
				w.onFailure(ctx, e, err)
			}
		}
	}
}

func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
	if !w.started.Load() {
		return nil
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns the number of entries recorded successfully.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

// record appends the entry to history, then counts all of its groups in the
// ledger at once. History goes first so a duplicate never touches the
// ledger; a ledger failure takes the entry back out so a retry starts clean.
func (w *InMemoryWorker) record(ctx context.Context, e Entry) error { //nolint:gocritic // hugeParam: value semantics on the channel
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if err := w.history.Append(ctx, e); err != nil {
		w.fail(ctx, e, "history_error", err)
		return fmt.Errorf("failed to append split %s: %w", e.ID, err)
	}
	if err := w.ledger.RecordGroups(ctx, e.Groups()); err != nil {
		w.fail(ctx, e, "ledger_error", err)
		if rerr := w.history.Remove(ctx, e.ID); rerr != nil {
			w.logger.Error(ctx, "rolling back history failed",
				logger.String("split_id", e.ID),
				logger.Error(rerr),
			)
		}
		return fmt.Errorf("failed to record pairings for split %s: %w", e.ID, err)
	}

	w.processed.Add(1)
	metrics.RecordFinalized()
	w.logger.Debug(ctx, "split recorded", logger.String("split_id", e.ID))
	return nil
}

func (w *InMemoryWorker) fail(ctx context.Context, e Entry, kind string, err error) { //nolint:gocritic // hugeParam
	metrics.RecordWorkerError()
	metrics.RecordErrorByComponent("worker", kind)
	metrics.RecordErrorByType(kind, "high")
	w.logger.Error(ctx, "recording split failed",
		logger.String("split_id", e.ID),
		logger.Error(err),
	)
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates workerCount workers sharing q. workerCount < 1 means one
// worker, which keeps ledger writes single-writer.
func NewPool(workerCount int, q Queue, ledger Ledger, history History, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("recorder-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, ledger, history, wopts...)
	}
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of entries recorded by all workers.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		w.Start(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Stop shuts the pool down with the default timeout.
func (p *Pool) Stop() {
	_ = p.Shutdown(context.Background())
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	return firstErr
}
