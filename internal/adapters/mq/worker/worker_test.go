package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/linemate/internal/adapters/mq/queue"
	"github.com/okian/linemate/internal/adapters/mq/worker"
	"github.com/okian/linemate/internal/adapters/repository"
	"github.com/okian/linemate/internal/domain/model"
	"github.com/okian/linemate/internal/domain/pairing"
	logging "github.com/okian/linemate/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type failingLedger struct {
	mu    sync.Mutex
	calls int
}

func (f *failingLedger) RecordGroups(context.Context, [][]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return errors.New("ledger down")
}

// flakyLedger fails its first write and then behaves like the in-memory ledger.
type flakyLedger struct {
	*pairing.InMemoryLedger
	mu     sync.Mutex
	failed bool
}

func (f *flakyLedger) RecordGroups(ctx context.Context, groups [][]string) error {
	f.mu.Lock()
	first := !f.failed
	f.failed = true
	f.mu.Unlock()
	if first {
		return errors.New("transient")
	}
	return f.InMemoryLedger.RecordGroups(ctx, groups)
}

type failures struct {
	mu  sync.Mutex
	ids []string
}

func (f *failures) handle(_ context.Context, e queue.Entry, _ error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, e.ID)
}

func (f *failures) list() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...)
}

func split(id string) queue.Entry {
	return model.HistoryEntry{
		ID:        id,
		Timestamp: time.Now(),
		TeamA: model.TeamSummary{
			Forwards: [][]string{{"ann", "bo", "cy"}},
			Defense:  [][]string{{"dee", "eve"}},
		},
		TeamB: model.TeamSummary{
			Forwards: [][]string{{"fay", "gus", "hal"}},
			Defense:  [][]string{{"ivy", "jo"}},
		},
	}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a recorder worker", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		ledger := pairing.NewInMemoryLedger()
		history := repository.NewMemoryHistory()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		convey.Convey("When a finalized split is queued", func() {
			w := worker.NewInMemoryWorker(q, ledger, history, worker.WithName("test-recorder"))
			go w.Run(ctx)
			convey.So(q.Enqueue(ctx, split("s1")), convey.ShouldBeNil)

			convey.Convey("Then history and ledger are both updated", func() {
				convey.So(waitFor(func() bool { return w.Processed() == 1 }), convey.ShouldBeTrue)
				convey.So(history.Count(ctx), convey.ShouldEqual, 1)

				n, err := ledger.Count(ctx, "ann", "cy")
				convey.So(err, convey.ShouldBeNil)
				convey.So(n, convey.ShouldEqual, 1)
				n, _ = ledger.Count(ctx, "ivy", "jo")
				convey.So(n, convey.ShouldEqual, 1)
				n, _ = ledger.Count(ctx, "ann", "dee")
				convey.So(n, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the same split id arrives twice", func() {
			fails := &failures{}
			w := worker.NewInMemoryWorker(q, ledger, history, worker.WithFailureHandler(fails.handle))
			go w.Run(ctx)
			convey.So(q.Enqueue(ctx, split("s1")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, split("s1")), convey.ShouldBeNil)

			convey.Convey("Then the second is reported and the ledger counts once", func() {
				convey.So(waitFor(func() bool { return len(fails.list()) == 1 }), convey.ShouldBeTrue)
				convey.So(fails.list()[0], convey.ShouldEqual, "s1")
				n, _ := ledger.Count(ctx, "ann", "bo")
				convey.So(n, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the ledger fails", func() {
			fails := &failures{}
			bad := &failingLedger{}
			w := worker.NewInMemoryWorker(q, bad, history, worker.WithFailureHandler(fails.handle))
			go w.Run(ctx)
			convey.So(q.Enqueue(ctx, split("s2")), convey.ShouldBeNil)

			convey.Convey("Then the failure handler sees the entry", func() {
				convey.So(waitFor(func() bool { return len(fails.list()) == 1 }), convey.ShouldBeTrue)
				convey.So(w.Processed(), convey.ShouldEqual, 0)
			})

			convey.Convey("Then the entry is taken back out of history", func() {
				convey.So(waitFor(func() bool { return len(fails.list()) == 1 }), convey.ShouldBeTrue)
				convey.So(history.Count(ctx), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the ledger fails once and the split is queued again", func() {
			fails := &failures{}
			flaky := &flakyLedger{InMemoryLedger: ledger}
			w := worker.NewInMemoryWorker(q, flaky, history, worker.WithFailureHandler(fails.handle))
			go w.Run(ctx)
			convey.So(q.Enqueue(ctx, split("s9")), convey.ShouldBeNil)
			convey.So(waitFor(func() bool { return len(fails.list()) == 1 }), convey.ShouldBeTrue)
			convey.So(q.Enqueue(ctx, split("s9")), convey.ShouldBeNil)

			convey.Convey("Then the retry records the whole split", func() {
				convey.So(waitFor(func() bool { return w.Processed() == 1 }), convey.ShouldBeTrue)
				convey.So(fails.list(), convey.ShouldHaveLength, 1)
				convey.So(history.Count(ctx), convey.ShouldEqual, 1)
				for _, pair := range [][2]string{{"ann", "bo"}, {"dee", "eve"}, {"fay", "gus"}, {"ivy", "jo"}} {
					n, _ := ledger.Count(ctx, pair[0], pair[1])
					convey.So(n, convey.ShouldEqual, 1)
				}
			})
		})

		convey.Convey("When shutting down after the queue is closed", func() {
			w := worker.NewInMemoryWorker(q, ledger, history)
			for i := 0; i < 5; i++ {
				convey.So(q.Enqueue(ctx, split(fmt.Sprintf("s%d", i))), convey.ShouldBeNil)
			}
			w.Start(ctx)
			_ = q.Close()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()
			err := w.Shutdown(shutdownCtx)

			convey.Convey("Then every queued entry is recorded first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(history.Count(ctx), convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When a worker that never ran is shut down", func() {
			w := worker.NewInMemoryWorker(q, ledger, history)

			convey.Convey("Then it returns immediately", func() {
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the context is cancelled", func() {
			w := worker.NewInMemoryWorker(q, ledger, history)
			runCtx, runCancel := context.WithCancel(context.Background())
			go w.Run(runCtx)
			runCancel()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()

			convey.Convey("Then the worker stops without the queue closing", func() {
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeFalse)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		ledger := pairing.NewInMemoryLedger()
		history := repository.NewMemoryHistory()

		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, q, ledger, history)

			convey.Convey("Then it runs a single recorder", func() {
				convey.So(pool.Size(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When several workers drain many splits", func() {
			pool := worker.NewPool(3, q, ledger, history)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			for i := 0; i < 40; i++ {
				convey.So(q.Enqueue(ctx, split(fmt.Sprintf("s%d", i))), convey.ShouldBeNil)
			}
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer shutdownCancel()
			err := pool.Shutdown(shutdownCtx)

			convey.Convey("Then every split is recorded exactly once", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				convey.So(pool.Processed(), convey.ShouldEqual, 40)
				convey.So(history.Count(ctx), convey.ShouldEqual, 40)
				n, _ := ledger.Count(ctx, "fay", "hal")
				convey.So(n, convey.ShouldEqual, 40)
			})
		})

		convey.Convey("When stopping a pool that was started", func() {
			pool := worker.NewPool(2, q, ledger, history)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)
			pool.Stop()

			convey.Convey("Then the queue is closed", func() {
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				convey.So(q.Enqueue(ctx, split("late")), convey.ShouldEqual, queue.ErrClosed)
			})
		})
	})
}
