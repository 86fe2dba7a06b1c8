package pairing_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/linemate/internal/domain/model"
	"github.com/okian/linemate/internal/domain/pairing"
	"github.com/okian/linemate/internal/domain/teams"
	. "github.com/smartystreets/goconvey/convey"
)

// Counts must plug straight into team assignment.
var _ teams.PairCounter = pairing.Counts{}

func TestPairs(t *testing.T) {
	Convey("Given a trio with a duplicate and mixed case", t, func() {
		pairs := pairing.Pairs([]string{"Carey", "alex", "CAREY", " Brendan "})

		Convey("Then each unordered pair appears once, normalized and ordered", func() {
			So(pairs, ShouldResemble, []pairing.Pair{
				{A: "alex", B: "brendan"},
				{A: "alex", B: "carey"},
				{A: "brendan", B: "carey"},
			})
		})
	})

	Convey("Given a pair key", t, func() {
		p := pairing.NewPair("Zed", "amy")
		back, ok := pairing.ParsePair(p.String())

		Convey("Then it round-trips", func() {
			So(ok, ShouldBeTrue)
			So(back, ShouldResemble, pairing.Pair{A: "amy", B: "zed"})
		})

		_, ok = pairing.ParsePair("no-separator")
		So(ok, ShouldBeFalse)
	})
}

func TestInMemoryLedger(t *testing.T) {
	Convey("Given an empty ledger", t, func() {
		ctx := context.Background()
		l := pairing.NewInMemoryLedger()

		Convey("When recording two overlapping groups", func() {
			So(l.RecordGroup(ctx, []string{"a", "b", "c"}), ShouldBeNil)
			So(l.RecordGroup(ctx, []string{"B", "a"}), ShouldBeNil)

			Convey("Then counts are symmetric and additive", func() {
				n, err := l.Count(ctx, "b", "a")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)

				n, _ = l.Count(ctx, "a", "c")
				So(n, ShouldEqual, 1)

				n, _ = l.Count(ctx, "a", "z")
				So(n, ShouldEqual, 0)
			})

			Convey("Then a snapshot is detached from later writes", func() {
				snap, err := l.Snapshot(ctx)
				So(err, ShouldBeNil)
				So(l.RecordGroup(ctx, []string{"a", "b"}), ShouldBeNil)
				So(snap.Count("A", "B"), ShouldEqual, 2)

				now, _ := l.Snapshot(ctx)
				So(now.Count("a", "b"), ShouldEqual, 3)
			})

			Convey("Then Top orders by count", func() {
				snap, _ := l.Snapshot(ctx)
				So(pairing.Top(snap, 1), ShouldResemble, []model.PairingRecord{{A: "a", B: "b", Count: 2}})
				So(pairing.Top(snap, 0), ShouldHaveLength, 3)
			})

			Convey("Then Reset clears everything", func() {
				So(l.Reset(ctx), ShouldBeNil)
				snap, _ := l.Snapshot(ctx)
				So(snap, ShouldBeEmpty)
			})
		})

		Convey("When a whole split is recorded at once", func() {
			So(l.RecordGroups(ctx, [][]string{{"a", "b", "c"}, {"d", "e"}, {"a", "b"}}), ShouldBeNil)

			Convey("Then every group is counted", func() {
				snap, _ := l.Snapshot(ctx)
				So(snap, ShouldHaveLength, 4)
				So(snap.Count("a", "b"), ShouldEqual, 2)
				So(snap.Count("d", "e"), ShouldEqual, 1)
				So(snap.Count("a", "d"), ShouldEqual, 0)
			})
		})

		Convey("When many goroutines record concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_ = l.RecordGroup(ctx, []string{"x", "y", fmt.Sprintf("p%d", i)})
				}(i)
			}
			wg.Wait()

			Convey("Then no increment is lost", func() {
				n, _ := l.Count(ctx, "x", "y")
				So(n, ShouldEqual, 50)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then nothing is recorded", func() {
				So(l.RecordGroup(cctx, []string{"a", "b"}), ShouldNotBeNil)
				So(l.RecordGroups(cctx, [][]string{{"a", "b"}}), ShouldNotBeNil)
				n, _ := l.Count(ctx, "a", "b")
				So(n, ShouldEqual, 0)
			})
		})
	})
}
