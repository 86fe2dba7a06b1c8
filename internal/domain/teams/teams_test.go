package teams_test

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"math/rand"
	"testing"

	"github.com/okian/linemate/internal/domain/model"
	"github.com/okian/linemate/internal/domain/teams"
	. "github.com/smartystreets/goconvey/convey"
)

type mapCounter map[[2]string]int

func (m mapCounter) Count(a, b string) int {
	if a > b {
		a, b = b, a
	}
	return m[[2]string{a, b}]
}

func (m mapCounter) set(a, b string, n int) {
	if a > b {
		a, b = b, a
	}
	m[[2]string{a, b}] = n
}

func group(role model.Role, size int, prefix string, talents ...float64) model.Group {
	g := model.Group{Role: role, Size: size}
	for i, t := range talents {
		p := model.Player{Name: fmt.Sprintf("%s%d", prefix, i)}
		if role == model.RoleAttack {
			p.Attack = t
		} else {
			p.Defense = t
		}
		g.Members = append(g.Members, p)
	}
	g.Incomplete = len(g.Members) != size
	return g
}

func randomGroups(rng *rand.Rand) ([]model.Group, []model.Group) {
	var fw, df []model.Group
	for i := 0; i < 4; i++ {
		fw = append(fw, group(model.RoleAttack, 3, fmt.Sprintf("f%d-", i),
			float64(rng.Intn(10)+1), float64(rng.Intn(10)+1), float64(rng.Intn(10)+1)))
		df = append(df, group(model.RoleDefense, 2, fmt.Sprintf("d%d-", i),
			float64(rng.Intn(10)+1), float64(rng.Intn(10)+1)))
	}
	return fw, df
}

// bruteForce recomputes the minimum cost over every 2+2 / 2+2 split with bitmasks.
func bruteForce(fw, df []model.Group, weight float64, counter teams.PairCounter) (float64, int) {
	best := math.Inf(1)
	seen := 0
	for fm := 0; fm < 16; fm++ {
		if bits.OnesCount(uint(fm)) != 2 {
			continue
		}
		for dm := 0; dm < 16; dm++ {
			if bits.OnesCount(uint(dm)) != 2 {
				continue
			}
			seen++
			var a, b []model.Player
			var sa, sb float64
			for i := 0; i < 4; i++ {
				if fm&(1<<i) != 0 {
					a, sa = append(a, fw[i].Members...), sa+fw[i].Total()
				} else {
					b, sb = append(b, fw[i].Members...), sb+fw[i].Total()
				}
				if dm&(1<<i) != 0 {
					a, sa = append(a, df[i].Members...), sa+df[i].Total()
				} else {
					b, sb = append(b, df[i].Members...), sb+df[i].Total()
				}
			}
			pen := 0
			for _, side := range [][]model.Player{a, b} {
				for i := range side {
					for j := i + 1; j < len(side); j++ {
						pen += counter.Count(side[i].Key(), side[j].Key())
					}
				}
			}
			best = math.Min(best, math.Abs(sa-sb)+weight*float64(pen))
		}
	}
	return best, seen
}

func TestAssignOptimal(t *testing.T) {
	Convey("Given random lines, pairs and pairing history", t, func() {
		rng := rand.New(rand.NewSource(2024))

		Convey("Then the chosen split is never beaten by any of the 36", func() {
			for round := 0; round < 50; round++ {
				fw, df := randomGroups(rng)
				counter := mapCounter{}
				for k := 0; k < 6; k++ {
					counter.set(fmt.Sprintf("f%d-%d", rng.Intn(4), rng.Intn(3)), fmt.Sprintf("d%d-%d", rng.Intn(4), rng.Intn(2)), rng.Intn(4))
				}
				weight := float64(rng.Intn(3))

				got, err := teams.Assign(fw, df, weight, counter)
				So(err, ShouldBeNil)

				want, n := bruteForce(fw, df, weight, counter)
				So(n, ShouldEqual, 36)
				So(got.Cost, ShouldAlmostEqual, want, 1e-9)

				cands, err := teams.Candidates(fw, df, weight, counter)
				So(err, ShouldBeNil)
				So(cands, ShouldHaveLength, 36)
				for _, c := range cands {
					So(got.Cost, ShouldBeLessThanOrEqualTo, c.Cost)
				}
			}
		})

		Convey("Then every player lands on exactly one team", func() {
			fw, df := randomGroups(rng)
			got, err := teams.Assign(fw, df, 1, nil)
			So(err, ShouldBeNil)

			seen := map[string]bool{}
			for _, p := range append(got.TeamA.Players(), got.TeamB.Players()...) {
				So(seen[p.Name], ShouldBeFalse)
				seen[p.Name] = true
			}
			So(seen, ShouldHaveLength, 20)
			So(got.TeamA.Forwards, ShouldHaveLength, 2)
			So(got.TeamB.Defense, ShouldHaveLength, 2)
			So(got.Diff, ShouldEqual, math.Abs(got.ScoreA-got.ScoreB))
		})
	})
}

func TestAssignTieBreak(t *testing.T) {
	Convey("Given groups of equal talent and no history", t, func() {
		var fw, df []model.Group
		for i := 0; i < 4; i++ {
			fw = append(fw, group(model.RoleAttack, 3, fmt.Sprintf("f%d-", i), 5, 5, 5))
			df = append(df, group(model.RoleDefense, 2, fmt.Sprintf("d%d-", i), 4, 4))
		}

		got, err := teams.Assign(fw, df, 2, mapCounter{})

		Convey("Then the first combination in enumeration order wins", func() {
			So(err, ShouldBeNil)
			So(got.ForwardsA, ShouldResemble, [2]int{0, 1})
			So(got.DefenseA, ShouldResemble, [2]int{0, 1})
			So(got.Cost, ShouldEqual, 0.0)
		})
	})
}

func TestAssignPairingPenalty(t *testing.T) {
	Convey("Given a pair with five past games together", t, func() {
		fw := []model.Group{
			group(model.RoleAttack, 3, "x", 4, 3, 3),
			group(model.RoleAttack, 3, "f1-", 4, 3, 3),
			group(model.RoleAttack, 3, "f2-", 6, 3, 3),
			group(model.RoleAttack, 3, "f3-", 2, 3, 3),
		}
		var df []model.Group
		for i := 0; i < 4; i++ {
			df = append(df, group(model.RoleDefense, 2, fmt.Sprintf("d%d-", i), 5, 5))
		}
		counter := mapCounter{}
		counter.set("x0", "d0-0", 5)

		Convey("When the weight is zero", func() {
			got, err := teams.Assign(fw, df, 0, counter)
			So(err, ShouldBeNil)

			Convey("Then the first balanced split keeps the pair together", func() {
				So(got.ForwardsA, ShouldResemble, [2]int{0, 1})
				So(got.DefenseA, ShouldResemble, [2]int{0, 1})
				So(got.Penalty, ShouldEqual, 5)
			})
		})

		Convey("When the weight is two", func() {
			got, err := teams.Assign(fw, df, 2, counter)
			So(err, ShouldBeNil)

			Convey("Then an equally balanced split that separates them is preferred", func() {
				So(got.Diff, ShouldEqual, 0.0)
				So(got.Penalty, ShouldEqual, 0)
				So(got.Cost, ShouldEqual, 0.0)
				So(got.ForwardsA, ShouldResemble, [2]int{0, 1})
				So(got.DefenseA, ShouldResemble, [2]int{1, 2})
			})
		})

		Convey("When the penalty only looks inside groups", func() {
			got, err := teams.Assign(fw, df, 2, counter, teams.WithScope(teams.ScopeGroup))
			So(err, ShouldBeNil)

			Convey("Then the cross-group pair is ignored", func() {
				So(got.Penalty, ShouldEqual, 0)
				So(got.DefenseA, ShouldResemble, [2]int{0, 1})
			})
		})

		Convey("When a linemate pair is known and the penalty only looks inside groups", func() {
			counter.set("x0", "x1", 3)
			cands, err := teams.Candidates(fw, df, 2, counter, teams.WithScope(teams.ScopeGroup))
			So(err, ShouldBeNil)

			Convey("Then every combination carries the same penalty", func() {
				So(cands, ShouldHaveLength, 36)
				for _, c := range cands {
					So(c.Penalty, ShouldEqual, 3)
				}
			})
		})
	})
}

func TestAssignContract(t *testing.T) {
	Convey("Given malformed input", t, func() {
		rng := rand.New(rand.NewSource(1))
		fw, df := randomGroups(rng)

		Convey("Then the wrong group count is refused", func() {
			_, err := teams.Assign(fw[:3], df, 1, nil)
			So(errors.Is(err, teams.ErrInvalidGroups), ShouldBeTrue)
		})

		Convey("Then a negative weight is refused", func() {
			_, err := teams.Assign(fw, df, -1, nil)
			So(errors.Is(err, teams.ErrInvalidWeight), ShouldBeTrue)
		})

		Convey("Then incomplete groups are refused unless allowed", func() {
			df[2] = group(model.RoleDefense, 2, "short", 7)
			_, err := teams.Assign(fw, df, 1, nil)
			So(errors.Is(err, teams.ErrIncompleteGroups), ShouldBeTrue)

			got, err := teams.Assign(fw, df, 1, nil, teams.AllowIncomplete())
			So(err, ShouldBeNil)
			So(got.ScoreA+got.ScoreB, ShouldEqual, sumAll(fw, df))
		})
	})
}

func sumAll(fw, df []model.Group) float64 {
	var s float64
	for _, g := range append(append([]model.Group(nil), fw...), df...) {
		s += g.Total()
	}
	return s
}
