package stats_test

import (
	"testing"

	"github.com/okian/linemate/internal/domain/model"
	"github.com/okian/linemate/internal/domain/stats"
	"github.com/smartystreets/goconvey/convey"
)

func TestFromHistory(t *testing.T) {
	convey.Convey("Given two finalized splits", t, func() {
		entries := []model.HistoryEntry{
			{
				ID: "1",
				TeamA: model.TeamSummary{
					Forwards: [][]string{{"Ann", "Bo", "Cy"}},
					Defense:  [][]string{{"Dee", "Ed"}},
				},
				TeamB: model.TeamSummary{
					Forwards: [][]string{{"Fay", "Gus", "Hal"}},
					Defense:  [][]string{{"Ike", "Jo"}},
				},
			},
			{
				ID: "2",
				TeamA: model.TeamSummary{
					Forwards: [][]string{{"fay", "Bo", "Cy"}},
					Defense:  [][]string{{"Dee", "Ed"}},
				},
				TeamB: model.TeamSummary{
					Forwards: [][]string{{"ANN", "Gus", "Hal"}},
					Defense:  [][]string{{"Ike", "Kim"}},
				},
			},
		}

		rows := stats.FromHistory(entries)
		byName := map[string]model.PlayerStats{}
		for _, r := range rows {
			byName[model.NormalizeName(r.Name)] = r
		}

		convey.Convey("Then names are merged case-insensitively", func() {
			convey.So(rows, convey.ShouldHaveLength, 11)
			convey.So(byName["ann"].Sessions, convey.ShouldEqual, 2)
			convey.So(byName["ann"].TeamA, convey.ShouldEqual, 1)
			convey.So(byName["ann"].TeamB, convey.ShouldEqual, 1)
		})

		convey.Convey("Then positions are counted per session", func() {
			convey.So(byName["dee"].Defense, convey.ShouldEqual, 2)
			convey.So(byName["dee"].Forward, convey.ShouldEqual, 0)
			convey.So(byName["jo"].Sessions, convey.ShouldEqual, 1)
		})

		convey.Convey("Then rows are ordered by sessions", func() {
			convey.So(rows[0].Sessions, convey.ShouldEqual, 2)
			convey.So(rows[len(rows)-1].Sessions, convey.ShouldEqual, 1)
		})

		convey.Convey("Then empty history yields no rows", func() {
			convey.So(stats.FromHistory(nil), convey.ShouldBeEmpty)
		})
	})
}
