package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/linemate/internal/adapters/http/api"
	service "github.com/okian/linemate/internal/app"
	"github.com/okian/linemate/internal/domain/model"
	"github.com/okian/linemate/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func evening() []model.Player {
	var out []model.Player
	for i := 0; i < 12; i++ {
		out = append(out, model.Player{Name: fmt.Sprintf("F%02d", i), Attack: float64(4 + i%6), Defense: 2, Present: true})
	}
	for i := 0; i < 8; i++ {
		out = append(out, model.Player{Name: fmt.Sprintf("D%02d", i), Attack: 1, Defense: float64(3 + i%5), Present: true})
	}
	return out
}

func newMux(deps api.Dependencies, stats api.StatsProvider) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, stats).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var out T
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func TestServer_Routes(t *testing.T) {
	Convey("Given an API server over a started service", t, func() {
		svc := service.New(service.WithRoster(evening()), service.WithFixedSeed(5), service.WithSplitDefaults(service.SplitDefaults{
			ForwardsTotal: 12, DefenseTotal: 8, Trials: 20, PenaltyWeight: 1.5, Policy: "drop",
		}))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		mux := newMux(svc, svc)

		Convey("When the health endpoint is scraped", func() {
			w := do(mux, http.MethodGet, "/healthz", "")

			Convey("Then Prometheus metrics are served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "linemate_balancer_")
			})
		})

		Convey("When stats are requested", func() {
			w := do(mux, http.MethodGet, "/stats", "")

			Convey("Then service stats are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				stats := decode[map[string]any](w)
				So(stats["started"], ShouldBeTrue)
				So(stats["players"], ShouldEqual, 20.0)
			})
		})

		Convey("When an unknown route is requested", func() {
			w := do(mux, http.MethodGet, "/teams", "")

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When a route is called with the wrong method", func() {
			w := do(mux, http.MethodGet, "/splits", "")

			Convey("Then it answers 405 with the allowed methods", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Header().Get("Allow"), ShouldEqual, http.MethodPost)
				So(decode[errorBody](w).Code, ShouldEqual, "method_not_allowed")
			})
		})
	})
}

func TestPlayersHandler(t *testing.T) {
	Convey("Given an API server with a roster", t, func() {
		svc := service.New(service.WithRoster(evening()))
		mux := newMux(svc, svc)

		Convey("When the roster is listed as JSON", func() {
			w := do(mux, http.MethodGet, "/players", "")

			Convey("Then every player is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode[[]model.Player](w), ShouldHaveLength, 20)
			})
		})

		Convey("When the roster is listed as CSV", func() {
			w := do(mux, http.MethodGet, "/players", "", "Accept", "text/csv")

			Convey("Then a CSV roster is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "text/csv")
				So(w.Body.String(), ShouldStartWith, "name,attack,defense,present")
			})
		})

		Convey("When the roster is replaced with YAML", func() {
			body := "- name: Ann\n  attack: 7\n  defense: 3\n  present: true\n- name: Bob\n  attack: 2\n  defense: 6\n"
			w := do(mux, http.MethodPut, "/players", body, "Content-Type", "application/yaml")

			Convey("Then the new roster is installed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(svc.Players(), ShouldHaveLength, 2)
			})
		})

		Convey("When the roster is replaced with duplicate players", func() {
			w := do(mux, http.MethodPut, "/players", `[{"name":"Ann","attack":1},{"name":"ANN","attack":2}]`,
				"Content-Type", "application/json")

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[errorBody](w).Code, ShouldEqual, "bad_request")
				So(svc.Players(), ShouldHaveLength, 20)
			})
		})

		Convey("When the roster uses an unsupported media type", func() {
			w := do(mux, http.MethodPut, "/players", "<xml/>", "Content-Type", "application/xml")

			Convey("Then it is refused", func() {
				So(w.Code, ShouldEqual, http.StatusUnsupportedMediaType)
			})
		})

		Convey("When players are marked absent", func() {
			w := do(mux, http.MethodPost, "/players/presence", `{"names":["f01","D02"],"present":false}`)

			Convey("Then the updated roster is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				players := decode[[]model.Player](w)
				So(players[1].Present, ShouldBeFalse)
				So(players[14].Present, ShouldBeFalse)
			})
		})

		Convey("When presence names an unknown player", func() {
			w := do(mux, http.MethodPost, "/players/presence", `{"names":["Ghost"]}`)

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When presence is reset", func() {
			w := do(mux, http.MethodDelete, "/players/presence", "")

			Convey("Then nobody is present", func() {
				So(w.Code, ShouldEqual, http.StatusNoContent)
				for _, p := range svc.Players() {
					So(p.Present, ShouldBeFalse)
				}
			})
		})
	})
}

func TestSplitsHandler(t *testing.T) {
	Convey("Given a started service behind the API", t, func() {
		svc := service.New(service.WithRoster(evening()), service.WithFixedSeed(8))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		mux := newMux(svc, svc)

		Convey("When a split is requested without a body", func() {
			w := do(mux, http.MethodPost, "/splits", "")

			Convey("Then the defaults are used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				split := decode[model.Split](w)
				So(split.ID, ShouldNotBeEmpty)
				So(split.Seed, ShouldEqual, int64(8))
				So(split.TeamA.Forwards, ShouldHaveLength, 2)
			})
		})

		Convey("When a split carries unknown fields", func() {
			w := do(mux, http.MethodPost, "/splits", `{"trails": 5}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the roster cannot fill the lines", func() {
			w := do(mux, http.MethodPost, "/splits", `{"players":[{"name":"Solo","attack":5,"defense":1}],"trials":3}`)

			Convey("Then the lines are unprocessable", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(decode[errorBody](w).Code, ShouldEqual, "incomplete_lines")
			})
		})

		Convey("When a computed split is finalized twice", func() {
			split := decode[model.Split](do(mux, http.MethodPost, "/splits", `{"trials":5}`))
			body := fmt.Sprintf(`{"split_id":%q}`, split.ID)
			first := do(mux, http.MethodPost, "/splits/finalize", body)
			second := do(mux, http.MethodPost, "/splits/finalize", body)

			Convey("Then the first is accepted and the second conflicts", func() {
				So(first.Code, ShouldEqual, http.StatusAccepted)
				So(decode[model.HistoryEntry](first).ID, ShouldEqual, split.ID)
				So(second.Code, ShouldEqual, http.StatusConflict)
			})

			Convey("Then history, stats and pairings follow", func() {
				var history []model.HistoryEntry
				deadline := time.Now().Add(2 * time.Second)
				for time.Now().Before(deadline) {
					pairs := decode[[]model.PairingRecord](do(mux, http.MethodGet, "/pairings", ""))
					if len(pairs) == 16 {
						break
					}
					time.Sleep(5 * time.Millisecond)
				}
				history = decode[[]model.HistoryEntry](do(mux, http.MethodGet, "/history?limit=5", ""))
				So(history, ShouldHaveLength, 1)
				So(decode[[]model.PlayerStats](do(mux, http.MethodGet, "/history/stats", "")), ShouldHaveLength, 20)
				So(decode[[]model.PairingRecord](do(mux, http.MethodGet, "/pairings?limit=3", "")), ShouldHaveLength, 3)

				So(do(mux, http.MethodDelete, "/history", "").Code, ShouldEqual, http.StatusNoContent)
				So(do(mux, http.MethodDelete, "/pairings", "").Code, ShouldEqual, http.StatusNoContent)
				So(decode[[]model.HistoryEntry](do(mux, http.MethodGet, "/history", "")), ShouldBeEmpty)
			})
		})

		Convey("When an unknown split is finalized", func() {
			w := do(mux, http.MethodPost, "/splits/finalize", `{"split_id":"missing"}`)

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When history is paged with a bad limit", func() {
			w := do(mux, http.MethodGet, "/history?limit=zero", "")

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestTournamentHandler(t *testing.T) {
	Convey("Given an API server with a roster", t, func() {
		svc := service.New(service.WithRoster(evening()), service.WithFixedSeed(2))
		mux := newMux(svc, svc)

		Convey("When a tournament is drawn", func() {
			w := do(mux, http.MethodPost, "/tournament", `{"teams":4}`)

			Convey("Then teams and schedule are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				plan := decode[service.TournamentPlan](w)
				So(plan.Teams, ShouldHaveLength, 4)
				So(plan.Schedule, ShouldHaveLength, 6)
			})
		})

		Convey("When standings are posted", func() {
			w := do(mux, http.MethodPost, "/tournament/standings",
				`{"matches":[{"home":"A","away":"B","home_score":2,"away_score":1,"finished":true}]}`)

			Convey("Then the table is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				bracket := decode[service.Bracket](w)
				So(bracket.Standings, ShouldHaveLength, 2)
				So(bracket.Standings[0].Team, ShouldEqual, "A")
			})
		})

		Convey("When standings are posted without matches", func() {
			w := do(mux, http.MethodPost, "/tournament/standings", `{"matches":[]}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

// stubDeps fails every call with err.
type stubDeps struct {
	err error
}

func (s stubDeps) Players() []model.Player { return nil }
func (s stubDeps) ReplacePlayers(context.Context, []model.Player) error {
	return s.err
}
func (s stubDeps) SetPresence(context.Context, []string, bool) ([]model.Player, error) {
	return nil, s.err
}
func (s stubDeps) ResetPresence(context.Context) error { return s.err }
func (s stubDeps) ComputeSplit(context.Context, service.SplitRequest) (model.Split, error) {
	return model.Split{}, s.err
}
func (s stubDeps) Finalize(context.Context, service.FinalizeRequest) (model.HistoryEntry, error) {
	return model.HistoryEntry{}, s.err
}
func (s stubDeps) History(context.Context, int) ([]model.HistoryEntry, error) { return nil, s.err }
func (s stubDeps) ResetHistory(context.Context) error                       { return s.err }
func (s stubDeps) PlayerStats(context.Context) ([]model.PlayerStats, error) { return nil, s.err }
func (s stubDeps) Pairings(context.Context, int) ([]model.PairingRecord, error) {
	return nil, s.err
}
func (s stubDeps) ResetPairings(context.Context) error { return s.err }
func (s stubDeps) Tournament(context.Context, service.TournamentRequest) (service.TournamentPlan, error) {
	return service.TournamentPlan{}, s.err
}
func (s stubDeps) Standings(service.StandingsRequest) (service.Bracket, error) {
	return service.Bracket{}, s.err
}

type stubStats struct{}

func (stubStats) GetStats() map[string]interface{} { return map[string]interface{}{} }

func TestErrorMapping(t *testing.T) {
	Convey("Given handlers over failing dependencies", t, func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{service.ErrBackpressure, http.StatusTooManyRequests, "backpressure"},
			{service.ErrNotStarted, http.StatusServiceUnavailable, "unavailable"},
			{fmt.Errorf("redis down"), http.StatusInternalServerError, "internal_error"},
		}

		for _, c := range cases {
			mux := newMux(stubDeps{err: c.err}, stubStats{})
			w := do(mux, http.MethodPost, "/splits/finalize", `{"split_id":"x"}`)

			So(w.Code, ShouldEqual, c.status)
			So(decode[errorBody](w).Code, ShouldEqual, c.code)
		}
	})
}
