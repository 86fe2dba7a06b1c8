// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	service "github.com/okian/linemate/internal/app"
	"github.com/okian/linemate/internal/domain/model"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RosterDependencies
	SplitDependencies
	HistoryDependencies
	TournamentDependencies
}

// RosterDependencies covers roster and presence management.
type RosterDependencies interface {
	Players() []model.Player
	ReplacePlayers(ctx context.Context, players []model.Player) error
	SetPresence(ctx context.Context, names []string, present bool) ([]model.Player, error)
	ResetPresence(ctx context.Context) error
}

// SplitDependencies computes and finalizes splits.
type SplitDependencies interface {
	ComputeSplit(ctx context.Context, req service.SplitRequest) (model.Split, error)
	Finalize(ctx context.Context, req service.FinalizeRequest) (model.HistoryEntry, error)
}

// HistoryDependencies reads and resets history and the pairing ledger.
type HistoryDependencies interface {
	History(ctx context.Context, n int) ([]model.HistoryEntry, error)
	ResetHistory(ctx context.Context) error
	PlayerStats(ctx context.Context) ([]model.PlayerStats, error)
	Pairings(ctx context.Context, n int) ([]model.PairingRecord, error)
	ResetPairings(ctx context.Context) error
}

// TournamentDependencies draws tournaments and ranks results.
type TournamentDependencies interface {
	Tournament(ctx context.Context, req service.TournamentRequest) (service.TournamentPlan, error)
	Standings(req service.StandingsRequest) (service.Bracket, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	playersHandler    *PlayersHandler
	splitsHandler     *SplitsHandler
	historyHandler    *HistoryHandler
	tournamentHandler *TournamentHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		playersHandler:    NewPlayersHandler(deps),
		splitsHandler:     NewSplitsHandler(deps),
		historyHandler:    NewHistoryHandler(deps),
		tournamentHandler: NewTournamentHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/players", MetricsMiddleware(s.playersHandler.HandlePlayers, "players"))
	mux.HandleFunc("/players/presence", MetricsMiddleware(s.playersHandler.HandlePresence, "presence"))
	mux.HandleFunc("/splits", MetricsMiddleware(s.splitsHandler.HandleCompute, "splits"))
	mux.HandleFunc("/splits/finalize", MetricsMiddleware(s.splitsHandler.HandleFinalize, "finalize"))
	mux.HandleFunc("/history", MetricsMiddleware(s.historyHandler.HandleHistory, "history"))
	mux.HandleFunc("/history/stats", MetricsMiddleware(s.historyHandler.HandlePlayerStats, "history_stats"))
	mux.HandleFunc("/pairings", MetricsMiddleware(s.historyHandler.HandlePairings, "pairings"))
	mux.HandleFunc("/tournament", MetricsMiddleware(s.tournamentHandler.HandleDraw, "tournament"))
	mux.HandleFunc("/tournament/standings", MetricsMiddleware(s.tournamentHandler.HandleStandings, "standings"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	if rec, ok := w.(*statusRecorder); ok {
		rec.code = code
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail classifies err and writes the matching error response.
func fail(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func methodNotAllowed(w http.ResponseWriter, op string, allowed string) {
	w.Header().Set("Allow", allowed)
	fail(w, NewKind(op, ErrMethodNotAllowed))
}

// decodeJSON reads a JSON body into v. An empty body is allowed when
// optional is set and leaves v untouched.
func decodeJSON(r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// limitParam parses an optional positive ?limit=N; absent means 0.
func limitParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest)
	}
	return n, nil
}
