package api

import (
	"net/http"

	service "github.com/okian/linemate/internal/app"
)

// TournamentHandler draws tournaments and ranks their results.
type TournamentHandler struct {
	deps TournamentDependencies
}

// NewTournamentHandler creates a new tournament handler.
func NewTournamentHandler(deps TournamentDependencies) *TournamentHandler {
	return &TournamentHandler{deps: deps}
}

// HandleDraw handles POST /tournament.
func (h *TournamentHandler) HandleDraw(w http.ResponseWriter, r *http.Request) {
	const op = "api.tournament"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, op, http.MethodPost)
		return
	}
	var req service.TournamentRequest
	if err := decodeJSON(r, &req, true); err != nil {
		fail(w, Wrap(op, err))
		return
	}
	plan, err := h.deps.Tournament(r.Context(), req)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// HandleStandings handles POST /tournament/standings.
func (h *TournamentHandler) HandleStandings(w http.ResponseWriter, r *http.Request) {
	const op = "api.standings"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, op, http.MethodPost)
		return
	}
	var req service.StandingsRequest
	if err := decodeJSON(r, &req, false); err != nil {
		fail(w, Wrap(op, err))
		return
	}
	bracket, err := h.deps.Standings(req)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, bracket)
}
