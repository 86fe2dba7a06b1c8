package api

import (
	"net/http"
)

// HistoryHandler serves history, player statistics and pairings.
type HistoryHandler struct {
	deps HistoryDependencies
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

// HandleHistory handles GET /history?limit=N and DELETE /history.
func (h *HistoryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.history"
	switch r.Method {
	case http.MethodGet:
		n, err := limitParam(r)
		if err != nil {
			fail(w, Wrap(op, err))
			return
		}
		entries, err := h.deps.History(r.Context(), n)
		if err != nil {
			fail(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, entries)
	case http.MethodDelete:
		if err := h.deps.ResetHistory(r.Context()); err != nil {
			fail(w, Wrap(op, err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, op, "GET, DELETE")
	}
}

// HandlePlayerStats handles GET /history/stats.
func (h *HistoryHandler) HandlePlayerStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.player_stats"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, op, http.MethodGet)
		return
	}
	rows, err := h.deps.PlayerStats(r.Context())
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandlePairings handles GET /pairings?limit=N and DELETE /pairings.
func (h *HistoryHandler) HandlePairings(w http.ResponseWriter, r *http.Request) {
	const op = "api.pairings"
	switch r.Method {
	case http.MethodGet:
		n, err := limitParam(r)
		if err != nil {
			fail(w, Wrap(op, err))
			return
		}
		pairs, err := h.deps.Pairings(r.Context(), n)
		if err != nil {
			fail(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, pairs)
	case http.MethodDelete:
		if err := h.deps.ResetPairings(r.Context()); err != nil {
			fail(w, Wrap(op, err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, op, "GET, DELETE")
	}
}
