package api

import (
	"mime"
	"net/http"
	"strings"

	"github.com/okian/linemate/internal/adapters/rosterfile"
	"github.com/okian/linemate/internal/domain/model"
)

// PlayersHandler serves the roster and presence.
type PlayersHandler struct {
	deps RosterDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps RosterDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

type presenceRequest struct {
	Names   []string `json:"names"`
	Present *bool    `json:"present,omitempty"`
}

// HandlePlayers handles GET and PUT /players. Both accept JSON, CSV and
// YAML rosters through the Accept and Content-Type headers.
func (h *PlayersHandler) HandlePlayers(w http.ResponseWriter, r *http.Request) {
	const op = "api.players"
	switch r.Method {
	case http.MethodGet:
		players := h.deps.Players()
		if f, ok := rosterFormat(r.Header.Get("Accept")); ok {
			w.Header().Set("Content-Type", contentType(f))
			if err := rosterfile.Write(w, f, players); err != nil {
				fail(w, Wrap(op, err))
			}
			return
		}
		writeJSON(w, http.StatusOK, players)
	case http.MethodPut:
		players, err := readRoster(r)
		if err != nil {
			fail(w, WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := h.deps.ReplacePlayers(r.Context(), players); err != nil {
			fail(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, h.deps.Players())
	default:
		methodNotAllowed(w, op, "GET, PUT")
	}
}

// HandlePresence handles POST /players/presence (mark) and
// DELETE /players/presence (everyone absent).
func (h *PlayersHandler) HandlePresence(w http.ResponseWriter, r *http.Request) {
	const op = "api.presence"
	switch r.Method {
	case http.MethodPost:
		var req presenceRequest
		if err := decodeJSON(r, &req, false); err != nil {
			fail(w, Wrap(op, err))
			return
		}
		present := req.Present == nil || *req.Present
		players, err := h.deps.SetPresence(r.Context(), req.Names, present)
		if err != nil {
			fail(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, players)
	case http.MethodDelete:
		if err := h.deps.ResetPresence(r.Context()); err != nil {
			fail(w, Wrap(op, err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, op, "POST, DELETE")
	}
}

func readRoster(r *http.Request) ([]model.Player, error) {
	ct := r.Header.Get("Content-Type")
	if f, ok := rosterFormat(ct); ok {
		return rosterfile.Read(http.MaxBytesReader(nil, r.Body, maxBodyBytes), f)
	}
	if ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
			return nil, ErrUnsupportedMedia
		}
	}
	var players []model.Player
	if err := decodeJSON(r, &players, false); err != nil {
		return nil, err
	}
	return players, nil
}

// rosterFormat picks CSV or YAML from a media type list; JSON is the default.
func rosterFormat(header string) (rosterfile.Format, bool) {
	for _, part := range strings.Split(header, ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mt {
		case "text/csv":
			return rosterfile.CSV, true
		case "application/yaml", "application/x-yaml", "text/yaml":
			return rosterfile.YAML, true
		}
	}
	return "", false
}

func contentType(f rosterfile.Format) string {
	if f == rosterfile.CSV {
		return "text/csv; charset=utf-8"
	}
	return "application/yaml; charset=utf-8"
}
