package api

import (
	"net/http"

	service "github.com/okian/linemate/internal/app"
)

// SplitsHandler computes and finalizes splits.
type SplitsHandler struct {
	deps SplitDependencies
}

// NewSplitsHandler creates a new splits handler.
func NewSplitsHandler(deps SplitDependencies) *SplitsHandler {
	return &SplitsHandler{deps: deps}
}

// HandleCompute handles POST /splits. The body is optional; every field
// overrides a configured default.
func (h *SplitsHandler) HandleCompute(w http.ResponseWriter, r *http.Request) {
	const op = "api.compute_split"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, op, http.MethodPost)
		return
	}
	var req service.SplitRequest
	if err := decodeJSON(r, &req, true); err != nil {
		fail(w, Wrap(op, err))
		return
	}
	split, err := h.deps.ComputeSplit(r.Context(), req)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, split)
}

// HandleFinalize handles POST /splits/finalize. Recording is asynchronous,
// so success answers 202 with the queued history entry.
func (h *SplitsHandler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	const op = "api.finalize_split"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, op, http.MethodPost)
		return
	}
	var req service.FinalizeRequest
	if err := decodeJSON(r, &req, false); err != nil {
		fail(w, Wrap(op, err))
		return
	}
	entry, err := h.deps.Finalize(r.Context(), req)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, entry)
}
