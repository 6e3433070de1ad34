package api

import (
	"net/http"
	"time"

	"github.com/okian/golazo/internal/domain/model"
)

// RunsHandler serves the run ledger's audit trail.
type RunsHandler struct {
	deps Dependencies
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(deps Dependencies) *RunsHandler {
	return &RunsHandler{deps: deps}
}

// HandleList handles GET /runs?match=ID and GET /runs?from=T&to=T requests.
// Exactly one filter must be present.
func (h *RunsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_runs"

	q := r.URL.Query()
	matchID := q.Get("match")
	fromStr, toStr := q.Get("from"), q.Get("to")

	switch {
	case matchID != "" && (fromStr != "" || toStr != ""):
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return

	case matchID != "":
		records, err := h.deps.RunsByMatch(r.Context(), matchID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, runsResponse{Records: records})

	case fromStr != "" && toStr != "":
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_from", WrapKind(op, ErrBadRequest, err))
			return
		}
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_to", WrapKind(op, ErrBadRequest, err))
			return
		}
		if to.Before(from) {
			writeError(w, http.StatusBadRequest, "bad_window", NewKind(op, ErrBadRequest))
			return
		}
		records, err := h.deps.RunsBetween(r.Context(), from, to)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, runsResponse{Records: records})

	default:
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
	}
}

type runsResponse struct {
	Records []model.RunRecord `json:"records"`
}
