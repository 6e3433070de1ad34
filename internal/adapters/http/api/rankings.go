package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/golazo/internal/domain/types"
)

// RankingsHandler handles ranking view requests.
type RankingsHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps Dependencies, maxLimit int) *RankingsHandler {
	return &RankingsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGlobal handles GET /rankings/global?limit=N requests.
func (h *RankingsHandler) HandleGlobal(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_global_ranking"
	h.serve(w, r, op, types.GlobalScope())
}

// HandlePool handles GET /rankings/pools/{poolID}?limit=N requests.
func (h *RankingsHandler) HandlePool(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_pool_ranking"
	poolID := chi.URLParam(r, "poolID")
	if poolID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	h.serve(w, r, op, types.PoolScope(poolID))
}

func (h *RankingsHandler) serve(w http.ResponseWriter, r *http.Request, op string, scope types.Scope) {
	limit, err := h.limit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_limit", WrapKind(op, ErrBadRequest, err))
		return
	}

	view, err := h.deps.RankingView(r.Context(), scope)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	if len(view.Entries) > limit {
		view.Entries = view.Entries[:limit]
	}
	writeJSON(w, http.StatusOK, view)
}

// limit parses the optional ?limit query; absent means the maximum.
func (h *RankingsHandler) limit(r *http.Request) (int, error) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return h.maxLimit, nil
	}
	n, err := strconv.Atoi(limitStr)
	if err != nil || n < 1 {
		return 0, ErrBadRequest
	}
	if n > h.maxLimit {
		return 0, ErrBadRequest
	}
	return n, nil
}
