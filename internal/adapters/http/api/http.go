// Package api declares HTTP contracts and route registration helpers for
// the verification read surface. The API is read-only: matches, bets and
// runs are written by the pipeline, never over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/golazo/internal/adapters/http/swagger"
	"github.com/okian/golazo/internal/domain/model"
	"github.com/okian/golazo/internal/domain/types"
	"github.com/okian/golazo/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// RankingView returns the (possibly cached) ranked view for a scope.
	RankingView(ctx context.Context, scope types.Scope) (types.View, error)

	// RunsByMatch returns the audit trail for one match, oldest first.
	RunsByMatch(ctx context.Context, matchID string) ([]model.RunRecord, error)

	// RunsBetween returns run records inside a time window, oldest first.
	RunsBetween(ctx context.Context, from, to time.Time) ([]model.RunRecord, error)

	// Match returns one match by id.
	Match(ctx context.Context, id string) (model.Match, error)
}

// Server wires HTTP routes for the verification API.
type Server struct {
	rankingsHandler *RankingsHandler
	runsHandler     *RunsHandler
	matchesHandler  *MatchesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, maxLimit int) *Server {
	return &Server{
		rankingsHandler: NewRankingsHandler(deps, maxLimit),
		runsHandler:     NewRunsHandler(deps),
		matchesHandler:  NewMatchesHandler(deps),
	}
}

// Router builds the chi router with all routes and middleware attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", MetricsMiddleware(handleHealth, "healthz"))
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	r.Get("/rankings/global", MetricsMiddleware(s.rankingsHandler.HandleGlobal, "rankings_global"))
	r.Get("/rankings/pools/{poolID}", MetricsMiddleware(s.rankingsHandler.HandlePool, "rankings_pool"))
	r.Get("/runs", MetricsMiddleware(s.runsHandler.HandleList, "runs"))
	r.Get("/matches/{matchID}", MetricsMiddleware(s.matchesHandler.HandleGet, "matches"))

	swagger.Register(r)

	return r
}

// handleHealth handles GET /healthz requests.
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
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
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
