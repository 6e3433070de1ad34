package sim

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/golazo/internal/domain/model"
	"github.com/okian/golazo/pkg/logger"
)

// Server serves the provider HTTP contract over a fixture list.
type Server struct {
	fixtures map[string]Fixture
	// errorEveryN injects a 500 on every Nth result request; zero disables.
	errorEveryN int
	requests    atomic.Int64
	log         logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithErrorEveryN injects a server error on every Nth result request,
// exercising client retry paths. Zero disables injection.
func WithErrorEveryN(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.errorEveryN = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// NewServer creates a simulator over a fixture list.
func NewServer(fixtures []Fixture, opts ...Option) *Server {
	s := &Server{
		fixtures: make(map[string]Fixture, len(fixtures)),
		log:      logger.Get(),
	}
	for _, f := range fixtures {
		s.fixtures[f.ID] = f
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Router builds the provider-contract routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/matches", s.handleList)
	r.Get("/matches/{matchID}/result", s.handleResult)
	return r
}

// fixtureSummary is the list shape consumed by seeding scripts.
type fixtureSummary struct {
	ID        string    `json:"id"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	KickoffAt time.Time `json:"kickoff_at"`
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	out := make([]fixtureSummary, 0, len(s.fixtures))
	for _, f := range s.fixtures {
		out = append(out, fixtureSummary{
			ID:        f.ID,
			HomeTeam:  f.HomeTeam,
			AwayTeam:  f.AwayTeam,
			KickoffAt: f.KickoffAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// resultResponse mirrors the provider wire format.
type resultResponse struct {
	MatchID   string    `json:"match_id"`
	Phase     string    `json:"phase"`
	HomeGoals *int      `json:"home_goals,omitempty"`
	AwayGoals *int      `json:"away_goals,omitempty"`
	Corrected bool      `json:"corrected,omitempty"`
	AsOf      time.Time `json:"as_of"`
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	n := s.requests.Add(1)
	if s.errorEveryN > 0 && n%int64(s.errorEveryN) == 0 {
		http.Error(w, "injected failure", http.StatusInternalServerError)
		return
	}

	f, ok := s.fixtures[chi.URLParam(r, "matchID")]
	if !ok {
		http.NotFound(w, r)
		return
	}

	asOf := time.Now()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			asOf = parsed
		}
	}

	outcome, ok := f.OutcomeAt(asOf)
	if !ok {
		// No result before kickoff; clients treat 404 as not-yet-available.
		http.NotFound(w, r)
		return
	}

	resp := resultResponse{
		MatchID:   outcome.MatchID,
		Phase:     string(outcome.Phase),
		Corrected: outcome.Corrected,
		AsOf:      outcome.AsOf,
	}
	if outcome.Score != nil {
		resp.HomeGoals = &outcome.Score.Home
		resp.AwayGoals = &outcome.Score.Away
	}
	writeJSON(w, http.StatusOK, resp)
}

// Matches converts the fixtures into store-ready matches, all Scheduled.
// Used to seed a store so the verifier has candidates to work.
func (s *Server) Matches() []model.Match {
	out := make([]model.Match, 0, len(s.fixtures))
	for _, f := range s.fixtures {
		out = append(out, model.Match{
			ID:        f.ID,
			HomeTeam:  f.HomeTeam,
			AwayTeam:  f.AwayTeam,
			KickoffAt: f.KickoffAt,
			State:     model.StateScheduled,
		})
	}
	return out
}

// Serve runs the simulator until the context is canceled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info(ctx, "result simulator listening",
		logger.String("addr", addr),
		logger.Int("fixtures", len(s.fixtures)))

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
