package provider

import (
	"context"
	"sync"
	"time"

	"github.com/okian/golazo/internal/domain/model"
)

// Scripted is an in-memory ResultProvider driven by preloaded snapshots and
// errors. Used by tests and local dry runs; never by production wiring.
type Scripted struct {
	mu       sync.Mutex
	outcomes map[string]model.Outcome
	failures map[string]error
	calls    map[string]int
}

// NewScripted creates an empty scripted provider.
func NewScripted() *Scripted {
	return &Scripted{
		outcomes: make(map[string]model.Outcome),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// SetOutcome scripts the snapshot returned for a match.
func (s *Scripted) SetOutcome(o model.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[o.MatchID] = o
	delete(s.failures, o.MatchID)
}

// SetError scripts a failure for a match.
func (s *Scripted) SetError(matchID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[matchID] = err
	delete(s.outcomes, matchID)
}

// Calls returns how many times a match was fetched.
func (s *Scripted) Calls(matchID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[matchID]
}

// FetchOutcome returns the scripted snapshot or error for the match;
// unscripted matches report ErrNotYetAvailable.
func (s *Scripted) FetchOutcome(_ context.Context, matchID string, _ time.Time) (model.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[matchID]++
	if err, ok := s.failures[matchID]; ok {
		return model.Outcome{}, err
	}
	if o, ok := s.outcomes[matchID]; ok {
		return o, nil
	}
	return model.Outcome{}, ErrNotYetAvailable
}
