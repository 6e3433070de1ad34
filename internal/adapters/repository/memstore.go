package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/golazo/internal/domain/model"
	"github.com/okian/golazo/internal/domain/scoring"
	"github.com/okian/golazo/internal/domain/types"
)

// MemStore implements Store in memory. Used by tests and by deployments that
// have not wired Postgres; all methods are safe for concurrent callers.
type MemStore struct {
	mu          sync.RWMutex
	matches     map[string]model.Match
	bets        map[string]model.Bet
	betsByMatch map[string][]string
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		matches:     make(map[string]model.Match),
		bets:        make(map[string]model.Bet),
		betsByMatch: make(map[string][]string),
	}
}

// PutMatch inserts or replaces a match. Seed helper; not part of Store.
func (s *MemStore) PutMatch(m model.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = m
}

// PutBet inserts or replaces a bet. Seed helper; not part of Store.
func (s *MemStore) PutBet(b model.Bet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bets[b.ID]; !ok {
		s.betsByMatch[b.MatchID] = append(s.betsByMatch[b.MatchID], b.ID)
	}
	s.bets[b.ID] = b
}

// Match returns one match by id.
func (s *MemStore) Match(_ context.Context, id string) (model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[id]
	if !ok {
		return model.Match{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return m, nil
}

// CandidatesBetween returns non-terminal and Finished matches with kickoff
// inside [from, to].
func (s *MemStore) CandidatesBetween(_ context.Context, from, to time.Time) ([]model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Match
	for _, m := range s.matches {
		if m.KickoffAt.Before(from) || m.KickoffAt.After(to) {
			continue
		}
		if m.State == model.StateSuspended {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// UnscoredFinished returns Finished matches older than before whose bets do
// not carry points for the current finalization epoch. Matches without bets
// have nothing to score and are skipped.
func (s *MemStore) UnscoredFinished(_ context.Context, before time.Time) ([]model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Match
	for _, m := range s.matches {
		if m.State != model.StateFinished || !m.KickoffAt.Before(before) {
			continue
		}
		for _, id := range s.betsByMatch[m.ID] {
			if !s.bets[id].Scored(m.FinalizationEpoch) {
				out = append(out, m)
				break
			}
		}
	}
	return out, nil
}

// UpdateMatch persists m only while the stored state still equals expect.
func (s *MemStore) UpdateMatch(_ context.Context, m model.Match, expect model.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.matches[m.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, m.ID)
	}
	if current.State != expect {
		return fmt.Errorf("%w: match %s is %s, expected %s", ErrConflict, m.ID, current.State, expect)
	}
	s.matches[m.ID] = m
	return nil
}

// BetsByMatch returns all bets placed against one match.
func (s *MemStore) BetsByMatch(_ context.Context, matchID string) ([]model.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.betsByMatch[matchID]
	out := make([]model.Bet, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.bets[id])
	}
	return out, nil
}

// ApplyPoints overwrites point values for a match's bets under one epoch.
func (s *MemStore) ApplyPoints(_ context.Context, matchID string, epoch int, points []scoring.BetPoints) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, bp := range points {
		b, ok := s.bets[bp.BetID]
		if !ok || b.MatchID != matchID {
			return fmt.Errorf("%w: bet %s for match %s", ErrNotFound, bp.BetID, matchID)
		}
		pts := bp.Points
		b.Points = &pts
		b.ScoredEpoch = epoch
		s.bets[b.ID] = b
	}
	return nil
}

// PoolsByMatch returns the distinct pool ids with bets on the match.
func (s *MemStore) PoolsByMatch(_ context.Context, matchID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, id := range s.betsByMatch[matchID] {
		poolID := s.bets[id].PoolID
		if _, ok := seen[poolID]; ok {
			continue
		}
		seen[poolID] = struct{}{}
		out = append(out, poolID)
	}
	return out, nil
}

// AggregatePoints sums scored point values per participant within a scope.
func (s *MemStore) AggregatePoints(_ context.Context, scope types.Scope) ([]types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]int)
	for _, b := range s.bets {
		if scope.Kind == types.ScopePool && b.PoolID != scope.PoolID {
			continue
		}
		if _, ok := totals[b.ParticipantID]; !ok {
			totals[b.ParticipantID] = 0
		}
		if b.Points != nil {
			totals[b.ParticipantID] += *b.Points
		}
	}

	out := make([]types.Entry, 0, len(totals))
	for participantID, pts := range totals {
		out = append(out, types.Entry{ParticipantID: participantID, Points: pts})
	}
	return out, nil
}
