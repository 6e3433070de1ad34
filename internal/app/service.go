// Package service bundles the read-side dependencies required by the HTTP
// API: match lookups, the run audit trail, and cached ranking views.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/golazo/internal/adapters/ranking"
	"github.com/okian/golazo/internal/adapters/repository"
	"github.com/okian/golazo/internal/domain/ledger"
	"github.com/okian/golazo/internal/domain/model"
	"github.com/okian/golazo/internal/domain/types"
)

// Service implements the API dependencies for the verification system.
type Service struct {
	store    repository.Store
	ledger   ledger.Ledger
	rankings *ranking.Aggregator
}

// New creates a service over a store, ledger and ranking aggregator.
func New(store repository.Store, led ledger.Ledger, rankings *ranking.Aggregator) *Service {
	return &Service{
		store:    store,
		ledger:   led,
		rankings: rankings,
	}
}

// RankingView returns the ranked view for a scope, cached under its TTL.
func (s *Service) RankingView(ctx context.Context, scope types.Scope) (types.View, error) {
	view, err := s.rankings.View(ctx, scope)
	if err != nil {
		return types.View{}, fmt.Errorf("ranking view: %w", err)
	}
	return view, nil
}

// RunsByMatch returns the audit trail for one match, oldest first.
func (s *Service) RunsByMatch(ctx context.Context, matchID string) ([]model.RunRecord, error) {
	records, err := s.ledger.RecordsByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("runs by match: %w", err)
	}
	return records, nil
}

// RunsBetween returns run records inside a time window, oldest first.
func (s *Service) RunsBetween(ctx context.Context, from, to time.Time) ([]model.RunRecord, error) {
	records, err := s.ledger.RecordsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("runs between: %w", err)
	}
	return records, nil
}

// Match returns one match by id.
func (s *Service) Match(ctx context.Context, id string) (model.Match, error) {
	m, err := s.store.Match(ctx, id)
	if err != nil {
		return model.Match{}, fmt.Errorf("match lookup: %w", err)
	}
	return m, nil
}
