// Package repository defines the match/bet store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/okian/golazo/internal/domain/model"
	"github.com/okian/golazo/internal/domain/scoring"
	"github.com/okian/golazo/internal/domain/types"
)

// Store provides read/write access to matches, bets and pools. It is the
// single writer target of the pipeline; state transitions are conditional so
// overlapping cadences cannot clobber each other's updates.
type Store interface {
	// Match returns one match by id. Returns ErrNotFound if unknown.
	Match(ctx context.Context, id string) (model.Match, error)

	// CandidatesBetween returns matches scheduled to kick off within
	// [from, to] that are either non-terminal or Finished. The caller
	// filters Finished matches against the ledger; Suspended matches
	// never need scoring and are excluded.
	CandidatesBetween(ctx context.Context, from, to time.Time) ([]model.Match, error)

	// UnscoredFinished returns Finished matches with kickoff before the
	// given time whose current finalization epoch has not been scored.
	// Complements CandidatesBetween: a late result or a failed scoring
	// persist stays selectable after its kickoff ages out of the window.
	UnscoredFinished(ctx context.Context, before time.Time) ([]model.Match, error)

	// UpdateMatch persists a mutated match only if the stored state still
	// equals expect. Returns ErrConflict when a concurrent writer won.
	UpdateMatch(ctx context.Context, m model.Match, expect model.State) error

	// BetsByMatch returns all bets placed against one match.
	BetsByMatch(ctx context.Context, matchID string) ([]model.Bet, error)

	// ApplyPoints writes computed point values for a match's bets under
	// the given finalization epoch. Point values are overwritten, never
	// accumulated, so a retry after partial failure converges.
	ApplyPoints(ctx context.Context, matchID string, epoch int, points []scoring.BetPoints) error

	// PoolsByMatch returns the distinct pool ids with bets on the match.
	PoolsByMatch(ctx context.Context, matchID string) ([]string, error)

	// AggregatePoints sums point values per participant within a scope.
	// O(bets in scope); entries come back unranked.
	AggregatePoints(ctx context.Context, scope types.Scope) ([]types.Entry, error)
}
