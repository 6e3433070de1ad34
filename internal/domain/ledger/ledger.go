// Package ledger tracks what each verification run did per match and guards
// scoring idempotency across overlapping schedule cadences.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/okian/golazo/internal/domain/model"
)

// Ledger is the single source of truth preventing duplicate scoring.
type Ledger interface {
	// ScoredAndMark atomically checks whether the (matchID, epoch) pair was
	// already scored and marks it if not. Returns true if it was already
	// scored, false if it was newly marked. This is the ONLY method two
	// concurrent runs may race on; the check and the set are one operation.
	ScoredAndMark(ctx context.Context, matchID string, epoch int) (bool, error)

	// Unmark removes a scored mark, allowing a retry. Only used when a
	// mark was taken but persisting the point values failed; the scoring
	// function is pure, so a retry reproduces identical values.
	Unmark(ctx context.Context, matchID string, epoch int) error

	// AlreadyScored reports whether the pair carries a scored mark.
	AlreadyScored(ctx context.Context, matchID string, epoch int) (bool, error)

	// Record appends one audit entry. Entries are never mutated.
	Record(ctx context.Context, rec model.RunRecord) error

	// RecordsByMatch returns all entries for a match, oldest first.
	RecordsByMatch(ctx context.Context, matchID string) ([]model.RunRecord, error)

	// RecordsBetween returns entries with Timestamp in [from, to], oldest first.
	RecordsBetween(ctx context.Context, from, to time.Time) ([]model.RunRecord, error)
}

// markKey identifies one finalization epoch of one match.
type markKey struct {
	matchID string
	epoch   int
}

// inMemoryLedger implements Ledger with a mutex-guarded mark set and a
// bounded append-only record log (oldest entries dropped past maxRecords).
type inMemoryLedger struct {
	mu         sync.RWMutex
	marks      map[markKey]struct{}
	records    []model.RunRecord
	maxRecords int
}

// NewInMemoryLedger creates a new in-memory ledger with configuration options.
func NewInMemoryLedger(opts ...Option) Ledger {
	l := &inMemoryLedger{
		maxRecords: 100_000, // default record log bound
	}

	// Apply all options
	for _, opt := range opts {
		opt(l)
	}

	l.marks = make(map[markKey]struct{})
	return l
}

// ScoredAndMark atomically checks and marks one (matchID, epoch) pair.
func (l *inMemoryLedger) ScoredAndMark(_ context.Context, matchID string, epoch int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := markKey{matchID: matchID, epoch: epoch}
	if _, ok := l.marks[key]; ok {
		return true, nil
	}
	l.marks[key] = struct{}{}
	return false, nil
}

// Unmark removes a scored mark so a failed scoring attempt can retry.
func (l *inMemoryLedger) Unmark(_ context.Context, matchID string, epoch int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.marks, markKey{matchID: matchID, epoch: epoch})
	return nil
}

// AlreadyScored reports whether the pair carries a scored mark.
func (l *inMemoryLedger) AlreadyScored(_ context.Context, matchID string, epoch int) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.marks[markKey{matchID: matchID, epoch: epoch}]
	return ok, nil
}

// Record appends one audit entry, evicting the oldest past the bound.
func (l *inMemoryLedger) Record(_ context.Context, rec model.RunRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, rec)
	if l.maxRecords > 0 && len(l.records) > l.maxRecords {
		overflow := len(l.records) - l.maxRecords
		l.records = append([]model.RunRecord(nil), l.records[overflow:]...)
	}
	return nil
}

// RecordsByMatch returns all entries for a match, oldest first.
func (l *inMemoryLedger) RecordsByMatch(_ context.Context, matchID string) ([]model.RunRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []model.RunRecord
	for _, rec := range l.records {
		if rec.MatchID == matchID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// RecordsBetween returns entries with Timestamp in [from, to], oldest first.
func (l *inMemoryLedger) RecordsBetween(_ context.Context, from, to time.Time) ([]model.RunRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []model.RunRecord
	for _, rec := range l.records {
		if !rec.Timestamp.Before(from) && !rec.Timestamp.After(to) {
			out = append(out, rec)
		}
	}
	return out, nil
}
