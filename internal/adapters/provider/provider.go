// Package provider defines the contract for fetching authoritative match
// outcomes from an external result source.
//
// Implementations are read-only against the provider and safe to call
// repeatedly; every call carries a bounded timeout, and a timeout surfaces
// as ErrTimeout, never as a not-yet-available result.
package provider

import (
	"context"
	"time"

	"github.com/okian/golazo/internal/domain/model"
)

// ResultProvider fetches the outcome snapshot for one match.
type ResultProvider interface {
	// FetchOutcome returns the provider's snapshot for matchID as of the
	// given time. Absence of a result is signaled with ErrNotYetAvailable;
	// transport and data problems map onto the sentinel errors in this
	// package.
	FetchOutcome(ctx context.Context, matchID string, asOf time.Time) (model.Outcome, error)
}

// Categorize maps a provider error to its run-report category label.
// A nil error categorizes as "ok".
func Categorize(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isErr(err, ErrNotYetAvailable):
		return "not_yet_available"
	case isErr(err, ErrRateLimited):
		return "rate_limited"
	case isErr(err, ErrTimeout):
		return "timeout"
	case isErr(err, ErrPartialData):
		return "partial_data"
	case isErr(err, ErrInvalidData):
		return "invalid"
	default:
		return "unavailable"
	}
}
