package provider

import "errors"

// Sentinel kinds for provider errors. Each maps to a distinct, loggable
// run-report category; none of them is ever fatal to a run.
var (
	// ErrNotYetAvailable: the provider has no result for the match yet.
	ErrNotYetAvailable = errors.New("result not yet available")
	// ErrRateLimited: the provider throttled the request.
	ErrRateLimited = errors.New("provider rate limited")
	// ErrTimeout: the bounded request deadline elapsed.
	ErrTimeout = errors.New("provider request timed out")
	// ErrPartialData: the snapshot is missing fields its phase requires.
	ErrPartialData = errors.New("provider returned partial data")
	// ErrInvalidData: the snapshot is malformed (unknown phase, bad score).
	ErrInvalidData = errors.New("provider returned invalid data")
	// ErrUnavailable: transport failure or provider-side error.
	ErrUnavailable = errors.New("provider unavailable")
)

func isErr(err, target error) bool {
	return errors.Is(err, target)
}
