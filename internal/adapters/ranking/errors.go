package ranking

import "errors"

// Sentinel kinds for ranking errors.
var (
	// ErrSourceUnavailable: the backing aggregate query failed and no
	// cached view was available to serve instead.
	ErrSourceUnavailable = errors.New("ranking source unavailable")
)
