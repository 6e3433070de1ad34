package model

import "time"

// Disposition classifies what a verification run did with one match.
type Disposition string

const (
	// DispositionNoOp: nothing to apply (not started, no new data, or
	// already scored for the current epoch).
	DispositionNoOp Disposition = "no_op"
	// DispositionTransitioned: lifecycle state advanced without scoring.
	DispositionTransitioned Disposition = "transitioned"
	// DispositionScored: the match finalized and its bets were scored.
	DispositionScored Disposition = "scored"
	// DispositionFailed: provider or persistence error; retried on the
	// next cadence.
	DispositionFailed Disposition = "failed"
)

// RunRecord is one append-only audit entry: what one run did with one match.
// Never mutated, only appended.
type RunRecord struct {
	RunID       string      `json:"run_id"`
	MatchID     string      `json:"match_id"`
	Epoch       int         `json:"epoch,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
	Disposition Disposition `json:"disposition"`
	Detail      string      `json:"detail,omitempty"` // error detail when failed
}
