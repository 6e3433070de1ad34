package model

import "errors"

// Sentinel kinds for state machine errors.
var (
	// ErrInvalidOutcome marks a malformed provider snapshot; the match is
	// left unchanged and the snapshot is flagged for review.
	ErrInvalidOutcome = errors.New("invalid outcome")
	// ErrBackwardTransition marks a snapshot that would move a terminal
	// match backward without a correction marker. Logged, never fatal.
	ErrBackwardTransition = errors.New("backward transition from terminal state")
)
