package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound = errors.New("match not found")
	// ErrConflict: a conditional update lost a race against a concurrent
	// writer. Safe to retry once within the same run.
	ErrConflict = errors.New("concurrent update conflict")
)
