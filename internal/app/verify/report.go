package verify

import (
	"fmt"
	"sync"
	"time"
)

// Report aggregates what one verification run did. It is the run's audit
// summary: per-disposition counts plus the provider error breakdown.
type Report struct {
	mu sync.Mutex

	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DryRun     bool      `json:"dry_run"`

	Candidates      int `json:"candidates"`
	NoOps           int `json:"no_ops"`
	Transitioned    int `json:"transitioned"`
	Scored          int `json:"scored"`
	Failed          int `json:"failed"`
	DuplicateSkips  int `json:"duplicate_skips"`
	DeadlineSkipped int `json:"deadline_skipped"`
	BetsScored      int `json:"bets_scored"`

	// ProviderErrors counts failures by category (timeout, rate_limited,
	// unavailable, ...). Not-yet-available responses are dispositions, not
	// errors, and never appear here.
	ProviderErrors map[string]int `json:"provider_errors,omitempty"`
}

func newReport(runID string, startedAt time.Time, dryRun bool) *Report {
	return &Report{
		RunID:          runID,
		StartedAt:      startedAt,
		DryRun:         dryRun,
		ProviderErrors: make(map[string]int),
	}
}

func (r *Report) addNoOp() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.NoOps++
}

func (r *Report) addTransitioned() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Transitioned++
}

func (r *Report) addScored(bets int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Scored++
	r.BetsScored += bets
}

func (r *Report) addFailed(category string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failed++
	if category != "" {
		r.ProviderErrors[category]++
	}
}

func (r *Report) addDuplicateSkip() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.NoOps++
	r.DuplicateSkips++
}

func (r *Report) addDeadlineSkipped(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.DeadlineSkipped += n
}

// Attempted returns how many candidates were actually processed.
func (r *Report) Attempted() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.NoOps + r.Transitioned + r.Scored + r.Failed
}

// Systemic reports whether the run failed wholesale: every match it managed
// to attempt came back failed. Individual failures are expected and retried
// on the next cadence; a fully failed run signals an environment problem.
func (r *Report) Systemic() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	attempted := r.NoOps + r.Transitioned + r.Scored + r.Failed
	return attempted > 0 && r.Failed == attempted
}

// Summary renders a one-line human summary for CLI output.
func (r *Report) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	label := "run"
	if r.DryRun {
		label = "dry run"
	}
	return fmt.Sprintf(
		"%s %s: %d candidates, %d no-op (%d duplicate), %d transitioned, %d scored (%d bets), %d failed, %d deadline-skipped in %s",
		label, r.RunID, r.Candidates, r.NoOps, r.DuplicateSkips,
		r.Transitioned, r.Scored, r.BetsScored, r.Failed, r.DeadlineSkipped,
		r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
	)
}
