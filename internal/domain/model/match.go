// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// State is a match lifecycle state.
type State string

// Match lifecycle states. Finished and Suspended are terminal.
const (
	StateScheduled  State = "scheduled"
	StateInProgress State = "in_progress"
	StateHalfTime   State = "half_time"
	StateFinished   State = "finished"
	StateSuspended  State = "suspended"
)

// Terminal reports whether the state admits no further lifecycle transitions.
func (s State) Terminal() bool {
	return s == StateFinished || s == StateSuspended
}

// Phase is the lifecycle signal reported by the result provider.
// The provider is authoritative on phase; phases map 1:1 onto states.
type Phase string

const (
	PhaseScheduled Phase = "scheduled"
	PhaseLive      Phase = "live"
	PhaseHalf      Phase = "half"
	PhaseFinished  Phase = "finished"
	PhaseSuspended Phase = "suspended"
)

// State maps a provider phase to the match state it declares.
func (p Phase) State() (State, bool) {
	switch p {
	case PhaseScheduled:
		return StateScheduled, true
	case PhaseLive:
		return StateInProgress, true
	case PhaseHalf:
		return StateHalfTime, true
	case PhaseFinished:
		return StateFinished, true
	case PhaseSuspended:
		return StateSuspended, true
	default:
		return "", false
	}
}

// Score is a pair of non-negative goal counts.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Valid reports whether both counts are non-negative.
func (s Score) Valid() bool {
	return s.Home >= 0 && s.Away >= 0
}

func (s Score) String() string {
	return fmt.Sprintf("%d-%d", s.Home, s.Away)
}

// Outcome is one provider snapshot for a match.
type Outcome struct {
	MatchID string
	Phase   Phase
	Score   *Score // present when the signal carries one
	// Corrected marks an explicit provider-issued correction of a
	// terminal result. Only corrections may revise a Finished score.
	Corrected bool
	AsOf      time.Time
}

// Match is one scheduled sporting event. Mutated only through Apply.
type Match struct {
	ID        string     `json:"id"`
	HomeTeam  string     `json:"home_team"`
	AwayTeam  string     `json:"away_team"`
	KickoffAt time.Time  `json:"kickoff_at"`
	State     State      `json:"state"`
	Score     *Score     `json:"score,omitempty"` // set once finalized or live
	// FinalizationEpoch counts finalizations: 1 on the first transition to
	// Finished, incremented by each accepted correction. Zero means the
	// match has never finalized. Scoring is at-most-once per epoch.
	FinalizationEpoch int       `json:"finalization_epoch"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Applied describes the effect of applying an outcome snapshot.
type Applied struct {
	// Changed is true when state or score was modified.
	Changed bool
	// Finalized is true when this application opened a finalization epoch
	// that still needs scoring: the first entry into Finished, or an
	// accepted correction.
	Finalized bool
	// Corrected is true when a terminal score was revised.
	Corrected bool
}

// Apply validates an outcome snapshot against the state machine and mutates
// the match. The provider phase is applied directly; the score changes only
// when the snapshot carries one. Snapshots that would move the match
// backward from a terminal state are rejected with ErrBackwardTransition
// unless they carry the correction marker.
func (m *Match) Apply(o Outcome, now time.Time) (Applied, error) {
	target, ok := o.Phase.State()
	if !ok {
		return Applied{}, fmt.Errorf("%w: unknown phase %q", ErrInvalidOutcome, o.Phase)
	}
	if o.Score != nil && !o.Score.Valid() {
		return Applied{}, fmt.Errorf("%w: negative score %s", ErrInvalidOutcome, o.Score)
	}
	if target == StateFinished && o.Score == nil {
		return Applied{}, fmt.Errorf("%w: finished phase without score", ErrInvalidOutcome)
	}

	if m.State.Terminal() {
		return m.applyToTerminal(o, target, now)
	}

	var applied Applied
	if target != m.State {
		applied.Changed = true
	}
	if o.Score != nil && (m.Score == nil || *m.Score != *o.Score) {
		applied.Changed = true
	}
	if !applied.Changed {
		return Applied{}, nil
	}

	m.State = target
	if o.Score != nil {
		sc := *o.Score
		m.Score = &sc
	}
	if target == StateFinished {
		m.FinalizationEpoch++
		applied.Finalized = true
	}
	m.UpdatedAt = now
	return applied, nil
}

// applyToTerminal handles snapshots against Finished or Suspended matches.
// Only an explicit correction of a Finished result is accepted.
func (m *Match) applyToTerminal(o Outcome, target State, now time.Time) (Applied, error) {
	sameScore := o.Score == nil || (m.Score != nil && *m.Score == *o.Score)
	if target == m.State && sameScore {
		// Repeated identical snapshot; nothing to do.
		return Applied{}, nil
	}

	if !o.Corrected {
		return Applied{}, fmt.Errorf("%w: %s -> %s", ErrBackwardTransition, m.State, target)
	}
	if m.State != StateFinished || target != StateFinished {
		return Applied{}, fmt.Errorf("%w: correction only revises a finished result", ErrBackwardTransition)
	}

	sc := *o.Score
	m.Score = &sc
	m.FinalizationEpoch++
	m.UpdatedAt = now
	return Applied{Changed: true, Finalized: true, Corrected: true}, nil
}
