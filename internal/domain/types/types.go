// Package types contains common types used across the application
package types

import "time"

// ScopeKind distinguishes ranking view scopes.
type ScopeKind string

const (
	// ScopeGlobal ranks every participant across all pools.
	ScopeGlobal ScopeKind = "global"
	// ScopePool ranks the members of a single pool.
	ScopePool ScopeKind = "pool"
)

// Scope identifies one ranking view: the global board or a single pool.
type Scope struct {
	Kind   ScopeKind `json:"kind"`
	PoolID string    `json:"pool_id,omitempty"`
}

// GlobalScope returns the scope of the global ranking.
func GlobalScope() Scope {
	return Scope{Kind: ScopeGlobal}
}

// PoolScope returns the scope of a single pool's ranking.
func PoolScope(poolID string) Scope {
	return Scope{Kind: ScopePool, PoolID: poolID}
}

// Key returns a stable cache key for the scope.
func (s Scope) Key() string {
	if s.Kind == ScopePool {
		return "pool:" + s.PoolID
	}
	return "global"
}

// Entry represents one row of a ranking view.
type Entry struct {
	Rank          int    `json:"rank"`
	ParticipantID string `json:"participant_id"`
	Points        int    `json:"points"`
}

// View is a derived, cached ranking aggregate. It is reconstructible from
// bets at any time; Generation and ComputedAt stamp the cached copy.
type View struct {
	Scope      Scope     `json:"scope"`
	Entries    []Entry   `json:"entries"`
	Generation uint64    `json:"generation"`
	ComputedAt time.Time `json:"computed_at"`
}
