package model

import "time"

// Bet is one participant's score prediction against a match, within a pool.
// Created by the betting flow; its point value is written exactly once per
// finalization epoch by the scoring engine.
type Bet struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participant_id"`
	MatchID       string    `json:"match_id"`
	PoolID        string    `json:"pool_id"`
	Predicted     Score     `json:"predicted"`
	// Points is nil until the match finalizes. ScoredEpoch records the
	// finalization epoch whose scoring produced Points; a correction
	// bumps the match epoch and the re-score overwrites both.
	Points      *int      `json:"points,omitempty"`
	ScoredEpoch int       `json:"scored_epoch,omitempty"`
	PlacedAt    time.Time `json:"placed_at"`
}

// Scored reports whether the bet carries a point value for the given epoch.
func (b Bet) Scored(epoch int) bool {
	return b.Points != nil && b.ScoredEpoch == epoch
}

// Pool groups participants betting against a shared set of matches.
type Pool struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
