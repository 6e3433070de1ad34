// Package scoring computes bet point values from predicted and actual scores.
//
// The rule is a pure, total function over non-negative score pairs: an exact
// prediction earns PointsExact, a correct outcome direction (home win, draw,
// away win) earns PointsDirection, anything else earns PointsMiss. It has no
// error path and no shared state, so it yields identical values no matter
// which run, tool, or ordering invokes it.
package scoring

import (
	"github.com/okian/golazo/internal/domain/model"
)

// Point values per prediction quality.
const (
	PointsExact     = 3
	PointsDirection = 1
	PointsMiss      = 0
)

// direction reduces a score to its outcome sign: +1 home win, 0 draw, -1 away win.
func direction(s model.Score) int {
	switch {
	case s.Home > s.Away:
		return 1
	case s.Home < s.Away:
		return -1
	default:
		return 0
	}
}

// Points returns the point value of one prediction against the actual score.
func Points(predicted, actual model.Score) int {
	if predicted == actual {
		return PointsExact
	}
	if direction(predicted) == direction(actual) {
		return PointsDirection
	}
	return PointsMiss
}

// BetPoints pairs a bet with its computed point value.
type BetPoints struct {
	BetID         string
	ParticipantID string
	PoolID        string
	Points        int
}

// ScoreBets computes point values for every bet on a finalized match.
// Bets are independent; the result is invariant to their order.
func ScoreBets(bets []model.Bet, actual model.Score) []BetPoints {
	out := make([]BetPoints, len(bets))
	for i, b := range bets {
		out[i] = BetPoints{
			BetID:         b.ID,
			ParticipantID: b.ParticipantID,
			PoolID:        b.PoolID,
			Points:        Points(b.Predicted, actual),
		}
	}
	return out
}
