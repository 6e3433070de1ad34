// Package sim simulates an upstream result provider for local development
// and load testing. It generates a fixture list and serves each match's
// lifecycle over the provider HTTP contract, driven by wall-clock time:
// nothing before kickoff, live snapshots during play, a final score after
// full time, and optional corrections afterwards.
package sim

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/okian/golazo/internal/domain/model"
)

// Timeline offsets from kickoff, in simulated minutes.
const (
	halfTimeStart  = 45
	halfTimeEnd    = 60
	fullTime       = 105
	correctionLag  = 30 // minutes after full time before a correction lands
	maxGoalsPerEnd = 4
)

var teamPool = []string{
	"ARG", "BRA", "FRA", "GER", "ITA", "ESP", "ENG", "NED",
	"POR", "URU", "MEX", "USA", "JPN", "KOR", "MAR", "CRO",
}

// Fixture is one simulated match and its scripted result.
type Fixture struct {
	ID        string
	HomeTeam  string
	AwayTeam  string
	KickoffAt time.Time

	Final     model.Score
	HalfScore model.Score

	// Suspended fixtures abandon play mid-match and never finish.
	Suspended bool
	// Corrected fixtures revise the final score correctionLag minutes
	// after full time.
	Corrected      bool
	CorrectedFinal model.Score
}

// randomInt returns a uniform int in [0, n) using crypto/rand.
func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// Generate builds a fixture list spread around a reference time: some
// finished, some in play, some yet to kick off.
func Generate(count int, now time.Time, suspendedPct, correctedPct int) []Fixture {
	fixtures := make([]Fixture, count)
	for i := range fixtures {
		home := teamPool[randomInt(len(teamPool))]
		away := teamPool[randomInt(len(teamPool))]
		for away == home {
			away = teamPool[randomInt(len(teamPool))]
		}

		final := model.Score{
			Home: randomInt(maxGoalsPerEnd + 1),
			Away: randomInt(maxGoalsPerEnd + 1),
		}
		half := model.Score{
			Home: randomInt(final.Home + 1),
			Away: randomInt(final.Away + 1),
		}

		// Spread kickoffs from 4 hours in the past to 2 hours ahead.
		offset := time.Duration(randomInt(360)-240) * time.Minute

		f := Fixture{
			ID:        uuid.New().String(),
			HomeTeam:  home,
			AwayTeam:  away,
			KickoffAt: now.Add(offset),
			Final:     final,
			HalfScore: half,
			Suspended: randomInt(100) < suspendedPct,
		}
		if !f.Suspended && randomInt(100) < correctedPct {
			f.Corrected = true
			f.CorrectedFinal = model.Score{
				Home: final.Home,
				Away: final.Away + 1,
			}
		}
		fixtures[i] = f
	}
	return fixtures
}

// OutcomeAt computes the fixture's provider snapshot as of a given time.
// Returns ok=false while no result exists yet (before kickoff).
func (f Fixture) OutcomeAt(asOf time.Time) (model.Outcome, bool) {
	if asOf.Before(f.KickoffAt) {
		return model.Outcome{}, false
	}

	minute := int(asOf.Sub(f.KickoffAt) / time.Minute)
	out := model.Outcome{MatchID: f.ID, AsOf: asOf}

	if f.Suspended && minute >= halfTimeStart {
		out.Phase = model.PhaseSuspended
		sc := f.HalfScore
		out.Score = &sc
		return out, true
	}

	switch {
	case minute < halfTimeStart:
		out.Phase = model.PhaseLive
		sc := f.liveScore(minute)
		out.Score = &sc
	case minute < halfTimeEnd:
		out.Phase = model.PhaseHalf
		sc := f.HalfScore
		out.Score = &sc
	case minute < fullTime:
		out.Phase = model.PhaseLive
		sc := f.liveScore(minute)
		out.Score = &sc
	default:
		out.Phase = model.PhaseFinished
		sc := f.Final
		if f.Corrected && minute >= fullTime+correctionLag {
			sc = f.CorrectedFinal
			out.Corrected = true
		}
		out.Score = &sc
	}
	return out, true
}

// liveScore interpolates the running score: the half-time score accrues over
// the first half, the rest over the second.
func (f Fixture) liveScore(minute int) model.Score {
	if minute < halfTimeStart {
		frac := float64(minute) / float64(halfTimeStart)
		return model.Score{
			Home: int(float64(f.HalfScore.Home) * frac),
			Away: int(float64(f.HalfScore.Away) * frac),
		}
	}
	played := float64(minute-halfTimeEnd) / float64(fullTime-halfTimeEnd)
	return model.Score{
		Home: f.HalfScore.Home + int(float64(f.Final.Home-f.HalfScore.Home)*played),
		Away: f.HalfScore.Away + int(float64(f.Final.Away-f.HalfScore.Away)*played),
	}
}

// String renders a short fixture description for logs.
func (f Fixture) String() string {
	return fmt.Sprintf("%s %s-%s %s", f.ID[:8], f.HomeTeam, f.AwayTeam, f.Final)
}
