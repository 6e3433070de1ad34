package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/golazo/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func scheduledMatch() *model.Match {
	return &model.Match{
		ID:        "m-1",
		HomeTeam:  "t-home",
		AwayTeam:  "t-away",
		KickoffAt: time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC),
		State:     model.StateScheduled,
	}
}

func TestMatchApply(t *testing.T) {
	now := time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)

	Convey("Given a scheduled match", t, func() {
		m := scheduledMatch()

		Convey("When a live snapshot arrives", func() {
			applied, err := m.Apply(model.Outcome{MatchID: m.ID, Phase: model.PhaseLive, Score: &model.Score{Home: 1, Away: 0}}, now)

			Convey("Then the match should move to in progress with the score", func() {
				So(err, ShouldBeNil)
				So(applied.Changed, ShouldBeTrue)
				So(applied.Finalized, ShouldBeFalse)
				So(m.State, ShouldEqual, model.StateInProgress)
				So(*m.Score, ShouldResemble, model.Score{Home: 1, Away: 0})
				So(m.UpdatedAt, ShouldEqual, now)
			})
		})

		Convey("When the same scheduled snapshot repeats", func() {
			applied, err := m.Apply(model.Outcome{MatchID: m.ID, Phase: model.PhaseScheduled}, now)

			Convey("Then nothing should change", func() {
				So(err, ShouldBeNil)
				So(applied.Changed, ShouldBeFalse)
				So(m.State, ShouldEqual, model.StateScheduled)
			})
		})

		Convey("When a finished snapshot arrives directly", func() {
			applied, err := m.Apply(model.Outcome{MatchID: m.ID, Phase: model.PhaseFinished, Score: &model.Score{Home: 2, Away: 1}}, now)

			Convey("Then the match should finalize with epoch 1", func() {
				So(err, ShouldBeNil)
				So(applied.Finalized, ShouldBeTrue)
				So(m.State, ShouldEqual, model.StateFinished)
				So(m.FinalizationEpoch, ShouldEqual, 1)
			})
		})

		Convey("When a suspension arrives", func() {
			applied, err := m.Apply(model.Outcome{MatchID: m.ID, Phase: model.PhaseSuspended}, now)

			Convey("Then the match should be terminal without scoring", func() {
				So(err, ShouldBeNil)
				So(applied.Changed, ShouldBeTrue)
				So(applied.Finalized, ShouldBeFalse)
				So(m.State, ShouldEqual, model.StateSuspended)
				So(m.State.Terminal(), ShouldBeTrue)
			})
		})

		Convey("When the snapshot carries an unknown phase", func() {
			_, err := m.Apply(model.Outcome{MatchID: m.ID, Phase: "overtime"}, now)

			Convey("Then it should be rejected as invalid", func() {
				So(errors.Is(err, model.ErrInvalidOutcome), ShouldBeTrue)
				So(m.State, ShouldEqual, model.StateScheduled)
			})
		})

		Convey("When a finished snapshot has no score", func() {
			_, err := m.Apply(model.Outcome{MatchID: m.ID, Phase: model.PhaseFinished}, now)

			Convey("Then it should be rejected as invalid", func() {
				So(errors.Is(err, model.ErrInvalidOutcome), ShouldBeTrue)
			})
		})
	})

	Convey("Given a match in progress", t, func() {
		m := scheduledMatch()
		_, err := m.Apply(model.Outcome{MatchID: m.ID, Phase: model.PhaseLive, Score: &model.Score{Home: 0, Away: 0}}, now)
		So(err, ShouldBeNil)

		Convey("When half time comes and goes", func() {
			applied, err := m.Apply(model.Outcome{MatchID: m.ID, Phase: model.PhaseHalf, Score: &model.Score{Home: 1, Away: 1}}, now)
			So(err, ShouldBeNil)
			So(applied.Changed, ShouldBeTrue)
			So(m.State, ShouldEqual, model.StateHalfTime)

			applied, err = m.Apply(model.Outcome{MatchID: m.ID, Phase: model.PhaseLive, Score: &model.Score{Home: 1, Away: 1}}, now)

			Convey("Then the match should oscillate back to in progress", func() {
				So(err, ShouldBeNil)
				So(applied.Changed, ShouldBeTrue)
				So(m.State, ShouldEqual, model.StateInProgress)
			})
		})
	})

	Convey("Given a finished match", t, func() {
		m := scheduledMatch()
		_, err := m.Apply(model.Outcome{MatchID: m.ID, Phase: model.PhaseFinished, Score: &model.Score{Home: 2, Away: 1}}, now)
		So(err, ShouldBeNil)
		So(m.FinalizationEpoch, ShouldEqual, 1)

		Convey("When the identical finished snapshot repeats", func() {
			applied, err := m.Apply(model.Outcome{MatchID: m.ID, Phase: model.PhaseFinished, Score: &model.Score{Home: 2, Away: 1}}, now)

			Convey("Then it should be an accepted no-op", func() {
				So(err, ShouldBeNil)
				So(applied.Changed, ShouldBeFalse)
				So(m.FinalizationEpoch, ShouldEqual, 1)
			})
		})

		Convey("When a live snapshot tries to reopen the match", func() {
			_, err := m.Apply(model.Outcome{MatchID: m.ID, Phase: model.PhaseLive, Score: &model.Score{Home: 2, Away: 2}}, now)

			Convey("Then it should be rejected as a backward transition", func() {
				So(errors.Is(err, model.ErrBackwardTransition), ShouldBeTrue)
				So(m.State, ShouldEqual, model.StateFinished)
				So(*m.Score, ShouldResemble, model.Score{Home: 2, Away: 1})
			})
		})

		Convey("When a different score arrives without the correction marker", func() {
			_, err := m.Apply(model.Outcome{MatchID: m.ID, Phase: model.PhaseFinished, Score: &model.Score{Home: 3, Away: 1}}, now)

			Convey("Then it should be rejected and the score kept", func() {
				So(errors.Is(err, model.ErrBackwardTransition), ShouldBeTrue)
				So(*m.Score, ShouldResemble, model.Score{Home: 2, Away: 1})
				So(m.FinalizationEpoch, ShouldEqual, 1)
			})
		})

		Convey("When an explicit correction revises the score", func() {
			applied, err := m.Apply(model.Outcome{
				MatchID:   m.ID,
				Phase:     model.PhaseFinished,
				Score:     &model.Score{Home: 2, Away: 2},
				Corrected: true,
			}, now)

			Convey("Then a new finalization epoch should open", func() {
				So(err, ShouldBeNil)
				So(applied.Corrected, ShouldBeTrue)
				So(applied.Finalized, ShouldBeTrue)
				So(*m.Score, ShouldResemble, model.Score{Home: 2, Away: 2})
				So(m.FinalizationEpoch, ShouldEqual, 2)
			})
		})
	})

	Convey("Given a suspended match", t, func() {
		m := scheduledMatch()
		_, err := m.Apply(model.Outcome{MatchID: m.ID, Phase: model.PhaseSuspended}, now)
		So(err, ShouldBeNil)

		Convey("When a correction tries to finish it", func() {
			_, err := m.Apply(model.Outcome{
				MatchID:   m.ID,
				Phase:     model.PhaseFinished,
				Score:     &model.Score{Home: 1, Away: 0},
				Corrected: true,
			}, now)

			Convey("Then it should be rejected; corrections only revise finished results", func() {
				So(errors.Is(err, model.ErrBackwardTransition), ShouldBeTrue)
				So(m.State, ShouldEqual, model.StateSuspended)
			})
		})
	})
}
