package sim_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/golazo/internal/adapters/provider"
	"github.com/okian/golazo/internal/domain/model"
	"github.com/okian/golazo/internal/sim"
	"github.com/okian/golazo/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var kickoff = time.Date(2026, 6, 11, 18, 0, 0, 0, time.UTC)

func fixture() sim.Fixture {
	return sim.Fixture{
		ID:        "f-1",
		HomeTeam:  "ARG",
		AwayTeam:  "FRA",
		KickoffAt: kickoff,
		Final:     model.Score{Home: 3, Away: 1},
		HalfScore: model.Score{Home: 1, Away: 0},
	}
}

func TestFixtureTimeline(t *testing.T) {
	Convey("Given a scripted fixture", t, func() {
		f := fixture()

		Convey("Before kickoff there is no outcome", func() {
			_, ok := f.OutcomeAt(kickoff.Add(-time.Minute))
			So(ok, ShouldBeFalse)
		})

		Convey("During the first half the match is live", func() {
			out, ok := f.OutcomeAt(kickoff.Add(20 * time.Minute))
			So(ok, ShouldBeTrue)
			So(out.Phase, ShouldEqual, model.PhaseLive)
			So(out.Score, ShouldNotBeNil)
		})

		Convey("At the interval the phase is half with the half score", func() {
			out, ok := f.OutcomeAt(kickoff.Add(50 * time.Minute))
			So(ok, ShouldBeTrue)
			So(out.Phase, ShouldEqual, model.PhaseHalf)
			So(*out.Score, ShouldResemble, model.Score{Home: 1, Away: 0})
		})

		Convey("After full time the match is finished with the final score", func() {
			out, ok := f.OutcomeAt(kickoff.Add(3 * time.Hour))
			So(ok, ShouldBeTrue)
			So(out.Phase, ShouldEqual, model.PhaseFinished)
			So(*out.Score, ShouldResemble, model.Score{Home: 3, Away: 1})
			So(out.Corrected, ShouldBeFalse)
		})

		Convey("A corrected fixture revises the score after the lag", func() {
			f.Corrected = true
			f.CorrectedFinal = model.Score{Home: 3, Away: 2}

			early, _ := f.OutcomeAt(kickoff.Add(110 * time.Minute))
			So(early.Corrected, ShouldBeFalse)

			late, _ := f.OutcomeAt(kickoff.Add(4 * time.Hour))
			So(late.Corrected, ShouldBeTrue)
			So(*late.Score, ShouldResemble, model.Score{Home: 3, Away: 2})
		})

		Convey("A suspended fixture abandons play and never finishes", func() {
			f.Suspended = true
			out, _ := f.OutcomeAt(kickoff.Add(6 * time.Hour))
			So(out.Phase, ShouldEqual, model.PhaseSuspended)
		})
	})
}

func TestGenerate(t *testing.T) {
	Convey("Given a generated fixture list", t, func() {
		now := time.Now()
		fixtures := sim.Generate(50, now, 0, 0)

		Convey("Then every fixture is well formed", func() {
			seen := make(map[string]bool)
			for _, f := range fixtures {
				So(f.ID, ShouldNotBeEmpty)
				So(seen[f.ID], ShouldBeFalse)
				seen[f.ID] = true
				So(f.HomeTeam, ShouldNotEqual, f.AwayTeam)
				So(f.Final.Valid(), ShouldBeTrue)
				So(f.HalfScore.Home, ShouldBeLessThanOrEqualTo, f.Final.Home)
				So(f.HalfScore.Away, ShouldBeLessThanOrEqualTo, f.Final.Away)
			}
		})
	})
}

func TestSimulatorServesProviderContract(t *testing.T) {
	ctx := context.Background()

	Convey("Given a simulator behind the provider client", t, func() {
		f := fixture()
		srv := httptest.NewServer(sim.NewServer([]sim.Fixture{f}).Router())
		defer srv.Close()

		client := provider.NewHTTPClient(srv.URL, provider.WithRequestsPerSecond(1000))

		Convey("When fetching after full time", func() {
			out, err := client.FetchOutcome(ctx, "f-1", kickoff.Add(3*time.Hour))
			So(err, ShouldBeNil)
			So(out.Phase, ShouldEqual, model.PhaseFinished)
			So(*out.Score, ShouldResemble, model.Score{Home: 3, Away: 1})
		})

		Convey("When fetching before kickoff", func() {
			_, err := client.FetchOutcome(ctx, "f-1", kickoff.Add(-time.Hour))
			So(err, ShouldNotBeNil)
			So(provider.Categorize(err), ShouldEqual, "not_yet_available")
		})

		Convey("When fetching an unknown match", func() {
			_, err := client.FetchOutcome(ctx, "ghost", kickoff)
			So(provider.Categorize(err), ShouldEqual, "not_yet_available")
		})

		Convey("When listing fixtures", func() {
			resp, err := http.Get(srv.URL + "/matches")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			var list []struct {
				ID string `json:"id"`
			}
			So(json.NewDecoder(resp.Body).Decode(&list), ShouldBeNil)
			So(list, ShouldHaveLength, 1)
			So(list[0].ID, ShouldEqual, "f-1")
		})
	})
}
