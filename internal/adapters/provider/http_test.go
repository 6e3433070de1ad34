package provider_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/golazo/internal/adapters/provider"
	"github.com/okian/golazo/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestHTTPClientFetchOutcome(t *testing.T) {
	ctx := context.Background()
	asOf := time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)

	Convey("Given a provider serving a finished result", t, func() {
		// The handler runs on the server goroutine; capture the request
		// shape there and assert it back on the test goroutine.
		var gotPath, gotAsOf string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAsOf = r.URL.Query().Get("as_of")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"match_id":"m-1","phase":"finished","home_goals":2,"away_goals":1,"as_of":"2026-03-14T22:00:00Z"}`))
		}))
		defer srv.Close()

		client := provider.NewHTTPClient(srv.URL, provider.WithRequestsPerSecond(1000))

		Convey("When fetching the outcome", func() {
			got, err := client.FetchOutcome(ctx, "m-1", asOf)

			Convey("Then the request should carry the match id and as-of time", func() {
				So(gotPath, ShouldEqual, "/matches/m-1/result")
				So(gotAsOf, ShouldNotBeEmpty)
			})

			Convey("Then a finished snapshot with the score should return", func() {
				So(err, ShouldBeNil)
				So(got.Phase, ShouldEqual, model.PhaseFinished)
				So(*got.Score, ShouldResemble, model.Score{Home: 2, Away: 1})
				So(got.Corrected, ShouldBeFalse)
			})
		})
	})

	Convey("Given provider error responses", t, func() {
		cases := []struct {
			name   string
			status int
			want   error
		}{
			{"a 404 means not yet available", http.StatusNotFound, provider.ErrNotYetAvailable},
			{"a 429 means rate limited", http.StatusTooManyRequests, provider.ErrRateLimited},
			{"a 500 means unavailable", http.StatusInternalServerError, provider.ErrUnavailable},
			{"a 503 means unavailable", http.StatusServiceUnavailable, provider.ErrUnavailable},
		}

		for _, tc := range cases {
			tc := tc
			Convey("When the provider returns "+tc.name, func() {
				srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(tc.status)
				}))
				defer srv.Close()

				client := provider.NewHTTPClient(srv.URL, provider.WithRequestsPerSecond(1000))
				_, err := client.FetchOutcome(ctx, "m-1", asOf)

				Convey("Then the matching sentinel should surface", func() {
					So(errors.Is(err, tc.want), ShouldBeTrue)
				})
			})
		}
	})

	Convey("Given malformed provider payloads", t, func() {
		serve := func(body string) *provider.HTTPClient {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
			}))
			Reset(srv.Close)
			return provider.NewHTTPClient(srv.URL, provider.WithRequestsPerSecond(1000))
		}

		Convey("When the phase is unknown", func() {
			client := serve(`{"match_id":"m-1","phase":"overtime","home_goals":1,"away_goals":1}`)
			_, err := client.FetchOutcome(ctx, "m-1", asOf)
			So(errors.Is(err, provider.ErrInvalidData), ShouldBeTrue)
		})

		Convey("When only one goal count is present", func() {
			client := serve(`{"match_id":"m-1","phase":"live","home_goals":1}`)
			_, err := client.FetchOutcome(ctx, "m-1", asOf)
			So(errors.Is(err, provider.ErrPartialData), ShouldBeTrue)
		})

		Convey("When a finished phase carries no score", func() {
			client := serve(`{"match_id":"m-1","phase":"finished"}`)
			_, err := client.FetchOutcome(ctx, "m-1", asOf)
			So(errors.Is(err, provider.ErrPartialData), ShouldBeTrue)
		})

		Convey("When goals are negative", func() {
			client := serve(`{"match_id":"m-1","phase":"finished","home_goals":-1,"away_goals":0}`)
			_, err := client.FetchOutcome(ctx, "m-1", asOf)
			So(errors.Is(err, provider.ErrInvalidData), ShouldBeTrue)
		})

		Convey("When the body is not JSON", func() {
			client := serve(`<html>upstream error</html>`)
			_, err := client.FetchOutcome(ctx, "m-1", asOf)
			So(errors.Is(err, provider.ErrInvalidData), ShouldBeTrue)
		})
	})

	Convey("Given a provider slower than the request timeout", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		client := provider.NewHTTPClient(srv.URL,
			provider.WithRequestsPerSecond(1000),
			provider.WithTimeout(20*time.Millisecond),
		)

		Convey("When fetching, the deadline maps to ErrTimeout, not not-yet-available", func() {
			_, err := client.FetchOutcome(ctx, "m-1", asOf)
			So(errors.Is(err, provider.ErrTimeout), ShouldBeTrue)
			So(errors.Is(err, provider.ErrNotYetAvailable), ShouldBeFalse)
		})
	})
}

func TestCategorize(t *testing.T) {
	Convey("Given the provider error taxonomy", t, func() {
		So(provider.Categorize(nil), ShouldEqual, "ok")
		So(provider.Categorize(provider.ErrNotYetAvailable), ShouldEqual, "not_yet_available")
		So(provider.Categorize(provider.ErrRateLimited), ShouldEqual, "rate_limited")
		So(provider.Categorize(provider.ErrTimeout), ShouldEqual, "timeout")
		So(provider.Categorize(provider.ErrPartialData), ShouldEqual, "partial_data")
		So(provider.Categorize(provider.ErrInvalidData), ShouldEqual, "invalid")
		So(provider.Categorize(errors.New("connection refused")), ShouldEqual, "unavailable")
	})
}
