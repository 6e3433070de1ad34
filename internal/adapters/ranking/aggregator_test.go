package ranking_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/golazo/internal/adapters/ranking"
	"github.com/okian/golazo/internal/domain/types"
	"github.com/okian/golazo/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// countingSource serves fixed entries and counts aggregate queries.
type countingSource struct {
	mu      sync.Mutex
	entries map[string][]types.Entry
	err     error
	calls   atomic.Int64
	delay   time.Duration
}

func (s *countingSource) AggregatePoints(_ context.Context, scope types.Scope) ([]types.Entry, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]types.Entry, len(s.entries[scope.Key()]))
	copy(out, s.entries[scope.Key()])
	return out, nil
}

func (s *countingSource) set(scope types.Scope, entries []types.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = make(map[string][]types.Entry)
	}
	s.entries[scope.Key()] = entries
}

func TestAggregatorView(t *testing.T) {
	ctx := context.Background()

	Convey("Given a source with participants on mixed totals", t, func() {
		source := &countingSource{}
		source.set(types.GlobalScope(), []types.Entry{
			{ParticipantID: "p-1", Points: 4},
			{ParticipantID: "p-2", Points: 7},
			{ParticipantID: "p-3", Points: 4},
			{ParticipantID: "p-4", Points: 0},
		})
		agg := ranking.NewAggregator(source, ranking.NewMemoryCache())

		Convey("When reading the global view", func() {
			view, err := agg.View(ctx, types.GlobalScope())
			So(err, ShouldBeNil)

			Convey("Then entries sort by points descending", func() {
				So(view.Entries[0].ParticipantID, ShouldEqual, "p-2")
				So(view.Entries[3].ParticipantID, ShouldEqual, "p-4")
			})

			Convey("Then tied totals share a rank and the next skips", func() {
				So(view.Entries[0].Rank, ShouldEqual, 1)
				So(view.Entries[1].Rank, ShouldEqual, 2)
				So(view.Entries[2].Rank, ShouldEqual, 2)
				So(view.Entries[3].Rank, ShouldEqual, 4)
			})

			Convey("Then a second read serves from cache", func() {
				again, err := agg.View(ctx, types.GlobalScope())
				So(err, ShouldBeNil)
				So(again.Generation, ShouldEqual, view.Generation)
				So(source.calls.Load(), ShouldEqual, 1)
			})

			Convey("And when the scope is invalidated", func() {
				source.set(types.GlobalScope(), []types.Entry{
					{ParticipantID: "p-1", Points: 10},
				})
				agg.Invalidate(ctx, types.GlobalScope())

				fresh, err := agg.View(ctx, types.GlobalScope())

				Convey("Then the next read recomputes with a newer generation", func() {
					So(err, ShouldBeNil)
					So(fresh.Generation, ShouldBeGreaterThan, view.Generation)
					So(fresh.Entries[0].Points, ShouldEqual, 10)
					So(source.calls.Load(), ShouldEqual, 2)
				})
			})
		})
	})

	Convey("Given scoped pool views", t, func() {
		source := &countingSource{}
		source.set(types.PoolScope("office"), []types.Entry{
			{ParticipantID: "p-1", Points: 3},
		})
		source.set(types.PoolScope("friends"), []types.Entry{
			{ParticipantID: "p-9", Points: 1},
		})
		agg := ranking.NewAggregator(source, ranking.NewMemoryCache())

		Convey("When reading both pools, each caches independently", func() {
			office, err := agg.View(ctx, types.PoolScope("office"))
			So(err, ShouldBeNil)
			friends, err := agg.View(ctx, types.PoolScope("friends"))
			So(err, ShouldBeNil)

			So(office.Entries[0].ParticipantID, ShouldEqual, "p-1")
			So(friends.Entries[0].ParticipantID, ShouldEqual, "p-9")

			Convey("And invalidating one pool leaves the other cached", func() {
				agg.Invalidate(ctx, types.PoolScope("office"))
				_, _ = agg.View(ctx, types.PoolScope("office"))
				_, _ = agg.View(ctx, types.PoolScope("friends"))
				So(source.calls.Load(), ShouldEqual, 3)
			})
		})
	})

	Convey("Given a failing source", t, func() {
		source := &countingSource{err: errors.New("connection refused")}
		agg := ranking.NewAggregator(source, ranking.NewMemoryCache())

		Convey("When reading a view", func() {
			_, err := agg.View(ctx, types.GlobalScope())
			So(errors.Is(err, ranking.ErrSourceUnavailable), ShouldBeTrue)
		})
	})
}

func TestAggregatorCollapsesConcurrentMisses(t *testing.T) {
	ctx := context.Background()

	Convey("Given a cold cache and a slow source", t, func() {
		source := &countingSource{delay: 20 * time.Millisecond}
		source.set(types.GlobalScope(), []types.Entry{{ParticipantID: "p-1", Points: 1}})
		agg := ranking.NewAggregator(source, ranking.NewMemoryCache())

		Convey("When many readers miss at once", func() {
			const readers = 16
			var wg sync.WaitGroup
			errs := make([]error, readers)

			for i := 0; i < readers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = agg.View(ctx, types.GlobalScope())
				}(i)
			}
			wg.Wait()

			Convey("Then exactly one recompute served them all", func() {
				for _, err := range errs {
					So(err, ShouldBeNil)
				}
				So(source.calls.Load(), ShouldEqual, 1)
			})
		})
	})
}

func TestMemoryCacheTTL(t *testing.T) {
	ctx := context.Background()

	Convey("Given a view cached under a short TTL", t, func() {
		cache := ranking.NewMemoryCache()
		view := types.View{
			Scope:      types.GlobalScope(),
			Entries:    []types.Entry{{Rank: 1, ParticipantID: "p-1", Points: 3}},
			Generation: 1,
			ComputedAt: time.Now(),
		}
		So(cache.Set(ctx, view, 30*time.Millisecond), ShouldBeNil)

		Convey("When reading before expiry", func() {
			got, ok, err := cache.Get(ctx, types.GlobalScope())
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(got.Entries, ShouldResemble, view.Entries)
		})

		Convey("When reading after expiry", func() {
			time.Sleep(50 * time.Millisecond)
			_, ok, err := cache.Get(ctx, types.GlobalScope())
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("When the scope is deleted", func() {
			So(cache.Delete(ctx, types.GlobalScope()), ShouldBeNil)
			_, ok, _ := cache.Get(ctx, types.GlobalScope())
			So(ok, ShouldBeFalse)
		})
	})
}
