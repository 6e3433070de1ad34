// Package ranking computes and caches leaderboard views derived from scored
// bets. Views are pure aggregates: they can be dropped and rebuilt from the
// bet store at any time, so the cache only ever trades freshness for reads.
package ranking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/golazo/internal/domain/types"
	"github.com/okian/golazo/pkg/logger"
	"github.com/okian/golazo/pkg/metrics"
)

// Source supplies unranked point totals per participant for a scope.
type Source interface {
	AggregatePoints(ctx context.Context, scope types.Scope) ([]types.Entry, error)
}

// Aggregator serves ranking views from a TTL cache, recomputing on miss.
// Concurrent misses for the same scope collapse into a single recompute.
type Aggregator struct {
	source Source
	cache  Cache

	globalTTL time.Duration
	poolTTL   time.Duration
	log       logger.Logger
	now       func() time.Time

	generation atomic.Uint64

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithGlobalTTL sets how long the global view stays cached.
func WithGlobalTTL(ttl time.Duration) Option {
	return func(a *Aggregator) {
		if ttl > 0 {
			a.globalTTL = ttl
		}
	}
}

// WithPoolTTL sets how long pool views stay cached.
func WithPoolTTL(ttl time.Duration) Option {
	return func(a *Aggregator) {
		if ttl > 0 {
			a.poolTTL = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(a *Aggregator) {
		if log != nil {
			a.log = log
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAggregator creates an aggregator over a source and a cache.
func NewAggregator(source Source, cache Cache, opts ...Option) *Aggregator {
	a := &Aggregator{
		source:    source,
		cache:     cache,
		globalTTL: 10 * time.Minute,
		poolTTL:   5 * time.Minute,
		log:       logger.Get(),
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
	}

	// Apply all options
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// View returns the ranked view for a scope, serving from cache while fresh.
func (a *Aggregator) View(ctx context.Context, scope types.Scope) (types.View, error) {
	if view, ok, err := a.cache.Get(ctx, scope); err == nil && ok {
		metrics.RecordRankingCacheHit()
		return view, nil
	} else if err != nil {
		a.log.Warn(ctx, "ranking cache read failed",
			logger.String("scope", scope.Key()),
			logger.Error(err))
	}
	metrics.RecordRankingCacheMiss()

	lock := a.scopeLock(scope)
	lock.Lock()
	defer lock.Unlock()

	// Another caller may have recomputed while we waited for the lock.
	if view, ok, err := a.cache.Get(ctx, scope); err == nil && ok {
		metrics.RecordRankingCacheHit()
		return view, nil
	}

	return a.recompute(ctx, scope)
}

// Invalidate drops the cached views for the given scopes so the next read
// recomputes. Called after a match's bets are scored or corrected.
func (a *Aggregator) Invalidate(ctx context.Context, scopes ...types.Scope) {
	for _, scope := range scopes {
		if err := a.cache.Delete(ctx, scope); err != nil {
			a.log.Warn(ctx, "ranking invalidation failed",
				logger.String("scope", scope.Key()),
				logger.Error(err))
			continue
		}
		metrics.RecordRankingInvalidation()
	}
}

func (a *Aggregator) recompute(ctx context.Context, scope types.Scope) (types.View, error) {
	start := a.now()

	entries, err := a.source.AggregatePoints(ctx, scope)
	if err != nil {
		return types.View{}, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, scope.Key(), err)
	}

	rank(entries)
	view := types.View{
		Scope:      scope,
		Entries:    entries,
		Generation: a.generation.Add(1),
		ComputedAt: a.now(),
	}

	if err := a.cache.Set(ctx, view, a.ttl(scope)); err != nil {
		// The view is still good; only the next reader pays the recompute.
		a.log.Warn(ctx, "ranking cache write failed",
			logger.String("scope", scope.Key()),
			logger.Error(err))
	}

	metrics.RecordRankingRecompute()
	metrics.ObserveRankingRecomputeDuration(float64(a.now().Sub(start).Milliseconds()))
	return view, nil
}

func (a *Aggregator) ttl(scope types.Scope) time.Duration {
	if scope.Kind == types.ScopePool {
		return a.poolTTL
	}
	return a.globalTTL
}

func (a *Aggregator) scopeLock(scope types.Scope) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	lock, ok := a.locks[scope.Key()]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[scope.Key()] = lock
	}
	return lock
}

// rank orders entries by points descending (participant id breaks the sort
// tie for determinism) and assigns competition ranking: equal points share a
// rank and the next distinct total skips past them.
func rank(entries []types.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].ParticipantID < entries[j].ParticipantID
	})

	for i := range entries {
		if i > 0 && entries[i].Points == entries[i-1].Points {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}
