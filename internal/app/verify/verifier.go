// Package verify runs the scheduled match verification pipeline: fetch each
// candidate's provider snapshot, advance its lifecycle, and score its bets
// exactly once per finalization epoch.
package verify

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/golazo/internal/adapters/provider"
	"github.com/okian/golazo/internal/adapters/repository"
	"github.com/okian/golazo/internal/domain/ledger"
	"github.com/okian/golazo/internal/domain/model"
	"github.com/okian/golazo/internal/domain/scoring"
	"github.com/okian/golazo/internal/domain/types"
	"github.com/okian/golazo/pkg/logger"
	"github.com/okian/golazo/pkg/metrics"
)

// Store is the slice of the repository the pipeline writes through.
type Store interface {
	Match(ctx context.Context, id string) (model.Match, error)
	CandidatesBetween(ctx context.Context, from, to time.Time) ([]model.Match, error)
	UnscoredFinished(ctx context.Context, before time.Time) ([]model.Match, error)
	UpdateMatch(ctx context.Context, m model.Match, expect model.State) error
	BetsByMatch(ctx context.Context, matchID string) ([]model.Bet, error)
	ApplyPoints(ctx context.Context, matchID string, epoch int, points []scoring.BetPoints) error
	PoolsByMatch(ctx context.Context, matchID string) ([]string, error)
}

// Invalidator drops cached ranking views after scoring changes point totals.
type Invalidator interface {
	Invalidate(ctx context.Context, scopes ...types.Scope)
}

// noopInvalidator is used when no ranking cache is wired.
type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, ...types.Scope) {}

// Verifier drives one verification run over the candidate window. Safe to
// invoke concurrently; the ledger arbitrates overlapping runs.
type Verifier struct {
	store    Store
	ledger   ledger.Ledger
	provider provider.ResultProvider
	ranking  Invalidator

	workerCount  int
	lookback     time.Duration
	softDeadline time.Duration
	dryRun       bool
	verbose      bool
	now          func() time.Time
	log          logger.Logger
}

// Option applies a configuration option to the Verifier.
type Option func(*Verifier)

// WithWorkerCount sets how many matches are verified concurrently.
func WithWorkerCount(count int) Option {
	return func(v *Verifier) {
		if count > 0 {
			v.workerCount = count
		}
	}
}

// WithLookback sets how far back the candidate window reaches.
func WithLookback(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.lookback = d
		}
	}
}

// WithSoftDeadline caps how long a run keeps dispatching new matches.
// In-flight matches always finish; remaining ones wait for the next cadence.
func WithSoftDeadline(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.softDeadline = d
		}
	}
}

// WithDryRun makes the run report what it would do without persisting
// state, points, or ledger entries.
func WithDryRun(dryRun bool) Option {
	return func(v *Verifier) {
		v.dryRun = dryRun
	}
}

// WithVerbose logs every per-match disposition instead of only changes.
func WithVerbose(verbose bool) Option {
	return func(v *Verifier) {
		v.verbose = verbose
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(v *Verifier) {
		if log != nil {
			v.log = log
		}
	}
}

// WithInvalidator wires the ranking cache invalidation hook.
func WithInvalidator(inv Invalidator) Option {
	return func(v *Verifier) {
		if inv != nil {
			v.ranking = inv
		}
	}
}

// NewVerifier creates a verifier over a store, ledger and result provider.
func NewVerifier(store Store, led ledger.Ledger, prov provider.ResultProvider, opts ...Option) *Verifier {
	v := &Verifier{
		store:        store,
		ledger:       led,
		provider:     prov,
		ranking:      noopInvalidator{},
		workerCount:  runtime.NumCPU() * 2,
		lookback:     24 * time.Hour,
		softDeadline: 10 * time.Minute,
		now:          time.Now,
		log:          logger.Get(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Run executes one verification pass and returns its report. The returned
// error covers run-level failures only (candidate listing, cancellation);
// per-match failures land in the report.
func (v *Verifier) Run(ctx context.Context) (*Report, error) {
	runID := uuid.New().String()
	startedAt := v.now()
	report := newReport(runID, startedAt, v.dryRun)

	metrics.RecordRunStarted()
	v.log.Info(ctx, "verification run starting",
		logger.String("run_id", runID),
		logger.Duration("lookback", v.lookback),
		logger.Bool("dry_run", v.dryRun))

	candidates, err := v.store.CandidatesBetween(ctx, startedAt.Add(-v.lookback), startedAt)
	if err != nil {
		return report, fmt.Errorf("list candidates: %w", err)
	}

	// Finished matches that aged past the window but never scored their
	// current epoch stay eligible until a run scores them.
	late, err := v.store.UnscoredFinished(ctx, startedAt.Add(-v.lookback))
	if err != nil {
		return report, fmt.Errorf("list unscored finished: %w", err)
	}
	candidates = append(candidates, late...)
	report.Candidates = len(candidates)

	deadline := startedAt.Add(v.softDeadline)
	sem := make(chan struct{}, v.workerCount)
	var wg sync.WaitGroup

dispatch:
	for i, m := range candidates {
		select {
		case <-ctx.Done():
			report.addDeadlineSkipped(len(candidates) - i)
			break dispatch
		default:
		}
		if v.now().After(deadline) {
			v.log.Warn(ctx, "soft deadline reached, deferring remaining matches",
				logger.String("run_id", runID),
				logger.Int("remaining", len(candidates)-i))
			report.addDeadlineSkipped(len(candidates) - i)
			break dispatch
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(m model.Match) {
			defer wg.Done()
			defer func() { <-sem }()
			v.processMatch(ctx, runID, m, report)
		}(m)
	}
	wg.Wait()

	report.FinishedAt = v.now()
	metrics.ObserveRunDuration(float64(report.FinishedAt.Sub(startedAt).Milliseconds()))
	metrics.UpdateLastRunUnix(report.FinishedAt)

	v.log.Info(ctx, "verification run finished",
		logger.String("run_id", runID),
		logger.String("summary", report.Summary()))

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("run interrupted: %w", err)
	}
	return report, nil
}

// processMatch verifies one candidate. Every path ends in exactly one
// disposition; a failure here never touches sibling matches.
func (v *Verifier) processMatch(ctx context.Context, runID string, m model.Match, report *Report) {
	now := v.now()

	if m.KickoffAt.After(now) {
		v.finishNoOp(ctx, runID, m, report, "kickoff in the future")
		return
	}

	outcome, err := v.provider.FetchOutcome(ctx, m.ID, now)
	metrics.RecordProviderRequest(provider.Categorize(err))
	if err != nil {
		v.handleFetchFailure(ctx, runID, m, report, err)
		return
	}

	updated := m
	applied, err := updated.Apply(outcome, now)
	switch {
	case errors.Is(err, model.ErrBackwardTransition):
		// Stale or regressive snapshot; the stored result stands.
		v.finishNoOp(ctx, runID, m, report, "regressive snapshot ignored")
		return
	case err != nil:
		v.finishFailed(ctx, runID, m, report, provider.Categorize(provider.ErrInvalidData), err)
		return
	}

	if !applied.Changed {
		// Nothing new from the provider; a finished match may still owe
		// scoring if a previous run marked the state but died before points.
		if m.State == model.StateFinished && m.Score != nil {
			v.scoreIfUnscored(ctx, runID, m, report)
			return
		}
		v.finishNoOp(ctx, runID, m, report, "no change")
		return
	}

	if !v.dryRun {
		if err := v.store.UpdateMatch(ctx, updated, m.State); err != nil {
			if !errors.Is(err, repository.ErrConflict) {
				v.finishFailed(ctx, runID, m, report, "", fmt.Errorf("persist match: %w", err))
				return
			}
			// A concurrent run advanced the match first. Retry once against
			// the fresh row; if the snapshot no longer applies, that run
			// already did the work.
			metrics.RecordScoringConflict()
			var ok bool
			updated, applied, ok = v.retryApply(ctx, runID, m, outcome, report)
			if !ok {
				return
			}
		}
	}

	if applied.Finalized {
		v.scoreMatch(ctx, runID, updated, report)
		return
	}

	v.record(ctx, model.RunRecord{
		RunID:       runID,
		MatchID:     m.ID,
		Timestamp:   v.now(),
		Disposition: model.DispositionTransitioned,
		Detail:      string(updated.State),
	})
	metrics.RecordMatchDisposition(string(model.DispositionTransitioned))
	report.addTransitioned()
	v.log.Info(ctx, "match transitioned",
		logger.String("run_id", runID),
		logger.String("match_id", m.ID),
		logger.String("state", string(updated.State)))
}

// retryApply re-reads the match after a lost update race and applies the
// snapshot once more. Returns ok=false when this run has nothing left to do.
func (v *Verifier) retryApply(ctx context.Context, runID string, stale model.Match, outcome model.Outcome, report *Report) (model.Match, model.Applied, bool) {
	fresh, err := v.store.Match(ctx, stale.ID)
	if err != nil {
		v.finishFailed(ctx, runID, stale, report, "", fmt.Errorf("refetch after conflict: %w", err))
		return model.Match{}, model.Applied{}, false
	}

	updated := fresh
	applied, err := updated.Apply(outcome, v.now())
	if errors.Is(err, model.ErrBackwardTransition) || (err == nil && !applied.Changed) {
		if fresh.State == model.StateFinished && fresh.Score != nil {
			v.scoreIfUnscored(ctx, runID, fresh, report)
			return model.Match{}, model.Applied{}, false
		}
		v.finishNoOp(ctx, runID, fresh, report, "concurrent run applied the snapshot")
		return model.Match{}, model.Applied{}, false
	}
	if err != nil {
		v.finishFailed(ctx, runID, stale, report, provider.Categorize(provider.ErrInvalidData), err)
		return model.Match{}, model.Applied{}, false
	}

	if err := v.store.UpdateMatch(ctx, updated, fresh.State); err != nil {
		v.finishFailed(ctx, runID, stale, report, "", fmt.Errorf("persist after conflict retry: %w", err))
		return model.Match{}, model.Applied{}, false
	}
	return updated, applied, true
}

// handleFetchFailure classifies a provider error. Pending results are normal
// dispositions; everything else is a failure retried next cadence. A match
// already finished in the store can still recover late scoring even while
// the provider is down.
func (v *Verifier) handleFetchFailure(ctx context.Context, runID string, m model.Match, report *Report, err error) {
	if m.State == model.StateFinished && m.Score != nil {
		v.scoreIfUnscored(ctx, runID, m, report)
		return
	}

	if errors.Is(err, provider.ErrNotYetAvailable) {
		v.finishNoOp(ctx, runID, m, report, "result not yet available")
		return
	}

	v.finishFailed(ctx, runID, m, report, provider.Categorize(err), err)
}

// scoreIfUnscored closes the gap where a match reached Finished but its
// current epoch was never scored.
func (v *Verifier) scoreIfUnscored(ctx context.Context, runID string, m model.Match, report *Report) {
	already, err := v.ledger.AlreadyScored(ctx, m.ID, m.FinalizationEpoch)
	if err != nil {
		v.finishFailed(ctx, runID, m, report, "", fmt.Errorf("ledger lookup: %w", err))
		return
	}
	if already {
		metrics.RecordLedgerDuplicateSkip()
		metrics.RecordMatchDisposition(string(model.DispositionNoOp))
		report.addDuplicateSkip()
		if v.verbose {
			v.log.Info(ctx, "match already scored",
				logger.String("run_id", runID),
				logger.String("match_id", m.ID),
				logger.Int("epoch", m.FinalizationEpoch))
		}
		return
	}
	v.scoreMatch(ctx, runID, m, report)
}

// scoreMatch scores one finalization epoch at most once. The ledger mark is
// taken before writing points; if persistence fails the mark is released so
// the next cadence retries. Scoring is pure, so the retry reproduces the
// same values.
func (v *Verifier) scoreMatch(ctx context.Context, runID string, m model.Match, report *Report) {
	if m.Score == nil {
		v.finishFailed(ctx, runID, m, report, "", fmt.Errorf("finished match %s has no score", m.ID))
		return
	}

	if v.dryRun {
		already, err := v.ledger.AlreadyScored(ctx, m.ID, m.FinalizationEpoch)
		if err != nil {
			v.finishFailed(ctx, runID, m, report, "", fmt.Errorf("ledger lookup: %w", err))
			return
		}
		if already {
			report.addDuplicateSkip()
			return
		}
		bets, err := v.store.BetsByMatch(ctx, m.ID)
		if err != nil {
			v.finishFailed(ctx, runID, m, report, "", fmt.Errorf("load bets: %w", err))
			return
		}
		report.addScored(len(bets))
		v.log.Info(ctx, "would score match",
			logger.String("run_id", runID),
			logger.String("match_id", m.ID),
			logger.Int("epoch", m.FinalizationEpoch),
			logger.Int("bets", len(bets)))
		return
	}

	already, err := v.ledger.ScoredAndMark(ctx, m.ID, m.FinalizationEpoch)
	if err != nil {
		v.finishFailed(ctx, runID, m, report, "", fmt.Errorf("ledger mark: %w", err))
		return
	}
	if already {
		metrics.RecordLedgerDuplicateSkip()
		metrics.RecordMatchDisposition(string(model.DispositionNoOp))
		report.addDuplicateSkip()
		return
	}

	bets, err := v.store.BetsByMatch(ctx, m.ID)
	if err == nil {
		points := scoring.ScoreBets(bets, *m.Score)
		err = v.store.ApplyPoints(ctx, m.ID, m.FinalizationEpoch, points)
	}
	if err != nil {
		if uerr := v.ledger.Unmark(ctx, m.ID, m.FinalizationEpoch); uerr != nil {
			v.log.Warn(ctx, "failed to release scoring mark",
				logger.String("match_id", m.ID),
				logger.Int("epoch", m.FinalizationEpoch),
				logger.Error(uerr))
		}
		v.finishFailed(ctx, runID, m, report, "", fmt.Errorf("score match: %w", err))
		return
	}

	v.record(ctx, model.RunRecord{
		RunID:       runID,
		MatchID:     m.ID,
		Epoch:       m.FinalizationEpoch,
		Timestamp:   v.now(),
		Disposition: model.DispositionScored,
		Detail:      m.Score.String(),
	})
	metrics.RecordMatchDisposition(string(model.DispositionScored))
	metrics.RecordBetsScored(len(bets))
	report.addScored(len(bets))

	v.invalidateRankings(ctx, m.ID)

	v.log.Info(ctx, "match scored",
		logger.String("run_id", runID),
		logger.String("match_id", m.ID),
		logger.Int("epoch", m.FinalizationEpoch),
		logger.String("score", m.Score.String()),
		logger.Int("bets", len(bets)))
}

// invalidateRankings drops the global view and every pool the match touches.
func (v *Verifier) invalidateRankings(ctx context.Context, matchID string) {
	scopes := []types.Scope{types.GlobalScope()}
	pools, err := v.store.PoolsByMatch(ctx, matchID)
	if err != nil {
		v.log.Warn(ctx, "could not list pools for invalidation",
			logger.String("match_id", matchID),
			logger.Error(err))
	}
	for _, poolID := range pools {
		scopes = append(scopes, types.PoolScope(poolID))
	}
	v.ranking.Invalidate(ctx, scopes...)
}

func (v *Verifier) finishNoOp(ctx context.Context, runID string, m model.Match, report *Report, detail string) {
	v.record(ctx, model.RunRecord{
		RunID:       runID,
		MatchID:     m.ID,
		Timestamp:   v.now(),
		Disposition: model.DispositionNoOp,
		Detail:      detail,
	})
	metrics.RecordMatchDisposition(string(model.DispositionNoOp))
	report.addNoOp()
	if v.verbose {
		v.log.Info(ctx, "match unchanged",
			logger.String("run_id", runID),
			logger.String("match_id", m.ID),
			logger.String("detail", detail))
	}
}

func (v *Verifier) finishFailed(ctx context.Context, runID string, m model.Match, report *Report, category string, err error) {
	v.record(ctx, model.RunRecord{
		RunID:       runID,
		MatchID:     m.ID,
		Timestamp:   v.now(),
		Disposition: model.DispositionFailed,
		Detail:      err.Error(),
	})
	metrics.RecordMatchDisposition(string(model.DispositionFailed))
	report.addFailed(category)
	v.log.Warn(ctx, "match verification failed",
		logger.String("run_id", runID),
		logger.String("match_id", m.ID),
		logger.Error(err))
}

// record appends an audit entry. Dry runs leave no trace in the ledger.
func (v *Verifier) record(ctx context.Context, rec model.RunRecord) {
	if v.dryRun {
		return
	}
	if err := v.ledger.Record(ctx, rec); err != nil {
		v.log.Warn(ctx, "could not append run record",
			logger.String("match_id", rec.MatchID),
			logger.Error(err))
	}
}
