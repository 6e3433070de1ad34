package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/okian/golazo/internal/domain/model"
	"github.com/okian/golazo/internal/domain/scoring"
	"github.com/okian/golazo/internal/domain/types"
)

// OpenPostgres opens and pings a Postgres pool.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// PostgresStore implements Store on Postgres.
//
// Expected schema:
//
//	CREATE TABLE matches (
//	    id                 TEXT PRIMARY KEY,
//	    home_team          TEXT NOT NULL,
//	    away_team          TEXT NOT NULL,
//	    kickoff_at         TIMESTAMPTZ NOT NULL,
//	    state              TEXT NOT NULL,
//	    home_goals         INT,
//	    away_goals         INT,
//	    finalization_epoch INT NOT NULL DEFAULT 0,
//	    updated_at         TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE bets (
//	    id             TEXT PRIMARY KEY,
//	    participant_id TEXT NOT NULL,
//	    match_id       TEXT NOT NULL REFERENCES matches(id),
//	    pool_id        TEXT NOT NULL,
//	    pred_home      INT NOT NULL,
//	    pred_away      INT NOT NULL,
//	    points         INT,
//	    scored_epoch   INT NOT NULL DEFAULT 0,
//	    placed_at      TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const matchColumns = `id, home_team, away_team, kickoff_at, state, home_goals, away_goals, finalization_epoch, updated_at`

// Match returns one match by id.
func (s *PostgresStore) Match(ctx context.Context, id string) (model.Match, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)

	m, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Match{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Match{}, fmt.Errorf("select match: %w", err)
	}
	return m, nil
}

// CandidatesBetween returns non-suspended matches with kickoff in [from, to].
func (s *PostgresStore) CandidatesBetween(ctx context.Context, from, to time.Time) ([]model.Match, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+matchColumns+`
		 FROM matches
		 WHERE kickoff_at >= $1 AND kickoff_at <= $2 AND state <> $3
		 ORDER BY kickoff_at`,
		from, to, string(model.StateSuspended))
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var out []model.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return out, nil
}

// UnscoredFinished returns Finished matches older than before whose current
// finalization epoch carries no mark in scored_epochs. Keeps late results
// and failed scoring persists selectable past the lookback window.
func (s *PostgresStore) UnscoredFinished(ctx context.Context, before time.Time) ([]model.Match, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+matchColumns+`
		 FROM matches
		 WHERE state = $1 AND kickoff_at < $2
		   AND NOT EXISTS (
		       SELECT 1 FROM scored_epochs
		       WHERE match_id = matches.id AND epoch = matches.finalization_epoch)
		 ORDER BY kickoff_at`,
		string(model.StateFinished), before)
	if err != nil {
		return nil, fmt.Errorf("query unscored finished: %w", err)
	}
	defer rows.Close()

	var out []model.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unscored finished: %w", err)
	}
	return out, nil
}

// UpdateMatch persists m only while the stored state still equals expect.
func (s *PostgresStore) UpdateMatch(ctx context.Context, m model.Match, expect model.State) error {
	var homeGoals, awayGoals sql.NullInt64
	if m.Score != nil {
		homeGoals = sql.NullInt64{Int64: int64(m.Score.Home), Valid: true}
		awayGoals = sql.NullInt64{Int64: int64(m.Score.Away), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE matches
		 SET state = $1, home_goals = $2, away_goals = $3,
		     finalization_epoch = $4, updated_at = $5
		 WHERE id = $6 AND state = $7`,
		string(m.State), homeGoals, awayGoals,
		m.FinalizationEpoch, m.UpdatedAt, m.ID, string(expect))
	if err != nil {
		return fmt.Errorf("update match: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update match rows: %w", err)
	}
	if affected == 0 {
		// No row in the expected state. Distinguish a lost race from a
		// missing match so callers can decide whether to retry.
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM matches WHERE id = $1)`, m.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check match existence: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: %s", ErrNotFound, m.ID)
		}
		return fmt.Errorf("%w: match %s no longer in state %s", ErrConflict, m.ID, expect)
	}
	return nil
}

// BetsByMatch returns all bets placed against one match.
func (s *PostgresStore) BetsByMatch(ctx context.Context, matchID string) ([]model.Bet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, participant_id, match_id, pool_id, pred_home, pred_away, points, scored_epoch, placed_at
		 FROM bets WHERE match_id = $1 ORDER BY placed_at`, matchID)
	if err != nil {
		return nil, fmt.Errorf("query bets: %w", err)
	}
	defer rows.Close()

	var out []model.Bet
	for rows.Next() {
		var (
			b      model.Bet
			points sql.NullInt64
		)
		if err := rows.Scan(&b.ID, &b.ParticipantID, &b.MatchID, &b.PoolID,
			&b.Predicted.Home, &b.Predicted.Away, &points, &b.ScoredEpoch, &b.PlacedAt); err != nil {
			return nil, fmt.Errorf("scan bet: %w", err)
		}
		if points.Valid {
			p := int(points.Int64)
			b.Points = &p
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bets: %w", err)
	}
	return out, nil
}

// ApplyPoints overwrites point values for a match's bets in one transaction.
func (s *PostgresStore) ApplyPoints(ctx context.Context, matchID string, epoch int, points []scoring.BetPoints) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin apply points: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, bp := range points {
		res, err := tx.ExecContext(ctx,
			`UPDATE bets SET points = $1, scored_epoch = $2 WHERE id = $3 AND match_id = $4`,
			bp.Points, epoch, bp.BetID, matchID)
		if err != nil {
			return fmt.Errorf("update bet %s: %w", bp.BetID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update bet %s rows: %w", bp.BetID, err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: bet %s for match %s", ErrNotFound, bp.BetID, matchID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit apply points: %w", err)
	}
	return nil
}

// PoolsByMatch returns the distinct pool ids with bets on the match.
func (s *PostgresStore) PoolsByMatch(ctx context.Context, matchID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT pool_id FROM bets WHERE match_id = $1`, matchID)
	if err != nil {
		return nil, fmt.Errorf("query pools: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var poolID string
		if err := rows.Scan(&poolID); err != nil {
			return nil, fmt.Errorf("scan pool: %w", err)
		}
		out = append(out, poolID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pools: %w", err)
	}
	return out, nil
}

// AggregatePoints sums scored point values per participant within a scope.
func (s *PostgresStore) AggregatePoints(ctx context.Context, scope types.Scope) ([]types.Entry, error) {
	query := `SELECT participant_id, COALESCE(SUM(points), 0)
	          FROM bets
	          GROUP BY participant_id`
	args := []any{}
	if scope.Kind == types.ScopePool {
		query = `SELECT participant_id, COALESCE(SUM(points), 0)
		         FROM bets
		         WHERE pool_id = $1
		         GROUP BY participant_id`
		args = append(args, scope.PoolID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query aggregate: %w", err)
	}
	defer rows.Close()

	var out []types.Entry
	for rows.Next() {
		var e types.Entry
		if err := rows.Scan(&e.ParticipantID, &e.Points); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregate: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(r rowScanner) (model.Match, error) {
	var (
		m         model.Match
		state     string
		homeGoals sql.NullInt64
		awayGoals sql.NullInt64
	)
	if err := r.Scan(&m.ID, &m.HomeTeam, &m.AwayTeam, &m.KickoffAt, &state,
		&homeGoals, &awayGoals, &m.FinalizationEpoch, &m.UpdatedAt); err != nil {
		return model.Match{}, err
	}
	m.State = model.State(state)
	if homeGoals.Valid && awayGoals.Valid {
		m.Score = &model.Score{Home: int(homeGoals.Int64), Away: int(awayGoals.Int64)}
	}
	return m, nil
}
