package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/okian/golazo/internal/domain/model"
)

// PostgresLedger implements ledger.Ledger on Postgres. The scored mark is a
// primary-key insert, so two concurrent runs racing on the same
// (match_id, epoch) pair resolve inside the database.
//
// Expected schema:
//
//	CREATE TABLE scored_epochs (
//	    match_id  TEXT NOT NULL,
//	    epoch     INT NOT NULL,
//	    marked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    PRIMARY KEY (match_id, epoch)
//	);
//
//	CREATE TABLE run_records (
//	    run_id      TEXT NOT NULL,
//	    match_id    TEXT NOT NULL,
//	    epoch       INT NOT NULL,
//	    ts          TIMESTAMPTZ NOT NULL,
//	    disposition TEXT NOT NULL,
//	    detail      TEXT NOT NULL DEFAULT ''
//	);
//	CREATE INDEX run_records_match_idx ON run_records (match_id, ts);
//	CREATE INDEX run_records_ts_idx ON run_records (ts);
type PostgresLedger struct {
	db *sql.DB
}

// NewPostgresLedger wraps an open pool.
func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// ScoredAndMark atomically checks and marks one (matchID, epoch) pair.
// Returns true when the pair already carried a mark.
func (l *PostgresLedger) ScoredAndMark(ctx context.Context, matchID string, epoch int) (bool, error) {
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO scored_epochs (match_id, epoch) VALUES ($1, $2)
		 ON CONFLICT (match_id, epoch) DO NOTHING`,
		matchID, epoch)
	if err != nil {
		return false, fmt.Errorf("insert scored mark: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("scored mark rows: %w", err)
	}
	return affected == 0, nil
}

// Unmark removes a scored mark so a failed scoring attempt can retry.
func (l *PostgresLedger) Unmark(ctx context.Context, matchID string, epoch int) error {
	if _, err := l.db.ExecContext(ctx,
		`DELETE FROM scored_epochs WHERE match_id = $1 AND epoch = $2`,
		matchID, epoch); err != nil {
		return fmt.Errorf("delete scored mark: %w", err)
	}
	return nil
}

// AlreadyScored reports whether the pair carries a scored mark.
func (l *PostgresLedger) AlreadyScored(ctx context.Context, matchID string, epoch int) (bool, error) {
	var exists bool
	if err := l.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM scored_epochs WHERE match_id = $1 AND epoch = $2)`,
		matchID, epoch).Scan(&exists); err != nil {
		return false, fmt.Errorf("check scored mark: %w", err)
	}
	return exists, nil
}

// Record appends one audit entry.
func (l *PostgresLedger) Record(ctx context.Context, rec model.RunRecord) error {
	if _, err := l.db.ExecContext(ctx,
		`INSERT INTO run_records (run_id, match_id, epoch, ts, disposition, detail)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.RunID, rec.MatchID, rec.Epoch, rec.Timestamp, string(rec.Disposition), rec.Detail); err != nil {
		return fmt.Errorf("insert run record: %w", err)
	}
	return nil
}

// RecordsByMatch returns all entries for a match, oldest first.
func (l *PostgresLedger) RecordsByMatch(ctx context.Context, matchID string) ([]model.RunRecord, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT run_id, match_id, epoch, ts, disposition, detail
		 FROM run_records WHERE match_id = $1 ORDER BY ts`, matchID)
	if err != nil {
		return nil, fmt.Errorf("query run records: %w", err)
	}
	return scanRunRecords(rows)
}

// RecordsBetween returns entries with timestamps in [from, to], oldest first.
func (l *PostgresLedger) RecordsBetween(ctx context.Context, from, to time.Time) ([]model.RunRecord, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT run_id, match_id, epoch, ts, disposition, detail
		 FROM run_records WHERE ts >= $1 AND ts <= $2 ORDER BY ts`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query run records: %w", err)
	}
	return scanRunRecords(rows)
}

func scanRunRecords(rows *sql.Rows) ([]model.RunRecord, error) {
	defer rows.Close()

	var out []model.RunRecord
	for rows.Next() {
		var (
			rec         model.RunRecord
			disposition string
		)
		if err := rows.Scan(&rec.RunID, &rec.MatchID, &rec.Epoch, &rec.Timestamp, &disposition, &rec.Detail); err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}
		rec.Disposition = model.Disposition(disposition)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run records: %w", err)
	}
	return out, nil
}
