package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ericfisherdev/checkgate/internal/domain/model"
	"github.com/ericfisherdev/checkgate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SnapshotStore = (*SnapshotRepo)(nil)

// SnapshotRepo is the SQLite implementation of the SnapshotStore port interface.
type SnapshotRepo struct {
	db *DB
}

// NewSnapshotRepo creates a new SnapshotRepo backed by the given DB.
func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// RecordCycle persists one poll cycle and its observed check runs in a
// single transaction.
func (r *SnapshotRepo) RecordCycle(ctx context.Context, snap driven.CycleSnapshot) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	const cycleQuery = `
		INSERT INTO poll_cycles (run_id, attempt, verdict, recorded_at)
		VALUES (?, ?, ?, ?)
	`
	res, err := tx.ExecContext(ctx, cycleQuery, snap.RunID, snap.Attempt, snap.Verdict, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert cycle %d of run %s: %w", snap.Attempt, snap.RunID, err)
	}

	cycleID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("cycle insert id: %w", err)
	}

	const runQuery = `
		INSERT INTO cycle_check_runs (cycle_id, check_run_id, name, status, conclusion, details_url, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, run := range snap.Runs {
		var startedAt, completedAt any
		if !run.StartedAt.IsZero() {
			startedAt = run.StartedAt.UTC().Format(time.RFC3339)
		}
		if !run.CompletedAt.IsZero() {
			completedAt = run.CompletedAt.UTC().Format(time.RFC3339)
		}

		if _, err := tx.ExecContext(ctx, runQuery,
			cycleID, run.ID, run.Name, string(run.Status), string(run.Conclusion),
			run.DetailsURL, startedAt, completedAt,
		); err != nil {
			return fmt.Errorf("insert check run %d for cycle %d: %w", run.ID, cycleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cycle %d of run %s: %w", snap.Attempt, snap.RunID, err)
	}

	return nil
}

// CyclesForRun returns all recorded snapshots for a monitor run, ordered by attempt.
func (r *SnapshotRepo) CyclesForRun(ctx context.Context, runID string) ([]driven.CycleSnapshot, error) {
	const cycleQuery = `
		SELECT id, attempt, verdict
		FROM poll_cycles
		WHERE run_id = ?
		ORDER BY attempt
	`

	rows, err := r.db.Reader.QueryContext(ctx, cycleQuery, runID)
	if err != nil {
		return nil, fmt.Errorf("query cycles for run %s: %w", runID, err)
	}
	defer rows.Close()

	type cycleRow struct {
		id      int64
		attempt int
		verdict string
	}

	var cycles []cycleRow
	for rows.Next() {
		var c cycleRow
		if err := rows.Scan(&c.id, &c.attempt, &c.verdict); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		cycles = append(cycles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycles: %w", err)
	}

	var snaps []driven.CycleSnapshot
	for _, c := range cycles {
		runs, err := r.runsForCycle(ctx, c.id)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, driven.CycleSnapshot{
			RunID:   runID,
			Attempt: c.attempt,
			Runs:    runs,
			Verdict: c.verdict,
		})
	}

	return snaps, nil
}

func (r *SnapshotRepo) runsForCycle(ctx context.Context, cycleID int64) ([]model.CheckRun, error) {
	const query = `
		SELECT check_run_id, name, status, conclusion, details_url, started_at, completed_at
		FROM cycle_check_runs
		WHERE cycle_id = ?
		ORDER BY name
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, cycleID)
	if err != nil {
		return nil, fmt.Errorf("query check runs for cycle %d: %w", cycleID, err)
	}
	defer rows.Close()

	var runs []model.CheckRun
	for rows.Next() {
		run, err := scanCheckRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan check run: %w", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check runs: %w", err)
	}

	return runs, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCheckRun(s scanner) (*model.CheckRun, error) {
	var run model.CheckRun
	var status, conclusion string
	var startedAt, completedAt sql.NullString

	err := s.Scan(&run.ID, &run.Name, &status, &conclusion, &run.DetailsURL, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	run.Status = model.Status(status)
	run.Conclusion = model.Conclusion(conclusion)

	if startedAt.Valid {
		run.StartedAt, err = parseTime(startedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
	}

	if completedAt.Valid {
		run.CompletedAt, err = parseTime(completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
	}

	return &run, nil
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
