package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/chmdznr/nexus-npm-sync/pkg/models"
)

// DB is the run-history journal: one row per sync run plus the assets that
// run transferred. It is diagnostic only; the incremental cutoff always
// comes from the state file.
type DB struct {
	*sql.DB
}

// Open opens the journal at the given path, creating it if needed.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db := &DB{sqlDB}
	if err := db.initialize(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// initialize creates the necessary tables if they don't exist
func (db *DB) initialize() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at DATETIME,
			finished_at DATETIME,
			mode TEXT,
			repo_type TEXT,
			candidates INTEGER,
			succeeded INTEGER,
			failed INTEGER,
			skipped INTEGER
		);
		CREATE TABLE IF NOT EXISTS run_assets (
			run_id TEXT,
			path TEXT,
			last_modified TEXT,
			synced_at TEXT,
			PRIMARY KEY (run_id, path)
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
		CREATE INDEX IF NOT EXISTS idx_run_assets_run ON run_assets(run_id);
		PRAGMA journal_mode=WAL;
		PRAGMA synchronous=NORMAL;
	`)
	return err
}

// RecordRun saves a run summary and its synced assets in a single transaction.
func (db *DB) RecordRun(run models.RunSummary, records []models.SyncRecord) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, started_at, finished_at, mode, repo_type, candidates, succeeded, failed, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.StartedAt,
		run.FinishedAt,
		run.Mode,
		run.RepoType,
		run.Candidates,
		run.Succeeded,
		run.Failed,
		run.Skipped,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO run_assets (run_id, path, last_modified, synced_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, record := range records {
		_, err = stmt.Exec(run.ID, record.Path, record.LastModified, record.SyncedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentRuns returns up to limit runs, newest first.
func (db *DB) RecentRuns(limit int) ([]models.RunSummary, error) {
	rows, err := db.Query(`
		SELECT id, started_at, finished_at, mode, repo_type, candidates, succeeded, failed, skipped
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.RunSummary
	for rows.Next() {
		var run models.RunSummary
		err = rows.Scan(
			&run.ID,
			&run.StartedAt,
			&run.FinishedAt,
			&run.Mode,
			&run.RepoType,
			&run.Candidates,
			&run.Succeeded,
			&run.Failed,
			&run.Skipped,
		)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunAssets returns the assets a run synced, in insertion order.
func (db *DB) RunAssets(runID string) ([]models.SyncRecord, error) {
	rows, err := db.Query(`
		SELECT path, last_modified, synced_at
		FROM run_assets
		WHERE run_id = ?
		ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.SyncRecord
	for rows.Next() {
		var record models.SyncRecord
		if err := rows.Scan(&record.Path, &record.LastModified, &record.SyncedAt); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Totals returns aggregate outcome counts across all recorded runs.
func (db *DB) Totals() (*models.HistoryTotals, error) {
	var totals models.HistoryTotals
	err := db.QueryRow(`
		SELECT
			COUNT(*) as runs,
			COALESCE(SUM(succeeded), 0) as succeeded,
			COALESCE(SUM(failed), 0) as failed,
			COALESCE(SUM(skipped), 0) as skipped
		FROM runs
	`).Scan(
		&totals.Runs,
		&totals.Succeeded,
		&totals.Failed,
		&totals.Skipped,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get history totals: %v", err)
	}
	return &totals, nil
}
