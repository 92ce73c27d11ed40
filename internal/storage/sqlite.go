package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tazhate/icsync/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

// Storage keeps the sync-run journal. It records what each run did; the
// reconciliation itself never reads from it.
type Storage struct {
	db *sql.DB
}

func New(dbPath string) (*Storage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sync_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL,
			uploaded INTEGER NOT NULL DEFAULT 0,
			retired INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON sync_runs(started_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// RecordSyncRun appends one run to the journal and fills in its ID.
func (s *Storage) RecordSyncRun(run *domain.SyncRun) error {
	res, err := s.db.Exec(
		`INSERT INTO sync_runs (started_at, finished_at, uploaded, retired, skipped, status, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt, run.FinishedAt, run.Uploaded, run.Retired, run.Skipped, run.Status, run.Error,
	)
	if err != nil {
		return fmt.Errorf("insert sync run: %w", err)
	}

	run.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	return nil
}

// ListRecentRuns returns the newest runs first.
func (s *Storage) ListRecentRuns(limit int) ([]*domain.SyncRun, error) {
	rows, err := s.db.Query(
		`SELECT id, started_at, finished_at, uploaded, retired, skipped, status, error
		 FROM sync_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.SyncRun
	for rows.Next() {
		run := &domain.SyncRun{}
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt,
			&run.Uploaded, &run.Retired, &run.Skipped, &run.Status, &run.Error); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LastSuccessfulRun returns the newest run with status "ok", or nil if none.
func (s *Storage) LastSuccessfulRun() (*domain.SyncRun, error) {
	run := &domain.SyncRun{}
	err := s.db.QueryRow(
		`SELECT id, started_at, finished_at, uploaded, retired, skipped, status, error
		 FROM sync_runs WHERE status = 'ok' ORDER BY started_at DESC LIMIT 1`).
		Scan(&run.ID, &run.StartedAt, &run.FinishedAt,
			&run.Uploaded, &run.Retired, &run.Skipped, &run.Status, &run.Error)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last successful run: %w", err)
	}
	return run, nil
}
