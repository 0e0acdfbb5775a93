// Package history keeps a best-effort record of past fetch runs in a
// sqlite database under the config directory. Failures here are logged
// and swallowed by the caller; history must never break a download.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultFileName is the database file name under the config dir.
const DefaultFileName = "history.db"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	system      TEXT    NOT NULL,
	source_url  TEXT    NOT NULL,
	destination TEXT    NOT NULL,
	wanted      INTEGER NOT NULL,
	found       INTEGER NOT NULL,
	missing     INTEGER NOT NULL,
	downloaded  INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	cancelled   INTEGER NOT NULL DEFAULT 0,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS run_files (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id  INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	name    TEXT    NOT NULL,
	status  TEXT    NOT NULL,
	detail  TEXT    NOT NULL DEFAULT '',
	written INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_run_files_run ON run_files(run_id);
`

// Run is one recorded batch.
type Run struct {
	ID          int64
	System      string
	SourceURL   string
	Destination string
	Wanted      int
	Found       int
	Missing     int
	Downloaded  int
	Skipped     int
	Failed      int
	Cancelled   bool
	StartedAt   time.Time
	FinishedAt  time.Time
}

// FileRecord is one per-file outcome within a run.
type FileRecord struct {
	Name    string
	Status  string
	Detail  string
	Written int64
}

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	// modernc sqlite serializes per connection; one is plenty for a
	// sequential CLI and avoids locking surprises.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun persists a run and its per-file outcomes atomically and
// returns the run's id.
func (s *Store) RecordRun(run Run, files []FileRecord) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO runs (system, source_url, destination, wanted, found,
			missing, downloaded, skipped, failed, cancelled, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.System, run.SourceURL, run.Destination, run.Wanted, run.Found,
		run.Missing, run.Downloaded, run.Skipped, run.Failed,
		boolToInt(run.Cancelled), run.StartedAt.Unix(), run.FinishedAt.Unix(),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, f := range files {
		if _, err := tx.Exec(`
			INSERT INTO run_files (run_id, name, status, detail, written)
			VALUES (?, ?, ?, ?, ?)`,
			id, f.Name, f.Status, f.Detail, f.Written,
		); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, system, source_url, destination, wanted, found, missing,
			downloaded, skipped, failed, cancelled, started_at, finished_at
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var cancelled int
		var started, finished int64
		if err := rows.Scan(&r.ID, &r.System, &r.SourceURL, &r.Destination,
			&r.Wanted, &r.Found, &r.Missing, &r.Downloaded, &r.Skipped,
			&r.Failed, &cancelled, &started, &finished); err != nil {
			return nil, err
		}
		r.Cancelled = cancelled != 0
		r.StartedAt = time.Unix(started, 0)
		r.FinishedAt = time.Unix(finished, 0)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunFiles returns the per-file records of one run in insert order.
func (s *Store) RunFiles(runID int64) ([]FileRecord, error) {
	rows, err := s.db.Query(`
		SELECT name, status, detail, written FROM run_files
		WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []FileRecord
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.Name, &f.Status, &f.Detail, &f.Written); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// Flush removes every recorded run.
func (s *Store) Flush() error {
	_, err := s.db.Exec(`DELETE FROM run_files; DELETE FROM runs;`)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
