// Package history is the deletion journal: an optional collaborator that
// subscribes to a job's event stream and records one row per terminal
// entry. The engine itself owns no on-disk format; this is purely a
// consumer.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"rmfast/internal/report"
)

// Journal manages the SQLite deletion history.
type Journal struct {
	db *sql.DB
}

// Record is one journaled terminal entry.
type Record struct {
	ID        int64
	Timestamp time.Time
	Action    string // DELETE, DRY_RUN or ERROR
	Path      string
	Kind      string
	Size      int64
	Reason    string
}

// Stats summarizes journal activity over a period.
type Stats struct {
	Since      time.Time
	Deleted    int64
	Failed     int64
	BytesFreed int64
}

const schema = `
CREATE TABLE IF NOT EXISTS deletions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp DATETIME NOT NULL,
	action TEXT NOT NULL,
	path TEXT NOT NULL,
	kind TEXT NOT NULL,
	size INTEGER NOT NULL DEFAULT 0,
	reason TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_deletions_timestamp ON deletions(timestamp);
CREATE INDEX IF NOT EXISTS idx_deletions_action ON deletions(action);
`

// Open creates or opens the journal at dbPath, creating parent directories
// as needed.
func Open(dbPath string) (*Journal, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	// WAL keeps readers (rmfast-log) from blocking the writer mid-job.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set synchronous mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// RecordEvent journals one terminal event. dryRun distinguishes what would
// have been deleted from what was.
func (j *Journal) RecordEvent(ev report.Event, dryRun bool) error {
	action := "DELETE"
	switch {
	case ev.Outcome == report.OutcomeFailed:
		action = "ERROR"
	case dryRun:
		action = "DRY_RUN"
	}

	_, err := j.db.Exec(
		`INSERT INTO deletions (timestamp, action, path, kind, size, reason) VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now().UTC(), action, ev.Path, ev.Kind.String(), ev.Size, ev.Reason,
	)
	if err != nil {
		return fmt.Errorf("record deletion: %w", err)
	}
	return nil
}

// Recent returns the n most recent records, newest first.
func (j *Journal) Recent(n int) ([]Record, error) {
	rows, err := j.db.Query(
		`SELECT id, timestamp, action, path, kind, size, reason
		 FROM deletions ORDER BY timestamp DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ByPath returns records whose path matches the SQL LIKE pattern.
func (j *Journal) ByPath(pattern string, limit int) ([]Record, error) {
	rows, err := j.db.Query(
		`SELECT id, timestamp, action, path, kind, size, reason
		 FROM deletions WHERE path LIKE ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("query by path: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// GetStats aggregates the last days of journal activity.
func (j *Journal) GetStats(days int) (Stats, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)
	stats := Stats{Since: since}

	row := j.db.QueryRow(
		`SELECT
			COALESCE(SUM(CASE WHEN action IN ('DELETE','DRY_RUN') THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN action = 'ERROR' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN action = 'DELETE' THEN size ELSE 0 END), 0)
		 FROM deletions WHERE timestamp >= ?`, since)
	if err := row.Scan(&stats.Deleted, &stats.Failed, &stats.BytesFreed); err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return stats, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Action, &r.Path, &r.Kind, &r.Size, &r.Reason); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
