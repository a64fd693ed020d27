package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) the SQLite database in dataDir and applies the
// schema. Pass ":memory:" as dataDir for an in-memory database (used by
// tests and local development).
func Open(ctx context.Context, dataDir string) (*sql.DB, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "scanpipe.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Single connection avoids "database is locked" under concurrent scans.
	db.SetMaxOpenConns(1)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if err := applySchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return db, nil
}

func applySchema(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS scan_records (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	page_url    TEXT NOT NULL,
	scan_type   TEXT NOT NULL,
	status      TEXT NOT NULL,
	match_found INTEGER NOT NULL DEFAULT 0,
	match_score REAL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scan_records_user_created
	ON scan_records(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS scan_errors (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    TEXT NOT NULL,
	scan_id    TEXT NOT NULL,
	scan_type  TEXT,
	phase      TEXT,
	message    TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scan_errors_scan
	ON scan_errors(user_id, scan_id);

CREATE TABLE IF NOT EXISTS app_settings (
	name  TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}
