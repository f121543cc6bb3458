// Package db provides connectivity helpers for the trip stores.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
)

// Mode selects how a store file is opened.
type Mode string

// Store open modes.
const (
	ModeRead  Mode = "read"
	ModeWrite Mode = "write"
)

// SQLite DSN parameters.
const (
	defaultBusyTimeout = "5000" // 5 seconds
	defaultSynchronous = "NORMAL"
	defaultJournalMode = "WAL"
)

// pingTimeout bounds the connectivity check after opening a store.
const pingTimeout = 5 * time.Second

// OpenSQLite opens a *sql.DB for the given SQLite file path.
//
// mode controls write-safety:
//   - ModeWrite: single connection, WAL journal, _txlock=immediate
//   - ModeRead:  query-only connections, no journal change
//
// Both modes set busy_timeout=5000ms.
func OpenSQLite(path string, mode Mode) (*sql.DB, error) {
	if mode != ModeRead && mode != ModeWrite {
		return nil, fmt.Errorf("invalid SQLite mode %q: must be \"read\" or \"write\"", mode)
	}

	db, err := sql.Open("sqlite3", buildDSN(path, mode))
	if err != nil {
		return nil, fmt.Errorf("open sqlite (%s): %w", mode, err)
	}

	if mode == ModeWrite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite (%s): %w", mode, err)
	}

	return db, nil
}

// buildDSN constructs a SQLite DSN for the given mode.
func buildDSN(path string, mode Mode) string {
	params := url.Values{}
	params.Set("_busy_timeout", defaultBusyTimeout)

	switch mode {
	case ModeWrite:
		params.Set("_journal_mode", defaultJournalMode)
		params.Set("_synchronous", defaultSynchronous)
		params.Set("_txlock", "immediate")
	case ModeRead:
		params.Set("_query_only", "true")
	}

	return path + "?" + params.Encode()
}

// FileExists reports whether a store file is present at path. Any stat
// failure other than "not exist" is returned.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return !info.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}

// EnsureParentDir creates the directory that will hold the file at path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store directory %s: %w", dir, err)
	}
	return nil
}
