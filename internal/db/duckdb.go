package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
)

// OpenDuckDB opens a DuckDB database file. ModeRead opens the file with
// access_mode=READ_ONLY so a reader never creates or locks it for writing.
func OpenDuckDB(path string, mode Mode) (*sql.DB, error) {
	if mode != ModeRead && mode != ModeWrite {
		return nil, fmt.Errorf("invalid DuckDB mode %q: must be \"read\" or \"write\"", mode)
	}

	dsn := path
	if mode == ModeRead {
		dsn += "?access_mode=READ_ONLY"
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open duckdb (%s): %w", mode, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb (%s): %w", mode, err)
	}
	return db, nil
}
