package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bike-dash/internal/db"
	"bike-dash/internal/ddl"
	"bike-dash/internal/domain"
)

// SQLiteTripStore persists the trip table in a single SQLite file.
type SQLiteTripStore struct {
	tripStore
}

var _ domain.TripStore = (*SQLiteTripStore)(nil)

// NewSQLiteTripStore creates a store for the table in the file at path.
func NewSQLiteTripStore(path, table string) *SQLiteTripStore {
	return &SQLiteTripStore{tripStore{
		path:       path,
		table:      table,
		open:       db.OpenSQLite,
		catalogSQL: `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
		now:        time.Now,
	}}
}

// Replace drops and recreates the table with the contents of t in one
// transaction. An empty table is recorded in the manifest only.
func (s *SQLiteTripStore) Replace(ctx context.Context, t *domain.Table, source string) error {
	if err := db.EnsureParentDir(s.path); err != nil {
		return err
	}
	conn, err := db.OpenSQLite(s.path, db.ModeWrite)
	if err != nil {
		return err
	}
	defer conn.Close() //nolint:errcheck

	return s.replace(ctx, conn, t, source)
}

func (s *SQLiteTripStore) replace(ctx context.Context, conn *sql.DB, t *domain.Table, source string) (err error) {
	if t == nil {
		t = domain.NewTable()
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, ddl.CreateManifest(ddl.SQLite)); err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}

	drop, err := ddl.DropTable(s.table)
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, drop); err != nil {
		return fmt.Errorf("drop %s: %w", s.table, err)
	}

	if len(t.Columns) > 0 {
		if err = s.insertAll(ctx, tx, t); err != nil {
			return err
		}
	}

	if _, err = tx.ExecContext(ctx, ddl.UpsertManifest(),
		s.table, len(t.Columns), len(t.Rows), source, s.now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("record manifest: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteTripStore) insertAll(ctx context.Context, tx *sql.Tx, t *domain.Table) error {
	create, err := ddl.CreateTable(ddl.SQLite, s.table, t.Columns)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}

	insert, err := ddl.Insert(s.table, t.Columns)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range t.Rows {
		if _, err := stmt.ExecContext(ctx, rowArgs(row, len(t.Columns))...); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return nil
}
