package repository

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	duckdb "github.com/duckdb/duckdb-go/v2"

	"bike-dash/internal/db"
	"bike-dash/internal/ddl"
	"bike-dash/internal/domain"
)

// DuckDBTripStore persists the trip table in a DuckDB file, bulk loading
// rows through the DuckDB appender.
type DuckDBTripStore struct {
	tripStore
}

var _ domain.TripStore = (*DuckDBTripStore)(nil)

// NewDuckDBTripStore creates a store for the table in the file at path.
func NewDuckDBTripStore(path, table string) *DuckDBTripStore {
	return &DuckDBTripStore{tripStore{
		path:       path,
		table:      table,
		open:       db.OpenDuckDB,
		catalogSQL: `SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?`,
		now:        time.Now,
	}}
}

// Replace drops and recreates the table with the contents of t in one
// transaction. An empty table is recorded in the manifest only.
func (s *DuckDBTripStore) Replace(ctx context.Context, t *domain.Table, source string) error {
	if t == nil {
		t = domain.NewTable()
	}
	if err := db.EnsureParentDir(s.path); err != nil {
		return err
	}

	sqlDB, err := db.OpenDuckDB(s.path, db.ModeWrite)
	if err != nil {
		return err
	}
	defer sqlDB.Close() //nolint:errcheck

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close() //nolint:errcheck

	if _, err := conn.ExecContext(ctx, `BEGIN TRANSACTION`); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	rollback := func(cause error) error {
		_, _ = conn.ExecContext(ctx, `ROLLBACK`)
		return cause
	}

	if _, err := conn.ExecContext(ctx, ddl.CreateManifest(ddl.DuckDB)); err != nil {
		return rollback(fmt.Errorf("create manifest: %w", err))
	}
	drop, err := ddl.DropTable(s.table)
	if err != nil {
		return rollback(err)
	}
	if _, err := conn.ExecContext(ctx, drop); err != nil {
		return rollback(fmt.Errorf("drop %s: %w", s.table, err))
	}

	if len(t.Columns) > 0 {
		create, err := ddl.CreateTable(ddl.DuckDB, s.table, t.Columns)
		if err != nil {
			return rollback(err)
		}
		if _, err := conn.ExecContext(ctx, create); err != nil {
			return rollback(fmt.Errorf("create %s: %w", s.table, err))
		}

		err = conn.Raw(func(raw any) error {
			driverConn, ok := raw.(driver.Conn)
			if !ok {
				return fmt.Errorf("unexpected raw conn type %T", raw)
			}
			appender, err := duckdb.NewAppenderFromConn(driverConn, "", s.table)
			if err != nil {
				return fmt.Errorf("create appender: %w", err)
			}

			values := make([]driver.Value, len(t.Columns))
			for i, row := range t.Rows {
				for j := range values {
					values[j] = nil
					if j < len(row) {
						values[j] = row[j]
					}
				}
				if err := appender.AppendRow(values...); err != nil {
					_ = appender.Close()
					return fmt.Errorf("append row %d: %w", i, err)
				}
			}
			if err := appender.Close(); err != nil {
				return fmt.Errorf("flush appender: %w", err)
			}
			return nil
		})
		if err != nil {
			return rollback(err)
		}
	}

	if _, err := conn.ExecContext(ctx, ddl.UpsertManifest(),
		s.table, len(t.Columns), len(t.Rows), source, s.now().UTC().Format(time.RFC3339Nano)); err != nil {
		return rollback(fmt.Errorf("record manifest: %w", err))
	}

	if _, err := conn.ExecContext(ctx, `COMMIT`); err != nil {
		return rollback(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}
