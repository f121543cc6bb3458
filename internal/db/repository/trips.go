// Package repository implements the domain.TripStore backends.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"bike-dash/internal/db"
	"bike-dash/internal/ddl"
	"bike-dash/internal/domain"
)

// Store drivers accepted by NewTripStore.
const (
	DriverSQLite = "sqlite"
	DriverDuckDB = "duckdb"
)

// NewTripStore returns the trip store for the configured driver.
func NewTripStore(driver, path, table string) (domain.TripStore, error) {
	if err := ddl.ValidateTableName(table); err != nil {
		return nil, domain.ErrValidation("invalid trips table %q: %v", table, err)
	}
	switch driver {
	case "", DriverSQLite:
		return NewSQLiteTripStore(path, table), nil
	case DriverDuckDB:
		return NewDuckDBTripStore(path, table), nil
	default:
		return nil, domain.ErrValidation("unknown store driver %q (want %q or %q)", driver, DriverSQLite, DriverDuckDB)
	}
}

// tripStore holds the read side shared by the SQLite and DuckDB stores.
type tripStore struct {
	path       string
	table      string
	open       func(path string, mode db.Mode) (*sql.DB, error)
	catalogSQL string // counts tables with the given name
	now        func() time.Time
}

// Location returns the store file path.
func (s *tripStore) Location() string { return s.path }

// Exists reports whether the store file holds the trip table, or a
// manifest entry for an empty one.
func (s *tripStore) Exists(ctx context.Context) (bool, error) {
	ok, err := db.FileExists(s.path)
	if err != nil || !ok {
		return false, err
	}

	conn, err := s.open(s.path, db.ModeRead)
	if err != nil {
		return false, err
	}
	defer conn.Close() //nolint:errcheck

	return s.exists(ctx, conn)
}

func (s *tripStore) exists(ctx context.Context, conn *sql.DB) (bool, error) {
	m, err := s.manifest(ctx, conn)
	if err != nil {
		return false, err
	}
	if m != nil && m.ColumnCount == 0 {
		return true, nil
	}
	return s.hasTable(ctx, conn, s.table)
}

// Load reads the whole trip table.
func (s *tripStore) Load(ctx context.Context) (*domain.Table, error) {
	ok, err := db.FileExists(s.path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotFound("trip store %s does not exist", s.path)
	}

	conn, err := s.open(s.path, db.ModeRead)
	if err != nil {
		return nil, err
	}
	defer conn.Close() //nolint:errcheck

	m, err := s.manifest(ctx, conn)
	if err != nil {
		return nil, err
	}
	if m != nil && m.ColumnCount == 0 {
		return domain.NewTable(), nil
	}

	has, err := s.hasTable(ctx, conn, s.table)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, domain.ErrNotFound("table %q not found in %s", s.table, s.path)
	}

	query, err := ddl.SelectAll(s.table)
	if err != nil {
		return nil, err
	}
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close() //nolint:errcheck

	return scanTable(rows)
}

// Manifest returns the manifest entry for the trip table, or nil when the
// store was not written by this application.
func (s *tripStore) Manifest(ctx context.Context) (*domain.StoreManifest, error) {
	ok, err := db.FileExists(s.path)
	if err != nil || !ok {
		return nil, err
	}

	conn, err := s.open(s.path, db.ModeRead)
	if err != nil {
		return nil, err
	}
	defer conn.Close() //nolint:errcheck

	return s.manifest(ctx, conn)
}

func (s *tripStore) manifest(ctx context.Context, conn *sql.DB) (*domain.StoreManifest, error) {
	has, err := s.hasTable(ctx, conn, ddl.ManifestTable)
	if err != nil || !has {
		return nil, err
	}

	m := domain.StoreManifest{TableName: s.table}
	var ingestedAt string
	err = conn.QueryRowContext(ctx,
		`SELECT column_count, row_count, source, ingested_at FROM `+ddl.ManifestTable+` WHERE table_name = ?`,
		s.table).Scan(&m.ColumnCount, &m.RowCount, &m.Source, &ingestedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if ts, perr := time.Parse(time.RFC3339Nano, ingestedAt); perr == nil {
		m.IngestedAt = ts
	}
	return &m, nil
}

func (s *tripStore) hasTable(ctx context.Context, conn *sql.DB, name string) (bool, error) {
	var n int64
	if err := conn.QueryRowContext(ctx, s.catalogSQL, name).Scan(&n); err != nil {
		return false, fmt.Errorf("look up table %s: %w", name, err)
	}
	return n > 0, nil
}

// rowArgs returns the row as exactly n arguments, padding with NULL.
func rowArgs(row []any, n int) []any {
	args := make([]any, n)
	copy(args, row)
	return args
}

// scanTable reads every row of rows into a Table, typing columns from
// their declared SQL types.
func scanTable(rows *sql.Rows) (*domain.Table, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types: %w", err)
	}
	cols := make([]domain.Column, len(types))
	for i, ct := range types {
		cols[i] = domain.Column{Name: ct.Name(), Type: ddl.ColumnType(ct.DatabaseTypeName())}
	}

	t := domain.NewTable(cols...)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range vals {
			vals[i] = normalizeValue(v, cols[i].Type)
		}
		t.Rows = append(t.Rows, vals)
	}
	return t, rows.Err()
}

// normalizeValue converts a driver value into one of the cell types a
// Table holds, then coerces it to the column type.
func normalizeValue(v any, ct domain.ColumnType) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		v = string(x)
	case int:
		v = int64(x)
	case int8:
		v = int64(x)
	case int16:
		v = int64(x)
	case int32:
		v = int64(x)
	case uint8:
		v = int64(x)
	case uint16:
		v = int64(x)
	case uint32:
		v = int64(x)
	case uint64:
		v = int64(x)
	case float32:
		v = float64(x)
	case *big.Int:
		v = x.String()
	case time.Time:
		v = x.Format(time.RFC3339)
	case int64, float64, bool, string:
	default:
		v = fmt.Sprint(x)
	}

	switch ct {
	case domain.TypeFloat:
		if n, ok := v.(int64); ok {
			return float64(n)
		}
	case domain.TypeBoolean:
		if n, ok := v.(int64); ok {
			return n != 0
		}
	case domain.TypeText:
		if _, ok := v.(string); !ok {
			return domain.FormatValue(v)
		}
	}
	return v
}
