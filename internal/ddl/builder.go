// Package ddl builds the SQL statements used to persist the trip table in
// SQLite and DuckDB stores.
package ddl

import (
	"fmt"
	"strings"

	"bike-dash/internal/domain"
)

// Dialect selects the SQL type names used for a store.
type Dialect string

// Supported dialects.
const (
	SQLite Dialect = "sqlite"
	DuckDB Dialect = "duckdb"
)

// ManifestTable records the shape and origin of every replaced table.
const ManifestTable = "ingest_manifest"

// CreateManifest returns the DDL for the manifest table.
func CreateManifest(d Dialect) string {
	count := "INTEGER"
	if d == DuckDB {
		count = "BIGINT"
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	table_name   TEXT PRIMARY KEY,
	column_count %s NOT NULL,
	row_count    %s NOT NULL,
	source       TEXT NOT NULL,
	ingested_at  TEXT NOT NULL
)`, ManifestTable, count, count)
}

// UpsertManifest returns the statement that records a manifest entry.
// Parameters: table_name, column_count, row_count, source, ingested_at.
func UpsertManifest() string {
	return fmt.Sprintf(`INSERT INTO %s (table_name, column_count, row_count, source, ingested_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (table_name) DO UPDATE SET
	column_count = excluded.column_count,
	row_count = excluded.row_count,
	source = excluded.source,
	ingested_at = excluded.ingested_at`, ManifestTable)
}

// SQLType maps a column type to the dialect's storage type.
func SQLType(d Dialect, t domain.ColumnType) string {
	switch t {
	case domain.TypeInteger:
		if d == DuckDB {
			return "BIGINT"
		}
		return "INTEGER"
	case domain.TypeFloat:
		if d == DuckDB {
			return "DOUBLE"
		}
		return "REAL"
	case domain.TypeBoolean:
		return "BOOLEAN"
	default:
		if d == DuckDB {
			return "VARCHAR"
		}
		return "TEXT"
	}
}

// ColumnType maps a declared SQL type back to a column type. Unknown
// declarations map to text.
func ColumnType(declared string) domain.ColumnType {
	upper := strings.ToUpper(strings.TrimSpace(declared))
	switch {
	case upper == "BOOLEAN" || upper == "BOOL":
		return domain.TypeBoolean
	case strings.Contains(upper, "INT"):
		return domain.TypeInteger
	case strings.Contains(upper, "REAL"), strings.Contains(upper, "DOUBLE"),
		strings.Contains(upper, "FLOAT"), strings.HasPrefix(upper, "DECIMAL"),
		strings.HasPrefix(upper, "NUMERIC"):
		return domain.TypeFloat
	default:
		return domain.TypeText
	}
}

// CreateTable returns CREATE TABLE "<table>" ("<col1>" TYPE1, ...).
// The table must have at least one column.
func CreateTable(d Dialect, table string, columns []domain.Column) (string, error) {
	if err := ValidateTableName(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("at least one column is required")
	}

	colDefs := make([]string, 0, len(columns))
	for _, c := range columns {
		if c.Name == "" {
			return "", fmt.Errorf("column name is required")
		}
		colDefs = append(colDefs, fmt.Sprintf("%s %s", QuoteIdentifier(c.Name), SQLType(d, c.Type)))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdentifier(table), strings.Join(colDefs, ", ")), nil
}

// DropTable returns DROP TABLE IF EXISTS "<table>".
func DropTable(table string) (string, error) {
	if err := ValidateTableName(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	return "DROP TABLE IF EXISTS " + QuoteIdentifier(table), nil
}

// Insert returns a parameterized INSERT for every column of the table.
func Insert(table string, columns []domain.Column) (string, error) {
	if err := ValidateTableName(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("at least one column is required")
	}
	names := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		names[i] = QuoteIdentifier(c.Name)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdentifier(table), strings.Join(names, ", "), strings.Join(marks, ", ")), nil
}

// SelectAll returns SELECT * FROM "<table>".
func SelectAll(table string) (string, error) {
	if err := ValidateTableName(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	return "SELECT * FROM " + QuoteIdentifier(table), nil
}
