package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bike-dash/internal/domain"
)

func TestCreateTable(t *testing.T) {
	cols := []domain.Column{
		{Name: "duration_sec", Type: domain.TypeInteger},
		{Name: "start station name", Type: domain.TypeText},
		{Name: "avg", Type: domain.TypeFloat},
		{Name: "is_member", Type: domain.TypeBoolean},
	}

	tests := []struct {
		name    string
		dialect Dialect
		table   string
		columns []domain.Column
		want    string
		wantErr string
	}{
		{
			name:    "sqlite",
			dialect: SQLite,
			table:   "trips",
			columns: cols,
			want:    `CREATE TABLE "trips" ("duration_sec" INTEGER, "start station name" TEXT, "avg" REAL, "is_member" BOOLEAN)`,
		},
		{
			name:    "duckdb",
			dialect: DuckDB,
			table:   "trips",
			columns: cols,
			want:    `CREATE TABLE "trips" ("duration_sec" BIGINT, "start station name" VARCHAR, "avg" DOUBLE, "is_member" BOOLEAN)`,
		},
		{
			name:    "quotes_in_column_name",
			dialect: SQLite,
			table:   "trips",
			columns: []domain.Column{{Name: `a"b`, Type: domain.TypeText}},
			want:    `CREATE TABLE "trips" ("a""b" TEXT)`,
		},
		{
			name:    "no_columns",
			dialect: SQLite,
			table:   "trips",
			wantErr: "at least one column",
		},
		{
			name:    "invalid_table",
			dialect: SQLite,
			table:   "trips; DROP",
			columns: cols,
			wantErr: "invalid table name",
		},
		{
			name:    "empty_column_name",
			dialect: SQLite,
			table:   "trips",
			columns: []domain.Column{{Name: "", Type: domain.TypeText}},
			wantErr: "column name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CreateTable(tt.dialect, tt.table, tt.columns)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInsert(t *testing.T) {
	got, err := Insert("trips", []domain.Column{{Name: "a"}, {Name: "b c"}})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "trips" ("a", "b c") VALUES (?, ?)`, got)

	_, err = Insert("trips", nil)
	require.Error(t, err)
}

func TestDropAndSelect(t *testing.T) {
	drop, err := DropTable("trips")
	require.NoError(t, err)
	assert.Equal(t, `DROP TABLE IF EXISTS "trips"`, drop)

	sel, err := SelectAll("trips")
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "trips"`, sel)

	_, err = SelectAll("1trips")
	require.Error(t, err)
}

func TestColumnType(t *testing.T) {
	tests := []struct {
		declared string
		want     domain.ColumnType
	}{
		{"INTEGER", domain.TypeInteger},
		{"BIGINT", domain.TypeInteger},
		{"REAL", domain.TypeFloat},
		{"DOUBLE", domain.TypeFloat},
		{"DECIMAL(10,2)", domain.TypeFloat},
		{"BOOLEAN", domain.TypeBoolean},
		{"TEXT", domain.TypeText},
		{"VARCHAR", domain.TypeText},
		{"", domain.TypeText},
	}
	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			assert.Equal(t, tt.want, ColumnType(tt.declared))
		})
	}

	for _, ct := range []domain.ColumnType{domain.TypeInteger, domain.TypeFloat, domain.TypeBoolean, domain.TypeText} {
		assert.Equal(t, ct, ColumnType(SQLType(SQLite, ct)), "sqlite round trip %s", ct)
		assert.Equal(t, ct, ColumnType(SQLType(DuckDB, ct)), "duckdb round trip %s", ct)
	}
}
