package domain

import (
	"strconv"
)

// ColumnType is the inferred storage type of a table column.
type ColumnType string

// Column types, ordered from narrowest to widest.
const (
	TypeInteger ColumnType = "integer"
	TypeFloat   ColumnType = "float"
	TypeBoolean ColumnType = "boolean"
	TypeText    ColumnType = "text"
)

// Column describes one named, typed column of a Table.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Table is an in-memory tabular dataset. Cell values are nil (missing),
// int64, float64, bool or string. A Table is treated as immutable once it
// has been handed to a caller.
type Table struct {
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// NewTable returns an empty table with the given columns.
func NewTable(columns ...Column) *Table {
	return &Table{Columns: columns, Rows: [][]any{}}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has neither columns nor rows.
func (t *Table) Empty() bool {
	return t == nil || (len(t.Columns) == 0 && len(t.Rows) == 0)
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Head returns a new table holding at most the first n rows.
func (t *Table) Head(n int) *Table {
	if t == nil {
		return NewTable()
	}
	if n < 0 {
		n = 0
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	rows := make([][]any, n)
	copy(rows, t.Rows[:n])
	return &Table{Columns: append([]Column(nil), t.Columns...), Rows: rows}
}

// Select returns a new table with only the named columns, in the given
// order. Names that are not present are skipped.
func (t *Table) Select(names ...string) *Table {
	idx := make([]int, 0, len(names))
	cols := make([]Column, 0, len(names))
	for _, name := range names {
		if i := t.ColumnIndex(name); i >= 0 {
			idx = append(idx, i)
			cols = append(cols, t.Columns[i])
		}
	}
	out := &Table{Columns: cols, Rows: make([][]any, 0, t.Len())}
	for _, row := range t.Rows {
		projected := make([]any, len(idx))
		for j, i := range idx {
			projected[j] = row[i]
		}
		out.Rows = append(out.Rows, projected)
	}
	return out
}

// FormatValue renders a cell value as a display label. Missing values
// render as the empty string.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []byte:
		return string(x)
	default:
		return ""
	}
}
