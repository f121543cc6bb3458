package tabular

import (
	"bike-dash/internal/domain"
)

// Field is one named value of a record. Values are nil, int64, float64,
// bool or string.
type Field struct {
	Name  string
	Value any
}

// FromRecords builds a table from records. Columns are the union of field
// names in order of first appearance; a record lacking a field has nil in
// that column. Column types widen the same way Concat does, and columns
// holding only missing values are text.
func FromRecords(records [][]Field) *domain.Table {
	var columns []domain.Column
	typed := map[string]bool{}
	index := map[string]int{}
	for _, rec := range records {
		for _, f := range rec {
			i, ok := index[f.Name]
			if !ok {
				i = len(columns)
				index[f.Name] = i
				columns = append(columns, domain.Column{Name: f.Name, Type: domain.TypeText})
			}
			if f.Value == nil {
				continue
			}
			vt := valueType(f.Value)
			if !typed[f.Name] {
				columns[i].Type = vt
				typed[f.Name] = true
				continue
			}
			columns[i].Type = widen(columns[i].Type, vt)
		}
	}

	out := &domain.Table{Columns: columns, Rows: make([][]any, 0, len(records))}
	for _, rec := range records {
		row := make([]any, len(columns))
		for _, f := range rec {
			i := index[f.Name]
			row[i] = coerce(f.Value, columns[i].Type)
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func valueType(v any) domain.ColumnType {
	switch v.(type) {
	case int64:
		return domain.TypeInteger
	case float64:
		return domain.TypeFloat
	case bool:
		return domain.TypeBoolean
	default:
		return domain.TypeText
	}
}
