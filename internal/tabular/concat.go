package tabular

import (
	"bike-dash/internal/domain"
)

// Concat unions table fragments row-wise. Columns are aligned by name in
// order of first appearance; cells a fragment lacks are nil. Rows keep
// their discovery order and duplicates are preserved. With no fragments
// the result has neither columns nor rows.
func Concat(fragments ...*domain.Table) *domain.Table {
	var columns []domain.Column
	index := map[string]int{}
	total := 0
	for _, f := range fragments {
		if f == nil {
			continue
		}
		total += len(f.Rows)
		for _, c := range f.Columns {
			if i, ok := index[c.Name]; ok {
				columns[i].Type = widen(columns[i].Type, c.Type)
				continue
			}
			index[c.Name] = len(columns)
			columns = append(columns, c)
		}
	}

	out := &domain.Table{Columns: columns, Rows: make([][]any, 0, total)}
	for _, f := range fragments {
		if f == nil {
			continue
		}
		positions := make([]int, len(f.Columns))
		for j, c := range f.Columns {
			positions[j] = index[c.Name]
		}
		for _, row := range f.Rows {
			merged := make([]any, len(columns))
			for j, v := range row {
				merged[positions[j]] = coerce(v, columns[positions[j]].Type)
			}
			out.Rows = append(out.Rows, merged)
		}
	}
	return out
}

// widen returns the narrowest type able to hold values of both a and b.
func widen(a, b domain.ColumnType) domain.ColumnType {
	if a == b {
		return a
	}
	numeric := func(t domain.ColumnType) bool {
		return t == domain.TypeInteger || t == domain.TypeFloat
	}
	if numeric(a) && numeric(b) {
		return domain.TypeFloat
	}
	return domain.TypeText
}

// coerce converts v to the representation of a widened column type.
func coerce(v any, typ domain.ColumnType) any {
	if v == nil {
		return nil
	}
	switch typ {
	case domain.TypeFloat:
		if n, ok := v.(int64); ok {
			return float64(n)
		}
	case domain.TypeText:
		if _, ok := v.(string); !ok {
			return domain.FormatValue(v)
		}
	}
	return v
}
