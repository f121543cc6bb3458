// Package tabular parses delimited text into domain tables and combines
// table fragments.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"bike-dash/internal/domain"
)

// naTokens are cell values treated as missing.
var naTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {},
	"null": {}, "NULL": {}, "None": {}, "#N/A": {}, "<NA>": {},
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV parses comma-separated text with a header row into a table.
// Each column's type is inferred from its non-missing cells.
func ReadCSV(r io.Reader) (*domain.Table, error) {
	br := &bomSkipper{r: r}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.NewTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	names := mangleDuplicates(header)

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		if len(rec) > len(names) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(names), len(rec))
		}
		records = append(records, rec)
	}

	columns := make([]domain.Column, len(names))
	for i, name := range names {
		columns[i] = domain.Column{Name: name, Type: inferColumn(records, i)}
	}

	rows := make([][]any, len(records))
	for r, rec := range records {
		row := make([]any, len(columns))
		for i, col := range columns {
			if i < len(rec) {
				row[i] = convert(rec[i], col.Type)
			}
		}
		rows[r] = row
	}
	return &domain.Table{Columns: columns, Rows: rows}, nil
}

// ReadCSVFile parses the CSV file at path.
func ReadCSVFile(path string) (*domain.Table, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	t, err := ReadCSV(f)
	if err != nil {
		return nil, domain.ErrMalformed(path, err)
	}
	return t, nil
}

func isMissing(s string) bool {
	_, ok := naTokens[s]
	return ok
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// inferColumn picks the narrowest type that every non-missing cell fits.
// A column with no values at all is text.
func inferColumn(records [][]string, i int) domain.ColumnType {
	isInt, isFloat, isBool := true, true, true
	seen := false
	for _, rec := range records {
		if i >= len(rec) || isMissing(rec[i]) {
			continue
		}
		seen = true
		v := rec[i]
		if isInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat && !isInt {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			if _, ok := parseBool(v); !ok {
				isBool = false
			}
		}
		if !isInt && !isFloat && !isBool {
			return domain.TypeText
		}
	}
	switch {
	case !seen:
		return domain.TypeText
	case isInt:
		return domain.TypeInteger
	case isFloat:
		return domain.TypeFloat
	case isBool:
		return domain.TypeBoolean
	default:
		return domain.TypeText
	}
}

func convert(s string, typ domain.ColumnType) any {
	if isMissing(s) {
		return nil
	}
	switch typ {
	case domain.TypeInteger:
		n, _ := strconv.ParseInt(s, 10, 64)
		return n
	case domain.TypeFloat:
		f, _ := strconv.ParseFloat(s, 64)
		return f
	case domain.TypeBoolean:
		b, _ := parseBool(s)
		return b
	default:
		return s
	}
}

// mangleDuplicates renames repeated header names to name.1, name.2, ...
func mangleDuplicates(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			candidate := fmt.Sprintf("%s.%d", name, n+1)
			for {
				if _, taken := seen[candidate]; !taken {
					break
				}
				seen[name]++
				candidate = fmt.Sprintf("%s.%d", name, seen[name])
			}
			seen[candidate] = 0
			name = candidate
		} else {
			seen[name] = 0
		}
		out[i] = name
	}
	return out
}

// bomSkipper drops a leading UTF-8 byte order mark.
type bomSkipper struct {
	r       io.Reader
	checked bool
}

func (b *bomSkipper) Read(p []byte) (int, error) {
	if b.checked {
		return b.r.Read(p)
	}
	b.checked = true
	head := make([]byte, len(utf8BOM))
	n, err := io.ReadFull(b.r, head)
	head = head[:n]
	if bytes.Equal(head, utf8BOM) {
		head = nil
	}
	rest := b.r
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		rest = errReader{io.EOF}
	case err != nil:
		rest = errReader{err}
	}
	b.r = io.MultiReader(bytes.NewReader(head), rest)
	return b.r.Read(p)
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }
