package gbfs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"bike-dash/internal/domain"
	"bike-dash/internal/tabular"
)

// ParseStations decodes a station feed ({"data": {"stations": [...]}})
// into a table. Columns follow the key order of the station objects.
// Nested values become their compact JSON text, except localized string
// lists (GBFS 3.0 names), which resolve to the text for locale or the
// first entry.
func ParseStations(data []byte, locale string) (*domain.Table, error) {
	var doc struct {
		Data *struct {
			Stations []json.RawMessage `json:"stations"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Data == nil || doc.Data.Stations == nil {
		return nil, fmt.Errorf("missing data.stations")
	}

	records := make([][]tabular.Field, 0, len(doc.Data.Stations))
	for i, raw := range doc.Data.Stations {
		members, err := objectMembers(raw)
		if err != nil {
			return nil, fmt.Errorf("station %d: %w", i, err)
		}
		fields := make([]tabular.Field, len(members))
		for j, m := range members {
			fields[j] = tabular.Field{Name: m.key, Value: scalar(m.value, locale)}
		}
		records = append(records, fields)
	}
	return tabular.FromRecords(records), nil
}

// scalar converts a JSON value into a table cell.
func scalar(raw json.RawMessage, locale string) any {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	switch raw[0] {
	case 'n':
		return nil
	case 't':
		return true
	case 'f':
		return false
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return string(raw)
		}
		return s
	case '[':
		if text, ok := localizedText(raw, locale); ok {
			return text
		}
		return compact(raw)
	case '{':
		return compact(raw)
	default:
		return number(string(raw))
	}
}

func number(s string) any {
	if !strings.ContainsAny(s, ".eE") {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// localizedText resolves a [{"text": ..., "language": ...}] list.
func localizedText(raw json.RawMessage, locale string) (string, bool) {
	var entries []struct {
		Text     *string `json:"text"`
		Language string  `json:"language"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil || len(entries) == 0 {
		return "", false
	}
	for _, e := range entries {
		if e.Text == nil {
			return "", false
		}
	}
	if locale != "" {
		for _, e := range entries {
			if e.Language == locale {
				return *e.Text, true
			}
		}
	}
	return *entries[0].Text, true
}

func compact(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
