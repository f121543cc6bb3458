package ddl

import (
	"fmt"
	"regexp"
	"strings"
)

var tableNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const maxTableNameLen = 128

// reservedPrefixes are table name prefixes owned by the store engines.
var reservedPrefixes = []string{"sqlite_", "duckdb_", "pg_"}

// ValidateTableName checks that name can hold the trip table: non-empty,
// at most 128 characters of [a-zA-Z_][a-zA-Z0-9_]*, not an engine-reserved
// name and not the manifest table.
//
// Column names come from CSV headers and are never validated, only quoted.
func ValidateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > maxTableNameLen {
		return fmt.Errorf("name must be at most %d characters", maxTableNameLen)
	}
	if !tableNameRe.MatchString(name) {
		return fmt.Errorf("name must match [a-zA-Z_][a-zA-Z0-9_]*")
	}
	lower := strings.ToLower(name)
	if lower == ManifestTable {
		return fmt.Errorf("%s is used for the store manifest", ManifestTable)
	}
	for _, p := range reservedPrefixes {
		if strings.HasPrefix(lower, p) {
			return fmt.Errorf("prefix %q is reserved by the store engine", p)
		}
	}
	return nil
}

// QuoteIdentifier double-quotes a table or column name. Embedded quotes are
// doubled and NUL bytes, which neither engine accepts, are dropped.
func QuoteIdentifier(name string) string {
	name = strings.ReplaceAll(name, "\x00", "")
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
