package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bike-dash/internal/domain"
)

func TestExtractTables(t *testing.T) {
	t.Run("parses_csv_entries_in_order", func(t *testing.T) {
		data := buildZip(t,
			zipEntry{name: "201801-fordgobike-tripdata.csv", body: "start_station_name,end_station_name\nA,B\n"},
			zipEntry{name: "README.txt", body: "not a table"},
			zipEntry{name: "201802-fordgobike-tripdata.csv", body: "start_station_name,end_station_name\nC,D\nE,F\n"},
		)

		tables, err := ExtractTables("trips.zip", data)
		require.NoError(t, err)
		require.Len(t, tables, 2)
		assert.Equal(t, [][]any{{"A", "B"}}, tables[0].Rows)
		assert.Equal(t, 2, tables[1].Len())
	})

	t.Run("skips_resource_forks_and_directories", func(t *testing.T) {
		data := buildZip(t,
			zipEntry{name: "data/"},
			zipEntry{name: "data/trips.csv", body: "a\n1\n"},
			zipEntry{name: "__MACOSX/data/._trips.csv", body: "\x00\x05\x16\x07binary"},
			zipEntry{name: "data/._other.csv", body: "\x00\x05\x16\x07binary"},
		)

		tables, err := ExtractTables("trips.zip", data)
		require.NoError(t, err)
		require.Len(t, tables, 1)
		assert.Equal(t, []string{"a"}, tables[0].ColumnNames())
	})

	t.Run("no_csv_entries", func(t *testing.T) {
		tables, err := ExtractTables("empty.zip", buildZip(t, zipEntry{name: "notes.md", body: "x"}))
		require.NoError(t, err)
		assert.Empty(t, tables)
	})

	t.Run("not_a_zip", func(t *testing.T) {
		_, err := ExtractTables("broken.zip", []byte("<html>not found</html>"))
		var malformed *domain.MalformedError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "broken.zip", malformed.Source)
	})

	t.Run("malformed_csv_entry", func(t *testing.T) {
		data := buildZip(t, zipEntry{name: "bad.csv", body: "a,b\n1,2,3\n"})
		_, err := ExtractTables("trips.zip", data)
		var malformed *domain.MalformedError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "trips.zip!bad.csv", malformed.Source)
	})
}
