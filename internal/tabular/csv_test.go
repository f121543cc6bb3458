package tabular

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bike-dash/internal/domain"
)

func TestReadCSV_InfersColumnTypes(t *testing.T) {
	input := "duration_sec,start_station_id,start_station_name,bike_share_for_all_trip,avg_speed\n" +
		"52185,21,Montgomery St BART,No,1.5\n" +
		"42521,23,The Embarcadero,,2\n" +
		"61854,86,Market St,Yes,NaN\n"

	tbl, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []domain.Column{
		{Name: "duration_sec", Type: domain.TypeInteger},
		{Name: "start_station_id", Type: domain.TypeInteger},
		{Name: "start_station_name", Type: domain.TypeText},
		{Name: "bike_share_for_all_trip", Type: domain.TypeText},
		{Name: "avg_speed", Type: domain.TypeFloat},
	}, tbl.Columns)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, []any{int64(52185), int64(21), "Montgomery St BART", "No", 1.5}, tbl.Rows[0])
	assert.Equal(t, []any{int64(42521), int64(23), "The Embarcadero", nil, 2.0}, tbl.Rows[1])
	assert.Nil(t, tbl.Rows[2][4])
}

func TestReadCSV_Booleans(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("is_renting,label\nTrue,x\nfalse,y\nTRUE,z\n"))
	require.NoError(t, err)

	assert.Equal(t, domain.TypeBoolean, tbl.Columns[0].Type)
	assert.Equal(t, []any{true, false, true}, []any{tbl.Rows[0][0], tbl.Rows[1][0], tbl.Rows[2][0]})
}

func TestReadCSV_EdgeCases(t *testing.T) {
	t.Run("empty_input", func(t *testing.T) {
		tbl, err := ReadCSV(strings.NewReader(""))
		require.NoError(t, err)
		assert.True(t, tbl.Empty())
	})

	t.Run("header_only", func(t *testing.T) {
		tbl, err := ReadCSV(strings.NewReader("a,b\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, tbl.ColumnNames())
		assert.Equal(t, 0, tbl.Len())
		assert.Equal(t, domain.TypeText, tbl.Columns[0].Type)
	})

	t.Run("strips_bom", func(t *testing.T) {
		tbl, err := ReadCSV(strings.NewReader("\ufeffid,name\n1,x\n"))
		require.NoError(t, err)
		assert.Equal(t, "id", tbl.Columns[0].Name)
	})

	t.Run("duplicate_headers", func(t *testing.T) {
		tbl, err := ReadCSV(strings.NewReader("a,a,b,a\n1,2,3,4\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "a.1", "b", "a.2"}, tbl.ColumnNames())
	})

	t.Run("short_rows_padded", func(t *testing.T) {
		tbl, err := ReadCSV(strings.NewReader("a,b,c\n1,2\n"))
		require.NoError(t, err)
		assert.Equal(t, []any{int64(1), int64(2), nil}, tbl.Rows[0])
	})

	t.Run("long_rows_rejected", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("a,b\n1,2,3\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected 2 fields")
	})

	t.Run("read_error_in_first_bytes", func(t *testing.T) {
		boom := errors.New("zip: checksum error")
		_, err := ReadCSV(io.MultiReader(strings.NewReader("ab"), iotest.ErrReader(boom)))
		require.ErrorIs(t, err, boom)
	})

	t.Run("tiny_input", func(t *testing.T) {
		tbl, err := ReadCSV(strings.NewReader("a"))
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, tbl.ColumnNames())
	})

	t.Run("quoted_fields", func(t *testing.T) {
		tbl, err := ReadCSV(strings.NewReader("name,n\n\"Market St, 1st\",5\n"))
		require.NoError(t, err)
		assert.Equal(t, "Market St, 1st", tbl.Rows[0][0])
	})
}

func TestReadCSVFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("reads_file", func(t *testing.T) {
		path := filepath.Join(dir, "trips.csv")
		require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o600))
		tbl, err := ReadCSVFile(path)
		require.NoError(t, err)
		assert.Equal(t, 1, tbl.Len())
	})

	t.Run("malformed_is_categorized", func(t *testing.T) {
		path := filepath.Join(dir, "bad.csv")
		require.NoError(t, os.WriteFile(path, []byte("a\n\"unterminated\n"), 0o600))
		_, err := ReadCSVFile(path)
		var malformed *domain.MalformedError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, path, malformed.Source)
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := ReadCSVFile(filepath.Join(dir, "nope.csv"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}
