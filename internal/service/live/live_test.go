package live

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bike-dash/internal/cache"
	"bike-dash/internal/domain"
	"bike-dash/internal/gbfs"
)

func table(cols []string, rows ...[]any) *domain.Table {
	t := domain.NewTable()
	for _, c := range cols {
		t.Columns = append(t.Columns, domain.Column{Name: c, Type: domain.TypeText})
	}
	t.Rows = append(t.Rows, rows...)
	return t
}

func TestJoinStations(t *testing.T) {
	t.Run("single_match_keeps_both_sides", func(t *testing.T) {
		info := table([]string{"station_id", "name"}, []any{int64(1), "X"})
		status := table([]string{"station_id", "num_bikes_available"}, []any{int64(1), int64(5)})

		got, err := JoinStations(info, status)
		require.NoError(t, err)
		assert.Equal(t, []string{"station_id", "name", "num_bikes_available"}, got.ColumnNames())
		assert.Equal(t, [][]any{{int64(1), "X", int64(5)}}, got.Rows)
	})

	t.Run("inner_join_drops_unmatched_and_keeps_left_order", func(t *testing.T) {
		info := table([]string{"station_id", "name"},
			[]any{"b", "B"}, []any{"a", "A"}, []any{"z", "Z"}, []any{nil, "N"})
		status := table([]string{"station_id", "num_bikes_available"},
			[]any{"a", int64(1)}, []any{"b", int64(2)}, []any{"q", int64(9)})

		got, err := JoinStations(info, status)
		require.NoError(t, err)
		assert.Equal(t, [][]any{{"b", "B", int64(2)}, {"a", "A", int64(1)}}, got.Rows)
	})

	t.Run("overlapping_columns_get_suffixes", func(t *testing.T) {
		info := table([]string{"station_id", "last_reported", "name"}, []any{"1", "t0", "X"})
		status := table([]string{"last_reported", "station_id", "num_bikes_available"}, []any{"t1", "1", int64(3)})

		got, err := JoinStations(info, status)
		require.NoError(t, err)
		assert.Equal(t, []string{"station_id", "last_reported_info", "name", "last_reported_status", "num_bikes_available"}, got.ColumnNames())
		assert.Equal(t, [][]any{{"1", "t0", "X", "t1", int64(3)}}, got.Rows)
	})

	t.Run("duplicate_keys_multiply", func(t *testing.T) {
		info := table([]string{"station_id", "name"}, []any{"1", "X"})
		status := table([]string{"station_id", "num_bikes_available"}, []any{"1", int64(3)}, []any{"1", int64(4)})

		got, err := JoinStations(info, status)
		require.NoError(t, err)
		assert.Len(t, got.Rows, 2)
	})

	t.Run("missing_key_column", func(t *testing.T) {
		_, err := JoinStations(table([]string{"name"}), table([]string{"station_id"}))
		var mismatch *domain.SchemaMismatchError
		require.ErrorAs(t, err, &mismatch)
	})
}

func TestSelectDisplay(t *testing.T) {
	t.Run("keeps_present_columns_in_display_order", func(t *testing.T) {
		joined := table([]string{"station_id", "num_docks_available", "lon", "name", "capacity", "lat"})
		got, sortCol, err := SelectDisplay(joined)
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "lat", "lon", "num_docks_available"}, got.ColumnNames())
		assert.Equal(t, "name", sortCol)
	})

	t.Run("prefers_available_bikes", func(t *testing.T) {
		_, sortCol, err := SelectDisplay(table([]string{"name", "num_bikes_available"}))
		require.NoError(t, err)
		assert.Equal(t, "num_bikes_available", sortCol)
	})

	t.Run("no_display_columns", func(t *testing.T) {
		_, _, err := SelectDisplay(table([]string{"station_id", "capacity"}))
		var mismatch *domain.SchemaMismatchError
		require.ErrorAs(t, err, &mismatch)
	})
}

func TestTopStations(t *testing.T) {
	tbl := table([]string{"name", "num_bikes_available"},
		[]any{"a", int64(1)}, []any{"b", nil}, []any{"c", int64(7)}, []any{"d", int64(7)}, []any{"e", 2.5})

	got := TopStations(tbl, "num_bikes_available", 4)
	assert.Equal(t, [][]any{{"c", int64(7)}, {"d", int64(7)}, {"e", 2.5}, {"a", int64(1)}}, got.Rows)
	assert.Equal(t, "a", tbl.Rows[0][0], "input is not reordered")

	many := table([]string{"num_bikes_available"})
	for i := 0; i < 50; i++ {
		many.Rows = append(many.Rows, []any{int64(i)})
	}
	top := TopStations(many, "num_bikes_available", domain.LiveTopStations)
	require.Len(t, top.Rows, 20)
	assert.Equal(t, int64(49), top.Rows[0][0])
}

// feedServer serves a GBFS index and its two station feeds.
func feedServer(t *testing.T, info, status string, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/gbfs.json", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		fmt.Fprintf(w, `{"data": {"en": {"feeds": [
			{"name": "station_information", "url": "%[1]s/station_information.json"},
			{"name": "station_status", "url": "station_status.json"}
		]}}}`, srv.URL)
	})
	mux.HandleFunc("/station_information.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, info)
	})
	mux.HandleFunc("/station_status.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, status)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestService_Snapshot(t *testing.T) {
	info := `{"data": {"stations": [
		{"station_id": "1", "name": "Market St", "lat": 37.79, "lon": -122.39},
		{"station_id": "2", "name": "Howard St", "lat": 37.78, "lon": -122.40}
	]}}`
	status := `{"data": {"stations": [
		{"station_id": "2", "num_bikes_available": 9, "num_docks_available": 1, "is_renting": true},
		{"station_id": "1", "num_bikes_available": 3, "num_docks_available": 7, "is_renting": false}
	]}}`
	var hits atomic.Int64
	srv := feedServer(t, info, status, &hits)

	svc := NewService(srv.URL+"/gbfs.json", gbfs.NewClient(5*time.Second, ""), cache.New(), time.Minute, nil)
	require.True(t, svc.Enabled())

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "num_bikes_available", snap.SortColumn)
	assert.Equal(t, "en", snap.Language)
	assert.Equal(t, []string{"name", "lat", "lon", "num_bikes_available", "num_docks_available", "is_renting"}, snap.Stations.ColumnNames())
	assert.Equal(t, [][]any{
		{"Howard St", 37.78, -122.40, int64(9), int64(1), true},
		{"Market St", 37.79, -122.39, int64(3), int64(7), false},
	}, snap.Stations.Rows)
	assert.False(t, snap.FetchedAt.IsZero())

	_, err = svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load(), "second call within the TTL is served from the cache")

	svc.Refresh()
	_, err = svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
}

func TestService_Disabled(t *testing.T) {
	svc := NewService("", nil, nil, time.Minute, nil)
	assert.False(t, svc.Enabled())

	_, err := svc.Snapshot(context.Background())
	require.ErrorIs(t, err, domain.ErrFeatureDisabled)
}

func TestFetchSnapshot_Failures(t *testing.T) {
	t.Run("feed_missing_from_index", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"data": {"en": {"feeds": [{"name": "station_information", "url": "https://x/si.json"}]}}}`)
		}))
		defer srv.Close()

		_, err := FetchSnapshot(context.Background(), gbfs.NewClient(time.Second, ""), srv.URL)
		require.ErrorIs(t, err, domain.ErrFeedNotFound)
	})

	t.Run("status_feed_error", func(t *testing.T) {
		var hits atomic.Int64
		srv := feedServer(t, `{"data": {"stations": []}}`, `{"data": `, &hits)

		_, err := FetchSnapshot(context.Background(), gbfs.NewClient(time.Second, ""), srv.URL+"/gbfs.json")
		var malformed *domain.MalformedError
		require.ErrorAs(t, err, &malformed)
	})

	t.Run("no_display_columns", func(t *testing.T) {
		var hits atomic.Int64
		srv := feedServer(t,
			`{"data": {"stations": [{"station_id": "1", "capacity": 3}]}}`,
			`{"data": {"stations": [{"station_id": "1", "vehicle_types": 2}]}}`, &hits)

		_, err := FetchSnapshot(context.Background(), gbfs.NewClient(time.Second, ""), srv.URL+"/gbfs.json")
		var mismatch *domain.SchemaMismatchError
		require.ErrorAs(t, err, &mismatch)
	})
}
