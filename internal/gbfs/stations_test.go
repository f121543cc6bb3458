package gbfs

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bike-dash/internal/domain"
)

func TestParseStations(t *testing.T) {
	doc := `{"data": {"stations": [
		{"station_id": "1", "name": "Market St", "lat": 37.79, "lon": -122.39, "capacity": 19, "rental_methods": ["KEY", "CREDITCARD"]},
		{"station_id": "2", "name": "Howard St", "lat": 37.78, "lon": -122.40, "is_charging_station": true, "capacity": null}
	]}}`

	tbl, err := ParseStations([]byte(doc), "")
	require.NoError(t, err)

	assert.Equal(t, []domain.Column{
		{Name: "station_id", Type: domain.TypeText},
		{Name: "name", Type: domain.TypeText},
		{Name: "lat", Type: domain.TypeFloat},
		{Name: "lon", Type: domain.TypeFloat},
		{Name: "capacity", Type: domain.TypeInteger},
		{Name: "rental_methods", Type: domain.TypeText},
		{Name: "is_charging_station", Type: domain.TypeBoolean},
	}, tbl.Columns)
	assert.Equal(t, []any{"1", "Market St", 37.79, -122.39, int64(19), `["KEY","CREDITCARD"]`, nil}, tbl.Rows[0])
	assert.Equal(t, []any{"2", "Howard St", 37.78, -122.40, nil, nil, true}, tbl.Rows[1])
}

func TestParseStations_LocalizedNames(t *testing.T) {
	doc := `{"data": {"stations": [
		{"station_id": "1", "name": [{"text": "Gare", "language": "fr"}, {"text": "Station", "language": "en"}]}
	]}}`

	tbl, err := ParseStations([]byte(doc), "en")
	require.NoError(t, err)
	assert.Equal(t, "Station", tbl.Rows[0][1])

	tbl, err = ParseStations([]byte(doc), "")
	require.NoError(t, err)
	assert.Equal(t, "Gare", tbl.Rows[0][1])
}

func TestParseStations_Malformed(t *testing.T) {
	for name, doc := range map[string]string{
		"not_json":        `{"data":`,
		"missing_data":    `{"stations": []}`,
		"missing_list":    `{"data": {}}`,
		"station_not_obj": `{"data": {"stations": [1]}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseStations([]byte(doc), "")
			require.Error(t, err)
		})
	}
}

func TestParseStations_EmptyList(t *testing.T) {
	tbl, err := ParseStations([]byte(`{"data": {"stations": []}}`), "")
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
}

func TestClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gbfs.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data": {"en": {"feeds": [{"name": "station_status", "url": "/status.json"}]}}}`)
	})
	mux.HandleFunc("/status.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data": {"stations": [{"station_id": "1", "num_bikes_available": 4}]}}`)
	})
	mux.HandleFunc("/broken.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	})
	mux.HandleFunc("/slow.json", func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(100*time.Millisecond, "")
	ctx := context.Background()

	t.Run("index", func(t *testing.T) {
		ix, err := c.Index(ctx, srv.URL+"/gbfs.json")
		require.NoError(t, err)
		assert.Equal(t, "en", ix.Language)
	})

	t.Run("stations", func(t *testing.T) {
		tbl, err := c.Stations(ctx, srv.URL+"/status.json")
		require.NoError(t, err)
		assert.Equal(t, []any{"1", int64(4)}, tbl.Rows[0])
	})

	t.Run("not_found", func(t *testing.T) {
		_, err := c.Stations(ctx, srv.URL+"/missing.json")
		var fetchErr *domain.FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	})

	t.Run("malformed_feed", func(t *testing.T) {
		_, err := c.Stations(ctx, srv.URL+"/broken.json")
		var malformed *domain.MalformedError
		require.ErrorAs(t, err, &malformed)
	})

	t.Run("malformed_index", func(t *testing.T) {
		_, err := c.Index(ctx, srv.URL+"/broken.json")
		require.ErrorIs(t, err, domain.ErrMalformedIndex)
	})

	t.Run("timeout", func(t *testing.T) {
		_, err := c.Stations(ctx, srv.URL+"/slow.json")
		var fetchErr *domain.FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Zero(t, fetchErr.StatusCode)
	})
}
