package cli

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bike-dash/internal/domain"
)

const tripsCSV = `start_station_name,end_station_name,duration_sec
Ferry Building,Oracle Park,600
Oracle Park,Ferry Building,540
Ferry Building,Oracle Park,610
Market St,Civic Center,300
Civic Center,Civic Center,120
`

// runCLI executes a fresh root command with args and returns its stdout.
// The environment is isolated so only flags configure the run.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{
		"TRIPS_DB_PATH", "TRIPS_STORE_DRIVER", "TRIPS_TABLE", "TRIPS_CSV_PATH",
		"ARCHIVE_INDEX_URL", "GBFS_INDEX_URL", "COLUMNS_FILE", "ENV", "BIKEDASH_OUTPUT",
		"CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	base := []string{"--env-file", filepath.Join(dir, "none.env"), "--db", filepath.Join(dir, "trips.sqlite")}

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(base, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "trips.csv")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "bikedash version dev (commit: none)\n", out)

	out, err = runCLI(t, "version", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"dev","commit":"none"}`, out)
}

func TestRootCmd_RejectsUnknownOutput(t *testing.T) {
	_, err := runCLI(t, "version", "-o", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestRoutesCmd(t *testing.T) {
	csvPath := writeCSV(t, tripsCSV)

	t.Run("table", func(t *testing.T) {
		out, err := runCLI(t, "routes", "--csv", csvPath)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "ROUTE"))
		assert.Contains(t, lines[1], domain.RouteKey("Ferry Building", "Oracle Park"))
		assert.True(t, strings.HasSuffix(lines[1], "3"))
		assert.NotContains(t, out, "Civic Center"+domain.RouteSeparator+"Civic Center")
	})

	t.Run("json_with_limit", func(t *testing.T) {
		out, err := runCLI(t, "routes", "--csv", csvPath, "--limit", "1", "-o", "json")
		require.NoError(t, err)
		var summary domain.RouteSummary
		require.NoError(t, json.Unmarshal([]byte(out), &summary))
		assert.Equal(t, "start_station_name", summary.OriginColumn)
		require.Len(t, summary.Routes, 1)
		assert.Equal(t, int64(3), summary.Routes[0].Trips)
	})

	t.Run("bad_limit", func(t *testing.T) {
		_, err := runCLI(t, "routes", "--csv", csvPath, "--limit", "0")
		require.Error(t, err)
	})

	t.Run("missing_columns_warns", func(t *testing.T) {
		out, err := runCLI(t, "routes", "--csv", writeCSV(t, "a,b\n1,2\n"), "-o", "json")
		require.NoError(t, err)
		var summary domain.RouteSummary
		require.NoError(t, json.Unmarshal([]byte(out), &summary))
		assert.NotEmpty(t, summary.Warning)
		assert.Empty(t, summary.Routes)
	})
}

func TestTripsCmd(t *testing.T) {
	csvPath := writeCSV(t, tripsCSV)

	out, err := runCLI(t, "trips", "--csv", csvPath, "-n", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "origin:")
	assert.Contains(t, out, "csv")
	assert.Contains(t, out, "START_STATION_NAME")
	assert.NotContains(t, out, "Market St", "preview stops after two rows")
}

func TestLiveCmd_Disabled(t *testing.T) {
	_, err := runCLI(t, "live")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GBFS_INDEX_URL")
}

func TestIngestCmd(t *testing.T) {
	var zbuf bytes.Buffer
	zw := zip.NewWriter(&zbuf)
	w, err := zw.Create("202301-tripdata.csv")
	require.NoError(t, err)
	_, err = w.Write([]byte(tripsCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	mux := http.NewServeMux()
	mux.HandleFunc("/index.html", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<a href="202301-tripdata.zip">jan</a>`))
	})
	mux.HandleFunc("/202301-tripdata.zip", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(zbuf.Bytes())
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out, err := runCLI(t, "ingest", "--index", srv.URL+"/index.html", "--no-progress", "-o", "json")
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "remote", res["origin"])
	assert.InDelta(t, 1, res["archives"], 0)
	assert.InDelta(t, 5, res["rows"], 0)
	assert.InDelta(t, 3, res["columns"], 0)
}
