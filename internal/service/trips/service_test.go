package trips

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bike-dash/internal/db/repository"
	"bike-dash/internal/domain"
)

// stubSource lists no archives and counts List calls.
type stubSource struct {
	lists atomic.Int64
}

func (s *stubSource) Location() string { return "stub://index" }

func (s *stubSource) List(context.Context) ([]string, error) {
	s.lists.Add(1)
	return nil, nil
}

func (s *stubSource) Open(context.Context, string) (io.ReadCloser, int64, error) {
	return io.NopCloser(strings.NewReader("")), 0, nil
}

func TestService_CSVFastPath(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "baywheels-tripdata.csv")
	var sb strings.Builder
	sb.WriteString("start_station_name,end_station_name\n")
	for i := 0; i < 8; i++ {
		sb.WriteString("A,B\n")
	}
	require.NoError(t, os.WriteFile(csvPath, []byte(sb.String()), 0o600))

	src := &stubSource{}
	store := repository.NewSQLiteTripStore(filepath.Join(dir, "trips.sqlite"), "trips")
	svc := NewService(csvPath, store, src, nil, nil, nil)
	ctx := context.Background()

	info, err := svc.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.OriginCSV, info.Origin)
	assert.Equal(t, csvPath, info.Location)
	assert.Equal(t, 8, info.Rows)
	assert.Nil(t, info.Manifest)

	preview, err := svc.Preview(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPreviewRows, preview.Len())

	assert.Equal(t, int64(0), src.lists.Load())
	_, err = os.Stat(filepath.Join(dir, "trips.sqlite"))
	assert.True(t, os.IsNotExist(err), "csv path never touches the store")
}

func TestService_FallsBackToIngest(t *testing.T) {
	dir := t.TempDir()
	src := &stubSource{}
	store := repository.NewSQLiteTripStore(filepath.Join(dir, "trips.sqlite"), "trips")
	svc := NewService(filepath.Join(dir, "missing.csv"), store, src, nil, nil, nil)
	ctx := context.Background()

	info, err := svc.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.OriginRemote, info.Origin)
	assert.Equal(t, 0, info.Rows)
	require.NotNil(t, info.Manifest)
	assert.Equal(t, "stub://index", info.Manifest.Source)

	_, err = svc.Dataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), src.lists.Load(), "dataset is cached between calls")

	info, err = svc.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.OriginStore, info.Origin, "reload reads the table persisted by the first ingest")
	assert.Equal(t, int64(1), src.lists.Load())
}

func TestService_PreviewLimit(t *testing.T) {
	svc := NewService("", nil, nil, nil, nil, nil)
	_, err := svc.Preview(context.Background(), MaxPreviewRows+1)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestService_NoData(t *testing.T) {
	svc := NewService(filepath.Join(t.TempDir(), "missing.csv"), nil, nil, nil, nil, nil)
	_, err := svc.Dataset(context.Background())
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestService_MalformedCSV(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "trips.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("a,b\n1,2,3\n"), 0o600))

	svc := NewService(csvPath, nil, nil, nil, nil, nil)
	_, err := svc.Dataset(context.Background())
	var malformed *domain.MalformedError
	require.ErrorAs(t, err, &malformed)
}
