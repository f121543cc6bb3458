// Package live builds the live station snapshot from a GBFS feed.
package live

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"time"

	"bike-dash/internal/cache"
	"bike-dash/internal/domain"
	"bike-dash/internal/gbfs"
)

// Suffixes applied to overlapping non-key columns by JoinStations.
const (
	InfoSuffix   = "_info"
	StatusSuffix = "_status"
)

const snapshotFn = "live.Snapshot"

// FeedClient fetches GBFS documents. Implemented by *gbfs.Client.
type FeedClient interface {
	Index(ctx context.Context, url string) (*gbfs.FeedIndex, error)
	Stations(ctx context.Context, url string) (*domain.Table, error)
}

// Service serves cached live snapshots for one feed index.
type Service struct {
	indexURL string
	client   FeedClient
	cache    *cache.Cache
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a live Service. An empty indexURL disables it.
func NewService(indexURL string, client FeedClient, c *cache.Cache, ttl time.Duration, logger *slog.Logger) *Service {
	if c == nil {
		c = cache.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		indexURL: indexURL,
		client:   client,
		cache:    c,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Enabled reports whether a feed index is configured.
func (s *Service) Enabled() bool { return s.indexURL != "" }

// IndexURL returns the configured feed index URL.
func (s *Service) IndexURL() string { return s.indexURL }

// Snapshot returns the live snapshot, reusing a cached one younger than
// the configured TTL. Returns domain.ErrFeatureDisabled when no feed index
// is configured.
func (s *Service) Snapshot(ctx context.Context) (*domain.LiveSnapshot, error) {
	if !s.Enabled() {
		return nil, domain.ErrFeatureDisabled
	}
	return cache.Load(ctx, s.cache, snapshotFn, s.ttl, func(ctx context.Context) (*domain.LiveSnapshot, error) {
		snap, err := FetchSnapshot(ctx, s.client, s.indexURL)
		if err != nil {
			s.logger.Warn("live snapshot failed", "index", s.indexURL, "error", err)
			return nil, err
		}
		snap.FetchedAt = s.now()
		s.logger.Info("live snapshot fetched", "index", s.indexURL, "stations", snap.Stations.Len(), "language", snap.Language)
		return snap, nil
	}, s.indexURL)
}

// Refresh drops the cached snapshot.
func (s *Service) Refresh() {
	s.cache.Invalidate(snapshotFn, s.indexURL)
}

// FetchSnapshot fetches the feed index, both station feeds, joins them on
// station_id, and returns the top stations by available bikes. Every
// failure is terminal for the call.
func FetchSnapshot(ctx context.Context, client FeedClient, indexURL string) (*domain.LiveSnapshot, error) {
	ix, err := client.Index(ctx, indexURL)
	if err != nil {
		return nil, err
	}
	infoURL, err := feedURL(ix, indexURL, domain.FeedStationInformation)
	if err != nil {
		return nil, err
	}
	statusURL, err := feedURL(ix, indexURL, domain.FeedStationStatus)
	if err != nil {
		return nil, err
	}

	info, err := client.Stations(ctx, infoURL)
	if err != nil {
		return nil, err
	}
	status, err := client.Stations(ctx, statusURL)
	if err != nil {
		return nil, err
	}

	joined, err := JoinStations(info, status)
	if err != nil {
		return nil, err
	}
	display, sortCol, err := SelectDisplay(joined)
	if err != nil {
		return nil, err
	}
	return &domain.LiveSnapshot{
		Stations:   TopStations(display, sortCol, domain.LiveTopStations),
		SortColumn: sortCol,
		Language:   ix.Language,
	}, nil
}

// feedURL looks up name and resolves a relative feed URL against the index.
func feedURL(ix *gbfs.FeedIndex, indexURL, name string) (string, error) {
	raw, err := ix.FeedURL(name)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", domain.ErrMalformed(indexURL, fmt.Errorf("feed %q url: %w", name, err))
	}
	if ref.IsAbs() {
		return raw, nil
	}
	base, err := url.Parse(indexURL)
	if err != nil {
		return raw, nil //nolint:nilerr
	}
	return base.ResolveReference(ref).String(), nil
}

// JoinStations inner-joins info and status on station_id. The result has
// station_id, the other info columns, then the other status columns; names
// present on both sides get the _info and _status suffixes. Rows follow
// info order, and within one info row the status order.
func JoinStations(info, status *domain.Table) (*domain.Table, error) {
	li, ri := info.ColumnIndex(domain.StationKeyColumn), status.ColumnIndex(domain.StationKeyColumn)
	var missing []string
	if li < 0 {
		missing = append(missing, domain.FeedStationInformation+"."+domain.StationKeyColumn)
	}
	if ri < 0 {
		missing = append(missing, domain.FeedStationStatus+"."+domain.StationKeyColumn)
	}
	if len(missing) > 0 {
		return nil, &domain.SchemaMismatchError{Missing: missing}
	}

	rightNames := map[string]bool{}
	for j, c := range status.Columns {
		if j != ri {
			rightNames[c.Name] = true
		}
	}
	leftNames := map[string]bool{}
	for j, c := range info.Columns {
		if j != li {
			leftNames[c.Name] = true
		}
	}

	cols := make([]domain.Column, 0, len(info.Columns)+len(status.Columns)-1)
	for j, c := range info.Columns {
		if j != li && rightNames[c.Name] {
			c.Name += InfoSuffix
		}
		cols = append(cols, c)
	}
	rightCols := make([]int, 0, len(status.Columns)-1)
	for j, c := range status.Columns {
		if j == ri {
			continue
		}
		if leftNames[c.Name] {
			c.Name += StatusSuffix
		}
		cols = append(cols, c)
		rightCols = append(rightCols, j)
	}

	byKey := map[string][]int{}
	for j, row := range status.Rows {
		if row[ri] == nil {
			continue
		}
		k := domain.FormatValue(row[ri])
		byKey[k] = append(byKey[k], j)
	}

	out := &domain.Table{Columns: cols, Rows: [][]any{}}
	for _, lrow := range info.Rows {
		if lrow[li] == nil {
			continue
		}
		for _, j := range byKey[domain.FormatValue(lrow[li])] {
			row := make([]any, 0, len(cols))
			row = append(row, lrow...)
			for _, rj := range rightCols {
				row = append(row, status.Rows[j][rj])
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

// SelectDisplay keeps the display columns present in t, in display order,
// and picks the sort column: num_bikes_available when present, else the
// first kept column. No display column is a schema mismatch.
func SelectDisplay(t *domain.Table) (*domain.Table, string, error) {
	var present []string
	for _, name := range domain.LiveDisplayColumns {
		if t.HasColumn(name) {
			present = append(present, name)
		}
	}
	if len(present) == 0 {
		return nil, "", &domain.SchemaMismatchError{
			Missing: append([]string(nil), domain.LiveDisplayColumns...),
			Message: "live feeds have none of the display columns",
		}
	}
	sortCol := present[0]
	if t.HasColumn(domain.SortBikesColumn) {
		sortCol = domain.SortBikesColumn
	}
	return t.Select(present...), sortCol, nil
}

// TopStations returns the first n rows of t sorted descending by sortCol.
// Missing values sort last and equal values keep their order.
func TopStations(t *domain.Table, sortCol string, n int) *domain.Table {
	idx := t.ColumnIndex(sortCol)
	rows := make([][]any, len(t.Rows))
	copy(rows, t.Rows)
	if idx >= 0 {
		sort.SliceStable(rows, func(i, j int) bool {
			return descending(rows[i][idx], rows[j][idx])
		})
	}
	return (&domain.Table{Columns: t.Columns, Rows: rows}).Head(n)
}

// descending reports whether a sorts before b in descending order.
func descending(a, b any) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	if fa, ok := numeric(a); ok {
		if fb, ok := numeric(b); ok {
			return fa > fb
		}
	}
	switch x := a.(type) {
	case bool:
		if y, ok := b.(bool); ok {
			return x && !y
		}
	case string:
		if y, ok := b.(string); ok {
			return x > y
		}
	}
	return domain.FormatValue(a) > domain.FormatValue(b)
}

func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
