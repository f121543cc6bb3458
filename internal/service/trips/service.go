// Package trips resolves and caches the historical trip dataset.
package trips

import (
	"context"
	"log/slog"
	"time"

	"bike-dash/internal/cache"
	"bike-dash/internal/db"
	"bike-dash/internal/domain"
	"bike-dash/internal/service/ingestion"
	"bike-dash/internal/tabular"
)

// Preview bounds.
const (
	DefaultPreviewRows = 5
	MaxPreviewRows     = 1000
)

const datasetFn = "trips.Dataset"

type dataset struct {
	table *domain.Table
	info  domain.DatasetInfo
}

// Service loads the trip dataset once and serves it from the cache until
// it is reloaded.
type Service struct {
	csvPath  string
	store    domain.TripStore
	source   domain.ArchiveSource
	ingestor *ingestion.Ingestor
	cache    *cache.Cache
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a trips Service. csvPath may be empty; source may be
// nil when only stored data should be used.
func NewService(
	csvPath string,
	store domain.TripStore,
	source domain.ArchiveSource,
	ingestor *ingestion.Ingestor,
	c *cache.Cache,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if ingestor == nil {
		ingestor = ingestion.NewIngestor(logger)
	}
	if c == nil {
		c = cache.New()
	}
	return &Service{
		csvPath:  csvPath,
		store:    store,
		source:   source,
		ingestor: ingestor,
		cache:    c,
		logger:   logger,
		now:      time.Now,
	}
}

// Dataset returns the trip table: the local CSV when it exists, else the
// stored table, else a fresh ingest from the archive source.
func (s *Service) Dataset(ctx context.Context) (*domain.Table, error) {
	d, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return d.table, nil
}

// Info describes the loaded dataset.
func (s *Service) Info(ctx context.Context) (*domain.DatasetInfo, error) {
	d, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	info := d.info
	return &info, nil
}

// Preview returns the first n rows. n <= 0 selects DefaultPreviewRows.
func (s *Service) Preview(ctx context.Context, n int) (*domain.Table, error) {
	if n > MaxPreviewRows {
		return nil, domain.ErrValidation("preview is limited to %d rows", MaxPreviewRows)
	}
	if n <= 0 {
		n = DefaultPreviewRows
	}
	t, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return t.Head(n), nil
}

// Reload drops the cached dataset and loads it again.
func (s *Service) Reload(ctx context.Context) (*domain.DatasetInfo, error) {
	s.cache.InvalidateFunc(datasetFn)
	s.logger.Info("trip dataset reload requested")
	return s.Info(ctx)
}

func (s *Service) load(ctx context.Context) (*dataset, error) {
	return cache.Load(ctx, s.cache, datasetFn, cache.NoExpiry, s.resolve)
}

func (s *Service) resolve(ctx context.Context) (*dataset, error) {
	if s.csvPath != "" {
		ok, err := db.FileExists(s.csvPath)
		if err != nil {
			return nil, err
		}
		if ok {
			t, err := tabular.ReadCSVFile(s.csvPath)
			if err != nil {
				return nil, err
			}
			s.logger.Info("loaded trips from csv", "path", s.csvPath, "rows", t.Len(), "columns", len(t.Columns))
			return s.wrap(t, domain.OriginCSV, s.csvPath, nil), nil
		}
	}

	if s.store == nil {
		return nil, domain.ErrNotFound("no trip data: %s does not exist and no store is configured", s.csvPath)
	}
	res, err := s.ingestor.Ingest(ctx, s.store, s.source)
	if err != nil {
		return nil, err
	}
	m, err := s.store.Manifest(ctx)
	if err != nil {
		s.logger.Warn("read store manifest", "store", s.store.Location(), "error", err)
		m = nil
	}
	return s.wrap(res.Table, res.Origin, s.store.Location(), m), nil
}

func (s *Service) wrap(t *domain.Table, origin domain.DatasetOrigin, location string, m *domain.StoreManifest) *dataset {
	return &dataset{
		table: t,
		info: domain.DatasetInfo{
			Origin:   origin,
			Location: location,
			Rows:     t.Len(),
			Columns:  append([]domain.Column(nil), t.Columns...),
			Manifest: m,
			LoadedAt: s.now(),
		},
	}
}
