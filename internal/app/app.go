// Package app wires configuration into the stores, sources and services
// shared by the server and the CLI.
package app

import (
	"fmt"
	"log/slog"

	"bike-dash/internal/archive"
	"bike-dash/internal/cache"
	"bike-dash/internal/config"
	"bike-dash/internal/db/repository"
	"bike-dash/internal/domain"
	"bike-dash/internal/gbfs"
	"bike-dash/internal/service/ingestion"
	"bike-dash/internal/service/live"
	"bike-dash/internal/service/routes"
	"bike-dash/internal/service/trips"
)

// Deps holds the external dependencies that main() must provide.
type Deps struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

// Services groups the service pointers that the UI and API handlers need.
type Services struct {
	Trips  *trips.Service
	Routes *routes.Service
	Live   *live.Service
}

// App holds the fully-wired application.
type App struct {
	Services Services
	Cache    *cache.Cache
	Store    domain.TripStore
	Source   domain.ArchiveSource
	Ingestor *ingestion.Ingestor
}

// New wires the store, archive source, cache and services from deps.
// Nothing is opened or fetched until a service is first used.
func New(deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := repository.NewTripStore(cfg.TripsStoreDriver, cfg.TripsDBPath, cfg.TripsTable)
	if err != nil {
		return nil, fmt.Errorf("trip store: %w", err)
	}
	source, err := NewArchiveSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("archive source: %w", err)
	}

	c := cache.New()
	ingestor := ingestion.NewIngestor(logger.With("component", "ingestion"))

	return &App{
		Services: Services{
			Trips: trips.NewService(
				cfg.TripsCSVPath, store, source, ingestor, c,
				logger.With("component", "trips"),
			),
			Routes: routes.NewService(cfg.Columns, cfg.RoutesLimit, logger.With("component", "routes")),
			Live: live.NewService(
				cfg.GBFSIndexURL,
				gbfs.NewClient(cfg.HTTPTimeout, cfg.GBFSLocale),
				c, cfg.LiveCacheTTL,
				logger.With("component", "live"),
			),
		},
		Cache:    c,
		Store:    store,
		Source:   source,
		Ingestor: ingestor,
	}, nil
}

// NewArchiveSource returns an S3 listing source for s3:// index locations
// and an HTML index source otherwise.
func NewArchiveSource(cfg *config.Config) (domain.ArchiveSource, error) {
	if cfg.ArchiveIsS3() {
		return archive.NewS3Source(cfg.ArchiveIndexURL, archive.S3Options{
			Region:   cfg.ArchiveS3.Region,
			Endpoint: cfg.ArchiveS3.Endpoint,
			KeyID:    cfg.ArchiveS3.KeyID,
			Secret:   cfg.ArchiveS3.Secret,
		})
	}
	return archive.NewHTTPSource(cfg.ArchiveIndexURL, archive.NewHTTPClient(cfg.HTTPTimeout)), nil
}
