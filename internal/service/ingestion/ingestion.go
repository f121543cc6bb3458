// Package ingestion bootstraps the trip table from remote archives.
package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bike-dash/internal/archive"
	"bike-dash/internal/domain"
	"bike-dash/internal/tabular"
)

// chunkSize is the copy buffer used while downloading an archive.
const chunkSize = 8 * 1024

// ProgressFunc returns a writer that observes the bytes of one archive
// download. size is -1 when the length is unknown. A nil writer disables
// progress reporting for that archive.
type ProgressFunc func(link string, size int64) io.Writer

// Result is the outcome of one ingestion call.
type Result struct {
	Table    *domain.Table
	Origin   domain.DatasetOrigin // OriginStore or OriginRemote
	Archives int                  // archives downloaded; zero on the store path
}

// Ingestor loads the trip table from the store, or builds and persists it
// from the archive source when the store does not have it yet.
type Ingestor struct {
	logger   *slog.Logger
	progress ProgressFunc
}

// NewIngestor creates an Ingestor.
func NewIngestor(logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{logger: logger}
}

// SetProgress installs a download progress hook.
func (i *Ingestor) SetProgress(fn ProgressFunc) {
	i.progress = fn
}

// Ingest returns the trip table. When the store already holds it, the
// stored table is returned as is and no network request is made.
// Otherwise every archive listed by source is downloaded and unpacked,
// the CSV fragments are concatenated in discovery order, and the result
// replaces the stored table. Any failure aborts before the store is written.
func (i *Ingestor) Ingest(ctx context.Context, store domain.TripStore, source domain.ArchiveSource) (*Result, error) {
	logger := i.logger.With("run_id", uuid.NewString(), "store", store.Location())

	ok, err := store.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check store %s: %w", store.Location(), err)
	}
	if ok {
		t, err := store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load store %s: %w", store.Location(), err)
		}
		logger.Info("loaded trips from store", "rows", t.Len(), "columns", len(t.Columns))
		return &Result{Table: t, Origin: domain.OriginStore}, nil
	}

	if source == nil {
		return nil, domain.ErrValidation("trip store %s is empty and no archive source is configured", store.Location())
	}

	start := time.Now()
	logger = logger.With("source", source.Location())
	links, err := source.List(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("discovered archives", "count", len(links))

	var fragments []*domain.Table
	for _, link := range links {
		data, err := i.download(ctx, source, link)
		if err != nil {
			return nil, err
		}
		tables, err := archive.ExtractTables(link, data)
		if err != nil {
			return nil, err
		}
		logger.Debug("archive extracted", "link", link, "bytes", len(data), "entries", len(tables))
		fragments = append(fragments, tables...)
	}

	t := tabular.Concat(fragments...)
	if err := store.Replace(ctx, t, source.Location()); err != nil {
		return nil, fmt.Errorf("persist trips to %s: %w", store.Location(), err)
	}
	logger.Info("ingested trips from archives",
		"archives", len(links),
		"fragments", len(fragments),
		"rows", t.Len(),
		"columns", len(t.Columns),
		"duration", time.Since(start),
	)
	return &Result{Table: t, Origin: domain.OriginRemote, Archives: len(links)}, nil
}

// download reads one archive fully into memory.
func (i *Ingestor) download(ctx context.Context, source domain.ArchiveSource, link string) ([]byte, error) {
	body, size, err := source.Open(ctx, link)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	var buf bytes.Buffer
	if size > 0 {
		buf.Grow(int(size))
	}
	var w io.Writer = &buf
	if i.progress != nil {
		if pw := i.progress(link, size); pw != nil {
			w = io.MultiWriter(&buf, pw)
		}
	}
	if _, err := io.CopyBuffer(w, body, make([]byte, chunkSize)); err != nil {
		return nil, &domain.FetchError{URL: link, Err: err}
	}
	return buf.Bytes(), nil
}
