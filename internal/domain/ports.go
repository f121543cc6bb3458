package domain

import (
	"context"
	"io"
	"time"
)

// TripStore is the durable store holding the trip table.
// Implemented by repository.SQLiteTripStore and repository.DuckDBTripStore.
type TripStore interface {
	// Location identifies the store (a file path) for logging and display.
	Location() string
	// Exists reports whether the store already holds the trip table.
	// A missing store file is not an error.
	Exists(ctx context.Context) (bool, error)
	// Load reads the whole table.
	Load(ctx context.Context) (*Table, error)
	// Replace overwrites the table wholesale and records a manifest entry.
	Replace(ctx context.Context, t *Table, source string) error
	// Manifest returns the manifest entry for the table, or nil when the
	// table was created by another tool.
	Manifest(ctx context.Context) (*StoreManifest, error)
}

// ArchiveSource lists and opens the remote archives that make up the
// historical trip data. Implemented by archive.HTTPSource and archive.S3Source.
type ArchiveSource interface {
	// Location identifies the source (index URL or s3:// prefix).
	Location() string
	// List returns the absolute locations of all archives, in discovery order.
	List(ctx context.Context) ([]string, error)
	// Open streams one archive. size is -1 when unknown.
	Open(ctx context.Context, link string) (body io.ReadCloser, size int64, err error)
}

// StoreManifest describes the last replace of a stored table.
type StoreManifest struct {
	TableName   string    `json:"table_name"`
	ColumnCount int       `json:"column_count"`
	RowCount    int64     `json:"row_count"`
	Source      string    `json:"source"`
	IngestedAt  time.Time `json:"ingested_at"`
}

// DatasetOrigin records where a loaded dataset came from.
type DatasetOrigin string

// Dataset origins.
const (
	OriginCSV    DatasetOrigin = "csv"
	OriginStore  DatasetOrigin = "store"
	OriginRemote DatasetOrigin = "remote"
)

// DatasetInfo summarizes the currently loaded trip dataset.
type DatasetInfo struct {
	Origin   DatasetOrigin  `json:"origin"`
	Location string         `json:"location"`
	Rows     int            `json:"rows"`
	Columns  []Column       `json:"columns"`
	Manifest *StoreManifest `json:"manifest,omitempty"`
	LoadedAt time.Time      `json:"loaded_at"`
}
