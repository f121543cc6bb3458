package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
	"strings"

	"bike-dash/internal/domain"
	"bike-dash/internal/tabular"
)

// CSVSuffix marks the archive entries that hold trip records.
const CSVSuffix = ".csv"

// ExtractTables opens data as a zip archive and parses every CSV entry into
// a table, in archive order. Directories and macOS resource-fork entries
// are skipped. name identifies the archive in errors.
func ExtractTables(name string, data []byte) ([]*domain.Table, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, domain.ErrMalformed(name, err)
	}

	var tables []*domain.Table
	for _, f := range zr.File {
		if skipEntry(f) {
			continue
		}
		t, err := readEntry(f)
		if err != nil {
			return nil, domain.ErrMalformed(name+"!"+f.Name, err)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func skipEntry(f *zip.File) bool {
	if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
		return true
	}
	if !strings.HasSuffix(f.Name, CSVSuffix) {
		return true
	}
	if strings.HasPrefix(f.Name, "__MACOSX/") || strings.Contains(f.Name, "/__MACOSX/") {
		return true
	}
	return strings.HasPrefix(path.Base(f.Name), "._")
}

func readEntry(f *zip.File) (*domain.Table, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry: %w", err)
	}
	defer rc.Close() //nolint:errcheck
	return tabular.ReadCSV(rc)
}
