package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pet-assistant/backend/internal/search"
)

var (
	// ErrInvalidRecord marks a catalog entry missing a required field.
	ErrInvalidRecord = errors.New("invalid service record")
	// ErrUnsupportedFormat is returned for catalog paths with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported catalog format")
)

// CatalogStorage defines the interface for reading and writing the service catalog
type CatalogStorage interface {
	Load(ctx context.Context) ([]search.ServiceRecord, error)
	Save(ctx context.Context, records []search.ServiceRecord) error
	Close() error
}

// Open picks a storage implementation from the path's extension
func Open(path string) (CatalogStorage, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteStorage(path)
	case ".json", ".yaml", ".yml", ".toml":
		return NewFileStorage(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// catalogEntry is the on-disk record shape. Pointer fields tell an absent key
// from an empty string; unknown keys are ignored by every decoder.
type catalogEntry struct {
	Title       *string  `json:"title" yaml:"title" toml:"title"`
	Description *string  `json:"description" yaml:"description" toml:"description"`
	Keywords    []string `json:"keywords" yaml:"keywords" toml:"keywords"`
}

// toRecords fails fast on entries without a title or description key.
// Empty strings are kept; the matcher scores them like any other text.
func toRecords(entries []catalogEntry) ([]search.ServiceRecord, error) {
	records := make([]search.ServiceRecord, len(entries))
	for i, e := range entries {
		if e.Title == nil {
			return nil, fmt.Errorf("record %d: %w: missing title", i, ErrInvalidRecord)
		}
		if e.Description == nil {
			return nil, fmt.Errorf("record %d: %w: missing description", i, ErrInvalidRecord)
		}
		records[i] = search.ServiceRecord{
			Title:       *e.Title,
			Description: *e.Description,
			Keywords:    e.Keywords,
		}
	}
	return records, nil
}
