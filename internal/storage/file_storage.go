package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/pet-assistant/backend/internal/search"
)

// FileStorage implements CatalogStorage on a single JSON, YAML or TOML file
type FileStorage struct {
	path   string
	format string
	mu     sync.RWMutex
}

// tomlCatalog is the TOML document shape; TOML has no top-level arrays.
type tomlCatalog struct {
	Services []search.ServiceRecord `toml:"services"`
}

// NewFileStorage creates a file-backed catalog storage
func NewFileStorage(path string) (*FileStorage, error) {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch format {
	case "json", "toml":
	case "yaml", "yml":
		format = "yaml"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	return &FileStorage{path: path, format: format}, nil
}

// Load reads and validates the catalog. Unknown fields are ignored and a
// missing keywords list is treated as empty.
func (fs *FileStorage) Load(ctx context.Context) ([]search.ServiceRecord, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fs.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	records, err := fs.decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s catalog %s: %w", fs.format, fs.path, err)
	}
	return records, nil
}

// Save writes the catalog in the file's format via a temp file and rename
func (fs *FileStorage) Save(ctx context.Context, records []search.ServiceRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := fs.encode(records)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".catalog-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := os.Rename(tmp.Name(), fs.path); err != nil {
		return fmt.Errorf("failed to replace catalog: %w", err)
	}
	return nil
}

// Close is a no-op for file storage
func (fs *FileStorage) Close() error {
	return nil
}

func (fs *FileStorage) decode(data []byte) ([]search.ServiceRecord, error) {
	var entries []catalogEntry
	switch fs.format {
	case "json":
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, err
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, err
		}
	case "toml":
		var doc struct {
			Services []catalogEntry `toml:"services"`
		}
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		entries = doc.Services
	}
	return toRecords(entries)
}

func (fs *FileStorage) encode(records []search.ServiceRecord) ([]byte, error) {
	switch fs.format {
	case "yaml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "toml":
		return toml.Marshal(tomlCatalog{Services: records})
	default:
		return json.MarshalIndent(records, "", "  ")
	}
}
