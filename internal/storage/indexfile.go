// Package storage persists the metadata index as a JSON file.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bull/artifact-catalog/internal/catalog"
)

// IndexFile is the metadata index on disk.
type IndexFile struct {
	path string
	mu   sync.Mutex // flock does not serialize goroutines sharing one handle
	lock *WriteLock
}

// NewIndexFile returns a handle for the index at path.
func NewIndexFile(path string) *IndexFile {
	return &IndexFile{path: path, lock: NewWriteLock(path)}
}

// Path returns the file location.
func (f *IndexFile) Path() string {
	return f.path
}

// Write replaces the index file atomically: the JSON is written to a temp
// file in the same directory and renamed over the target. Writers are
// serialized through the file's WriteLock.
func (f *IndexFile) Write(idx *catalog.MetadataIndex) error {
	data, err := Encode(idx)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("lock index: %w", err)
	}
	defer f.lock.Unlock()

	tmp, err := os.CreateTemp(dir, ".metadata-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod index: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace index: %w", err)
	}
	return nil
}

// Read loads and validates the index file.
func (f *IndexFile) Read() (*catalog.MetadataIndex, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", f.path, err)
	}
	return Decode(data)
}

// Encode renders the index as 2-space indented JSON with a trailing newline.
func Encode(idx *catalog.MetadataIndex) ([]byte, error) {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal index: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses and validates index JSON. The document must carry a
// non-empty version and a files array; anything else is
// catalog.ErrMalformedIndex.
func Decode(data []byte) (*catalog.MetadataIndex, error) {
	var probe struct {
		Version string          `json:"version"`
		Files   json.RawMessage `json:"files"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", catalog.ErrMalformedIndex, err)
	}
	if probe.Version == "" {
		return nil, fmt.Errorf("%w: missing version", catalog.ErrMalformedIndex)
	}
	if files := bytes.TrimSpace(probe.Files); len(files) == 0 || files[0] != '[' {
		return nil, fmt.Errorf("%w: files is not an array", catalog.ErrMalformedIndex)
	}

	var idx catalog.MetadataIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("%w: %v", catalog.ErrMalformedIndex, err)
	}
	if idx.Files == nil {
		idx.Files = []catalog.FileMetadata{}
	}
	for i := range idx.Files {
		if idx.Files[i].Tags == nil {
			idx.Files[i].Tags = []string{}
		}
		// dependencies is omitted from the file when empty.
		if idx.Files[i].Dependencies == nil {
			idx.Files[i].Dependencies = []string{}
		}
	}
	return &idx, nil
}
