package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bull/artifact-catalog/internal/catalog"
)

// Local reads artifacts from the local filesystem.
type Local struct{}

// NewLocal creates a filesystem source.
func NewLocal() *Local {
	return &Local{}
}

// List returns the names of regular files directly inside dir whose extension
// matches exts, sorted by name. Subdirectories are not descended into.
func (l *Local) List(ctx context.Context, dir string, exts []string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", dir, catalog.ErrDirectoryMissing)
		}
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory: %w", dir, catalog.ErrDirectoryMissing)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !MatchExtension(entry.Name(), exts) {
			continue
		}
		// Resolve symlinks; only regular files count.
		fi, err := os.Stat(filepath.Join(dir, entry.Name()))
		if err == nil && !fi.Mode().IsRegular() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Stat returns size and timestamps. CreatedAt comes from the birth time when
// the platform records one.
func (l *Local) Stat(ctx context.Context, dir, name string) (File, error) {
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("%w: %s: %w", catalog.ErrFileRead, path, err)
	}

	f := File{
		Name:      name,
		Size:      info.Size(),
		UpdatedAt: info.ModTime().UTC().Truncate(time.Millisecond),
	}
	if born, ok := birthTime(path); ok {
		f.CreatedAt = born.UTC().Truncate(time.Millisecond)
	}
	return f, nil
}

// Read returns the file content.
func (l *Local) Read(ctx context.Context, dir, name string) ([]byte, error) {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", catalog.ErrFileRead, path, err)
	}
	return data, nil
}
