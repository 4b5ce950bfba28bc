// Package loader owns the in-memory copy of the metadata index.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bull/artifact-catalog/internal/catalog"
	"github.com/bull/artifact-catalog/internal/storage"
)

// Cache holds at most one loaded index. It is safe for concurrent use;
// the index it returns must be treated as read-only.
type Cache struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu  sync.Mutex
	idx *catalog.MetadataIndex
}

// NewCache creates an empty cache over fetcher.
func NewCache(fetcher Fetcher, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{fetcher: fetcher, logger: logger}
}

// Load returns the cached index, fetching it first when the cache is empty
// or force is set. On failure the cache keeps its previous value.
func (c *Cache) Load(ctx context.Context, force bool) (*catalog.MetadataIndex, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.idx != nil && !force {
		return c.idx, nil
	}

	data, err := c.fetcher.Fetch(ctx)
	if err != nil {
		c.logger.Error("Failed to load metadata", "error", err)
		return nil, fmt.Errorf("%w: %w", catalog.ErrLoadFailure, err)
	}

	idx, err := storage.Decode(data)
	if err != nil {
		c.logger.Error("Failed to load metadata", "error", err)
		return nil, err
	}

	c.idx = idx
	c.logger.Info("Loaded metadata", "files", len(idx.Files), "version", idx.Version, "build", idx.BuildID)
	return idx, nil
}

// Invalidate drops the cached index so the next Load fetches again.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.idx = nil
	c.mu.Unlock()
}

// Loaded returns the cached index without fetching.
func (c *Cache) Loaded() (*catalog.MetadataIndex, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idx, c.idx != nil
}
