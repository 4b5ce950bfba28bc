package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/artifact-catalog/internal/catalog"
)

const validIndex = `{
  "version": "1.0.0",
  "lastUpdated": "2024-05-01T00:00:00.000Z",
  "files": [
    {"id": "claude-dashboard", "filename": "dashboard.tsx", "path": "/references/claude/dashboard.tsx",
     "source": "claude", "kind": "component", "title": "Dashboard", "tags": ["state"],
     "createdAt": "2024-04-01T00:00:00.000Z", "updatedAt": "2024-04-02T00:00:00.000Z", "size": 10}
  ]
}`

// countingFetcher serves a mutable body and counts calls.
type countingFetcher struct {
	mu    sync.Mutex
	body  string
	err   error
	calls int32
}

func (f *countingFetcher) Fetch(ctx context.Context) ([]byte, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

func (f *countingFetcher) set(body string, err error) {
	f.mu.Lock()
	f.body, f.err = body, err
	f.mu.Unlock()
}

func (f *countingFetcher) count() int {
	return int(atomic.LoadInt32(&f.calls))
}

func TestCache_SecondLoadIsCached(t *testing.T) {
	fetcher := &countingFetcher{body: validIndex}
	cache := NewCache(fetcher, nil)

	first, err := cache.Load(context.Background(), false)
	require.NoError(t, err)
	second, err := cache.Load(context.Background(), false)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, fetcher.count())
	require.Len(t, first.Files, 1)
	assert.Equal(t, "claude-dashboard", first.Files[0].ID)
}

func TestCache_ForceRefetches(t *testing.T) {
	fetcher := &countingFetcher{body: validIndex}
	cache := NewCache(fetcher, nil)

	first, err := cache.Load(context.Background(), false)
	require.NoError(t, err)
	forced, err := cache.Load(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, 2, fetcher.count())
	assert.NotSame(t, first, forced)
	assert.Equal(t, first, forced)

	cached, ok := cache.Loaded()
	require.True(t, ok)
	assert.Same(t, forced, cached)
}

func TestCache_Invalidate(t *testing.T) {
	fetcher := &countingFetcher{body: validIndex}
	cache := NewCache(fetcher, nil)

	_, err := cache.Load(context.Background(), false)
	require.NoError(t, err)

	cache.Invalidate()
	_, ok := cache.Loaded()
	assert.False(t, ok)

	_, err = cache.Load(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.count())
}

func TestCache_MalformedKeepsPreviousValue(t *testing.T) {
	fetcher := &countingFetcher{body: validIndex}
	cache := NewCache(fetcher, nil)

	good, err := cache.Load(context.Background(), false)
	require.NoError(t, err)

	for _, body := range []string{
		`{"files": []}`,
		`{"version": "1.0.0", "files": null}`,
		`{"version": "1.0.0", "files": {}}`,
		`not json`,
	} {
		fetcher.set(body, nil)
		_, err := cache.Load(context.Background(), true)
		assert.ErrorIs(t, err, catalog.ErrMalformedIndex, body)

		cached, ok := cache.Loaded()
		require.True(t, ok)
		assert.Same(t, good, cached)
	}

	// A non-forced load still serves the stale value.
	stale, err := cache.Load(context.Background(), false)
	require.NoError(t, err)
	assert.Same(t, good, stale)
}

func TestCache_FetchFailure(t *testing.T) {
	fetcher := &countingFetcher{err: errors.New("connection refused")}
	cache := NewCache(fetcher, nil)

	_, err := cache.Load(context.Background(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrLoadFailure)
	assert.Contains(t, err.Error(), "connection refused")

	_, ok := cache.Loaded()
	assert.False(t, ok)
}

func TestCache_ConcurrentLoadsFetchOnce(t *testing.T) {
	fetcher := &countingFetcher{body: validIndex}
	cache := NewCache(fetcher, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Load(context.Background(), false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, fetcher.count())
}

func TestHTTPFetcher_RetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(validIndex))
	}))
	defer srv.Close()

	fetcher := NewHTTPFetcher(srv.URL+"/references/metadata.json", srv.Client()).
		WithRetryWindow(time.Millisecond, 5*time.Second)
	cache := NewCache(fetcher, nil)

	idx, err := cache.Load(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, idx.Files, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestHTTPFetcher_ClientErrorIsPermanent(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	fetcher := NewHTTPFetcher(srv.URL, srv.Client()).WithRetryWindow(time.Millisecond, 5*time.Second)
	_, err := NewCache(fetcher, nil).Load(context.Background(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrLoadFailure)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Contains(t, err.Error(), "404 Not Found")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFileFetcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	require.NoError(t, os.WriteFile(path, []byte(validIndex), 0o644))

	idx, err := NewCache(NewFileFetcher(path), nil).Load(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", idx.Version)

	_, err = NewCache(NewFileFetcher(path+".missing"), nil).Load(context.Background(), false)
	assert.ErrorIs(t, err, catalog.ErrLoadFailure)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewFetcher(t *testing.T) {
	f, err := NewFetcher("https://example.com/references/metadata.json")
	require.NoError(t, err)
	assert.IsType(t, &HTTPFetcher{}, f)

	f, err = NewFetcher("file:///srv/refs/metadata.json")
	require.NoError(t, err)
	require.IsType(t, &FileFetcher{}, f)
	assert.Equal(t, "/srv/refs/metadata.json", f.(*FileFetcher).path)

	f, err = NewFetcher("references/metadata.json")
	require.NoError(t, err)
	require.IsType(t, &FileFetcher{}, f)
	assert.Equal(t, "references/metadata.json", f.(*FileFetcher).path)

	_, err = NewFetcher("")
	assert.Error(t, err)
}
