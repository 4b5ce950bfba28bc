package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-github/v81/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/artifact-catalog/internal/catalog"
)

const dashboardSource = "export default function SalesDashboard() { return null }\n"

// newTestFetcher points a fetcher at a fake GitHub API.
func newTestFetcher(t *testing.T, handler http.Handler) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	gh := github.NewClient(srv.Client())
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	gh.BaseURL = base

	return NewFetcher(&Client{Client: gh}, "acme", "artifacts", "", nil).
		WithRetryWindow(time.Millisecond, 2*time.Second)
}

func fakeRepo(t *testing.T) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/repos/acme/artifacts/contents/references/claude", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"type": "file", "name": "dashboard.tsx", "path": "references/claude/dashboard.tsx", "size": 57},
			{"type": "file", "name": "README.md", "path": "references/claude/README.md", "size": 10},
			{"type": "dir", "name": "old.tsx", "path": "references/claude/old.tsx"},
			{"type": "file", "name": "Admin.JSX", "path": "references/claude/Admin.JSX", "size": 20}
		]`)
	})
	mux.HandleFunc("/repos/acme/artifacts/contents/references/claude/dashboard.tsx", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"type": "file", "name": "dashboard.tsx", "encoding": "base64", "size": 57, "content": %q}`,
			base64.StdEncoding.EncodeToString([]byte(dashboardSource)))
	})
	mux.HandleFunc("/repos/acme/artifacts/commits", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "references/claude/dashboard.tsx", r.URL.Query().Get("path"))
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))

		switch r.URL.Query().Get("page") {
		case "", "1":
			last := fmt.Sprintf(`<%s?page=3&path=references%%2Fclaude%%2Fdashboard.tsx&per_page=1>; rel="last"`, "http://"+r.Host+r.URL.Path)
			w.Header().Set("Link", last)
			fmt.Fprint(w, `[{"sha": "c3", "commit": {"committer": {"date": "2024-05-03T10:00:00Z"}}}]`)
		case "3":
			fmt.Fprint(w, `[{"sha": "c1", "commit": {"committer": {"date": "2024-04-01T08:30:00Z"}}}]`)
		default:
			http.NotFound(w, r)
		}
	})
	return mux
}

func TestFetcher_List(t *testing.T) {
	f := newTestFetcher(t, fakeRepo(t))

	names, err := f.List(context.Background(), "references/claude", []string{".tsx", ".jsx"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Admin.JSX", "dashboard.tsx"}, names)
}

func TestFetcher_ListMissingDirectory(t *testing.T) {
	f := newTestFetcher(t, fakeRepo(t))

	_, err := f.List(context.Background(), "references/gemini", []string{".html"})
	assert.ErrorIs(t, err, catalog.ErrDirectoryMissing)
}

func TestFetcher_StatUsesCommitHistory(t *testing.T) {
	f := newTestFetcher(t, fakeRepo(t))

	_, err := f.List(context.Background(), "references/claude", []string{".tsx"})
	require.NoError(t, err)

	file, err := f.Stat(context.Background(), "references/claude", "dashboard.tsx")
	require.NoError(t, err)
	assert.Equal(t, "dashboard.tsx", file.Name)
	assert.Equal(t, int64(57), file.Size)
	assert.Equal(t, time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC), file.UpdatedAt)
	assert.Equal(t, time.Date(2024, 4, 1, 8, 30, 0, 0, time.UTC), file.CreatedAt)
}

func TestFetcher_StatWithoutListingFetchesSize(t *testing.T) {
	f := newTestFetcher(t, fakeRepo(t))

	file, err := f.Stat(context.Background(), "references/claude", "dashboard.tsx")
	require.NoError(t, err)
	assert.Equal(t, int64(57), file.Size)
}

func TestFetcher_Read(t *testing.T) {
	f := newTestFetcher(t, fakeRepo(t))

	content, err := f.Read(context.Background(), "references/claude", "dashboard.tsx")
	require.NoError(t, err)
	assert.Equal(t, dashboardSource, string(content))

	_, err = f.Read(context.Background(), "references/claude", "missing.tsx")
	assert.ErrorIs(t, err, catalog.ErrFileRead)
}

func TestFetcher_RetriesServerErrors(t *testing.T) {
	var hits int32
	mux := fakeRepo(t)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, `{"message": "bad gateway"}`)
			return
		}
		mux.ServeHTTP(w, r)
	})
	f := newTestFetcher(t, handler)

	names, err := f.List(context.Background(), "references/claude", []string{".tsx"})
	require.NoError(t, err)
	assert.Equal(t, []string{"dashboard.tsx"}, names)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestFetcher_ClientErrorsAreNotRetried(t *testing.T) {
	var hits int32
	f := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message": "Bad credentials"}`)
	}))

	_, err := f.List(context.Background(), "references/claude", []string{".tsx"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, catalog.ErrDirectoryMissing)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
