// Package github reads artifact groups from a GitHub repository so the index
// can be generated without a local checkout.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-github/v81/github"

	"github.com/bull/artifact-catalog/internal/catalog"
	"github.com/bull/artifact-catalog/internal/source"
)

// Fetcher is a source.Source backed by the contents and commits APIs of one
// repository. Directory paths are relative to the repository root.
type Fetcher struct {
	client *Client
	owner  string
	repo   string
	ref    string // branch, tag or SHA; empty means the default branch
	logger *slog.Logger

	initialInterval time.Duration
	maxElapsed      time.Duration

	mu    sync.Mutex
	sizes map[string]int64 // file path -> size, filled by List
}

var _ source.Source = (*Fetcher)(nil)

// NewFetcher creates a fetcher for owner/repo at ref.
func NewFetcher(client *Client, owner, repo, ref string, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:          client,
		owner:           owner,
		repo:            repo,
		ref:             ref,
		logger:          logger,
		initialInterval: 500 * time.Millisecond,
		maxElapsed:      30 * time.Second,
		sizes:           make(map[string]int64),
	}
}

// WithRetryWindow overrides the backoff used for transient API failures.
func (f *Fetcher) WithRetryWindow(initial, maxElapsed time.Duration) *Fetcher {
	f.initialInterval = initial
	f.maxElapsed = maxElapsed
	return f
}

// List returns the sorted names of the files directly inside dir whose
// extension matches exts. Subdirectories are ignored.
func (f *Fetcher) List(ctx context.Context, dir string, exts []string) ([]string, error) {
	var (
		file    *github.RepositoryContent
		entries []*github.RepositoryContent
	)
	err := f.retry(ctx, func() (*github.Response, error) {
		var resp *github.Response
		var err error
		file, entries, resp, err = f.client.Repositories.GetContents(ctx, f.owner, f.repo, dir, f.contentOptions())
		return resp, err
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s/%s:%s", catalog.ErrDirectoryMissing, f.owner, f.repo, dir)
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	if file != nil {
		return nil, fmt.Errorf("%w: %s is not a directory", catalog.ErrDirectoryMissing, dir)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var names []string
	for _, entry := range entries {
		if entry.GetType() != "file" || !source.MatchExtension(entry.GetName(), exts) {
			continue
		}
		names = append(names, entry.GetName())
		f.sizes[path.Join(dir, entry.GetName())] = int64(entry.GetSize())
	}
	sort.Strings(names)
	return names, nil
}

// Stat derives the file times from its commit history: the newest commit
// touching the file is the modification time, the oldest its creation time.
func (f *Fetcher) Stat(ctx context.Context, dir, name string) (source.File, error) {
	filePath := path.Join(dir, name)

	newest, resp, err := f.commits(ctx, filePath, 0)
	if err != nil {
		return source.File{}, fmt.Errorf("%w: %s: %w", catalog.ErrFileRead, filePath, err)
	}
	if len(newest) == 0 {
		return source.File{}, fmt.Errorf("%w: %s: no commits", catalog.ErrFileRead, filePath)
	}

	oldest := newest
	if resp != nil && resp.LastPage > 1 {
		oldest, _, err = f.commits(ctx, filePath, resp.LastPage)
		if err != nil {
			return source.File{}, fmt.Errorf("%w: %s: %w", catalog.ErrFileRead, filePath, err)
		}
		if len(oldest) == 0 {
			oldest = newest
		}
	}

	size, err := f.size(ctx, filePath)
	if err != nil {
		return source.File{}, fmt.Errorf("%w: %s: %w", catalog.ErrFileRead, filePath, err)
	}

	return source.File{
		Name:      name,
		Size:      size,
		CreatedAt: commitTime(oldest[0]),
		UpdatedAt: commitTime(newest[0]),
	}, nil
}

// Read returns the decoded file content.
func (f *Fetcher) Read(ctx context.Context, dir, name string) ([]byte, error) {
	filePath := path.Join(dir, name)

	file, err := f.getFile(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", catalog.ErrFileRead, filePath, err)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: failed to decode content: %w", catalog.ErrFileRead, filePath, err)
	}
	return []byte(content), nil
}

// commits lists one commit per page for filePath; page 0 is the newest.
func (f *Fetcher) commits(ctx context.Context, filePath string, page int) ([]*github.RepositoryCommit, *github.Response, error) {
	opts := &github.CommitsListOptions{
		SHA:         f.ref,
		Path:        filePath,
		ListOptions: github.ListOptions{Page: page, PerPage: 1},
	}

	var (
		commits []*github.RepositoryCommit
		resp    *github.Response
	)
	err := f.retry(ctx, func() (*github.Response, error) {
		var err error
		commits, resp, err = f.client.Repositories.ListCommits(ctx, f.owner, f.repo, opts)
		return resp, err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list commits: %w", err)
	}
	return commits, resp, nil
}

func (f *Fetcher) size(ctx context.Context, filePath string) (int64, error) {
	f.mu.Lock()
	size, ok := f.sizes[filePath]
	f.mu.Unlock()
	if ok {
		return size, nil
	}

	file, err := f.getFile(ctx, filePath)
	if err != nil {
		return 0, err
	}
	return int64(file.GetSize()), nil
}

func (f *Fetcher) getFile(ctx context.Context, filePath string) (*github.RepositoryContent, error) {
	var file *github.RepositoryContent
	err := f.retry(ctx, func() (*github.Response, error) {
		var resp *github.Response
		var err error
		file, _, resp, err = f.client.Repositories.GetContents(ctx, f.owner, f.repo, filePath, f.contentOptions())
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	if file == nil {
		return nil, fmt.Errorf("%s is a directory", filePath)
	}
	return file, nil
}

func (f *Fetcher) contentOptions() *github.RepositoryContentGetOptions {
	if f.ref == "" {
		return nil
	}
	return &github.RepositoryContentGetOptions{Ref: f.ref}
}

// retry runs op with exponential backoff. Rate limits, server errors and
// transport failures are retried; any other API error is returned at once.
func (f *Fetcher) retry(ctx context.Context, op func() (*github.Response, error)) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.initialInterval
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = f.maxElapsed

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		resp, err := op()
		if err == nil {
			return nil
		}
		if !retryable(resp) {
			return backoff.Permanent(err)
		}
		f.logger.Warn("GitHub API call failed, retrying",
			"attempt", attempt,
			"status", statusCode(resp),
			"error", err,
		)
		return err
	}, backoff.WithContext(b, ctx))
}

func retryable(resp *github.Response) bool {
	code := statusCode(resp)
	return code == 0 || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func statusCode(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}

func isNotFound(err error) bool {
	var errResp *github.ErrorResponse
	if !errors.As(err, &errResp) {
		return false
	}
	return errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound
}

func commitTime(c *github.RepositoryCommit) time.Time {
	return c.GetCommit().GetCommitter().GetDate().Time.UTC().Truncate(time.Millisecond)
}
