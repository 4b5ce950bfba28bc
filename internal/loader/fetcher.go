package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Fetcher retrieves the raw index document.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// NewFetcher picks a fetcher for location: http(s) URLs are fetched over
// HTTP, file:// URLs and plain paths are read from disk.
func NewFetcher(location string) (Fetcher, error) {
	if location == "" {
		return nil, errors.New("empty index location")
	}
	u, err := url.Parse(location)
	if err == nil {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return NewHTTPFetcher(location, nil), nil
		case "file":
			return NewFileFetcher(u.Path), nil
		}
	}
	return NewFileFetcher(location), nil
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.Status)
}

// HTTPFetcher GETs the index from a URL, retrying transport errors and
// 5xx responses with exponential backoff. 4xx responses fail immediately.
type HTTPFetcher struct {
	url            string
	client         *http.Client
	maxElapsedTime time.Duration
	initial        time.Duration
}

// NewHTTPFetcher creates an HTTP fetcher. A nil client uses a client with a 30s timeout.
func NewHTTPFetcher(rawURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFetcher{
		url:            rawURL,
		client:         client,
		maxElapsedTime: 30 * time.Second,
		initial:        500 * time.Millisecond,
	}
}

// WithRetryWindow overrides the backoff timings.
func (f *HTTPFetcher) WithRetryWindow(initial, maxElapsed time.Duration) *HTTPFetcher {
	f.initial = initial
	f.maxElapsedTime = maxElapsed
	return f
}

// Fetch downloads the index body.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]byte, error) {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = f.initial
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = f.maxElapsedTime

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		req.Header.Set("Accept", "application/json")

		resp, err := f.client.Do(req)
		if err != nil {
			return fmt.Errorf("get %s: %w", f.url, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			statusErr := &StatusError{Code: resp.StatusCode, Status: resp.Status}
			if resp.StatusCode >= 500 {
				return statusErr
			}
			// Client errors will not fix themselves
			return backoff.Permanent(statusErr)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		body = data
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(exponentialBackoff, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

// FileFetcher reads the index from the local filesystem.
type FileFetcher struct {
	path string
}

// NewFileFetcher creates a fetcher for path.
func NewFileFetcher(path string) *FileFetcher {
	return &FileFetcher{path: path}
}

// Fetch reads the file.
func (f *FileFetcher) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	return data, nil
}
