// Package query implements search, filtering, sorting and lookups over a
// loaded catalog. Every function is pure: inputs are never modified and
// results are fresh slices.
package query

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bull/artifact-catalog/internal/catalog"
)

// Search returns the records whose title, description, filename, tags,
// dependencies or search text contain q, ignoring case. A blank query
// returns files unchanged.
func Search(files []catalog.FileMetadata, q string) []catalog.FileMetadata {
	q = strings.TrimSpace(q)
	if q == "" {
		return files
	}
	needle := strings.ToLower(q)

	out := make([]catalog.FileMetadata, 0, len(files))
	for _, f := range files {
		if matches(f, needle) {
			out = append(out, f)
		}
	}
	return out
}

func matches(f catalog.FileMetadata, needle string) bool {
	contains := func(s string) bool {
		return strings.Contains(strings.ToLower(s), needle)
	}
	if contains(f.Title) || contains(f.Description) || contains(f.Filename) {
		return true
	}
	for _, tag := range f.Tags {
		if contains(tag) {
			return true
		}
	}
	for _, dep := range f.Dependencies {
		if contains(dep) {
			return true
		}
	}
	return contains(f.SearchText)
}

// Filter keeps the records that satisfy every set criterion of opts.
func Filter(files []catalog.FileMetadata, opts catalog.FilterOptions) []catalog.FileMetadata {
	out := make([]catalog.FileMetadata, 0, len(files))
	for _, f := range files {
		if keep(f, opts) {
			out = append(out, f)
		}
	}
	return out
}

func keep(f catalog.FileMetadata, opts catalog.FilterOptions) bool {
	if opts.Source != "" && f.Source != opts.Source {
		return false
	}
	if len(opts.Tags) > 0 && !anyEqualFold(f.Tags, opts.Tags) {
		return false
	}
	if !opts.StartDate.IsZero() && f.CreatedAt.Before(opts.StartDate) {
		return false
	}
	if !opts.EndDate.IsZero() && f.CreatedAt.After(opts.EndDate) {
		return false
	}
	if len(opts.Dependencies) > 0 && !anyEqualFold(f.Dependencies, opts.Dependencies) {
		return false
	}
	return true
}

func anyEqualFold(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

// Sort orders a copy of files by cfg. The sort is stable. For SortBySource,
// records of the same source are ordered by filename in the same direction.
// An unknown key keeps the input order.
func Sort(files []catalog.FileMetadata, cfg catalog.SortConfig) []catalog.FileMetadata {
	out := make([]catalog.FileMetadata, len(files))
	copy(out, files)

	dir := 1
	if cfg.Direction == catalog.Descending {
		dir = -1
	}

	var cmp func(a, b catalog.FileMetadata) int
	switch cfg.By {
	case catalog.SortByName:
		cmp = func(a, b catalog.FileMetadata) int { return strings.Compare(a.Filename, b.Filename) }
	case catalog.SortByDate:
		cmp = func(a, b catalog.FileMetadata) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case catalog.SortBySize:
		cmp = func(a, b catalog.FileMetadata) int { return compareInt64(a.Size, b.Size) }
	case catalog.SortBySource:
		cmp = func(a, b catalog.FileMetadata) int {
			if c := strings.Compare(string(a.Source), string(b.Source)); c != 0 {
				return c
			}
			return strings.Compare(a.Filename, b.Filename)
		}
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		return dir*cmp(out[i], out[j]) < 0
	})
	return out
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ParseSortConfig validates user input. Empty values default to name, ascending.
func ParseSortConfig(by, direction string) (catalog.SortConfig, error) {
	cfg := catalog.SortConfig{By: catalog.SortByName, Direction: catalog.Ascending}

	switch f := catalog.SortField(strings.ToLower(strings.TrimSpace(by))); f {
	case "":
	case catalog.SortByName, catalog.SortByDate, catalog.SortBySize, catalog.SortBySource:
		cfg.By = f
	default:
		return cfg, fmt.Errorf("%w: unknown sort key %q (want name, date, size or source)", catalog.ErrInvalidSort, by)
	}

	switch d := catalog.SortDirection(strings.ToLower(strings.TrimSpace(direction))); d {
	case "":
	case catalog.Ascending, catalog.Descending:
		cfg.Direction = d
	default:
		return cfg, fmt.Errorf("%w: unknown direction %q (want asc or desc)", catalog.ErrInvalidSort, direction)
	}
	return cfg, nil
}

// Apply runs the full pipeline used by the catalog views: search, then
// filter, then sort.
func Apply(files []catalog.FileMetadata, q string, opts catalog.FilterOptions, cfg catalog.SortConfig) []catalog.FileMetadata {
	return Sort(Filter(Search(files, q), opts), cfg)
}

// ParseDateBound parses a filter date given as YYYY-MM-DD or RFC 3339.
// A bare date used as an upper bound covers the whole day (UTC). Empty input
// yields the zero time, meaning no bound.
func ParseDateBound(s string, upper bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or RFC 3339)", s)
	}
	if upper {
		t = t.Add(24*time.Hour - time.Millisecond)
	}
	return t, nil
}

// AllTags returns every distinct tag, sorted.
func AllTags(files []catalog.FileMetadata) []string {
	return distinct(files, func(f catalog.FileMetadata) []string { return f.Tags })
}

// AllDependencies returns every distinct dependency, sorted.
func AllDependencies(files []catalog.FileMetadata) []string {
	return distinct(files, func(f catalog.FileMetadata) []string { return f.Dependencies })
}

func distinct(files []catalog.FileMetadata, field func(catalog.FileMetadata) []string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, f := range files {
		for _, v := range field(f) {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// FindByID returns the first record with the given id.
func FindByID(files []catalog.FileMetadata, id string) (catalog.FileMetadata, bool) {
	for _, f := range files {
		if f.ID == id {
			return f, true
		}
	}
	return catalog.FileMetadata{}, false
}

// FindByFilenameAndSource returns the first record matching both keys.
func FindByFilenameAndSource(files []catalog.FileMetadata, filename string, src catalog.Source) (catalog.FileMetadata, bool) {
	for _, f := range files {
		if f.Filename == filename && f.Source == src {
			return f, true
		}
	}
	return catalog.FileMetadata{}, false
}
