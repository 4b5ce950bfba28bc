// Package catalog defines the metadata schema shared by the extractor and the query engine.
package catalog

import "time"

// IndexVersion is the schema version written into every generated index.
const IndexVersion = "1.0.0"

// Source identifies the source group an artifact was cataloged from (e.g. "claude", "gemini").
type Source string

// Default source groups.
const (
	SourceClaude Source = "claude"
	SourceGemini Source = "gemini"
)

// Kind is the artifact family, fixed by the source group.
type Kind string

const (
	// KindComponent is a React component source (.tsx, .jsx).
	KindComponent Kind = "component"
	// KindMarkup is a standalone HTML document.
	KindMarkup Kind = "markup"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindComponent || k == KindMarkup
}

// FileMetadata describes one cataloged artifact.
type FileMetadata struct {
	ID           string    `json:"id"`                     // "<source>-<basename>"
	Filename     string    `json:"filename"`               // unique within its source group
	Path         string    `json:"path"`                   // "/references/<source>/<filename>"
	Source       Source    `json:"source"`                 // source group
	Kind         Kind      `json:"kind"`                   // component or markup
	Title        string    `json:"title"`                  // never empty
	Description  string    `json:"description,omitempty"`  // may be empty
	Tags         []string  `json:"tags"`                   // deduplicated, insertion order
	CreatedAt    time.Time `json:"createdAt"`              // birth time, clamped to UpdatedAt
	UpdatedAt    time.Time `json:"updatedAt"`              // modification time
	Dependencies []string  `json:"dependencies,omitempty"` // external modules / CDN libraries
	Size         int64     `json:"size"`                   // bytes
	SearchText   string    `json:"searchText,omitempty"`   // title + description + tags
}

// MetadataIndex is the persisted collection written by the extractor.
type MetadataIndex struct {
	Version     string         `json:"version"`
	LastUpdated time.Time      `json:"lastUpdated"`
	BuildID     string         `json:"buildId,omitempty"`
	Files       []FileMetadata `json:"files"`
}

// CountBySource returns the number of records per source group.
func (idx *MetadataIndex) CountBySource() map[Source]int {
	counts := make(map[Source]int)
	if idx == nil {
		return counts
	}
	for _, f := range idx.Files {
		counts[f.Source]++
	}
	return counts
}

// FilterOptions narrows a collection. Zero-valued fields impose no constraint.
type FilterOptions struct {
	Source       Source
	Tags         []string  // any-of, case-insensitive equality
	StartDate    time.Time // inclusive lower bound on CreatedAt
	EndDate      time.Time // inclusive upper bound on CreatedAt
	Dependencies []string  // any-of, case-insensitive equality
}

// IsZero reports whether no criterion is set.
func (o FilterOptions) IsZero() bool {
	return o.Source == "" && len(o.Tags) == 0 && o.StartDate.IsZero() &&
		o.EndDate.IsZero() && len(o.Dependencies) == 0
}

// SortField selects the sort key.
type SortField string

const (
	SortByName   SortField = "name"
	SortByDate   SortField = "date"
	SortBySize   SortField = "size"
	SortBySource SortField = "source"
)

// SortDirection is ascending or descending.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// SortConfig selects a sort key and direction.
type SortConfig struct {
	By        SortField
	Direction SortDirection
}
