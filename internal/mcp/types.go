// Package mcp exposes the artifact catalog as Model Context Protocol tools.
package mcp

import (
	"time"

	"github.com/bull/artifact-catalog/internal/catalog"
)

// SearchArtifactsInput defines the input parameters for the search_artifacts tool.
type SearchArtifactsInput struct {
	// Query is matched case-insensitively against titles, descriptions, filenames, tags and dependencies.
	Query string `json:"query,omitempty" jsonschema:"Case-insensitive substring matched against title, description, filename, tags and dependencies. Empty matches everything."`
	// Source restricts results to one source group.
	Source string `json:"source,omitempty" jsonschema:"Only return artifacts from this source group (e.g. claude or gemini)"`
	// Tags keeps artifacts carrying any of these tags.
	Tags []string `json:"tags,omitempty" jsonschema:"Keep artifacts that carry at least one of these tags"`
	// Dependencies keeps artifacts using any of these libraries.
	Dependencies []string `json:"dependencies,omitempty" jsonschema:"Keep artifacts that use at least one of these libraries"`
	// Since is an inclusive lower bound on the creation date.
	Since string `json:"since,omitempty" jsonschema:"Inclusive lower bound on creation date, YYYY-MM-DD or RFC 3339"`
	// Until is an inclusive upper bound on the creation date.
	Until string `json:"until,omitempty" jsonschema:"Inclusive upper bound on creation date, YYYY-MM-DD or RFC 3339"`
	// SortBy selects the sort key.
	SortBy string `json:"sort_by,omitempty" jsonschema:"Sort key: name, date, size or source (default name)"`
	// SortDirection selects ascending or descending order.
	SortDirection string `json:"sort_direction,omitempty" jsonschema:"Sort direction: asc or desc (default asc)"`
	// Limit caps the number of returned artifacts.
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of artifacts to return (default 20, max 100)"`
}

// SearchArtifactsOutput contains the matching artifacts.
type SearchArtifactsOutput struct {
	// Results is the requested page of matches.
	Results []Artifact `json:"results"`
	// Total is the number of matches before the limit was applied.
	Total int `json:"total"`
	// Message provides informational context (e.g., "No matching artifacts found").
	Message string `json:"message,omitempty"`
}

// Artifact is one catalog record as returned by the tools.
type Artifact struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	Path         string    `json:"path"`
	Source       string    `json:"source"`
	Kind         string    `json:"kind"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Tags         []string  `json:"tags"`
	Dependencies []string  `json:"dependencies"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Size         int64     `json:"size"`
}

func toArtifact(f catalog.FileMetadata) Artifact {
	tags := f.Tags
	if tags == nil {
		tags = []string{}
	}
	deps := f.Dependencies
	if deps == nil {
		deps = []string{}
	}
	return Artifact{
		ID:           f.ID,
		Filename:     f.Filename,
		Path:         f.Path,
		Source:       string(f.Source),
		Kind:         string(f.Kind),
		Title:        f.Title,
		Description:  f.Description,
		Tags:         tags,
		Dependencies: deps,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
		Size:         f.Size,
	}
}

// GetArtifactInput defines the input parameters for the get_artifact tool.
// Either ID or Filename and Source must be set.
type GetArtifactInput struct {
	ID       string `json:"id,omitempty" jsonschema:"Artifact id, e.g. claude-dashboard"`
	Filename string `json:"filename,omitempty" jsonschema:"Artifact filename, used together with source when no id is given"`
	Source   string `json:"source,omitempty" jsonschema:"Source group of the filename"`
}

// GetArtifactOutput contains the requested artifact.
type GetArtifactOutput struct {
	// Found indicates whether the artifact exists.
	Found    bool      `json:"found"`
	Artifact *Artifact `json:"artifact,omitempty"`
}

// ListTagsInput takes no parameters.
type ListTagsInput struct{}

// ListTagsOutput contains every distinct tag, sorted.
type ListTagsOutput struct {
	Tags  []string `json:"tags"`
	Count int      `json:"count"`
}

// ListDependenciesInput takes no parameters.
type ListDependenciesInput struct{}

// ListDependenciesOutput contains every distinct dependency, sorted.
type ListDependenciesOutput struct {
	Dependencies []string `json:"dependencies"`
	Count        int      `json:"count"`
}

// StatusInput defines the input parameters for the get_index_status tool.
type StatusInput struct {
	// Reload forces the index to be fetched again.
	Reload bool `json:"reload,omitempty" jsonschema:"Fetch the index again instead of using the cached copy"`
}

// StatusOutput describes the loaded index.
type StatusOutput struct {
	Version     string         `json:"version"`
	LastUpdated time.Time      `json:"last_updated"`
	BuildID     string         `json:"build_id,omitempty"`
	TotalFiles  int            `json:"total_files"`
	BySource    map[string]int `json:"by_source"`
	Reloaded    bool           `json:"reloaded"`
}
