package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/artifact-catalog/internal/catalog"
	"github.com/bull/artifact-catalog/internal/query"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// IndexLoader provides the metadata index. *loader.Cache implements it.
type IndexLoader interface {
	Load(ctx context.Context, force bool) (*catalog.MetadataIndex, error)
}

// makeSearchHandler creates the search_artifacts tool handler.
// Search flow:
// 1. Load the cached index
// 2. Build filter and sort options from the input (bad dates or sort keys are tool errors)
// 3. Search, filter and sort
// 4. Return up to Limit artifacts and the total match count
func makeSearchHandler(index IndexLoader) func(
	context.Context, *mcp.CallToolRequest, SearchArtifactsInput,
) (*mcp.CallToolResult, SearchArtifactsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchArtifactsInput) (
		*mcp.CallToolResult, SearchArtifactsOutput, error,
	) {
		limit := input.Limit
		if limit <= 0 {
			limit = defaultLimit
		}
		if limit > maxLimit {
			limit = maxLimit
		}

		opts, err := filterOptions(input)
		if err != nil {
			return nil, SearchArtifactsOutput{}, err
		}
		sortCfg, err := query.ParseSortConfig(input.SortBy, input.SortDirection)
		if err != nil {
			return nil, SearchArtifactsOutput{}, err
		}

		idx, err := index.Load(ctx, false)
		if err != nil {
			return nil, SearchArtifactsOutput{}, fmt.Errorf("failed to load index: %w", err)
		}

		matches := query.Apply(idx.Files, input.Query, opts, sortCfg)
		total := len(matches)
		if len(matches) > limit {
			matches = matches[:limit]
		}

		results := make([]Artifact, 0, len(matches))
		for _, f := range matches {
			results = append(results, toArtifact(f))
		}

		if total == 0 {
			return nil, SearchArtifactsOutput{
				Results: results,
				Message: "No matching artifacts found. Try fewer filters or broader search terms.",
			}, nil
		}
		return nil, SearchArtifactsOutput{Results: results, Total: total}, nil
	}
}

func filterOptions(input SearchArtifactsInput) (catalog.FilterOptions, error) {
	start, err := query.ParseDateBound(input.Since, false)
	if err != nil {
		return catalog.FilterOptions{}, fmt.Errorf("since: %w", err)
	}
	end, err := query.ParseDateBound(input.Until, true)
	if err != nil {
		return catalog.FilterOptions{}, fmt.Errorf("until: %w", err)
	}
	return catalog.FilterOptions{
		Source:       catalog.Source(input.Source),
		Tags:         input.Tags,
		StartDate:    start,
		EndDate:      end,
		Dependencies: input.Dependencies,
	}, nil
}

// makeGetHandler creates the get_artifact tool handler.
// An unknown artifact is reported with Found=false, not as an error.
func makeGetHandler(index IndexLoader) func(
	context.Context, *mcp.CallToolRequest, GetArtifactInput,
) (*mcp.CallToolResult, GetArtifactOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetArtifactInput) (
		*mcp.CallToolResult, GetArtifactOutput, error,
	) {
		if input.ID == "" && (input.Filename == "" || input.Source == "") {
			return nil, GetArtifactOutput{}, errors.New("either id or filename and source are required")
		}

		idx, err := index.Load(ctx, false)
		if err != nil {
			return nil, GetArtifactOutput{}, fmt.Errorf("failed to load index: %w", err)
		}

		var (
			file  catalog.FileMetadata
			found bool
		)
		if input.ID != "" {
			file, found = query.FindByID(idx.Files, input.ID)
		} else {
			file, found = query.FindByFilenameAndSource(idx.Files, input.Filename, catalog.Source(input.Source))
		}
		if !found {
			return nil, GetArtifactOutput{Found: false}, nil
		}

		artifact := toArtifact(file)
		return nil, GetArtifactOutput{Found: true, Artifact: &artifact}, nil
	}
}

// makeTagsHandler creates the list_tags tool handler.
func makeTagsHandler(index IndexLoader) func(
	context.Context, *mcp.CallToolRequest, ListTagsInput,
) (*mcp.CallToolResult, ListTagsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListTagsInput) (
		*mcp.CallToolResult, ListTagsOutput, error,
	) {
		idx, err := index.Load(ctx, false)
		if err != nil {
			return nil, ListTagsOutput{}, fmt.Errorf("failed to load index: %w", err)
		}
		tags := query.AllTags(idx.Files)
		return nil, ListTagsOutput{Tags: tags, Count: len(tags)}, nil
	}
}

// makeDependenciesHandler creates the list_dependencies tool handler.
func makeDependenciesHandler(index IndexLoader) func(
	context.Context, *mcp.CallToolRequest, ListDependenciesInput,
) (*mcp.CallToolResult, ListDependenciesOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListDependenciesInput) (
		*mcp.CallToolResult, ListDependenciesOutput, error,
	) {
		idx, err := index.Load(ctx, false)
		if err != nil {
			return nil, ListDependenciesOutput{}, fmt.Errorf("failed to load index: %w", err)
		}
		deps := query.AllDependencies(idx.Files)
		return nil, ListDependenciesOutput{Dependencies: deps, Count: len(deps)}, nil
	}
}

// makeStatusHandler creates the get_index_status tool handler.
// With Reload set the index is fetched again; a failed reload is an error
// and the previously cached index stays in place.
func makeStatusHandler(index IndexLoader) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		idx, err := index.Load(ctx, input.Reload)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("failed to load index: %w", err)
		}

		bySource := make(map[string]int)
		for src, n := range idx.CountBySource() {
			bySource[string(src)] = n
		}

		return nil, StatusOutput{
			Version:     idx.Version,
			LastUpdated: idx.LastUpdated,
			BuildID:     idx.BuildID,
			TotalFiles:  len(idx.Files),
			BySource:    bySource,
			Reloaded:    input.Reload,
		}, nil
	}
}
