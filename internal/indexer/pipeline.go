package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bull/artifact-catalog/internal/catalog"
	"github.com/bull/artifact-catalog/internal/extract"
	"github.com/bull/artifact-catalog/internal/source"
	"github.com/bull/artifact-catalog/internal/storage"
)

// IndexResult contains statistics about a generation run.
type IndexResult struct {
	TotalFiles    int
	BySource      map[catalog.Source]int
	FailedFiles   []FailedFile
	MissingGroups []catalog.Source
	BuildID       string
	OutputPath    string
	Duration      time.Duration
}

// Indexed returns the number of records written.
func (r *IndexResult) Indexed() int {
	n := 0
	for _, c := range r.BySource {
		n += c
	}
	return n
}

// FailedFile represents a file that was skipped.
type FailedFile struct {
	Source   catalog.Source
	Filename string
	Reason   string
}

// Pipeline turns the files of every group into a metadata index.
type Pipeline struct {
	source    source.Source
	generator *extract.Generator
	output    *storage.IndexFile
	groups    []Group
	logger    *slog.Logger
	now       func() time.Time
}

// NewPipeline creates a generation pipeline with the given components.
func NewPipeline(
	src source.Source,
	generator *extract.Generator,
	output *storage.IndexFile,
	groups []Group,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if generator == nil {
		generator = extract.NewGenerator(nil)
	}
	return &Pipeline{
		source:    src,
		generator: generator,
		output:    output,
		groups:    groups,
		logger:    logger,
		now:       time.Now,
	}
}

// IndexAll builds the index from all groups and replaces the output file.
// Missing directories and unreadable files are reported in the result;
// only a failed write returns an error.
func (p *Pipeline) IndexAll(ctx context.Context) (*IndexResult, error) {
	idx, result, err := p.Build(ctx)
	if err != nil {
		return nil, err
	}

	if err := p.output.Write(idx); err != nil {
		return nil, fmt.Errorf("write index: %w", err)
	}
	result.OutputPath = p.output.Path()

	p.logger.Info("Index written",
		"path", result.OutputPath,
		"files", len(idx.Files),
		"failed", len(result.FailedFiles),
		"duration", result.Duration,
	)
	return result, nil
}

// Build scans every group and assembles the index without writing it.
func (p *Pipeline) Build(ctx context.Context) (*catalog.MetadataIndex, *IndexResult, error) {
	start := time.Now()
	result := &IndexResult{
		BySource: make(map[catalog.Source]int),
		BuildID:  uuid.New().String(),
	}
	ids := make(map[string]struct{})
	files := []catalog.FileMetadata{}

	for _, group := range p.groups {
		names, err := p.source.List(ctx, group.Dir, group.Extensions)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, ctxErr
			}
			if errors.Is(err, catalog.ErrDirectoryMissing) {
				p.logger.Warn("Source directory not found, skipping", "source", group.Source, "dir", group.Dir)
				result.MissingGroups = append(result.MissingGroups, group.Source)
			} else {
				p.logger.Warn("Failed to list source directory", "source", group.Source, "dir", group.Dir, "error", err)
				result.FailedFiles = append(result.FailedFiles, FailedFile{
					Source: group.Source,
					Reason: err.Error(),
				})
			}
			continue
		}
		p.logger.Info("Found files", "source", group.Source, "count", len(names))
		result.TotalFiles += len(names)

		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			record, err := p.processFile(ctx, group, name)
			if err != nil {
				p.logger.Warn("Failed to process file", "source", group.Source, "file", name, "error", err)
				result.FailedFiles = append(result.FailedFiles, FailedFile{
					Source:   group.Source,
					Filename: name,
					Reason:   err.Error(),
				})
				continue // Skip unreadable files, continue with others
			}
			record.ID = uniqueID(ids, group.Source, name)
			files = append(files, *record)
			result.BySource[group.Source]++
		}
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i].UpdatedAt, files[j].UpdatedAt
		if !a.Equal(b) {
			return a.After(b)
		}
		return files[i].ID < files[j].ID
	})

	idx := &catalog.MetadataIndex{
		Version:     catalog.IndexVersion,
		LastUpdated: p.now().UTC().Truncate(time.Millisecond),
		BuildID:     result.BuildID,
		Files:       files,
	}
	result.Duration = time.Since(start)
	return idx, result, nil
}

// processFile reads one file and derives its record. The ID is assigned by the caller.
func (p *Pipeline) processFile(ctx context.Context, group Group, name string) (*catalog.FileMetadata, error) {
	info, err := p.source.Stat(ctx, group.Dir, name)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	content, err := p.source.Read(ctx, group.Dir, name)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	p.logger.Debug("Read file", "source", group.Source, "file", name, "size", len(content))

	meta := p.generator.GenerateMetadata(group.Kind, name, content)

	updated := info.UpdatedAt.UTC().Truncate(time.Millisecond)
	created := info.CreatedAt.UTC().Truncate(time.Millisecond)
	if info.CreatedAt.IsZero() || created.After(updated) {
		created = updated
	}

	size := info.Size
	if size <= 0 {
		size = int64(len(content))
	}

	return &catalog.FileMetadata{
		Filename:     name,
		Path:         strings.TrimRight(group.PathPrefix, "/") + "/" + name,
		Source:       group.Source,
		Kind:         group.Kind,
		Title:        meta.Title,
		Description:  meta.Description,
		Tags:         meta.Tags,
		CreatedAt:    created,
		UpdatedAt:    updated,
		Dependencies: meta.Dependencies,
		Size:         size,
		SearchText:   meta.SearchText(),
	}, nil
}

// uniqueID returns "<source>-<stem>", falling back to "<source>-<stem>-<ext>"
// and then a numeric suffix when the ID is already taken in this run.
func uniqueID(seen map[string]struct{}, src catalog.Source, filename string) string {
	stem := extract.Stem(filename)
	candidates := []string{fmt.Sprintf("%s-%s", src, stem)}
	if ext := strings.TrimPrefix(strings.ToLower(filename[len(stem):]), "."); ext != "" {
		candidates = append(candidates, fmt.Sprintf("%s-%s-%s", src, stem, ext))
	}

	for _, id := range candidates {
		if _, taken := seen[id]; !taken {
			seen[id] = struct{}{}
			return id
		}
	}
	base := candidates[len(candidates)-1]
	for n := 2; ; n++ {
		id := fmt.Sprintf("%s-%d", base, n)
		if _, taken := seen[id]; !taken {
			seen[id] = struct{}{}
			return id
		}
	}
}
