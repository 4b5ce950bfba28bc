package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bull/artifact-catalog/internal/catalog"
	"github.com/bull/artifact-catalog/internal/loader"
	"github.com/bull/artifact-catalog/internal/query"
)

func addIndexFlag(cmd *cobra.Command, a *app) {
	cmd.Flags().StringVar(&a.overrides.IndexLocation, "index", "", "index file path or URL (default from config)")
}

// loadIndex fetches the index from the configured location.
func (a *app) loadIndex(ctx context.Context) (*catalog.MetadataIndex, error) {
	cfg, err := a.load()
	if err != nil {
		return nil, err
	}
	fetcher, err := loader.NewFetcher(cfg.IndexLocation)
	if err != nil {
		return nil, err
	}
	return loader.NewCache(fetcher, a.logger).Load(ctx, false)
}

type searchFlags struct {
	source string
	tags   []string
	deps   []string
	since  string
	until  string
	sortBy string
	desc   bool
	limit  int
	json   bool
}

func newSearchCmd(a *app) *cobra.Command {
	var f searchFlags

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search and filter the catalog",
		Long: `Matches the query (case-insensitive substring) against title, description,
filename, tags and dependencies, then applies the filters and sort order.
Without a query every artifact is listed.

Dates are YYYY-MM-DD or RFC 3339; both bounds are inclusive.`,
		Example: `  catalog search dashboard
  catalog search --tag chart --tag table --sort date --desc
  catalog search --source gemini --dep chart.js --since 2024-01-01 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd, strings.Join(args, " "), f)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.source, "source", "", "only artifacts from this source group")
	flags.StringSliceVar(&f.tags, "tag", nil, "keep artifacts with any of these tags (repeatable)")
	flags.StringSliceVar(&f.deps, "dep", nil, "keep artifacts using any of these libraries (repeatable)")
	flags.StringVar(&f.since, "since", "", "created on or after this date")
	flags.StringVar(&f.until, "until", "", "created on or before this date")
	flags.StringVar(&f.sortBy, "sort", "name", "sort key: name, date, size or source")
	flags.BoolVar(&f.desc, "desc", false, "sort descending")
	flags.IntVar(&f.limit, "limit", 0, "maximum number of results (0 for all)")
	flags.BoolVar(&f.json, "json", false, "print JSON")
	addIndexFlag(cmd, a)
	return cmd
}

func (a *app) runSearch(cmd *cobra.Command, q string, f searchFlags) error {
	start, err := query.ParseDateBound(f.since, false)
	if err != nil {
		return fmt.Errorf("--since: %w", err)
	}
	end, err := query.ParseDateBound(f.until, true)
	if err != nil {
		return fmt.Errorf("--until: %w", err)
	}
	direction := string(catalog.Ascending)
	if f.desc {
		direction = string(catalog.Descending)
	}
	sortCfg, err := query.ParseSortConfig(f.sortBy, direction)
	if err != nil {
		return err
	}

	idx, err := a.loadIndex(cmd.Context())
	if err != nil {
		return err
	}

	results := query.Apply(idx.Files, q, catalog.FilterOptions{
		Source:       catalog.Source(f.source),
		Tags:         f.tags,
		StartDate:    start,
		EndDate:      end,
		Dependencies: f.deps,
	}, sortCfg)
	total := len(results)
	if f.limit > 0 && len(results) > f.limit {
		results = results[:f.limit]
	}

	p := newPrinter(cmd.OutOrStdout())
	if f.json {
		return p.printJSON(results)
	}
	if total == 0 {
		fmt.Fprintln(p.w, "No matching artifacts found.")
		return nil
	}
	p.results(results)
	if len(results) < total {
		fmt.Fprintln(p.w, p.dim.Render(fmt.Sprintf("showing %d of %d matches", len(results), total)))
	}
	return nil
}

func newShowCmd(a *app) *cobra.Command {
	var filename, src string

	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Print one artifact's metadata as JSON",
		Long:  "Looks an artifact up by id, or by --filename and --source. Exits non-zero when it does not exist.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && (filename == "" || src == "") {
				return errors.New("give an artifact id or both --filename and --source")
			}

			idx, err := a.loadIndex(cmd.Context())
			if err != nil {
				return err
			}

			var (
				file  catalog.FileMetadata
				found bool
				key   string
			)
			if len(args) == 1 {
				key = args[0]
				file, found = query.FindByID(idx.Files, key)
			} else {
				key = src + "/" + filename
				file, found = query.FindByFilenameAndSource(idx.Files, filename, catalog.Source(src))
			}
			if !found {
				return fmt.Errorf("artifact %q not found", key)
			}
			return newPrinter(cmd.OutOrStdout()).printJSON(file)
		},
	}
	cmd.Flags().StringVar(&filename, "filename", "", "artifact filename")
	cmd.Flags().StringVar(&src, "source", "", "source group of --filename")
	addIndexFlag(cmd, a)
	return cmd
}

func newTagsCmd(a *app) *cobra.Command {
	return newAggregateCmd(a, "tags", "List every distinct tag", query.AllTags)
}

func newDepsCmd(a *app) *cobra.Command {
	return newAggregateCmd(a, "deps", "List every distinct dependency", query.AllDependencies)
}

func newAggregateCmd(a *app, use, short string, aggregate func([]catalog.FileMetadata) []string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := a.loadIndex(cmd.Context())
			if err != nil {
				return err
			}
			values := aggregate(idx.Files)

			p := newPrinter(cmd.OutOrStdout())
			if asJSON {
				return p.printJSON(values)
			}
			for _, v := range values {
				fmt.Fprintln(p.w, v)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	addIndexFlag(cmd, a)
	return cmd
}

// printJSON writes v as indented JSON.
func (p *printer) printJSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
