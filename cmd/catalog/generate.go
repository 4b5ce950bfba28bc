package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bull/artifact-catalog/internal/catalog"
	"github.com/bull/artifact-catalog/internal/config"
	"github.com/bull/artifact-catalog/internal/extract"
	ghclient "github.com/bull/artifact-catalog/internal/github"
	"github.com/bull/artifact-catalog/internal/indexer"
	"github.com/bull/artifact-catalog/internal/source"
	"github.com/bull/artifact-catalog/internal/storage"
)

func newGenerateCmd(a *app) *cobra.Command {
	var useGitHub bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Scan the reference directories and write metadata.json",
		Long: `Rebuilds the metadata index from scratch.

This command:
1. Lists the files of every configured source group
2. Derives title, description, tags and dependencies from each file
3. Sorts the records by last modification, newest first
4. Atomically replaces the index file

Missing group directories and unreadable files are reported but do not stop
the run. With --github the groups are read from the repository configured
under github (owner, repo, ref, base_path).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, useGitHub)
		},
	}
	addPathFlags(cmd, a)
	cmd.Flags().BoolVar(&useGitHub, "github", false, "read the groups from the configured GitHub repository")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Generate the index, then regenerate it whenever an artifact changes",
		Long: `Runs generate once, then watches every group directory and regenerates the
whole index after changes settle (see --debounce).

A group directory that does not exist yet is picked up as soon as it is
created inside an existing parent directory.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd, debounce)
		},
	}
	addPathFlags(cmd, a)
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "quiet period before regenerating (default from config, 500ms)")
	return cmd
}

func addPathFlags(cmd *cobra.Command, a *app) {
	cmd.Flags().StringVar(&a.overrides.ReferencesDir, "references", "", "references directory (default from config)")
	cmd.Flags().StringVar(&a.overrides.Output, "output", "", "index output path (default <references>/metadata.json)")
}

func (a *app) runGenerate(cmd *cobra.Command, useGitHub bool) error {
	cfg, err := a.load()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	src, groups, err := a.sourceFor(cfg, useGitHub)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Generating index...")
	pipeline := a.newPipeline(cfg, src, groups)

	result, err := pipeline.IndexAll(ctx)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	printResult(newPrinter(out), result)
	return nil
}

func (a *app) runWatch(cmd *cobra.Command, debounce time.Duration) error {
	cfg, err := a.load()
	if err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = cfg.Watch.Debounce
	}
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p := newPrinter(cmd.OutOrStdout())
	groups := cfg.IndexGroups()
	watcher := indexer.NewWatcher(a.newPipeline(cfg, source.NewLocal(), groups), debounce, a.logger)

	fmt.Fprintf(p.w, "Watching %d source groups (Ctrl-C to stop)...\n", len(groups))
	err = watcher.Run(ctx, func(result *indexer.IndexResult, err error) {
		if err != nil {
			a.logger.Error("Generation failed", "error", err)
			return
		}
		printResult(p, result)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *app) sourceFor(cfg *config.Config, useGitHub bool) (source.Source, []indexer.Group, error) {
	if !useGitHub {
		return source.NewLocal(), cfg.IndexGroups(), nil
	}
	if !cfg.GitHub.Enabled() {
		return nil, nil, errors.New("--github needs github.owner and github.repo in the config (or CATALOG_GITHUB_OWNER / CATALOG_GITHUB_REPO)")
	}

	client, err := ghclient.NewClient(os.Getenv("GITHUB_TOKEN"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	fetcher := ghclient.NewFetcher(client, cfg.GitHub.Owner, cfg.GitHub.Repo, cfg.GitHub.Ref, a.logger)
	return fetcher, cfg.RemoteGroups(), nil
}

func (a *app) newPipeline(cfg *config.Config, src source.Source, groups []indexer.Group) *indexer.Pipeline {
	return indexer.NewPipeline(
		src,
		extract.NewGenerator(cfg.TagKeywords()),
		storage.NewIndexFile(cfg.Output),
		groups,
		a.logger,
	)
}

func printResult(p *printer, result *indexer.IndexResult) {
	w := p.w
	fmt.Fprintln(w)
	fmt.Fprintln(w, p.success.Render("Index generated!"))
	fmt.Fprintf(w, "  Files: %d\n", result.Indexed())

	sources := make([]string, 0, len(result.BySource))
	for src := range result.BySource {
		sources = append(sources, string(src))
	}
	sort.Strings(sources)
	for _, src := range sources {
		fmt.Fprintf(w, "    %s: %d\n", src, result.BySource[catalog.Source(src)])
	}

	fmt.Fprintf(w, "  Output: %s\n", result.OutputPath)
	fmt.Fprintf(w, "  Build: %s\n", result.BuildID)
	fmt.Fprintf(w, "  Duration: %s\n", result.Duration.Round(time.Millisecond))

	if len(result.MissingGroups) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, p.warn.Render("Missing source directories:"))
		for _, src := range result.MissingGroups {
			fmt.Fprintf(w, "  - %s\n", src)
		}
	}

	printFailures(p, result.FailedFiles)
}

func printFailures(p *printer, failed []indexer.FailedFile) {
	if len(failed) == 0 {
		return
	}
	w := p.w
	fmt.Fprintln(w)
	fmt.Fprintln(w, p.warn.Render("Failed files:"))
	for _, f := range failed {
		fmt.Fprintf(w, "  - %s/%s: %s\n", f.Source, f.Filename, f.Reason)
	}
}
