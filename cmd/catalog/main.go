// Package main provides the catalog CLI: index generation and queries over
// the artifact references directory.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/artifact-catalog/internal/config"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the state shared by all subcommands.
type app struct {
	configPath string
	overrides  config.Overrides

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "catalog",
		Short: "Artifact catalog indexing and search tool",
		Long: `Catalogs generated front-end artifacts (React components and HTML pages)
stored under a references directory.

Configuration is read from catalog.yaml (or --config / $CATALOG_CONFIG) and
CATALOG_* environment variables. GITHUB_TOKEN raises the GitHub rate limit
for generate --github.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $CATALOG_CONFIG or ./catalog.yaml)")

	root.AddCommand(
		newGenerateCmd(a),
		newWatchCmd(a),
		newSearchCmd(a),
		newShowCmd(a),
		newTagsCmd(a),
		newDepsCmd(a),
		newConfigCmd(a),
	)
	return root
}

// load reads the configuration once and installs the configured logger.
func (a *app) load() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.LoadWithOverrides(a.configPath, a.overrides)
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	a.logger = cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(a.logger)
	return cfg, nil
}
