// Package config provides layered configuration for the catalog tools.
//
// Precedence (highest to lowest):
//  1. Environment variables (CATALOG_REFERENCES_DIR, CATALOG_SERVER_PORT, ...)
//  2. YAML config file (--config, $CATALOG_CONFIG or ./catalog.yaml)
//  3. Hardcoded defaults
package config

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bull/artifact-catalog/internal/catalog"
	"github.com/bull/artifact-catalog/internal/indexer"
)

// DefaultFile is the config file picked up from the working directory.
const DefaultFile = "catalog.yaml"

// Config holds the complete catalog configuration.
type Config struct {
	ReferencesDir string        `koanf:"references_dir" yaml:"references_dir"`
	Output        string        `koanf:"output" yaml:"output,omitempty"`
	IndexLocation string        `koanf:"index_location" yaml:"index_location,omitempty"`
	Groups        []GroupConfig `koanf:"groups" yaml:"groups"`
	Tags          TagsConfig    `koanf:"tags" yaml:"tags"`
	GitHub        GitHubConfig  `koanf:"github" yaml:"github"`
	Server        ServerConfig  `koanf:"server" yaml:"server"`
	Watch         WatchConfig   `koanf:"watch" yaml:"watch"`
	Log           LogConfig     `koanf:"log" yaml:"log"`
}

// GroupConfig describes one source group.
type GroupConfig struct {
	Name       string   `koanf:"name" yaml:"name"`
	Kind       string   `koanf:"kind" yaml:"kind"`
	Dir        string   `koanf:"dir" yaml:"dir,omitempty"`                 // default <references_dir>/<name>
	Extensions []string `koanf:"extensions" yaml:"extensions"`
	PathPrefix string   `koanf:"path_prefix" yaml:"path_prefix,omitempty"` // default /references/<name>
}

// TagsConfig adds filename tag keywords per artifact kind.
type TagsConfig struct {
	Component []string `koanf:"component" yaml:"component"`
	Markup    []string `koanf:"markup" yaml:"markup"`
}

// GitHubConfig points generation at a GitHub repository instead of the local disk.
type GitHubConfig struct {
	Owner    string `koanf:"owner" yaml:"owner"`
	Repo     string `koanf:"repo" yaml:"repo"`
	Ref      string `koanf:"ref" yaml:"ref,omitempty"`
	BasePath string `koanf:"base_path" yaml:"base_path"`
}

// Enabled reports whether a repository is configured.
func (g GitHubConfig) Enabled() bool {
	return g.Owner != "" && g.Repo != ""
}

// ServerConfig holds MCP server settings.
type ServerConfig struct {
	Port      int    `koanf:"port" yaml:"port"`
	Mode      string `koanf:"mode" yaml:"mode"` // stdio or http
	Stateless bool   `koanf:"stateless" yaml:"stateless"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce" yaml:"debounce"`
}

// MarshalYAML writes the debounce as a duration string.
func (w WatchConfig) MarshalYAML() (interface{}, error) {
	return map[string]string{"debounce": w.Debounce.String()}, nil
}

// LogConfig selects log level and output format.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`   // debug, info, warn, error
	Format string `koanf:"format" yaml:"format"` // text or json
}

// Server modes.
const (
	ModeStdio = "stdio"
	ModeHTTP  = "http"
)

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := template()
	applyDefaults(cfg)
	return cfg
}

// template holds the defaults that are not derived from other fields.
func template() *Config {
	return &Config{
		ReferencesDir: "references",
		Groups:        defaultGroups(),
		Tags:          TagsConfig{Component: []string{}, Markup: []string{}},
		GitHub:        GitHubConfig{BasePath: "references"},
		Server:        ServerConfig{Port: 8080, Mode: ModeStdio},
		Watch:         WatchConfig{Debounce: indexer.DefaultDebounce},
		Log:           LogConfig{Level: "info", Format: "text"},
	}
}

func defaultGroups() []GroupConfig {
	return []GroupConfig{
		{Name: string(catalog.SourceClaude), Kind: string(catalog.KindComponent), Extensions: []string{".tsx", ".jsx"}},
		{Name: string(catalog.SourceGemini), Kind: string(catalog.KindMarkup), Extensions: []string{".html"}},
	}
}

// applyDefaults fills every unset field.
func applyDefaults(cfg *Config) {
	if cfg.ReferencesDir == "" {
		cfg.ReferencesDir = "references"
	}
	if cfg.Output == "" {
		cfg.Output = filepath.Join(cfg.ReferencesDir, "metadata.json")
	}
	if cfg.IndexLocation == "" {
		cfg.IndexLocation = cfg.Output
	}
	if len(cfg.Groups) == 0 {
		cfg.Groups = defaultGroups()
	}
	for i := range cfg.Groups {
		g := &cfg.Groups[i]
		if g.Dir == "" {
			g.Dir = filepath.Join(cfg.ReferencesDir, g.Name)
		}
		if g.PathPrefix == "" {
			g.PathPrefix = "/references/" + g.Name
		}
	}
	if cfg.GitHub.BasePath == "" {
		cfg.GitHub.BasePath = "references"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = ModeStdio
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = indexer.DefaultDebounce
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	seen := make(map[string]bool)
	for i, g := range c.Groups {
		if g.Name == "" {
			errs = append(errs, fmt.Errorf("groups[%d]: name is required", i))
		} else if seen[g.Name] {
			errs = append(errs, fmt.Errorf("groups[%d]: duplicate name %q", i, g.Name))
		}
		seen[g.Name] = true
		if !catalog.Kind(g.Kind).Valid() {
			errs = append(errs, fmt.Errorf("groups[%d]: kind must be component or markup, got %q", i, g.Kind))
		}
		if len(g.Extensions) == 0 {
			errs = append(errs, fmt.Errorf("groups[%d]: at least one extension is required", i))
		}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.Mode != ModeStdio && c.Server.Mode != ModeHTTP {
		errs = append(errs, fmt.Errorf("server.mode must be stdio or http, got %q", c.Server.Mode))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if (c.GitHub.Owner == "") != (c.GitHub.Repo == "") {
		errs = append(errs, errors.New("github.owner and github.repo must be set together"))
	}

	return errors.Join(errs...)
}

// IndexGroups converts the group settings for the indexer.
func (c *Config) IndexGroups() []indexer.Group {
	groups := make([]indexer.Group, 0, len(c.Groups))
	for _, g := range c.Groups {
		groups = append(groups, indexer.Group{
			Source:     catalog.Source(g.Name),
			Kind:       catalog.Kind(g.Kind),
			Dir:        g.Dir,
			Extensions: append([]string(nil), g.Extensions...),
			PathPrefix: g.PathPrefix,
		})
	}
	return groups
}

// RemoteGroups is IndexGroups for a GitHub source: each group is read from
// <github.base_path>/<name> in the repository.
func (c *Config) RemoteGroups() []indexer.Group {
	groups := c.IndexGroups()
	for i := range groups {
		groups[i].Dir = path.Join(c.GitHub.BasePath, string(groups[i].Source))
	}
	return groups
}

// TagKeywords returns the extra filename keywords per kind.
func (c *Config) TagKeywords() map[catalog.Kind][]string {
	return map[catalog.Kind][]string{
		catalog.KindComponent: c.Tags.Component,
		catalog.KindMarkup:    c.Tags.Markup,
	}
}
