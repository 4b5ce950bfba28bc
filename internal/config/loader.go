package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

const (
	envPrefix         = "CATALOG_"
	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Sections whose env vars map to nested keys: CATALOG_SERVER_PORT -> server.port.
var envSections = map[string]bool{
	"tags": true, "github": true, "server": true, "watch": true, "log": true,
}

// Overrides are command-line values applied over the file and environment.
// Empty fields are ignored.
type Overrides struct {
	ReferencesDir string
	Output        string
	IndexLocation string
}

func (o Overrides) apply(cfg *Config) {
	if o.ReferencesDir != "" {
		cfg.ReferencesDir = o.ReferencesDir
	}
	if o.Output != "" {
		cfg.Output = o.Output
	}
	if o.IndexLocation != "" {
		cfg.IndexLocation = o.IndexLocation
	}
}

// Load reads configuration from path (or the default locations when path is
// empty), then applies CATALOG_* environment overrides, defaults and validation.
//
// The PORT and SERVER_MODE variables are honored as well, for deployments
// that set them on the server process.
func Load(path string) (*Config, error) {
	return LoadWithOverrides(path, Overrides{})
}

// LoadWithOverrides is Load with command-line overrides applied before the
// derived defaults, so --references also moves the output and group directories.
func LoadWithOverrides(path string, overrides Overrides) (*Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
		explicit = path != ""
	}
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}

	if path != "" {
		content, err := readConfigFile(path)
		switch {
		case err == nil:
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, err
		}
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyServerEnv(&cfg)
	overrides.apply(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s is too large (%d bytes)", path, info.Size())
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// envKey maps CATALOG_SERVER_PORT to server.port and CATALOG_REFERENCES_DIR
// to references_dir. Tag keyword lists are comma separated.
func envKey(key, value string) (string, interface{}) {
	name := strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if name == "config" {
		return "", nil
	}

	parts := strings.SplitN(name, "_", 2)
	if len(parts) == 2 && envSections[parts[0]] {
		name = parts[0] + "." + parts[1]
	}

	if strings.HasPrefix(name, "tags.") {
		var list []string
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				list = append(list, v)
			}
		}
		return name, list
	}
	return name, value
}

// applyServerEnv honors the plain PORT and SERVER_MODE variables.
func applyServerEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	switch strings.ToLower(os.Getenv("SERVER_MODE")) {
	case "true", ModeHTTP:
		cfg.Server.Mode = ModeHTTP
	case "false", ModeStdio:
		cfg.Server.Mode = ModeStdio
	}
}

// DefaultYAML renders the default configuration file.
func DefaultYAML() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# Artifact catalog configuration.\n")
	buf.WriteString("# Every key can be overridden with CATALOG_<KEY>, e.g. CATALOG_SERVER_PORT=9000.\n")
	if err := encodeYAML(&buf, template()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// YAML renders the configuration with every derived default filled in.
func (c *Config) YAML() ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeYAML(&buf, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeYAML(w io.Writer, cfg *Config) error {
	enc := yamlv3.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// WriteDefault writes DefaultYAML to path. An existing file is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	data, err := DefaultYAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
