package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"

	"ruleshub/internal/logging"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const appName = "ruleshub" // application name used for the config directory

// envPrefix is the indexed environment key prefix: SourceList:0:SourceType,
// SourceList:0:Path, SourceList:1:SourceType, ...
const envPrefix = "SourceList"

// SourceConfig names one rule source: what kind it is and where it lives.
type SourceConfig struct {
	SourceType string `yaml:"source_type"`
	Path       string `yaml:"path"`
}

// Config is the explicit bootstrap configuration, assembled once at process
// start and passed into the Bootstrapper. No ambient globals.
type Config struct {
	Sources []SourceConfig `yaml:"sources"`
}

// LookupFunc abstracts environment access so parsing is testable without
// touching the process environment.
type LookupFunc func(key string) (string, bool)

// ConfigPath returns the standard config file path for the current platform.
func ConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// Load assembles the configuration: an optional .env file is merged into
// the environment first, then indexed SourceList env keys are read; when no
// env sources are present, the YAML config file is consulted. Env sources
// take precedence so a deployment can override a file-based setup without
// editing it.
func Load() (*Config, error) {
	// Missing .env is the normal case, not an error.
	if err := godotenv.Load(); err == nil {
		logging.Debug("Loaded .env file")
	}

	cfg := ParseEnv(os.LookupEnv)
	if len(cfg.Sources) > 0 {
		logging.Debug("Using sources from environment", "count", len(cfg.Sources))
		return cfg, nil
	}

	path := ConfigPath()
	if _, err := os.Stat(path); err == nil {
		fileCfg, err := LoadFrom(path)
		if err != nil {
			return nil, err
		}
		logging.Debug("Using sources from config file", "path", path, "count", len(fileCfg.Sources))
		return fileCfg, nil
	}

	// No sources anywhere: the caller decides whether an empty repository
	// is acceptable.
	return &Config{}, nil
}

// LoadFrom loads configuration from a specific YAML file.
func LoadFrom(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// SaveTo writes the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// ParseEnv reads the indexed source list from the given lookup, scanning
// i = 0, 1, 2, ... until the first index with no SourceType key. A source
// with a type but no path is kept; the bootstrapper reports it as a
// per-source configuration error rather than dropping it silently.
func ParseEnv(lookup LookupFunc) *Config {
	var sources []SourceConfig

	for i := 0; ; i++ {
		sourceType, ok := lookup(fmt.Sprintf("%s:%d:SourceType", envPrefix, i))
		if !ok {
			break
		}
		path, _ := lookup(fmt.Sprintf("%s:%d:Path", envPrefix, i))
		sources = append(sources, SourceConfig{SourceType: sourceType, Path: path})
	}

	return &Config{Sources: sources}
}
