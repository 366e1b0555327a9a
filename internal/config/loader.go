package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables → overrides
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
	overrides  map[string]any
}

// LoaderOption configures a Loader.
type LoaderOption func(*loader)

// WithConfigFile reads path instead of searching .csd/ under the root. The file must exist.
func WithConfigFile(path string) LoaderOption {
	return func(l *loader) {
		l.configFile = path
	}
}

// WithOverride sets key after every other source has been applied. Command-line flags use it.
func WithOverride(key string, value any) LoaderOption {
	return func(l *loader) {
		l.overrides[key] = value
	}
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string, opts ...LoaderOption) Loader {
	l := &loader{
		rootDir:   rootDir,
		overrides: map[string]any{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Overrides (command-line flags)
// 2. Environment variables (CSD_*)
// 3. Config file (.csd/config.yml or .csd/config.yaml, or the explicit file)
// 4. Default values
//
// A relative cache.dir is resolved against the root directory.
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, ".csd"))
	}

	// Replace . with _ in env var names (e.g., CSD_CACHE_DIR)
	v.SetEnvPrefix("CSD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnv(v)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for key, value := range l.overrides {
		v.Set(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Cache.Dir != "" && !filepath.IsAbs(cfg.Cache.Dir) {
		cfg.Cache.Dir = filepath.Join(l.rootDir, cfg.Cache.Dir)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func bindEnv(v *viper.Viper) {
	v.BindEnv("logging.level")
	v.BindEnv("logging.format")

	v.BindEnv("cache.dir")

	v.BindEnv("probe.preview_bytes")
	v.BindEnv("probe.min_confidence")

	v.BindEnv("engines.enabled")

	v.BindEnv("watch.debounce_ms")
	v.BindEnv("watch.ignore")
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)

	v.SetDefault("cache.dir", defaults.Cache.Dir)

	v.SetDefault("probe.preview_bytes", defaults.Probe.PreviewBytes)
	v.SetDefault("probe.min_confidence", defaults.Probe.MinConfidence)

	v.SetDefault("engines.enabled", defaults.Engines.Enabled)

	v.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)
	v.SetDefault("watch.ignore", defaults.Watch.Ignore)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig(opts ...LoaderOption) (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd, opts...).Load()
}
