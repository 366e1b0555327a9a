// Package config loads analyzer settings from .csd/config.yml with CSD_* environment overrides.
package config

import "github.com/mvp-joe/csd-analyzers/internal/analyzer"

// Config represents the complete analyzer configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Probe   ProbeConfig   `yaml:"probe" mapstructure:"probe"`
	Engines EnginesConfig `yaml:"engines" mapstructure:"engines"`
	Watch   WatchConfig   `yaml:"watch" mapstructure:"watch"`
}

// LoggingConfig configures the stderr logger.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // logrus level name
	Format string `yaml:"format" mapstructure:"format"` // "text" or "json"
}

// CacheConfig locates the analysis cache.
type CacheConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"` // used when a request carries no cache_dir
}

// ProbeConfig controls engine selection in batch runs.
type ProbeConfig struct {
	PreviewBytes  int     `yaml:"preview_bytes" mapstructure:"preview_bytes"`
	MinConfidence float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
}

// EnginesConfig selects the engines of the multi-engine binary.
type EnginesConfig struct {
	Enabled []string `yaml:"enabled" mapstructure:"enabled"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	DebounceMs int      `yaml:"debounce_ms" mapstructure:"debounce_ms"`
	Ignore     []string `yaml:"ignore" mapstructure:"ignore"` // glob patterns matched against slash paths
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Cache: CacheConfig{
			Dir: ".csd/cache",
		},
		Probe: ProbeConfig{
			PreviewBytes:  analyzer.DefaultPreviewBytes,
			MinConfidence: 0.5,
		},
		Engines: EnginesConfig{
			Enabled: []string{analyzer.PythonName, analyzer.RustName},
		},
		Watch: WatchConfig{
			DebounceMs: 500,
			Ignore: []string{
				"**/.git/**",
				"**/target/**",
				"**/__pycache__/**",
				"**/.csd/**",
			},
		},
	}
}
