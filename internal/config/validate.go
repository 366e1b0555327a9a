package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"github.com/mvp-joe/csd-analyzers/internal/analyzer"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidLogLevel indicates a level logrus does not know
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidLogFormat indicates an unsupported log format
	ErrInvalidLogFormat = errors.New("invalid log format")

	// ErrEmptyCacheDir indicates a missing cache directory
	ErrEmptyCacheDir = errors.New("empty cache directory")

	// ErrInvalidProbe indicates out-of-range probe settings
	ErrInvalidProbe = errors.New("invalid probe settings")

	// ErrUnknownEngine indicates an engine name with no implementation
	ErrUnknownEngine = errors.New("unknown engine")

	// ErrNoEngines indicates an empty engine list
	ErrNoEngines = errors.New("no engines enabled")

	// ErrInvalidWatch indicates invalid watch settings
	ErrInvalidWatch = errors.New("invalid watch settings")
)

var knownEngines = []string{analyzer.PythonName, analyzer.RustName}

// Validate checks that the configuration is valid and complete. Every problem is reported.
func Validate(cfg *Config) error {
	return errors.Join(
		validateLogging(&cfg.Logging),
		validateCache(&cfg.Cache),
		validateProbe(&cfg.Probe),
		validateEngines(&cfg.Engines),
		validateWatch(&cfg.Watch),
	)
}

func validateLogging(cfg *LoggingConfig) error {
	var errs []error

	if _, err := logrus.ParseLevel(cfg.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogLevel, cfg.Level))
	}

	format := strings.ToLower(cfg.Format)
	if format != "text" && format != "json" {
		errs = append(errs, fmt.Errorf("%w: must be 'text' or 'json', got '%s'", ErrInvalidLogFormat, cfg.Format))
	}

	return errors.Join(errs...)
}

func validateCache(cfg *CacheConfig) error {
	if strings.TrimSpace(cfg.Dir) == "" {
		return fmt.Errorf("%w: cache.dir is required", ErrEmptyCacheDir)
	}
	return nil
}

func validateProbe(cfg *ProbeConfig) error {
	var errs []error

	if cfg.PreviewBytes <= 0 {
		errs = append(errs, fmt.Errorf("%w: preview_bytes must be positive, got %d", ErrInvalidProbe, cfg.PreviewBytes))
	}
	if cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("%w: min_confidence must be within [0, 1], got %.2f", ErrInvalidProbe, cfg.MinConfidence))
	}

	return errors.Join(errs...)
}

func validateEngines(cfg *EnginesConfig) error {
	var errs []error

	if len(cfg.Enabled) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one engine required", ErrNoEngines))
	}
	for _, name := range cfg.Enabled {
		if !slices.Contains(knownEngines, name) {
			errs = append(errs, fmt.Errorf("%w: %s (valid: %s)", ErrUnknownEngine, name, strings.Join(knownEngines, ", ")))
		}
	}

	return errors.Join(errs...)
}

func validateWatch(cfg *WatchConfig) error {
	var errs []error

	if cfg.DebounceMs < 0 {
		errs = append(errs, fmt.Errorf("%w: debounce_ms cannot be negative, got %d", ErrInvalidWatch, cfg.DebounceMs))
	}
	for _, pattern := range cfg.Ignore {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: ignore pattern %q: %v", ErrInvalidWatch, pattern, err))
		}
	}

	return errors.Join(errs...)
}
