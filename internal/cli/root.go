// Package cli builds the command tree shared by the analyzer binaries. Every binary serves one
// protocol request when run without a subcommand.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mvp-joe/csd-analyzers/internal/analyzer"
	"github.com/mvp-joe/csd-analyzers/internal/config"
	"github.com/mvp-joe/csd-analyzers/internal/logging"
	"github.com/mvp-joe/csd-analyzers/internal/plugin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// EngineFactory builds the analyzer a binary serves from the loaded configuration.
type EngineFactory func(cfg *config.Config, opts ...analyzer.Option) (analyzer.Analyzer, error)

type rootFlags struct {
	configFile string
	logLevel   string
	cacheDir   string
	verbose    int
}

// app carries the state of one command invocation.
type app struct {
	name    string
	factory EngineFactory
	flags   rootFlags

	cfg *config.Config
	log *logrus.Logger
}

// Execute runs the command tree for the named binary and exits non-zero on failure.
func Execute(name string, factory EngineFactory) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCommand(name, factory).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCommand builds a fresh command tree for the named binary.
func NewRootCommand(name string, factory EngineFactory) *cobra.Command {
	a := &app{name: name, factory: factory}

	rootCmd := &cobra.Command{
		Use:   name,
		Short: "Structural code analyzer plugin",
		Long: name + ` extracts code elements, imports, relationships and dependencies from source
files and writes the results as JSON into a cache directory.

Run without a subcommand it reads one protocol request (get_info, can_analyze or analyze)
from stdin and writes one JSON response line to stdout.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.runServe,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.flags.configFile, "config", "", "config file (default is .csd/config.yml)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&a.flags.cacheDir, "cache-dir", "", "directory for analysis results")
	pf.CountVarP(&a.flags.verbose, "verbose", "v", "verbose logging (repeat for trace)")

	rootCmd.AddCommand(
		a.newServeCommand(),
		a.newInfoCommand(),
		a.newProbeCommand(),
		a.newAnalyzeCommand(),
		a.newWatchCommand(),
		a.newCacheCommand(),
		newVersionCommand(name),
	)
	return rootCmd
}

// setup loads the configuration and builds the logger. Logs go to stderr so stdout carries only
// command output.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var opts []config.LoaderOption
	if a.flags.configFile != "" {
		opts = append(opts, config.WithConfigFile(a.flags.configFile))
	}
	if a.flags.logLevel != "" {
		opts = append(opts, config.WithOverride("logging.level", a.flags.logLevel))
	}
	if a.flags.cacheDir != "" {
		opts = append(opts, config.WithOverride("cache.dir", a.flags.cacheDir))
	}

	cfg, err := config.LoadConfig(opts...)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Logging.Level = logging.Verbosity(cfg.Logging.Level, a.flags.verbose)

	log, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	return nil
}

// engine builds the binary's analyzer with the configured logger and preview size.
func (a *app) engine(opts ...analyzer.Option) (analyzer.Analyzer, error) {
	base := []analyzer.Option{
		analyzer.WithLogger(a.log),
		analyzer.WithPreviewBytes(a.cfg.Probe.PreviewBytes),
	}
	engine, err := a.factory(a.cfg, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	return engine, nil
}

func (a *app) server(engine analyzer.Analyzer) *plugin.Server {
	return plugin.NewServer(engine, a.log.WithField("binary", a.name),
		plugin.WithCacheDir(a.cfg.Cache.Dir),
		plugin.WithPreviewBytes(a.cfg.Probe.PreviewBytes),
	)
}
