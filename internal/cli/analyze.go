package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mvp-joe/csd-analyzers/internal/analyzer"
	"github.com/mvp-joe/csd-analyzers/internal/imports"
	"github.com/mvp-joe/csd-analyzers/internal/ir"
	"github.com/mvp-joe/csd-analyzers/internal/plugin"
	"github.com/mvp-joe/csd-analyzers/internal/watcher"
	"github.com/spf13/cobra"
)

// proberCapacity bounds the module-resolution cache used by batch runs.
const proberCapacity = 10_000

type analyzeFlags struct {
	projectRoot string
	quiet       bool
}

// batchStats summarizes a batch run.
type batchStats struct {
	Analyzed int
	Skipped  int
	Failed   int
}

func (a *app) newAnalyzeCommand() *cobra.Command {
	var flags analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze PATH...",
		Short: "Analyze files and directories into the cache",
		Long: `Analyze walks each PATH, probes every file and analyzes the ones whose confidence
reaches probe.min_confidence. Results are written to the cache directory with the same file
names a protocol analyze request would produce.

Paths matching watch.ignore are skipped.

Examples:
  # Analyze the current project
  csd-analyzer analyze .

  # Analyze two files into a custom cache directory
  csd-python analyze app.py setup.py --cache-dir /tmp/csd`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnalyze(cmd, args, flags)
		},
	}
	cmd.Flags().StringVar(&flags.projectRoot, "project-root", "", "project root used for relative paths and import resolution (default is the working directory)")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "suppress progress and summary output")
	return cmd
}

func (a *app) runAnalyze(cmd *cobra.Command, args []string, flags analyzeFlags) error {
	root, err := projectRoot(flags.projectRoot)
	if err != nil {
		return err
	}

	prober, err := imports.NewCachedProber(imports.OSProber{}, proberCapacity)
	if err != nil {
		return err
	}
	defer prober.Close()

	engine, err := a.engine(analyzer.WithProber(prober))
	if err != nil {
		return err
	}

	ignore, err := watcher.CompileIgnore(a.cfg.Watch.Ignore)
	if err != nil {
		return err
	}
	files, err := collectFiles(args, ignore)
	if err != nil {
		return err
	}

	start := time.Now()
	progress := newProgressReporter(cmd.ErrOrStderr(), flags.quiet)
	progress.OnAnalysisStart(len(files))

	var stats batchStats
	for _, path := range files {
		if err := cmd.Context().Err(); err != nil {
			progress.OnComplete()
			return err
		}
		analyzed, err := a.analyzeFile(cmd.Context(), engine, root, path)
		switch {
		case err != nil:
			stats.Failed++
			a.log.WithError(err).WithField("file", path).Warn("analysis failed")
		case analyzed:
			stats.Analyzed++
		default:
			stats.Skipped++
		}
		progress.OnFileProcessed()
	}
	progress.OnComplete()

	if !flags.quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Analyzed %d files in %.1fs (%d skipped, %d failed)\n",
			stats.Analyzed, time.Since(start).Seconds(), stats.Skipped, stats.Failed)
		fmt.Fprintf(cmd.OutOrStdout(), "  Cache: %s\n", a.cfg.Cache.Dir)
	}
	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", stats.Failed, len(files))
	}
	return nil
}

// analyzeFile probes path and, when an engine claims it with enough confidence, writes its
// analysis to the cache. analyzed is false for skipped files.
func (a *app) analyzeFile(ctx context.Context, engine analyzer.Analyzer, root, path string) (analyzed bool, err error) {
	in, err := a.inputFor(root, path)
	if err != nil {
		return false, err
	}

	selected, probe := selectEngine(engine, in.FilePath, analyzer.Preview(in.Content, a.cfg.Probe.PreviewBytes))
	if selected == nil || probe.Confidence < a.cfg.Probe.MinConfidence {
		a.log.WithField("file", in.RelativePath).WithField("confidence", probe.Confidence).Trace("skipping file")
		return false, nil
	}

	result, err := plugin.AnalyzeToCache(ctx, selected, in, a.cfg.Probe.PreviewBytes)
	if err != nil {
		return false, err
	}
	a.log.WithField("file", in.RelativePath).
		WithField("engine", result.Engine).
		WithField("cache_file", result.CacheFile).
		WithField("duration_ms", result.ProcessingTimeMs).
		Debug("file analyzed")
	return true, nil
}

func (a *app) inputFor(root, path string) (*ir.Input, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &ir.Input{
		FilePath:     abs,
		RelativePath: relativePath(root, abs),
		Content:      string(content),
		ProjectRoot:  root,
		CacheDir:     a.cfg.Cache.Dir,
	}, nil
}

func projectRoot(flag string) (string, error) {
	if flag == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		return wd, nil
	}
	root, err := filepath.Abs(flag)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project root: %w", err)
	}
	return root, nil
}

// relativePath returns abs relative to root with forward slashes. Files outside the root keep
// their base name.
func relativePath(root, abs string) string {
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(abs)
	}
	return filepath.ToSlash(rel)
}

// collectFiles expands directories into the regular files beneath them, skipping ignored paths.
func collectFiles(paths []string, ignore watcher.IgnoreSet) ([]string, error) {
	var files []string
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, abs)
			continue
		}

		err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrPermission) {
					return nil
				}
				return err
			}
			if d.IsDir() {
				if p != abs && ignore.MatchDir(p) {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && !ignore.Match(p) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", path, err)
		}
	}
	return files, nil
}
