package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/mvp-joe/csd-analyzers/internal/watcher"
	"github.com/spf13/cobra"
)

func (a *app) newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch DIR",
		Short: "Re-analyze files into the cache as they change",
		Long: `Watch DIR recursively and re-analyze changed files into the cache. Changes are
debounced by watch.debounce_ms and paths matching watch.ignore are skipped. DIR is the project
root for relative paths and import resolution.

Press Ctrl+C to stop.`,
		Args: cobra.ExactArgs(1),
		RunE: a.runWatch,
	}
}

func (a *app) runWatch(cmd *cobra.Command, args []string) error {
	root, err := projectRoot(args[0])
	if err != nil {
		return err
	}

	// No probe cache here: files appear and disappear while watching.
	engine, err := a.engine()
	if err != nil {
		return err
	}

	fw, err := watcher.New(root, watcher.Options{
		Debounce: time.Duration(a.cfg.Watch.DebounceMs) * time.Millisecond,
		Ignore:   a.cfg.Watch.Ignore,
		Accept: func(path string) bool {
			_, probe := selectEngine(engine, path, "")
			return probe.Matches
		},
		Log: a.log,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	err = fw.Start(ctx, func(files []string) {
		for _, path := range files {
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				a.log.WithField("file", path).Debug("file removed")
				continue
			}
			analyzed, err := a.analyzeFile(ctx, engine, root, path)
			if err != nil {
				a.log.WithError(err).WithField("file", path).Warn("analysis failed")
				continue
			}
			if analyzed {
				fmt.Fprintf(out, "✓ %s\n", relativePath(root, path))
			}
		}
	})
	if err != nil {
		return err
	}

	a.log.WithField("dir", root).WithField("cache_dir", a.cfg.Cache.Dir).Info("watching for changes")
	<-ctx.Done()
	return fw.Stop()
}
