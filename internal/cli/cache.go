package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/mvp-joe/csd-analyzers/internal/cache"
	"github.com/spf13/cobra"
)

type cacheFlags struct {
	engine string
	dryRun bool
}

func (a *app) newCacheCommand() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clean the analysis cache",
		Long: `Manage the JSON analysis results in the cache directory.

Available commands:
  list   - Show cached results
  clean  - Remove cached results`,
	}

	var listFlags cacheFlags
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show cached results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runCacheList(cmd, listFlags)
		},
	}
	listCmd.Flags().StringVar(&listFlags.engine, "engine", "", "only show results written by this engine")

	var cleanFlags cacheFlags
	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove cached results",
		Long: `Remove cached analysis results. Results are recreated by the next analyze request.

Examples:
  # Remove every cached result
  csd-analyzer cache clean

  # Show which Rust results would be removed
  csd-analyzer cache clean --engine rust --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runCacheClean(cmd, cleanFlags)
		},
	}
	cleanCmd.Flags().StringVar(&cleanFlags.engine, "engine", "", "only remove results written by this engine")
	cleanCmd.Flags().BoolVar(&cleanFlags.dryRun, "dry-run", false, "list what would be removed without removing it")

	cacheCmd.AddCommand(listCmd, cleanCmd)
	return cacheCmd
}

func (a *app) runCacheList(cmd *cobra.Command, flags cacheFlags) error {
	store, err := cache.NewStore(a.cfg.Cache.Dir)
	if err != nil {
		return err
	}
	entries, err := store.List(cache.EnginePattern(flags.engine))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintf(out, "No cached results in %s\n", store.Dir())
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENGINE\tFILE\tSIZE\tMODIFIED")
	var total int64
	for _, e := range entries {
		total += e.Size
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Engine, e.Name, formatBytes(e.Size), e.ModTime.Format(time.DateTime))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d results, %s\n", len(entries), formatBytes(total))
	return nil
}

func (a *app) runCacheClean(cmd *cobra.Command, flags cacheFlags) error {
	store, err := cache.NewStore(a.cfg.Cache.Dir)
	if err != nil {
		return err
	}
	removed, err := store.Clean(cache.EnginePattern(flags.engine), flags.dryRun)

	out := cmd.OutOrStdout()
	var total int64
	for _, e := range removed {
		total += e.Size
		if flags.dryRun {
			fmt.Fprintf(out, "would remove %s\n", e.Name)
		}
	}
	switch {
	case len(removed) == 0 && err == nil:
		fmt.Fprintf(out, "No cached results in %s\n", store.Dir())
	case flags.dryRun:
		fmt.Fprintf(out, "Would remove %d results (%s)\n", len(removed), formatBytes(total))
	default:
		fmt.Fprintf(out, "✓ Removed %d results (%s)\n", len(removed), formatBytes(total))
	}
	return err
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
