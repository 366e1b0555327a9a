package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mvp-joe/csd-analyzers/internal/analyzer"
	"github.com/spf13/cobra"
)

func (a *app) newProbeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "probe FILE...",
		Short: "Report whether the engine can analyze each file",
		Long: `Probe each file the way a can_analyze request would. The preview is the first
probe.preview_bytes bytes of the file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.runProbe,
	}
}

func (a *app) runProbe(cmd *cobra.Command, args []string) error {
	engine, err := a.engine()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tENGINE\tMATCH\tCONFIDENCE")
	for _, path := range args {
		preview, err := readPreview(path, a.cfg.Probe.PreviewBytes)
		if err != nil {
			return err
		}
		selected, probe := selectEngine(engine, path, preview)
		name := "-"
		if selected != nil {
			name = selected.Info().Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%.2f\n", path, name, probe.Matches, probe.Confidence)
	}
	return tw.Flush()
}

// selectEngine probes path and returns the engine that would serve it. Registries pick their
// best engine; a single engine is returned when it matches.
func selectEngine(engine analyzer.Analyzer, path, preview string) (analyzer.Analyzer, analyzer.Probe) {
	if s, ok := engine.(analyzer.Selector); ok {
		return s.Select(path, preview)
	}
	probe := engine.Probe(path, preview)
	if !probe.Matches {
		return nil, probe
	}
	return engine, probe
}

func readPreview(path string, n int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	buf, err := io.ReadAll(io.LimitReader(f, int64(n)))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(buf), nil
}
