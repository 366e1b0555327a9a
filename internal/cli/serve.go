package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func (a *app) newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve one protocol request from stdin",
		Long: `Read one JSON request from stdin and write exactly one JSON response line to stdout.
This is the same as running the binary without a subcommand.`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	engine, err := a.engine()
	if err != nil {
		return err
	}
	return a.server(engine).Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
}

func (a *app) newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the engine's get_info response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := a.engine()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a.server(engine).Info())
		},
	}
}
