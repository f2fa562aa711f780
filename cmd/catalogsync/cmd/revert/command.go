// Package revert provides the run revert command.
package revert

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/catalogsync/cmd/application"
	"github.com/agentstation/catalogsync/internal/cmd/alerts"
	"github.com/agentstation/catalogsync/internal/cmd/cmdutil"
)

// NewCommand creates the revert command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "revert <tenant> <run-id>",
		GroupID: "core",
		Short:   "Restore the prices a run overwrote",
		Long: `Revert restores the price and compare-at price each variant had before the
given run, then deletes the run's history. Entries the catalog rejects stay
in history so the revert can be retried.`,
		Example: `  catalogsync history runs acme        # Find the run id
  catalogsync revert acme run_0190f3c2-...`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := app.Client(ctx)
			if err != nil {
				return err
			}

			res, err := client.Revert(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			streams := cmdutil.NewStreams(cmd, app.OutputFormat())
			streams.Alert(alerts.ForRevert(res))
			return streams.Out.Revert(res)
		},
	}
}
