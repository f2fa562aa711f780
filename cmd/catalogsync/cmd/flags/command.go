// Package flags provides the availability flag reconciliation command.
package flags

import (
	stderrors "errors"

	"github.com/spf13/cobra"

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/cmd/application"
	"github.com/agentstation/catalogsync/internal/cmd/alerts"
	"github.com/agentstation/catalogsync/internal/cmd/cmdutil"
	"github.com/agentstation/catalogsync/internal/cmd/globals"
)

// NewCommand creates the flags command.
func NewCommand(app application.Application) *cobra.Command {
	var runFlags *globals.RunFlags

	cmd := &cobra.Command{
		Use:     "flags [tenant...]",
		GroupID: "core",
		Short:   "Mark variants available when their barcode is in the feed",
		Long: `Flags sets the availability metafield of every variant: true when the
variant's barcode appears in the tenant's feed, false otherwise. Only
variants whose flag changes are written. Flag runs record no history.`,
		Example: `  catalogsync flags acme
  catalogsync flags --all --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := app.Client(ctx)
			if err != nil {
				return err
			}
			tenants, err := runFlags.Tenants(args, client.Tenants())
			if err != nil {
				return err
			}

			streams := cmdutil.NewStreams(cmd, app.OutputFormat())
			var errs []error
			for _, tenant := range tenants {
				r, err := client.SyncFlags(ctx, tenant, catalogsync.WithDryRun(runFlags.DryRun))
				if err != nil {
					streams.Alert(alerts.New(alerts.LevelError, tenant).WithError(err))
					errs = append(errs, err)
					continue
				}
				streams.Alert(alerts.ForFlags(r))
				if err := streams.Out.Flags(r); err != nil {
					return err
				}
			}
			return stderrors.Join(errs...)
		},
	}
	runFlags = globals.AddRunFlags(cmd)
	return cmd
}
