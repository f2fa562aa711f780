// Package sync provides the price reconciliation command.
package sync

import (
	"context"
	stderrors "errors"

	"github.com/spf13/cobra"

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/cmd/application"
	"github.com/agentstation/catalogsync/internal/cmd/alerts"
	"github.com/agentstation/catalogsync/internal/cmd/cmdutil"
	"github.com/agentstation/catalogsync/internal/cmd/globals"
)

// NewCommand creates the sync command.
func NewCommand(app application.Application) *cobra.Command {
	var runFlags *globals.RunFlags

	cmd := &cobra.Command{
		Use:     "sync [tenant...]",
		GroupID: "core",
		Short:   "Reconcile catalog prices against the feed",
		Long: `Sync runs a price reconciliation for each tenant: fetch the feed, snapshot
the catalog, match by barcode, validate and apply the accepted prices.

A tenant whose feed or snapshot fails is reported and skipped; the other
tenants still run. The command exits non-zero if any tenant failed.`,
		Example: `  catalogsync sync acme                # One tenant
  catalogsync sync --all --dry-run     # Validate every tenant without writing
  catalogsync sync acme -o json        # Machine-readable result`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, app, runFlags)
		},
	}
	runFlags = globals.AddRunFlags(cmd)
	return cmd
}

func run(cmd *cobra.Command, args []string, app application.Application, runFlags *globals.RunFlags) error {
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
	opts := []catalogsync.RunOption{catalogsync.WithDryRun(runFlags.DryRun)}

	var results []*catalogsync.RunResult
	if runFlags.All {
		results, err = client.SyncAll(ctx, opts...)
	} else {
		results, err = syncEach(ctx, client, tenants, opts, streams)
	}

	for _, r := range results {
		streams.Alert(alerts.ForRun(r))
	}
	if printErr := streams.Out.Runs(results); printErr != nil {
		return stderrors.Join(err, printErr)
	}
	return err
}

// syncEach runs tenants one after another, continuing past failures.
func syncEach(ctx context.Context, client catalogsync.Client, tenants []string, opts []catalogsync.RunOption, streams *cmdutil.Streams) ([]*catalogsync.RunResult, error) {
	var results []*catalogsync.RunResult
	var errs []error
	for _, tenant := range tenants {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		r, err := client.Sync(ctx, tenant, opts...)
		if err != nil {
			streams.Alert(alerts.New(alerts.LevelError, tenant).WithError(err))
			errs = append(errs, err)
			continue
		}
		results = append(results, r)
	}
	return results, stderrors.Join(errs...)
}
