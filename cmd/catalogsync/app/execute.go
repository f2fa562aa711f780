package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/catalogsync/internal/cmd/globals"
	"github.com/agentstation/catalogsync/internal/cmd/output"
)

// Execute runs the catalogsync CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "catalogsync",
		Short:   "Catalog price reconciliation CLI",
		Version: a.version,
		Long: `catalogsync reconciles product catalogs against a third-party price feed.

A run downloads the tenant's feed, snapshots the catalog, matches variants by
barcode, validates the proposed prices and applies the accepted ones in
batches. Every applied change is recorded so the run can be reverted.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands:",
	})

	globals.AddFlags(rootCmd)

	// Customize version output to match version subcommand
	rootCmd.SetVersionTemplate("catalogsync {{.Version}}\n")

	a.registerCommands(rootCmd)
	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	flags := globals.Parse(cmd)
	if _, err := output.ParseFormat(flags.Output); err != nil {
		return err
	}
	a.settings.UpdateFromFlags(flags)

	// Reinitialize logger with updated settings
	logger := NewLogger(a.settings)
	a.logger = &logger
	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(a.NewSyncCommand())
	rootCmd.AddCommand(a.NewFlagsCommand())
	rootCmd.AddCommand(a.NewRevertCommand())
	rootCmd.AddCommand(a.NewServeCommand())

	// Management commands
	rootCmd.AddCommand(a.NewHistoryCommand())
	rootCmd.AddCommand(a.NewFeedCommand())
	rootCmd.AddCommand(a.NewTenantsCommand())

	// Utility commands
	rootCmd.AddCommand(a.NewVersionCommand())
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
