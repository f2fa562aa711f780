package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/catalogsync/cmd/catalogsync/cmd/feed"
	"github.com/agentstation/catalogsync/cmd/catalogsync/cmd/flags"
	"github.com/agentstation/catalogsync/cmd/catalogsync/cmd/history"
	"github.com/agentstation/catalogsync/cmd/catalogsync/cmd/revert"
	"github.com/agentstation/catalogsync/cmd/catalogsync/cmd/serve"
	"github.com/agentstation/catalogsync/cmd/catalogsync/cmd/sync"
	"github.com/agentstation/catalogsync/cmd/catalogsync/cmd/tenants"
)

// NewSyncCommand creates the sync command with app dependencies.
func (a *App) NewSyncCommand() *cobra.Command {
	return sync.NewCommand(a)
}

// NewFlagsCommand creates the flags command with app dependencies.
func (a *App) NewFlagsCommand() *cobra.Command {
	return flags.NewCommand(a)
}

// NewRevertCommand creates the revert command with app dependencies.
func (a *App) NewRevertCommand() *cobra.Command {
	return revert.NewCommand(a)
}

// NewServeCommand creates the serve command with app dependencies.
func (a *App) NewServeCommand() *cobra.Command {
	return serve.NewCommand(a)
}

// NewHistoryCommand creates the history command with app dependencies.
func (a *App) NewHistoryCommand() *cobra.Command {
	return history.NewCommand(a)
}

// NewFeedCommand creates the feed command with app dependencies.
func (a *App) NewFeedCommand() *cobra.Command {
	return feed.NewCommand(a)
}

// NewTenantsCommand creates the tenants command with app dependencies.
func (a *App) NewTenantsCommand() *cobra.Command {
	return tenants.NewCommand(a)
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "catalogsync %s\n", a.version)
			if a.settings.Verbose {
				_, _ = fmt.Fprintf(w, "  commit:   %s\n", a.commit)
				_, _ = fmt.Fprintf(w, "  built:    %s\n", a.date)
				_, _ = fmt.Fprintf(w, "  built by: %s\n", a.builtBy)
			}
		},
	}
}
