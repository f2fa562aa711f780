// Package feed provides commands to inspect a tenant's price feed.
package feed

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/catalogsync/cmd/application"
	"github.com/agentstation/catalogsync/internal/cmd/alerts"
	"github.com/agentstation/catalogsync/internal/cmd/cmdutil"
	"github.com/agentstation/catalogsync/pkg/feed"
)

// NewCommand creates the feed command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "feed",
		GroupID: "management",
		Short:   "Inspect price feeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newInspectCommand(app))
	return cmd
}

func newInspectCommand(app application.Application) *cobra.Command {
	var (
		limit  int
		errors bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <tenant>",
		Short: "Fetch and parse a tenant's feed without touching the catalog",
		Example: `  catalogsync feed inspect acme
  catalogsync feed inspect acme --limit 0 -o json
  catalogsync feed inspect acme --errors`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := app.FeedSource(args[0])
			if err != nil {
				return err
			}
			res, err := feed.NewFetcher(nil).Fetch(cmd.Context(), src)
			if err != nil {
				return err
			}

			streams := cmdutil.NewStreams(cmd, app.OutputFormat())
			level := alerts.LevelSuccess
			if res.InvalidRows > 0 {
				level = alerts.LevelWarning
			}
			a := alerts.New(level, fmt.Sprintf("%s: %d rows, %d valid, %d invalid", args[0], res.TotalRows, res.ValidRows, res.InvalidRows))
			if errors {
				a.WithDetails(res.Errors...)
			}
			streams.Alert(a)
			return streams.Out.Feed(res, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Rows shown in table output (0 for all)")
	cmd.Flags().BoolVar(&errors, "errors", false, "Print rejected rows")
	return cmd
}
