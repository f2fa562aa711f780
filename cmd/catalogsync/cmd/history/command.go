// Package history provides commands to inspect and prune recorded history.
package history

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/catalogsync/cmd/application"
	"github.com/agentstation/catalogsync/internal/cmd/alerts"
	"github.com/agentstation/catalogsync/internal/cmd/cmdutil"
	"github.com/agentstation/catalogsync/pkg/errors"
)

// NewCommand creates the history command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		GroupID: "management",
		Short:   "Inspect and prune recorded price history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newRunsCommand(app))
	cmd.AddCommand(newShowCommand(app))
	cmd.AddCommand(newPruneCommand(app))
	return cmd
}

func newRunsCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "runs <tenant>",
		Short: "List recorded runs, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}
			runs, err := client.Runs(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return cmdutil.NewStreams(cmd, app.OutputFormat()).Out.History(runs)
		},
	}
}

func newShowCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "show <tenant> <run-id>",
		Aliases: []string{"list"},
		Short:   "Show the entries a run recorded",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}
			items, err := client.RunEntries(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return errors.NewNotFoundError("run", args[1])
			}
			return cmdutil.NewStreams(cmd, app.OutputFormat()).Out.Entries(items)
		},
	}
}

func newPruneCommand(app application.Application) *cobra.Command {
	var before string

	cmd := &cobra.Command{
		Use:   "prune <tenant>...",
		Short: "Delete history entries older than a cutoff",
		Long: `Prune deletes history entries recorded before the cutoff. Pruned runs can
no longer be reverted. The cutoff is a date (2006-01-02), an RFC 3339
timestamp, or a duration counted back from now (720h).`,
		Example: `  catalogsync history prune acme --before 2026-01-01
  catalogsync history prune acme beta --before 2160h`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cutoff, err := ParseCutoff(before, time.Now())
			if err != nil {
				return err
			}
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}

			streams := cmdutil.NewStreams(cmd, app.OutputFormat())
			counts := make(map[string]int, len(args))
			for _, tenant := range args {
				n, err := client.Prune(cmd.Context(), tenant, cutoff)
				if err != nil {
					return err
				}
				counts[tenant] = n
				streams.Alert(alerts.New(alerts.LevelSuccess, fmt.Sprintf("%s: pruned %d entries before %s", tenant, n, cutoff.Format(time.RFC3339))))
			}
			if streams.Out.Format().Structured() {
				return streams.Out.Print(counts, nil)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "Cutoff date, timestamp or age (required)")
	_ = cmd.MarkFlagRequired("before")
	return cmd
}

// ParseCutoff parses a prune cutoff relative to now.
func ParseCutoff(s string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return time.Time{}, errors.NewValidationError("before", s, "age must be positive")
		}
		return now.Add(-d), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.NewValidationError("before", s, "expected a date, RFC 3339 timestamp or duration")
}
