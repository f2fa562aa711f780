// Package tenants provides the command listing configured tenants.
package tenants

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/catalogsync/cmd/application"
	"github.com/agentstation/catalogsync/internal/cmd/cmdutil"
	"github.com/agentstation/catalogsync/internal/cmd/table"
	"github.com/agentstation/catalogsync/internal/config"
)

// NewCommand creates the tenants command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "tenants",
		GroupID: "management",
		Short:   "List configured tenants",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config()
			if err != nil {
				return err
			}
			out := cmdutil.NewStreams(cmd, app.OutputFormat()).Out
			return out.Print(cfg.Tenants, func() table.Data { return ToTableData(cfg.Tenants) })
		},
	}
}

// ToTableData renders tenant configs. Secrets are shown by variable name only.
func ToTableData(tenants []config.TenantConfig) table.Data {
	rows := make([][]string, 0, len(tenants))
	for _, t := range tenants {
		backend := t.History.Backend
		if backend == "" {
			backend = config.BackendFiles
		}
		rows = append(rows, []string{t.ID, t.AdminURL, t.Feed.URL, backend, t.TokenEnv})
	}
	return table.Data{
		Headers: []string{"Tenant", "Admin URL", "Feed", "History", "Token Env"},
		Rows:    rows,
	}
}
