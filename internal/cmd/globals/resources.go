package globals

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RunFlags holds flags shared by commands that start runs.
type RunFlags struct {
	DryRun bool
	All    bool
}

// AddRunFlags adds run flags to a command.
func AddRunFlags(cmd *cobra.Command) *RunFlags {
	flags := &RunFlags{}
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false,
		"Compute and validate changes without mutating the catalog")
	cmd.Flags().BoolVar(&flags.All, "all", false,
		"Run every configured tenant")
	return flags
}

// Tenants resolves the tenants a run command targets: the positional
// arguments, or every configured tenant with --all.
func (f *RunFlags) Tenants(args, configured []string) ([]string, error) {
	switch {
	case f.All && len(args) > 0:
		return nil, fmt.Errorf("--all cannot be combined with tenant arguments")
	case f.All:
		return configured, nil
	case len(args) == 0:
		return nil, fmt.Errorf("specify at least one tenant or --all")
	}
	return args, nil
}
