// Package cmdutil provides helpers shared by catalogsync commands.
package cmdutil

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/catalogsync/internal/cmd/alerts"
	"github.com/agentstation/catalogsync/internal/cmd/globals"
	"github.com/agentstation/catalogsync/internal/cmd/output"
)

// Streams pairs the result printer on stdout with the alert writer on stderr.
type Streams struct {
	Out    *output.Printer
	Alerts *alerts.Writer
}

// NewStreams builds the streams of cmd for the given output format.
func NewStreams(cmd *cobra.Command, format string) *Streams {
	flags := globals.Parse(cmd)
	out := output.NewPrinter(cmd.OutOrStdout(), format)
	return &Streams{
		Out:    out,
		Alerts: alerts.NewWriter(cmd.ErrOrStderr(), out.Format(), flags.NoColor, flags.Quiet),
	}
}

// Alert writes a, ignoring write failures on stderr.
func (s *Streams) Alert(a *alerts.Alert) {
	_ = s.Alerts.Write(a)
}
