// Package emoji provides the status symbols printed by CLI commands.
package emoji

// Status symbols.
const (
	// Success marks completed runs and restored entries.
	Success = "✓"

	// Error marks failed runs, rejected mutations and fatal errors.
	Error = "✗"

	// Warning marks partially successful runs.
	Warning = "!"

	// Info marks dry runs and informational lines.
	Info = "i"

	// Unknown represents unknown or indeterminate states.
	Unknown = "?"
)
