package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/catalogsync/pkg/logging"
)

// NewLogger creates a configured logger based on the CLI settings.
// Log level precedence (highest to lowest):
//  1. --log-level flag
//  2. -v/--verbose flag (shortcut for debug)
//  3. -q/--quiet flag (shortcut for warn)
//  4. LOG_LEVEL environment variable
//  5. Default (info)
func NewLogger(s *Settings) zerolog.Logger {
	level := determineLogLevel(s)

	return logging.NewLoggerFromConfig(&logging.Config{
		Level:      level,
		Format:     s.LogFormat,
		Output:     s.LogOutput,
		TimeFormat: "kitchen",
		NoColor:    s.NoColor,
		AddCaller:  level == "debug" || level == "trace",
	})
}

// determineLogLevel determines the log level using clear precedence rules.
func determineLogLevel(s *Settings) string {
	// 1. Explicit --log-level always wins
	if s.LogLevel != "" {
		return checkedLevel(s.LogLevel)
	}

	// 2. Conflicting boolean flags prefer the more restrictive one
	if s.Verbose && s.Quiet {
		fmt.Fprintf(os.Stderr, "Warning: both --verbose and --quiet specified, using --quiet\n")
		return "warn"
	}

	// 3. Boolean shortcuts
	if s.Verbose {
		return "debug"
	}
	if s.Quiet {
		return "warn"
	}

	// 4. Environment
	if s.EnvLogLevel != "" {
		return checkedLevel(s.EnvLogLevel)
	}
	return "info"
}

func checkedLevel(level string) string {
	validated := validateLogLevel(level)
	if validated != level {
		fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using %q\n", level, validated)
	}
	return validated
}

// validateLogLevel validates a log level string and returns a valid level.
// If the input is invalid, returns "info" as a safe default.
func validateLogLevel(level string) string {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return level
	}
	return "info"
}
