package app

import (
	"os"

	"github.com/agentstation/catalogsync/internal/cmd/globals"
)

// Settings holds the CLI presentation settings: global flags plus the
// logging environment.
type Settings struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Logging configuration. LogLevel comes from --log-level, EnvLogLevel
	// from LOG_LEVEL.
	LogLevel    string
	EnvLogLevel string
	LogFormat   string
	LogOutput   string
}

// LoadSettings reads the logging environment. Flags are applied later by
// UpdateFromFlags once cobra has parsed them.
func LoadSettings() *Settings {
	return &Settings{
		NoColor:     os.Getenv("NO_COLOR") != "",
		EnvLogLevel: os.Getenv("LOG_LEVEL"),
		LogFormat:   getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput:   getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}
}

// UpdateFromFlags updates settings from parsed command flags. Flag values
// take precedence over the environment.
func (s *Settings) UpdateFromFlags(flags *globals.Flags) {
	s.Verbose = flags.Verbose
	s.Quiet = flags.Quiet
	s.NoColor = s.NoColor || flags.NoColor
	if flags.Output != "" {
		s.Format = flags.Output
	}
	if flags.LogLevel != "" {
		s.LogLevel = flags.LogLevel
	}
	if flags.ConfigFile != "" {
		s.ConfigFile = flags.ConfigFile
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
