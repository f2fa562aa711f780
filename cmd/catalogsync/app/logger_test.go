package app

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// TestDetermineLogLevel tests the log level precedence logic.
func TestDetermineLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		expected string
	}{
		{name: "default level", expected: "info"},
		{name: "verbose sets debug", settings: Settings{Verbose: true}, expected: "debug"},
		{name: "quiet sets warn", settings: Settings{Quiet: true}, expected: "warn"},
		{name: "both prefer quiet", settings: Settings{Verbose: true, Quiet: true}, expected: "warn"},
		{name: "flag overrides verbose", settings: Settings{LogLevel: "error", Verbose: true}, expected: "error"},
		{name: "flag overrides quiet", settings: Settings{LogLevel: "trace", Quiet: true}, expected: "trace"},
		{name: "flag overrides env", settings: Settings{LogLevel: "warn", EnvLogLevel: "debug"}, expected: "warn"},
		{name: "env used without flags", settings: Settings{EnvLogLevel: "debug"}, expected: "debug"},
		{name: "verbose overrides env", settings: Settings{Verbose: true, EnvLogLevel: "error"}, expected: "debug"},
		{name: "invalid flag falls back", settings: Settings{LogLevel: "loud"}, expected: "info"},
		{name: "invalid env falls back", settings: Settings{EnvLogLevel: "chatty"}, expected: "info"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, determineLogLevel(&tt.settings))
		})
	}
}

func TestValidateLogLevel(t *testing.T) {
	for _, level := range []string{"trace", "debug", "info", "warn", "error"} {
		assert.Equal(t, level, validateLogLevel(level))
	}
	assert.Equal(t, "info", validateLogLevel("fatal"))
	assert.Equal(t, "info", validateLogLevel(""))
}

func TestNewLogger(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	logger := NewLogger(&Settings{LogLevel: "warn", LogFormat: "json", LogOutput: "stderr"})
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger = NewLogger(&Settings{Verbose: true, LogFormat: "json", LogOutput: "stderr"})
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}
