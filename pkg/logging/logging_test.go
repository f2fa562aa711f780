package logging_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentstation/catalogsync/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, logging.ParseLevel(tt.in))
		})
	}
}

func TestParseFields(t *testing.T) {
	got := logging.ParseFields("service=catalogsync, env = prod,broken")
	assert.Equal(t, map[string]string{"service": "catalogsync", "env": "prod"}, got)
	assert.Empty(t, logging.ParseFields(""))
}

func TestNewLoggerFromConfigWritesFile(t *testing.T) {
	original := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(original) })

	path := filepath.Join(t.TempDir(), "out.log")
	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:  "info",
		Format: "json",
		Output: path,
		Fields: map[string]string{"service": "catalogsync"},
	})
	logger.Info().Msg("run finished")
	logger.Debug().Msg("hidden")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"run finished"`)
	assert.Contains(t, string(data), `"service":"catalogsync"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestContextFields(t *testing.T) {
	tl := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithTenant(ctx, "acme")
	ctx = logging.WithRun(ctx, "run_123")
	ctx = logging.WithOperation(ctx, "sync")
	ctx = logging.WithError(ctx, errors.New("boom"))
	ctx = logging.WithRequestID(ctx, "req-1")

	logging.FromContext(ctx).Info().Msg("hello")

	tl.AssertContains(t, `"tenant":"acme"`)
	tl.AssertContains(t, `"run_id":"run_123"`)
	tl.AssertContains(t, `"operation":"sync"`)
	tl.AssertContains(t, `"error":"boom"`)
	tl.AssertContains(t, `"request_id":"req-1"`)
	assert.Equal(t, "req-1", logging.RequestID(ctx))
	assert.Len(t, tl.Lines(), 1)
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
	assert.Same(t, logging.Default(), logging.FromContext(nil)) //nolint:staticcheck
}

func TestCaptureLoggingForTest(t *testing.T) {
	tl := logging.CaptureLoggingForTest(t)
	logging.Warn().Str("shared_match_keys", "3").Msg("duplicate barcodes")
	tl.AssertContains(t, "duplicate barcodes")
	assert.True(t, tl.Contains(`"level":"warn"`))
}
