package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/catalogsync/pkg/errors"
)

const testConfig = `
concurrency: 2
tenants:
  - id: acme
    admin_url: https://acme.example.test/admin/api/graphql.json
    token_env: ACME_TOKEN
    feed:
      url: ./acme.csv
      delimiter: ";"
    history:
      backend: memory
`

func newTestApp(t *testing.T, body string) *App {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".catalogsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	logger := zerolog.Nop()
	settings := &Settings{ConfigFile: path, Format: "json"}
	a, err := New("1.2.3", "abc123", "2026-04-01", "test",
		WithSettings(settings), WithLogger(&logger), WithViper(viper.New()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func TestNew(t *testing.T) {
	a := newTestApp(t, testConfig)

	assert.Equal(t, "1.2.3", a.Version())
	assert.Equal(t, "abc123", a.Commit())
	assert.Equal(t, "2026-04-01", a.Date())
	assert.Equal(t, "test", a.BuiltBy())
	assert.Equal(t, "json", a.OutputFormat())
	assert.NotNil(t, a.Logger())
}

func TestConfigIsCached(t *testing.T) {
	a := newTestApp(t, testConfig)

	first, err := a.Config()
	require.NoError(t, err)
	second, err := a.Config()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, []string{"acme"}, first.TenantIDs())
}

func TestClient(t *testing.T) {
	t.Setenv("ACME_TOKEN", "shpat_test")
	a := newTestApp(t, testConfig)

	client, err := a.Client(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"acme"}, client.Tenants())

	again, err := a.Client(context.Background())
	require.NoError(t, err)
	assert.Same(t, client, again)
}

func TestClientWithoutTenants(t *testing.T) {
	a := newTestApp(t, "concurrency: 1\n")

	_, err := a.Client(context.Background())
	require.Error(t, err)
	var cerr *errors.ConfigError
	assert.ErrorAs(t, err, &cerr)
}

func TestFeedSource(t *testing.T) {
	a := newTestApp(t, testConfig)

	src, err := a.FeedSource("acme")
	require.NoError(t, err)
	assert.Equal(t, "./acme.csv", src.URL)

	_, err = a.FeedSource("nope")
	assert.True(t, errors.IsNotFound(err))
}

func TestMetricsIsCached(t *testing.T) {
	a := newTestApp(t, testConfig)
	assert.Same(t, a.Metrics(), a.Metrics())
}

func TestShutdownWithoutClient(t *testing.T) {
	a := newTestApp(t, testConfig)
	assert.NoError(t, a.Shutdown(context.Background()))
}
