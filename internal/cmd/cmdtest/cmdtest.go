// Package cmdtest provides fixtures for command tests: a single-tenant client
// backed by in-memory services and a helper that executes a command.
package cmdtest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/cmd/application"
	"github.com/agentstation/catalogsync/pkg/catalogs"
	"github.com/agentstation/catalogsync/pkg/catalogs/memory"
	"github.com/agentstation/catalogsync/pkg/clock"
	"github.com/agentstation/catalogsync/pkg/constants"
	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/feed"
	historymem "github.com/agentstation/catalogsync/pkg/history/memory"
	"github.com/agentstation/catalogsync/pkg/logging"
)

// Tenant is the ID of the fixture tenant.
const Tenant = "acme"

// FeedBody is the fixture feed: one valid row and one row with a bad price.
const FeedBody = "sourceId;ean;recommendedPrice;priceAdvice\n" +
	"p1;EAN123;45.00;50.00\n" +
	"p2;EAN456;abc;20.00\n"

// Now is the fake clock's start time.
var Now = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

// Fixture holds the pieces behind a test application.
type Fixture struct {
	App     *application.Mock
	Client  catalogsync.Client
	Catalog *memory.Service
	Feed    feed.Source
}

// New builds a fixture whose catalog holds variant v1 (EAN123) at 50.00.
func New(t *testing.T) *Fixture {
	t.Helper()
	logging.DisableLoggingForTest(t)

	path := filepath.Join(t.TempDir(), "feed.csv")
	require.NoError(t, os.WriteFile(path, []byte(FeedBody), constants.FilePermissions))
	src := feed.Source{URL: path}

	svc := memory.New(memory.WithEntries(catalogs.Entry{
		ProductID: "p1", VariantID: "v1", MatchKey: "EAN123",
		CurrentPrice: decimal.RequireFromString("50"),
	}))
	client, err := catalogsync.New([]catalogsync.Tenant{{
		ID:      Tenant,
		Catalog: svc,
		History: historymem.New(),
		Feed:    src,
	}}, catalogsync.WithClock(clock.NewFake(Now)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(context.Background()) })

	f := &Fixture{Client: client, Catalog: svc, Feed: src}
	f.App = &application.Mock{
		ClientFunc: func(context.Context) (catalogsync.Client, error) { return client, nil },
		FeedSourceFunc: func(tenant string) (feed.Source, error) {
			if tenant != Tenant {
				return feed.Source{}, errors.NewNotFoundError("tenant", tenant)
			}
			return src, nil
		},
	}
	return f
}

// Result captures a command's output streams.
type Result struct {
	Stdout string
	Stderr string
	Err    error
}

// Execute runs cmd with args and captures its output.
func Execute(t *testing.T, cmd *cobra.Command, args ...string) Result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(context.Background())
	return Result{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
}
