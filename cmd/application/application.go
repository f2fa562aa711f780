// Package application provides the application interface for catalogsync commands.
//
// Commands accept this interface rather than the concrete App type so they
// can be tested with Mock:
//
//	mock := &application.Mock{
//	    ClientFunc: func(context.Context) (catalogsync.Client, error) {
//	        return testClient, nil
//	    },
//	}
//	cmd := sync.NewCommand(mock)
package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/internal/config"
	"github.com/agentstation/catalogsync/internal/metrics"
	"github.com/agentstation/catalogsync/pkg/feed"
)

// Application provides what commands need from the application.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Config returns the loaded configuration. It is read on first use so
	// commands that need no configuration never fail on it.
	Config() (*config.Config, error)

	// Client returns the reconciliation client built from the
	// configuration (lazy-initialized, cached).
	Client(ctx context.Context) (catalogsync.Client, error)

	// FeedSource resolves a tenant's feed, credentials included.
	FeedSource(tenant string) (feed.Source, error)

	// Secret reads the secret named by an environment variable.
	Secret(env string) (string, error)

	// Metrics returns the Prometheus collectors served by the API server.
	Metrics() *metrics.Metrics

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, wide).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
