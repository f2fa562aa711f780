package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/internal/config"
	"github.com/agentstation/catalogsync/internal/metrics"
	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/feed"
)

// Compile-time interface check to ensure proper implementation.
var _ Application = (*Mock)(nil)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	ConfigFunc       func() (*config.Config, error)
	ClientFunc       func(ctx context.Context) (catalogsync.Client, error)
	FeedSourceFunc   func(tenant string) (feed.Source, error)
	SecretFunc       func(env string) (string, error)
	MetricsFunc      func() *metrics.Metrics
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// Config returns a config using the mock function or an empty config.
func (m *Mock) Config() (*config.Config, error) {
	if m.ConfigFunc != nil {
		return m.ConfigFunc()
	}
	return &config.Config{}, nil
}

// Client returns a client using the mock function or an error.
func (m *Mock) Client(ctx context.Context) (catalogsync.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc(ctx)
	}
	return nil, errors.NewConfigError("mock", "no client configured", nil)
}

// FeedSource returns a feed source using the mock function or not found.
func (m *Mock) FeedSource(tenant string) (feed.Source, error) {
	if m.FeedSourceFunc != nil {
		return m.FeedSourceFunc(tenant)
	}
	return feed.Source{}, errors.NewNotFoundError("tenant", tenant)
}

// Secret returns a secret using the mock function or an empty string.
func (m *Mock) Secret(env string) (string, error) {
	if m.SecretFunc != nil {
		return m.SecretFunc(env)
	}
	return "", nil
}

// Metrics returns collectors using the mock function or nil.
func (m *Mock) Metrics() *metrics.Metrics {
	if m.MetricsFunc != nil {
		return m.MetricsFunc()
	}
	return nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the format using the mock function or "json".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// Version returns the version using the mock function or "test".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "test"
}

// Commit returns the commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns the date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns the builder using the mock function or "unknown".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "unknown"
}
