// Package app provides the application context and dependency management
// for the catalogsync CLI. It centralizes configuration, the reconciliation
// client and lifecycle management so commands only see the
// application.Application interface.
package app

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/cmd/application"
	"github.com/agentstation/catalogsync/internal/config"
	"github.com/agentstation/catalogsync/internal/metrics"
	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/feed"
)

// Compile-time interface check to ensure proper implementation.
var _ application.Application = (*App)(nil)

// App represents the catalogsync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	settings *Settings
	viper    *viper.Viper
	logger   *zerolog.Logger

	// Lazy-initialized, guarded by mu
	mu        sync.Mutex
	config    *config.Config
	client    catalogsync.Client
	resources *config.Resources
	metrics   *metrics.Metrics
}

// New creates a new App instance with the given version information.
// Configuration files are not read until a command needs them.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	config.LoadEnvFiles()

	settings := LoadSettings()
	logger := NewLogger(settings)
	app := &App{
		version:  version,
		commit:   commit,
		date:     date,
		builtBy:  builtBy,
		settings: settings,
		viper:    viper.New(),
		logger:   &logger,
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Settings returns the CLI settings.
func (a *App) Settings() *Settings {
	return a.settings
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.settings.Format
}

// Config loads the configuration on first use.
func (a *App) Config() (*config.Config, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadConfig()
}

func (a *App) loadConfig() (*config.Config, error) {
	if a.config != nil {
		return a.config, nil
	}
	cfg, err := config.Load(a.viper, a.settings.ConfigFile)
	if err != nil {
		return nil, errors.WrapResource("load", "config", a.settings.ConfigFile, err)
	}
	if cfg.File != "" {
		a.logger.Debug().Str("file", cfg.File).Msg("Loaded configuration")
	}
	a.config = cfg
	return cfg, nil
}

// Client returns the reconciliation client, creating it on first use.
func (a *App) Client(ctx context.Context) (catalogsync.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	if len(cfg.Tenants) == 0 {
		return nil, errors.NewConfigError("tenants", "no tenants configured", nil)
	}

	tenants, resources, err := config.BuildTenants(ctx, a.viper, cfg, nil)
	if err != nil {
		return nil, err
	}

	opts := []catalogsync.Option{
		catalogsync.WithConfig(cfg.Reconcile.Engine()),
		catalogsync.WithTenantConcurrency(cfg.Concurrency),
		catalogsync.WithInterTenantDelay(cfg.InterTenantDelay),
	}
	if cfg.AutoSync.Interval > 0 {
		opts = append(opts, catalogsync.WithAutoSyncInterval(cfg.AutoSync.Interval))
	}

	client, err := catalogsync.New(tenants, opts...)
	if err != nil {
		_ = resources.Close()
		return nil, errors.WrapResource("create", "client", "", err)
	}

	a.client = client
	a.resources = resources
	return client, nil
}

// FeedSource resolves the feed of a configured tenant.
func (a *App) FeedSource(tenant string) (feed.Source, error) {
	cfg, err := a.Config()
	if err != nil {
		return feed.Source{}, err
	}
	tc, err := cfg.Tenant(tenant)
	if err != nil {
		return feed.Source{}, err
	}
	return tc.FeedSource(a.viper)
}

// Secret reads the secret named by the environment variable env.
func (a *App) Secret(env string) (string, error) {
	return config.Secret(a.viper, env)
}

// Metrics returns the Prometheus collectors, created on first use.
func (a *App) Metrics() *metrics.Metrics {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.metrics == nil {
		a.metrics = metrics.New()
	}
	return a.metrics
}

// Shutdown stops scheduled runs and closes history stores.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	client, resources := a.client, a.resources
	a.mu.Unlock()

	var errs []error
	if client != nil {
		if err := client.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if resources != nil {
		if err := resources.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithSettings sets custom CLI settings.
func WithSettings(s *Settings) Option {
	return func(a *App) error {
		a.settings = s
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a prebuilt client (useful for testing).
func WithClient(c catalogsync.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}

// WithViper sets the viper instance configuration is read through.
func WithViper(v *viper.Viper) Option {
	return func(a *App) error {
		a.viper = v
		return nil
	}
}
