package catalogsync

import (
	"net/http"
	"time"

	"github.com/agentstation/catalogsync/pkg/clock"
	"github.com/agentstation/catalogsync/pkg/constants"
	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/history"
)

// options are the client settings.
type options struct {
	config            Config
	clock             clock.Clock
	httpClient        *http.Client
	sampleLimit       int
	tenantConcurrency int
	interTenantDelay  time.Duration
	runTimeout        time.Duration
	autoSyncEnabled   bool
	autoSyncInterval  time.Duration
	recorderOpts      []history.RecorderOption
}

func defaults() *options {
	return &options{
		config:            DefaultConfig(),
		clock:             clock.Real(),
		sampleLimit:       constants.SampleLimit,
		tenantConcurrency: 1,
		interTenantDelay:  constants.InterTenantDelay,
		runTimeout:        constants.RunTimeout,
		autoSyncEnabled:   false,
		autoSyncInterval:  constants.DefaultSyncInterval,
	}
}

func (o *options) apply(opts ...Option) *options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) validate() error {
	if err := o.config.Validate(); err != nil {
		return err
	}
	if o.clock == nil {
		return errors.NewValidationError("clock", nil, "clock is required")
	}
	if o.sampleLimit < 0 {
		return errors.NewValidationError("sampleLimit", o.sampleLimit, "must be non-negative")
	}
	if o.tenantConcurrency < 1 || o.tenantConcurrency > constants.MaxConcurrentTenants {
		return errors.NewValidationError("tenantConcurrency", o.tenantConcurrency, "must be between 1 and the tenant pool cap")
	}
	if o.interTenantDelay < 0 {
		return errors.NewValidationError("interTenantDelay", o.interTenantDelay, "must be non-negative")
	}
	if o.runTimeout < 0 {
		return errors.NewValidationError("runTimeout", o.runTimeout, "must be non-negative")
	}
	return nil
}

// Option configures a Client.
type Option func(*options)

// WithConfig sets the reconciliation config used by every run.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithClock injects the clock used for polling, batch delays, tenant delays
// and history timestamps.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithHTTPClient sets the HTTP client used to download feeds.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithSampleLimit caps the sample lists of a RunResult. Zero keeps every
// update sample.
func WithSampleLimit(n int) Option {
	return func(o *options) {
		o.sampleLimit = n
	}
}

// WithTenantConcurrency runs up to n tenants at once in SyncAll. With n of 1
// tenants run one after another, separated by the inter-tenant delay.
func WithTenantConcurrency(n int) Option {
	return func(o *options) {
		o.tenantConcurrency = n
	}
}

// WithInterTenantDelay sets the pause between tenants in serial SyncAll runs.
func WithInterTenantDelay(d time.Duration) Option {
	return func(o *options) {
		o.interTenantDelay = d
	}
}

// WithRunTimeout bounds each scheduled run. Zero disables the bound.
func WithRunTimeout(d time.Duration) Option {
	return func(o *options) {
		o.runTimeout = d
	}
}

// WithAutoSync configures whether scheduled runs start with the client.
func WithAutoSync(enabled bool) Option {
	return func(o *options) {
		o.autoSyncEnabled = enabled
	}
}

// WithAutoSyncInterval configures how often scheduled runs happen.
func WithAutoSyncInterval(d time.Duration) Option {
	return func(o *options) {
		o.autoSyncInterval = d
	}
}

// WithRecorderOptions passes options to the history recorder of each run.
func WithRecorderOptions(opts ...history.RecorderOption) Option {
	return func(o *options) {
		o.recorderOpts = append(o.recorderOpts, opts...)
	}
}

// RunOption configures a single run.
type RunOption func(*runOptions)

type runOptions struct {
	dryRun  bool
	trigger history.TriggeredBy
	noWait  bool
	config  *Config
}

func newRunOptions(opts ...RunOption) *runOptions {
	ro := &runOptions{trigger: history.TriggeredManual}
	for _, opt := range opts {
		opt(ro)
	}
	return ro
}

func (ro *runOptions) configOr(def Config) Config {
	if ro.config != nil {
		return *ro.config
	}
	return def
}

// WithDryRun runs the full pipeline without mutating the catalog or writing
// history.
func WithDryRun(enabled bool) RunOption {
	return func(ro *runOptions) {
		ro.dryRun = enabled
	}
}

// WithTrigger records what started the run.
func WithTrigger(t history.TriggeredBy) RunOption {
	return func(ro *runOptions) {
		ro.trigger = t
	}
}

// WithNoWait fails with errors.ErrTenantBusy instead of waiting when another
// run or revert holds the tenant.
func WithNoWait() RunOption {
	return func(ro *runOptions) {
		ro.noWait = true
	}
}

// WithRunConfig overrides the client config for one run.
func WithRunConfig(cfg Config) RunOption {
	return func(ro *runOptions) {
		ro.config = &cfg
	}
}
