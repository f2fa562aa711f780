package snapshot

import (
	"time"

	"github.com/agentstation/catalogsync/pkg/catalogs"
	"github.com/agentstation/catalogsync/pkg/clock"
	"github.com/agentstation/catalogsync/pkg/constants"
	"github.com/agentstation/catalogsync/pkg/errors"
)

// Options controls a snapshot load.
type Options struct {
	Query           string        // Bulk query to submit
	PollInterval    time.Duration // Delay between status polls
	MaxPollWait     time.Duration // Absolute limit for the job to finish
	DownloadTimeout time.Duration // Limit for downloading and parsing the result
	MaxLineSize     int           // Largest accepted NDJSON line
	Clock           clock.Clock
}

// Option is a function that configures snapshot Options.
type Option func(*Options)

// Defaults returns the default snapshot options.
func Defaults() *Options {
	return &Options{
		Query:           catalogs.DefaultSnapshotQuery,
		PollInterval:    constants.PollInterval,
		MaxPollWait:     constants.MaxPollWait,
		DownloadTimeout: constants.DownloadTimeout,
		MaxLineSize:     constants.MaxLineSize,
		Clock:           clock.Real(),
	}
}

// Apply applies the given options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validate checks if the snapshot options are valid.
func (o *Options) Validate() error {
	if o.Query == "" {
		return errors.NewValidationError("Query", o.Query, "query must not be empty")
	}
	if o.PollInterval <= 0 {
		return errors.NewValidationError("PollInterval", o.PollInterval, "must be positive")
	}
	if o.MaxPollWait < o.PollInterval {
		return errors.NewValidationError("MaxPollWait", o.MaxPollWait, "must be at least the poll interval")
	}
	if o.Clock == nil {
		return errors.NewValidationError("Clock", nil, "clock is required")
	}
	return nil
}

// WithQuery overrides the bulk query.
func WithQuery(q string) Option {
	return func(o *Options) { o.Query = q }
}

// WithPollInterval sets the delay between polls.
func WithPollInterval(d time.Duration) Option {
	return func(o *Options) { o.PollInterval = d }
}

// WithMaxPollWait sets the absolute poll deadline.
func WithMaxPollWait(d time.Duration) Option {
	return func(o *Options) { o.MaxPollWait = d }
}

// WithDownloadTimeout bounds the result download.
func WithDownloadTimeout(d time.Duration) Option {
	return func(o *Options) { o.DownloadTimeout = d }
}

// WithClock injects the clock used for polling.
func WithClock(c clock.Clock) Option {
	return func(o *Options) { o.Clock = c }
}
