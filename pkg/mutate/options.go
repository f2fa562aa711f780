package mutate

import (
	"time"

	"github.com/agentstation/catalogsync/pkg/clock"
	"github.com/agentstation/catalogsync/pkg/constants"
	"github.com/agentstation/catalogsync/pkg/errors"
)

// Options controls batching.
type Options struct {
	PriceBatchSize int           // Price changes per request, at most constants.PriceBatchSize
	FlagBatchSize  int           // Flag changes per request, at most constants.FlagBatchSize
	Delay          time.Duration // Pause between batches
	MaxErrors      int           // Error strings kept in a Result
	Clock          clock.Clock
}

// Option is a function that configures mutator Options.
type Option func(*Options)

// Defaults returns the default mutator options.
func Defaults() *Options {
	return &Options{
		PriceBatchSize: constants.PriceBatchSize,
		FlagBatchSize:  constants.FlagBatchSize,
		Delay:          constants.InterBatchDelay,
		MaxErrors:      constants.MaxErrorSamples,
		Clock:          clock.Real(),
	}
}

// Apply applies the given options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validate checks if the mutator options are valid.
func (o *Options) Validate() error {
	if o.PriceBatchSize < 1 || o.PriceBatchSize > constants.PriceBatchSize {
		return errors.NewValidationError("PriceBatchSize", o.PriceBatchSize, "must be between 1 and the service cap")
	}
	if o.FlagBatchSize < 1 || o.FlagBatchSize > constants.FlagBatchSize {
		return errors.NewValidationError("FlagBatchSize", o.FlagBatchSize, "must be between 1 and the service cap")
	}
	if o.Delay < 0 {
		return errors.NewValidationError("Delay", o.Delay, "must be non-negative")
	}
	if o.Clock == nil {
		return errors.NewValidationError("Clock", nil, "clock is required")
	}
	return nil
}

// WithPriceBatchSize sets the price batch size.
func WithPriceBatchSize(n int) Option {
	return func(o *Options) { o.PriceBatchSize = n }
}

// WithFlagBatchSize sets the flag batch size.
func WithFlagBatchSize(n int) Option {
	return func(o *Options) { o.FlagBatchSize = n }
}

// WithDelay sets the pause between batches.
func WithDelay(d time.Duration) Option {
	return func(o *Options) { o.Delay = d }
}

// WithMaxErrors caps the error strings kept per result.
func WithMaxErrors(n int) Option {
	return func(o *Options) { o.MaxErrors = n }
}

// WithClock injects the clock used for inter-batch delays.
func WithClock(c clock.Clock) Option {
	return func(o *Options) { o.Clock = c }
}
