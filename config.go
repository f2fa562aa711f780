package catalogsync

import (
	"time"

	"github.com/agentstation/catalogsync/pkg/catalogs"
	"github.com/agentstation/catalogsync/pkg/clock"
	"github.com/agentstation/catalogsync/pkg/constants"
	"github.com/agentstation/catalogsync/pkg/mutate"
	"github.com/agentstation/catalogsync/pkg/snapshot"
	"github.com/agentstation/catalogsync/pkg/validate"
)

// Config is the reconciliation config passed explicitly into every run.
type Config struct {
	Validation      validate.Config `json:"validation" yaml:"validation"`
	PriceBatchSize  int             `json:"price_batch_size" yaml:"price_batch_size"`
	FlagBatchSize   int             `json:"flag_batch_size" yaml:"flag_batch_size"`
	PollInterval    time.Duration   `json:"poll_interval" yaml:"poll_interval"`
	MaxPollWait     time.Duration   `json:"max_poll_wait" yaml:"max_poll_wait"`
	InterBatchDelay time.Duration   `json:"inter_batch_delay" yaml:"inter_batch_delay"`
	Query           string          `json:"-" yaml:"-"`
}

// DefaultConfig returns the default reconciliation config.
func DefaultConfig() Config {
	return Config{
		Validation:      validate.DefaultConfig(),
		PriceBatchSize:  constants.PriceBatchSize,
		FlagBatchSize:   constants.FlagBatchSize,
		PollInterval:    constants.PollInterval,
		MaxPollWait:     constants.MaxPollWait,
		InterBatchDelay: constants.InterBatchDelay,
		Query:           catalogs.DefaultSnapshotQuery,
	}
}

// Validate checks every part of the config.
func (c Config) Validate() error {
	if err := c.Validation.Validate(); err != nil {
		return err
	}
	if err := snapshot.Defaults().Apply(c.snapshotOptions(clock.Real())...).Validate(); err != nil {
		return err
	}
	return mutate.Defaults().Apply(c.mutatorOptions(clock.Real())...).Validate()
}

func (c Config) snapshotOptions(clk clock.Clock) []snapshot.Option {
	opts := []snapshot.Option{
		snapshot.WithPollInterval(c.PollInterval),
		snapshot.WithMaxPollWait(c.MaxPollWait),
		snapshot.WithClock(clk),
	}
	if c.Query != "" {
		opts = append(opts, snapshot.WithQuery(c.Query))
	}
	return opts
}

func (c Config) mutatorOptions(clk clock.Clock) []mutate.Option {
	return []mutate.Option{
		mutate.WithPriceBatchSize(c.PriceBatchSize),
		mutate.WithFlagBatchSize(c.FlagBatchSize),
		mutate.WithDelay(c.InterBatchDelay),
		mutate.WithClock(clk),
	}
}
