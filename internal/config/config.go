// Package config loads the application configuration: tenants, the
// reconciliation rules, server and scheduling settings. Values come from
// a YAML config file, CATALOGSYNC_ prefixed environment variables and
// .env files, and are checked with struct tags before use.
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/pkg/catalogs"
	"github.com/agentstation/catalogsync/pkg/constants"
	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/validate"
)

// EnvPrefix prefixes every environment override, e.g. CATALOGSYNC_SERVER_ADDR.
const EnvPrefix = "CATALOGSYNC"

// Config is the full application configuration.
type Config struct {
	Tenants   []TenantConfig  `mapstructure:"tenants" validate:"dive"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Server    ServerConfig    `mapstructure:"server"`
	AutoSync  AutoSyncConfig  `mapstructure:"autosync"`

	// Concurrency is the number of tenants a multi-tenant run processes at once.
	Concurrency      int           `mapstructure:"concurrency" validate:"gte=1"`
	InterTenantDelay time.Duration `mapstructure:"inter_tenant_delay" validate:"gte=0"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// TenantConfig declares one tenant catalog.
type TenantConfig struct {
	ID          string        `mapstructure:"id" validate:"required,excludesall=: "`
	AdminURL    string        `mapstructure:"admin_url" validate:"required,url"`
	TokenEnv    string        `mapstructure:"token_env" validate:"required"`
	TokenHeader string        `mapstructure:"token_header"`
	RateLimit   float64       `mapstructure:"rate_limit" validate:"gte=0"`
	Feed        FeedConfig    `mapstructure:"feed"`
	History     HistoryConfig `mapstructure:"history"`
}

// FeedConfig locates the tenant's pricing feed.
type FeedConfig struct {
	URL        string `mapstructure:"url" validate:"required"`
	AuthHeader string `mapstructure:"auth_header"`
	AuthEnv    string `mapstructure:"auth_env" validate:"required_with=AuthHeader"`
	Delimiter  string `mapstructure:"delimiter" validate:"omitempty,len=1"`
}

// History backends.
const (
	BackendMemory   = "memory"
	BackendFiles    = "files"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// HistoryConfig selects the history store backend.
type HistoryConfig struct {
	Backend   string `mapstructure:"backend" validate:"omitempty,oneof=memory files redis postgres"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url" validate:"required_if=Backend redis"`
	DSN       string `mapstructure:"dsn" validate:"required_if=Backend postgres"`
	Namespace string `mapstructure:"namespace"`
	Table     string `mapstructure:"table"`
}

// ReconcileConfig holds the per-run rules and pacing. Durations are
// milliseconds to match the established configuration keys.
type ReconcileConfig struct {
	MaxDiscountPercentage  float64 `mapstructure:"max_discount_percentage" validate:"gte=0,lte=100"`
	EnforceBasePriceMatch  bool    `mapstructure:"enforce_base_price_match"`
	BasePriceTolerance     float64 `mapstructure:"base_price_tolerance" validate:"gte=0,lte=100"`
	MinPriceThreshold      float64 `mapstructure:"min_price_threshold" validate:"gte=0"`
	MaxPriceThreshold      float64 `mapstructure:"max_price_threshold" validate:"gtfield=MinPriceThreshold"`
	BatchSizePriceMutation int     `mapstructure:"batch_size_price_mutation" validate:"gte=1,lte=10"`
	BatchSizeFlagMutation  int     `mapstructure:"batch_size_flag_mutation" validate:"gte=1,lte=25"`
	PollIntervalMs         int64   `mapstructure:"poll_interval_ms" validate:"gt=0"`
	MaxPollWaitMs          int64   `mapstructure:"max_poll_wait_ms" validate:"gtefield=PollIntervalMs"`
	InterBatchDelayMs      int64   `mapstructure:"inter_batch_delay_ms" validate:"gte=0"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr      string `mapstructure:"addr" validate:"required"`
	APIKeyEnv string `mapstructure:"api_key_env"`
	Metrics   bool   `mapstructure:"metrics"`
}

// AutoSyncConfig configures scheduled runs.
type AutoSyncConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval" validate:"gte=0"`
}

var structValidator = validator.New()

// defaults registers every known key so environment overrides reach Unmarshal.
func defaults(v *viper.Viper) {
	v.SetDefault("reconcile.max_discount_percentage", constants.MaxDiscountPercentage)
	v.SetDefault("reconcile.enforce_base_price_match", true)
	v.SetDefault("reconcile.base_price_tolerance", constants.BasePriceTolerance)
	v.SetDefault("reconcile.min_price_threshold", constants.MinPriceThreshold)
	v.SetDefault("reconcile.max_price_threshold", constants.MaxPriceThreshold)
	v.SetDefault("reconcile.batch_size_price_mutation", constants.PriceBatchSize)
	v.SetDefault("reconcile.batch_size_flag_mutation", constants.FlagBatchSize)
	v.SetDefault("reconcile.poll_interval_ms", constants.PollInterval.Milliseconds())
	v.SetDefault("reconcile.max_poll_wait_ms", constants.MaxPollWait.Milliseconds())
	v.SetDefault("reconcile.inter_batch_delay_ms", constants.InterBatchDelay.Milliseconds())

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.api_key_env", "CATALOGSYNC_API_KEY")
	v.SetDefault("server.metrics", true)

	v.SetDefault("autosync.enabled", false)
	v.SetDefault("autosync.interval", constants.DefaultSyncInterval)

	v.SetDefault("concurrency", 1)
	v.SetDefault("inter_tenant_delay", constants.InterTenantDelay)
}

// Load reads configuration into v. An explicit file must exist; otherwise
// .catalogsync.yaml is searched in the working directory and $HOME and may
// be absent.
func Load(v *viper.Viper, file string) (*Config, error) {
	defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "cannot read "+file, err)
		}
	} else {
		v.SetConfigName(constants.DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !stderrors.As(err, &notFound) {
				return nil, errors.NewConfigError("config", "cannot parse config file", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.NewConfigError("config", "cannot decode configuration", err)
	}
	cfg.File = v.ConfigFileUsed()
	if cfg.File != "" {
		cfg.resolvePaths(filepath.Dir(cfg.File))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFiles loads .env then .env.local into the process environment.
// Variables already set are kept.
func LoadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}

// resolvePaths makes relative file locations relative to the config file.
func (c *Config) resolvePaths(dir string) {
	for i := range c.Tenants {
		h := &c.Tenants[i].History
		if h.Path != "" && !filepath.IsAbs(h.Path) && !strings.HasPrefix(h.Path, "~") {
			h.Path = filepath.Join(dir, h.Path)
		}
	}
}

// Validate checks struct tags, tenant id uniqueness and the derived engine config.
func (c *Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		return validationError(err)
	}
	seen := make(map[string]bool, len(c.Tenants))
	for _, t := range c.Tenants {
		if seen[t.ID] {
			return errors.NewValidationError("tenants.id", t.ID, "duplicate tenant id")
		}
		seen[t.ID] = true
	}
	return c.Reconcile.Engine().Validate()
}

// Tenant returns the tenant with the given id.
func (c *Config) Tenant(id string) (*TenantConfig, error) {
	for i := range c.Tenants {
		if c.Tenants[i].ID == id {
			return &c.Tenants[i], nil
		}
	}
	return nil, errors.NewNotFoundError("tenant", id)
}

// TenantIDs lists configured tenants in declaration order.
func (c *Config) TenantIDs() []string {
	ids := make([]string, len(c.Tenants))
	for i, t := range c.Tenants {
		ids[i] = t.ID
	}
	return ids
}

// Engine converts the rules into the engine's run config.
func (r ReconcileConfig) Engine() catalogsync.Config {
	return catalogsync.Config{
		Validation: validate.Config{
			MaxDiscountPercentage: r.MaxDiscountPercentage,
			EnforceBasePriceMatch: r.EnforceBasePriceMatch,
			BasePriceTolerance:    r.BasePriceTolerance,
			MinPriceThreshold:     decimal.NewFromFloat(r.MinPriceThreshold),
			MaxPriceThreshold:     decimal.NewFromFloat(r.MaxPriceThreshold),
		},
		PriceBatchSize:  r.BatchSizePriceMutation,
		FlagBatchSize:   r.BatchSizeFlagMutation,
		PollInterval:    time.Duration(r.PollIntervalMs) * time.Millisecond,
		MaxPollWait:     time.Duration(r.MaxPollWaitMs) * time.Millisecond,
		InterBatchDelay: time.Duration(r.InterBatchDelayMs) * time.Millisecond,
		Query:           catalogs.DefaultSnapshotQuery,
	}
}

// validationError reports the first failing field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg := "failed " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		return &errors.ValidationError{Field: fe.Namespace(), Value: fe.Value(), Message: msg}
	}
	return errors.WrapValidation("config", fmt.Errorf("invalid configuration: %w", err))
}
