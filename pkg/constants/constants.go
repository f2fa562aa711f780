// Package constants provides shared constants used throughout the catalogsync codebase.
// This includes timeouts, batch caps, polling cadence, and other values that
// must stay consistent between the engine, the CLI, and the API server.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to feeds and catalog APIs
	DefaultHTTPTimeout = 30 * time.Second

	// DownloadTimeout bounds the download of a bulk query result file
	DownloadTimeout = 5 * time.Minute

	// RunTimeout is the timeout for a single scheduled reconciliation run
	RunTimeout = 30 * time.Minute

	// HistoryWriteTimeout bounds a single history store write
	HistoryWriteTimeout = 5 * time.Second

	// ShutdownTimeout is how long shutdown waits for in-flight work
	ShutdownTimeout = 5 * time.Second

	// DefaultSyncInterval is the default interval between scheduled runs
	DefaultSyncInterval = 24 * time.Hour
)

// Bulk job polling
const (
	// PollInterval is the fixed delay between bulk job status polls
	PollInterval = 5 * time.Second

	// MaxPollWait is the absolute wall-clock limit for a bulk job to reach a terminal state
	MaxPollWait = 10 * time.Minute
)

// Mutation batching
const (
	// PriceBatchSize is the maximum number of variant price changes per mutation request
	PriceBatchSize = 10

	// FlagBatchSize is the maximum number of flag changes per mutation request
	FlagBatchSize = 25

	// InterBatchDelay is the pause between mutation batches
	InterBatchDelay = 1 * time.Second

	// InterTenantDelay is the pause between tenants in a multi-tenant run
	InterTenantDelay = 2 * time.Second
)

// Validation defaults
const (
	// MaxDiscountPercentage is the largest accepted discount against the advised price
	MaxDiscountPercentage = 90.0

	// BasePriceTolerance is the accepted drift, in percent, between the current and new compare-at price
	BasePriceTolerance = 5.0

	// MinPriceThreshold is the lowest accepted selling price
	MinPriceThreshold = 0.01

	// MaxPriceThreshold is the highest accepted selling price
	MaxPriceThreshold = 10000.0
)

// Limit constants define various limits and capacities
const (
	// SampleLimit is the number of samples of each kind kept in a run result
	SampleLimit = 50

	// MaxErrorSamples is the number of error strings a single component keeps
	MaxErrorSamples = 100

	// HistoryQueueSize is the capacity of the background history write queue
	HistoryQueueSize = 256

	// MaxLineSize is the largest NDJSON line accepted from a bulk query result
	MaxLineSize = 4 * 1024 * 1024

	// MaxConcurrentTenants caps the tenant worker pool
	MaxConcurrentTenants = 4
)

// Rate limiting constants
const (
	// DefaultRateLimit is the default requests per second against a catalog API
	DefaultRateLimit = 2.0

	// BurstSize is the token bucket burst size for rate limiting
	BurstSize = 4
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Path constants
const (
	// DefaultConfigName is the config file name searched in $HOME and the working directory
	DefaultConfigName = ".catalogsync"

	// DefaultHistoryPath is the default directory for the file history store
	DefaultHistoryPath = "~/.catalogsync/history"
)

// Format constants
const (
	// TimeFormatHuman is a human-readable time format
	TimeFormatHuman = "Jan 2, 2006 at 3:04pm MST"

	// TimeFormatLog is the format used in log files
	TimeFormatLog = "2006-01-02 15:04:05.000"
)
