package catalogsync

import (
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/catalogsync/pkg/constants"
	"github.com/agentstation/catalogsync/pkg/history"
	"github.com/agentstation/catalogsync/pkg/validate"
)

// RunResult summarizes one price run. Counts are exact; sample lists are
// capped by the client's sample limit.
type RunResult struct {
	RunID       string              `json:"run_id" yaml:"run_id"`
	Tenant      string              `json:"tenant" yaml:"tenant"`
	TriggeredBy history.TriggeredBy `json:"triggered_by" yaml:"triggered_by"`
	DryRun      bool                `json:"dry_run" yaml:"dry_run"`
	StartedAt   utc.Time            `json:"started_at" yaml:"started_at"`
	Duration    time.Duration       `json:"duration" yaml:"duration"`

	// Feed
	SourceTotal     int `json:"source_total" yaml:"source_total"`
	FeedInvalidRows int `json:"feed_invalid_rows" yaml:"feed_invalid_rows"`

	// Catalog
	CatalogVariants int    `json:"catalog_variants" yaml:"catalog_variants"`
	SnapshotJobID   string `json:"snapshot_job_id,omitempty" yaml:"snapshot_job_id,omitempty"`
	SharedMatchKeys int    `json:"shared_match_keys" yaml:"shared_match_keys"`
	Unmatched       int    `json:"unmatched" yaml:"unmatched"`

	// Matching and validation
	TotalMatches     int                   `json:"total_matches" yaml:"total_matches"`
	ValidMatches     int                   `json:"valid_matches" yaml:"valid_matches"`
	InvalidMatches   int                   `json:"invalid_matches" yaml:"invalid_matches"`
	ViolationsByCode map[validate.Code]int `json:"violations_by_code,omitempty" yaml:"violations_by_code,omitempty"`
	PriceIncreases   int                   `json:"price_increases" yaml:"price_increases"`
	PriceDecreases   int                   `json:"price_decreases" yaml:"price_decreases"`
	PriceUnchanged   int                   `json:"price_unchanged" yaml:"price_unchanged"`

	// Mutation
	Successful      int `json:"successful" yaml:"successful"`
	Failed          int `json:"failed" yaml:"failed"`
	Batches         int `json:"batches" yaml:"batches"`
	HistoryFailures int `json:"history_failures" yaml:"history_failures"`

	// Samples
	Updates    []history.UpdateSample `json:"updates,omitempty" yaml:"updates,omitempty"`
	Violations []validate.Violation   `json:"violations,omitempty" yaml:"violations,omitempty"`
	Errors     []string               `json:"errors,omitempty" yaml:"errors,omitempty"`
	FeedErrors []string               `json:"feed_errors,omitempty" yaml:"feed_errors,omitempty"`
}

// FlagResult summarizes one availability flag run.
type FlagResult struct {
	RunID       string              `json:"run_id" yaml:"run_id"`
	Tenant      string              `json:"tenant" yaml:"tenant"`
	TriggeredBy history.TriggeredBy `json:"triggered_by" yaml:"triggered_by"`
	DryRun      bool                `json:"dry_run" yaml:"dry_run"`
	StartedAt   utc.Time            `json:"started_at" yaml:"started_at"`
	Duration    time.Duration       `json:"duration" yaml:"duration"`

	SourceKeys    int      `json:"source_keys" yaml:"source_keys"`
	TotalVariants int      `json:"total_variants" yaml:"total_variants"`
	Available     int      `json:"available" yaml:"available"`
	Unavailable   int      `json:"unavailable" yaml:"unavailable"`
	Changed       int      `json:"changed" yaml:"changed"`
	Successful    int      `json:"successful" yaml:"successful"`
	Failed        int      `json:"failed" yaml:"failed"`
	Errors        []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// sample returns at most limit elements of items. A non-positive limit
// keeps them all.
func sample[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit:limit]
	}
	return items
}

// boundedLimit is the cap for lists that are never unbounded.
func boundedLimit(limit int) int {
	if limit <= 0 {
		return constants.SampleLimit
	}
	return limit
}
