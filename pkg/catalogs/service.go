// Package catalogs defines the contract between the reconciliation engine and
// a product catalog service: the asynchronous bulk query protocol used to
// snapshot the catalog, and the two batched mutation endpoints.
package catalogs

import (
	"context"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// Service is a product catalog that can be snapshotted and mutated.
type Service interface {
	// SubmitBulkQuery starts an asynchronous bulk export of query.
	SubmitBulkQuery(ctx context.Context, query string) (*Submission, error)

	// PollJob reports the status of a previously submitted bulk job.
	PollJob(ctx context.Context, jobID string) (*JobStatus, error)

	// Download opens the NDJSON result file of a completed job.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// UpdatePrices applies one batch of price changes.
	UpdatePrices(ctx context.Context, changes []PriceChange) (*MutationResult, error)

	// UpdateFlags applies one batch of availability flag changes.
	UpdateFlags(ctx context.Context, changes []FlagChange) (*MutationResult, error)
}

// JobState is the lifecycle state of a bulk job.
type JobState string

// Bulk job states.
const (
	JobCreated   JobState = "CREATED"
	JobRunning   JobState = "RUNNING"
	JobCompleted JobState = "COMPLETED"
	JobFailed    JobState = "FAILED"
	JobCanceled  JobState = "CANCELED"
)

// Terminal reports whether no further transitions are possible from s.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCanceled
}

// Submission is the response to a bulk query submission.
type Submission struct {
	JobID      string
	Status     JobState
	UserErrors []UserError
}

// JobStatus is a point-in-time view of a bulk job.
type JobStatus struct {
	ID          string
	Status      JobState
	ErrorCode   string
	ObjectCount int64
	URL         string
}

// UserError is a business-level error reported by the catalog service.
type UserError struct {
	Field   []string `json:"field,omitempty"`
	Message string   `json:"message"`
}

// String renders the error as "field.path: message".
func (e UserError) String() string {
	if len(e.Field) == 0 {
		return e.Message
	}
	return strings.Join(e.Field, ".") + ": " + e.Message
}

// PriceChange sets the price of one variant. A nil CompareAtPrice clears it.
type PriceChange struct {
	ProductID      string
	VariantID      string
	Price          decimal.Decimal
	CompareAtPrice *decimal.Decimal
}

// FlagChange sets the availability flag of one variant.
type FlagChange struct {
	ProductID string
	VariantID string
	Value     bool
}

// MutationResult is the outcome of one mutation batch. Accepted holds the
// variant IDs the service applied; the rest of the batch was rejected.
type MutationResult struct {
	Accepted   []string
	UserErrors []UserError
}
