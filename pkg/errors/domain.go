package errors

import (
	"errors"
	"fmt"
)

// FeedFetchError is returned when the feed source cannot be downloaded.
// It is fatal for the run.
type FeedFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *FeedFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("feed fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("feed fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("feed fetch %s failed", e.URL)
}

// Unwrap implements errors.Unwrap
func (e *FeedFetchError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *FeedFetchError) Is(target error) bool {
	return target == ErrFeedUnavailable
}

// FeedRowError describes one rejected feed row.
type FeedRowError struct {
	Row     int
	Field   string
	Message string
}

// Error implements the error interface
func (e *FeedRowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// Is implements errors.Is support
func (e *FeedRowError) Is(target error) bool {
	return target == ErrInvalidInput
}

// BulkJobCode classifies a bulk job failure.
type BulkJobCode string

// Bulk job failure codes.
const (
	BulkJobCreationFailed BulkJobCode = "creation_failed"
	BulkJobTimeout        BulkJobCode = "timeout"
	BulkJobFailed         BulkJobCode = "job_failed"
	BulkJobCanceled       BulkJobCode = "job_canceled"
)

// BulkJobError is returned when the catalog snapshot job does not complete.
type BulkJobError struct {
	Code    BulkJobCode
	JobID   string
	Message string
	Err     error
}

// Error implements the error interface
func (e *BulkJobError) Error() string {
	msg := fmt.Sprintf("bulk job %s", e.Code)
	if e.JobID != "" {
		msg += fmt.Sprintf(" (job %s)", e.JobID)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements errors.Unwrap
func (e *BulkJobError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *BulkJobError) Is(target error) bool {
	if target == ErrBulkJob {
		return true
	}
	return e.Code == BulkJobTimeout && target == ErrTimeout
}

// NewBulkJobError creates a new BulkJobError
func NewBulkJobError(code BulkJobCode, jobID, message string, err error) *BulkJobError {
	return &BulkJobError{Code: code, JobID: jobID, Message: message, Err: err}
}

// MutationBatchError describes a mutation batch the catalog service did not accept.
type MutationBatchError struct {
	Batch int
	Size  int
	Err   error
}

// Error implements the error interface
func (e *MutationBatchError) Error() string {
	return fmt.Sprintf("batch %d (%d items): %v", e.Batch, e.Size, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *MutationBatchError) Unwrap() error {
	return e.Err
}

// HistoryWriteError is logged when a history entry cannot be persisted.
type HistoryWriteError struct {
	Key string
	Err error
}

// Error implements the error interface
func (e *HistoryWriteError) Error() string {
	return fmt.Sprintf("history write %s: %v", e.Key, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *HistoryWriteError) Unwrap() error {
	return e.Err
}

// RevertCode classifies a revert failure.
type RevertCode string

// RevertNoHistory means no history entries exist for the requested run.
const RevertNoHistory RevertCode = "no_history_found"

// RevertError is returned when a run cannot be reverted.
type RevertError struct {
	Code   RevertCode
	Tenant string
	RunID  string
}

// Error implements the error interface
func (e *RevertError) Error() string {
	return fmt.Sprintf("revert %s/%s: %s", e.Tenant, e.RunID, e.Code)
}

// Is implements errors.Is support
func (e *RevertError) Is(target error) bool {
	return e.Code == RevertNoHistory && target == ErrNotFound
}

// BatchSizeError is returned when a mutation batch exceeds the service cap.
type BatchSizeError struct {
	Size int
	Max  int
}

// Error implements the error interface
func (e *BatchSizeError) Error() string {
	return fmt.Sprintf("batch of %d exceeds maximum %d", e.Size, e.Max)
}

// Is implements errors.Is support
func (e *BatchSizeError) Is(target error) bool {
	return target == ErrInvalidInput
}

// BulkJobCodeOf returns the code of a BulkJobError in err's chain.
func BulkJobCodeOf(err error) (BulkJobCode, bool) {
	var bj *BulkJobError
	if errors.As(err, &bj) {
		return bj.Code, true
	}
	return "", false
}
