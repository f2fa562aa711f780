package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/agentstation/catalogsync/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundError(t *testing.T) {
	t.Run("constructor", func(t *testing.T) {
		err := pkgerrors.NewNotFoundError("tenant", "acme")
		assert.Equal(t, "tenant with ID acme not found", err.Error())
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("joined error", func(t *testing.T) {
		wrapped := errors.Join(errors.New("failed"), pkgerrors.NewNotFoundError("run", "r1"))
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  *pkgerrors.ValidationError
		want string
	}{
		{
			name: "with field",
			err:  pkgerrors.NewValidationError("batch_size", 0, "must be positive"),
			want: "validation failed for field batch_size: must be positive",
		},
		{
			name: "without field",
			err:  &pkgerrors.ValidationError{Message: "bad config"},
			want: "validation failed: bad config",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.True(t, pkgerrors.IsValidationError(tt.err))
		})
	}
}

func TestAPIErrorIs(t *testing.T) {
	tests := []struct {
		status int
		target error
	}{
		{429, pkgerrors.ErrRateLimited},
		{401, pkgerrors.ErrUnauthorized},
		{403, pkgerrors.ErrUnauthorized},
		{502, pkgerrors.ErrProviderUnavailable},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := pkgerrors.NewAPIError("adminapi", tt.status, "nope")
			assert.ErrorIs(t, err, tt.target)
		})
	}

	err := pkgerrors.NewAPIError("adminapi", 400, "bad request")
	assert.NotErrorIs(t, err, pkgerrors.ErrRateLimited)
	assert.Contains(t, err.Error(), "status 400")
}

func TestFeedFetchError(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		err := &pkgerrors.FeedFetchError{URL: "https://feed.example/a.csv", StatusCode: 503}
		assert.Equal(t, "feed fetch https://feed.example/a.csv: unexpected status 503", err.Error())
		assert.True(t, pkgerrors.IsFatal(err))
	})

	t.Run("transport", func(t *testing.T) {
		base := errors.New("connection refused")
		err := fmt.Errorf("sync: %w", &pkgerrors.FeedFetchError{URL: "u", Err: base})
		assert.ErrorIs(t, err, base)
		assert.ErrorIs(t, err, pkgerrors.ErrFeedUnavailable)
	})
}

func TestFeedRowError(t *testing.T) {
	err := &pkgerrors.FeedRowError{Row: 3, Field: "recommendedPrice", Message: "not a number"}
	assert.Equal(t, "row 3: recommendedPrice: not a number", err.Error())

	err = &pkgerrors.FeedRowError{Row: 7, Message: "too few columns"}
	assert.Equal(t, "row 7: too few columns", err.Error())
	assert.False(t, pkgerrors.IsFatal(err))
}

func TestBulkJobError(t *testing.T) {
	tests := []struct {
		name      string
		err       *pkgerrors.BulkJobError
		want      string
		isTimeout bool
	}{
		{
			name:      "timeout",
			err:       pkgerrors.NewBulkJobError(pkgerrors.BulkJobTimeout, "gid://1", "", nil),
			want:      "bulk job timeout (job gid://1)",
			isTimeout: true,
		},
		{
			name: "failed with service code",
			err:  pkgerrors.NewBulkJobError(pkgerrors.BulkJobFailed, "gid://2", "ACCESS_DENIED", nil),
			want: "bulk job job_failed (job gid://2): ACCESS_DENIED",
		},
		{
			name: "creation failed",
			err:  pkgerrors.NewBulkJobError(pkgerrors.BulkJobCreationFailed, "", "", errors.New("boom")),
			want: "bulk job creation_failed: boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.ErrorIs(t, tt.err, pkgerrors.ErrBulkJob)
			assert.Equal(t, tt.isTimeout, pkgerrors.IsTimeout(tt.err))
			assert.True(t, pkgerrors.IsFatal(tt.err))

			code, ok := pkgerrors.BulkJobCodeOf(fmt.Errorf("load: %w", tt.err))
			require.True(t, ok)
			assert.Equal(t, tt.err.Code, code)
		})
	}
}

func TestRevertError(t *testing.T) {
	err := &pkgerrors.RevertError{Code: pkgerrors.RevertNoHistory, Tenant: "acme", RunID: "run_1"}
	assert.Equal(t, "revert acme/run_1: no_history_found", err.Error())
	assert.True(t, pkgerrors.IsNotFound(err))

	var target *pkgerrors.RevertError
	require.True(t, errors.As(fmt.Errorf("api: %w", err), &target))
	assert.Equal(t, "run_1", target.RunID)
}

func TestBatchSizeError(t *testing.T) {
	err := &pkgerrors.BatchSizeError{Size: 11, Max: 10}
	assert.Equal(t, "batch of 11 exceeds maximum 10", err.Error())
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
}

func TestMutationAndHistoryErrors(t *testing.T) {
	base := errors.New("502 bad gateway")

	mb := &pkgerrors.MutationBatchError{Batch: 2, Size: 10, Err: base}
	assert.Equal(t, "batch 2 (10 items): 502 bad gateway", mb.Error())
	assert.ErrorIs(t, mb, base)

	hw := &pkgerrors.HistoryWriteError{Key: "acme:v1:1", Err: base}
	assert.Equal(t, "history write acme:v1:1: 502 bad gateway", hw.Error())
	assert.ErrorIs(t, hw, base)
}

func TestWrapHelpers(t *testing.T) {
	assert.NoError(t, pkgerrors.WrapIO("read", "/tmp/x", nil))
	assert.NoError(t, pkgerrors.WrapResource("fetch", "history", "k", nil))
	assert.NoError(t, pkgerrors.WrapParse("csv", "f.csv", nil))
	assert.NoError(t, pkgerrors.WrapAPI("adminapi", 500, nil))
	assert.NoError(t, pkgerrors.WrapValidation("f", nil))

	base := errors.New("disk full")
	err := pkgerrors.WrapIO("write", "/tmp/x", base)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "IO error during write of /tmp/x: disk full", err.Error())

	err = pkgerrors.WrapAPI("adminapi", 503, base)
	assert.True(t, pkgerrors.IsProviderUnavailable(err))

	err = pkgerrors.WrapResource("delete", "history", "acme:v1:1", base)
	assert.Equal(t, "failed to delete history acme:v1:1: disk full", err.Error())
}
