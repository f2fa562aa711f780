package snapshot_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/catalogsync/pkg/catalogs"
	"github.com/agentstation/catalogsync/pkg/catalogs/memory"
	"github.com/agentstation/catalogsync/pkg/clock"
	pkgerrors "github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/logging"
	"github.com/agentstation/catalogsync/pkg/snapshot"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seeded(opts ...memory.Option) *memory.Service {
	cap50 := dec("50")
	base := []memory.Option{memory.WithEntries(
		catalogs.Entry{ProductID: "p1", VariantID: "v1", MatchKey: "EAN123", CurrentPrice: dec("50"), CurrentCompareAtPrice: &cap50},
		catalogs.Entry{ProductID: "p1", VariantID: "v2", MatchKey: "EAN123", CurrentPrice: dec("52")},
		catalogs.Entry{ProductID: "p2", VariantID: "v3", CurrentPrice: dec("9")},
	)}
	return memory.New(append(base, opts...)...)
}

func TestJobTransitions(t *testing.T) {
	tests := []struct {
		from, to catalogs.JobState
		ok       bool
	}{
		{catalogs.JobCreated, catalogs.JobRunning, true},
		{catalogs.JobCreated, catalogs.JobCompleted, true},
		{catalogs.JobRunning, catalogs.JobRunning, true},
		{catalogs.JobRunning, catalogs.JobFailed, true},
		{catalogs.JobRunning, catalogs.JobCreated, false},
		{catalogs.JobCompleted, catalogs.JobRunning, false},
		{catalogs.JobFailed, catalogs.JobCompleted, false},
		{catalogs.JobCanceled, catalogs.JobCanceled, false},
		{catalogs.JobRunning, catalogs.JobState("EXPLODED"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, snapshot.CanTransition(tt.from, tt.to))
		})
	}

	job := snapshot.NewJob("j1")
	require.NoError(t, job.Advance(&catalogs.JobStatus{Status: catalogs.JobRunning}))
	require.NoError(t, job.Advance(&catalogs.JobStatus{Status: catalogs.JobCompleted, URL: "u"}))
	assert.True(t, job.Done())
	assert.Error(t, job.Advance(&catalogs.JobStatus{Status: catalogs.JobRunning}))
	assert.Equal(t, catalogs.JobCompleted, job.State())
	assert.Equal(t, 2, job.Polls())
}

func TestLoaderCompletes(t *testing.T) {
	fake := clock.NewFake(epoch)
	svc := seeded(memory.WithJobScript(catalogs.JobCreated, catalogs.JobRunning, catalogs.JobRunning, catalogs.JobCompleted))
	loader, err := snapshot.NewLoader(svc, snapshot.WithClock(fake))
	require.NoError(t, err)

	snap, err := loader.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, snap.Polls)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second, 5 * time.Second}, fake.Sleeps())
	assert.Equal(t, 15*time.Second, snap.Duration)

	assert.Equal(t, 1, snap.Index.Len())
	assert.Len(t, snap.Index.Get("EAN123"), 2)
	assert.Equal(t, 3, snap.Stats.Variants)
	assert.Equal(t, 1, snap.Stats.WithoutKey)
	assert.Equal(t, 2, snap.Stats.Products)
	assert.Equal(t, []string{catalogs.DefaultSnapshotQuery}, svc.Queries())
}

func TestLoaderTimeout(t *testing.T) {
	fake := clock.NewFake(epoch)
	svc := seeded(memory.WithJobScript(catalogs.JobRunning))
	loader, err := snapshot.NewLoader(svc, snapshot.WithClock(fake))
	require.NoError(t, err)

	idx, err := loader.Load(context.Background())
	require.Error(t, err)
	assert.Nil(t, idx)

	var bj *pkgerrors.BulkJobError
	require.ErrorAs(t, err, &bj)
	assert.Equal(t, pkgerrors.BulkJobTimeout, bj.Code)
	assert.True(t, pkgerrors.IsTimeout(err))
	assert.Equal(t, 121, svc.Polls())
	assert.Equal(t, 10*time.Minute, fake.Slept())
}

func TestLoaderTerminalFailures(t *testing.T) {
	tests := []struct {
		name string
		opts []memory.Option
		code pkgerrors.BulkJobCode
		msg  string
	}{
		{
			name: "submit transport error",
			opts: []memory.Option{memory.WithSubmitError(errors.New("dial tcp: refused"))},
			code: pkgerrors.BulkJobCreationFailed,
		},
		{
			name: "submit user errors",
			opts: []memory.Option{memory.WithSubmitUserErrors(catalogs.UserError{Field: []string{"query"}, Message: "invalid"})},
			code: pkgerrors.BulkJobCreationFailed,
			msg:  "query: invalid",
		},
		{
			name: "job failed",
			opts: []memory.Option{memory.WithJobScript(catalogs.JobRunning, catalogs.JobFailed), memory.WithJobErrorCode("INTERNAL_SERVER_ERROR")},
			code: pkgerrors.BulkJobFailed,
			msg:  "INTERNAL_SERVER_ERROR",
		},
		{
			name: "job canceled",
			opts: []memory.Option{memory.WithJobScript(catalogs.JobCanceled)},
			code: pkgerrors.BulkJobCanceled,
		},
		{
			name: "download failure",
			opts: []memory.Option{memory.WithDownloadError(errors.New("403"))},
			code: pkgerrors.BulkJobFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, err := snapshot.NewLoader(seeded(tt.opts...), snapshot.WithClock(clock.NewFake(epoch)))
			require.NoError(t, err)

			_, err = loader.Load(context.Background())
			var bj *pkgerrors.BulkJobError
			require.ErrorAs(t, err, &bj)
			assert.Equal(t, tt.code, bj.Code)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, bj.Message)
			}
			assert.True(t, pkgerrors.IsFatal(err))
		})
	}
}

func TestLoaderRetriesTransientPollErrors(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	svc := seeded(memory.WithPollFailures(2, errors.New("502 bad gateway")))
	loader, err := snapshot.NewLoader(svc, snapshot.WithClock(clock.NewFake(epoch)))
	require.NoError(t, err)

	idx, err := loader.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Size())
	assert.Equal(t, 3, svc.Polls())
	tl.AssertContains(t, "bulk job poll failed, retrying")
}

func TestLoaderEmptyResult(t *testing.T) {
	loader, err := snapshot.NewLoader(seeded(memory.WithEmptyResult()), snapshot.WithClock(clock.NewFake(epoch)))
	require.NoError(t, err)

	idx, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, idx.Len())
}

func TestLoaderContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader, err := snapshot.NewLoader(seeded(memory.WithJobScript(catalogs.JobRunning)), snapshot.WithClock(clock.NewFake(epoch)))
	require.NoError(t, err)

	_, err = loader.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewLoaderValidates(t *testing.T) {
	_, err := snapshot.NewLoader(seeded(), snapshot.WithPollInterval(0))
	assert.True(t, pkgerrors.IsValidationError(err))

	_, err = snapshot.NewLoader(seeded(), snapshot.WithPollInterval(time.Minute), snapshot.WithMaxPollWait(time.Second))
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestParseIndexSkipsMalformed(t *testing.T) {
	in := strings.Join([]string{
		`{"id":"p1"}`,
		`{"id":"v1","barcode":"A","price":"1.00","__parentId":"p1"}`,
		`not json`,
		``,
		`{"id":"v2","barcode":"B","__parentId":"p1"}`,
		`{"id":"v3","barcode":"","price":"2.00","__parentId":"p1"}`,
	}, "\n")

	idx, stats, err := snapshot.ParseIndex(strings.NewReader(in), 1024)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, idx.Keys())
	assert.Equal(t, snapshot.IndexStats{Lines: 5, Products: 1, Variants: 2, WithoutKey: 1, Malformed: 2}, stats)
}

func TestParseIndexSkipsOversizedLines(t *testing.T) {
	in := strings.Join([]string{
		`{"id":"p1"}`,
		`{"id":"v1","barcode":"A","price":"1.00","__parentId":"p1"}`,
		strings.Repeat("x", 300),
		`{"id":"v2","barcode":"B","price":"2.00","__parentId":"p1"}`,
	}, "\n")

	idx, stats, err := snapshot.ParseIndex(strings.NewReader(in), 256)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, idx.Keys())
	assert.Equal(t, snapshot.IndexStats{Lines: 4, Products: 1, Variants: 2, Malformed: 1}, stats)
}

func TestParseIndexOversizedLastLine(t *testing.T) {
	in := `{"id":"v1","barcode":"A","price":"1.00","__parentId":"p1"}` + "\n" + strings.Repeat("x", 500)

	idx, stats, err := snapshot.ParseIndex(strings.NewReader(in), 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, idx.Keys())
	assert.Equal(t, 1, stats.Malformed)
}
