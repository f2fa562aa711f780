package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/pkg/history"
	"github.com/agentstation/catalogsync/pkg/revert"
	"github.com/agentstation/catalogsync/pkg/validate"
)

// fakeHooks keeps registered callbacks so tests can fire them.
type fakeHooks struct {
	runCompleted     []catalogsync.RunCompletedHook
	flagRunCompleted []catalogsync.FlagRunCompletedHook
	runFailed        []catalogsync.RunFailedHook
	variantUpdated   []catalogsync.VariantUpdatedHook
	runReverted      []catalogsync.RunRevertedHook
}

func (f *fakeHooks) OnRunCompleted(fn catalogsync.RunCompletedHook) {
	f.runCompleted = append(f.runCompleted, fn)
}

func (f *fakeHooks) OnFlagRunCompleted(fn catalogsync.FlagRunCompletedHook) {
	f.flagRunCompleted = append(f.flagRunCompleted, fn)
}

func (f *fakeHooks) OnRunFailed(fn catalogsync.RunFailedHook) {
	f.runFailed = append(f.runFailed, fn)
}

func (f *fakeHooks) OnVariantUpdated(fn catalogsync.VariantUpdatedHook) {
	f.variantUpdated = append(f.variantUpdated, fn)
}

func (f *fakeHooks) OnRunReverted(fn catalogsync.RunRevertedHook) {
	f.runReverted = append(f.runReverted, fn)
}

func TestRegister(t *testing.T) {
	m := New()
	h := &fakeHooks{}
	m.Register(h)

	require.Len(t, h.runCompleted, 1)
	require.Len(t, h.flagRunCompleted, 1)
	require.Len(t, h.runFailed, 1)
	require.Len(t, h.runReverted, 1)
	assert.Empty(t, h.variantUpdated)

	start := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	h.runCompleted[0](&catalogsync.RunResult{
		Tenant:           "nl",
		TriggeredBy:      history.TriggeredScheduled,
		StartedAt:        utc.New(start),
		Duration:         42 * time.Second,
		ValidMatches:     7,
		InvalidMatches:   2,
		ViolationsByCode: map[validate.Code]int{validate.CodeDiscountTooLarge: 2},
		Successful:       6,
		Failed:           1,
	})
	h.runCompleted[0](&catalogsync.RunResult{Tenant: "nl", TriggeredBy: history.TriggeredManual, DryRun: true, ValidMatches: 3})
	h.flagRunCompleted[0](&catalogsync.FlagResult{Tenant: "nl", TriggeredBy: history.TriggeredManual, Successful: 4})
	h.runFailed[0]("be", "run_x", errors.New("feed down"))
	h.runReverted[0](&revert.Result{Tenant: "nl", Successful: 5, Failed: 1})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("nl", "prices", "scheduled", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("nl", "prices", "manual", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("nl", "flags", "manual", "false")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.matches.WithLabelValues("nl", "true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.violations.WithLabelValues("nl", "discount_too_large")))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.mutations.WithLabelValues("nl", "successful")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("nl", "failed")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.flagChanges.WithLabelValues("nl", "successful")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("be")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.reverts.WithLabelValues("nl", "successful")))
	assert.Equal(t, float64(start.Unix()), testutil.ToFloat64(m.lastSuccess.WithLabelValues("nl")))
}

func TestHandler(t *testing.T) {
	m := New()
	h := &fakeHooks{}
	m.Register(h)
	h.runFailed[0]("nl", "run_1", errors.New("boom"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.Contains(text, `catalogsync_run_failures_total{tenant="nl"} 1`), text)
	assert.Contains(t, text, "go_goroutines")
}
