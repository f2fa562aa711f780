package revert_test

import (
	"context"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/catalogsync/internal/utils/ptr"
	"github.com/agentstation/catalogsync/pkg/catalogs"
	"github.com/agentstation/catalogsync/pkg/catalogs/memory"
	"github.com/agentstation/catalogsync/pkg/clock"
	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/history"
	historymem "github.com/agentstation/catalogsync/pkg/history/memory"
	"github.com/agentstation/catalogsync/pkg/match"
	"github.com/agentstation/catalogsync/pkg/mutate"
	"github.com/agentstation/catalogsync/pkg/revert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var t0 = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

func newMutator(t *testing.T) *mutate.Mutator {
	t.Helper()
	m, err := mutate.New(mutate.WithClock(clock.NewFake(t0)))
	require.NoError(t, err)
	return m
}

// applyRun mutates matches and records the history the engine would write.
func applyRun(t *testing.T, svc catalogs.Service, store history.Store, runID string, matches []match.PriceMatch) {
	t.Helper()
	ctx := context.Background()
	res := newMutator(t).Prices(ctx, svc, matches)
	accepted := make(map[string]bool)
	for _, id := range res.SuccessfulIDs {
		accepted[id] = true
	}
	for i, m := range matches {
		if !accepted[m.VariantID] {
			continue
		}
		e := history.Entry{
			UpdateSample: history.UpdateSample{
				ProductID: m.ProductID, VariantID: m.VariantID, MatchKey: m.MatchKey,
				OldPrice: m.CurrentPrice, OldCompareAtPrice: m.CurrentCompareAtPrice,
				NewPrice: m.NewPrice, NewCompareAtPrice: m.NewCompareAtPrice, PriceChange: m.PriceChange,
			},
			Timestamp:   utc.New(t0.Add(time.Duration(i) * time.Millisecond)),
			RunID:       runID,
			TriggeredBy: history.TriggeredManual,
			Tenant:      "shop",
		}
		require.NoError(t, store.Put(ctx, e.Key(), e))
	}
}

func TestRevertRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := memory.New(memory.WithEntries(
		catalogs.Entry{ProductID: "p1", VariantID: "v1", MatchKey: "EAN1", CurrentPrice: dec("50"), CurrentCompareAtPrice: ptr.To(dec("60"))},
		catalogs.Entry{ProductID: "p1", VariantID: "v2", MatchKey: "EAN2", CurrentPrice: dec("30")},
		catalogs.Entry{ProductID: "p2", VariantID: "v3", MatchKey: "EAN3", CurrentPrice: dec("10")},
	))
	store := historymem.New()

	before1, _ := svc.Entry("v1")
	before2, _ := svc.Entry("v2")

	applyRun(t, svc, store, "run_1", []match.PriceMatch{
		{ProductID: "p1", VariantID: "v1", MatchKey: "EAN1", CurrentPrice: dec("50"), CurrentCompareAtPrice: ptr.To(dec("60")),
			NewPrice: dec("45"), NewCompareAtPrice: dec("50"), PriceChange: dec("-5")},
		{ProductID: "p1", VariantID: "v2", MatchKey: "EAN2", CurrentPrice: dec("30"),
			NewPrice: dec("35"), NewCompareAtPrice: dec("40"), PriceChange: dec("5")},
	})
	applyRun(t, svc, store, "run_other", []match.PriceMatch{
		{ProductID: "p2", VariantID: "v3", MatchKey: "EAN3", CurrentPrice: dec("10"),
			NewPrice: dec("9"), NewCompareAtPrice: dec("12"), PriceChange: dec("-1")},
	})
	changed, _ := svc.Entry("v1")
	require.True(t, changed.CurrentPrice.Equal(dec("45")))
	require.Equal(t, 3, store.Len())

	res, err := revert.New(svc, store, newMutator(t)).Revert(ctx, "shop", "run_1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Entries)
	assert.Equal(t, 2, res.Successful)
	assert.Zero(t, res.Failed)
	assert.ElementsMatch(t, []string{"v1", "v2"}, res.RevertedIDs)

	after1, _ := svc.Entry("v1")
	assert.True(t, after1.CurrentPrice.Equal(before1.CurrentPrice))
	require.NotNil(t, after1.CurrentCompareAtPrice)
	assert.True(t, after1.CurrentCompareAtPrice.Equal(*before1.CurrentCompareAtPrice))

	after2, _ := svc.Entry("v2")
	assert.True(t, after2.CurrentPrice.Equal(before2.CurrentPrice))
	assert.Nil(t, after2.CurrentCompareAtPrice, "absent compare-at price is cleared again")

	items, err := history.ListRun(ctx, store, "shop", "run_1")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, store.Len(), "other runs keep their history")
}

func TestRevertWithoutHistory(t *testing.T) {
	svc := memory.New()
	_, err := revert.New(svc, historymem.New(), newMutator(t)).Revert(context.Background(), "shop", "run_missing")
	require.Error(t, err)

	var rerr *errors.RevertError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, errors.RevertNoHistory, rerr.Code)
	assert.True(t, errors.IsNotFound(err))
	assert.Empty(t, svc.PriceCalls())
}

func TestRevertKeepsHistoryOfRejectedVariants(t *testing.T) {
	ctx := context.Background()
	svc := memory.New(memory.WithEntries(
		catalogs.Entry{ProductID: "p1", VariantID: "v1", MatchKey: "A", CurrentPrice: dec("20")},
		catalogs.Entry{ProductID: "p1", VariantID: "v2", MatchKey: "B", CurrentPrice: dec("20")},
	))
	store := historymem.New()
	applyRun(t, svc, store, "run_1", []match.PriceMatch{
		{ProductID: "p1", VariantID: "v1", MatchKey: "A", CurrentPrice: dec("20"), NewPrice: dec("18"), NewCompareAtPrice: dec("20"), PriceChange: dec("-2")},
		{ProductID: "p1", VariantID: "v2", MatchKey: "B", CurrentPrice: dec("20"), NewPrice: dec("18"), NewCompareAtPrice: dec("20"), PriceChange: dec("-2")},
	})

	// v2 becomes locked after the run.
	locked := memory.New(memory.WithEntries(
		catalogs.Entry{ProductID: "p1", VariantID: "v1", MatchKey: "A", CurrentPrice: dec("18")},
		catalogs.Entry{ProductID: "p1", VariantID: "v2", MatchKey: "B", CurrentPrice: dec("18")},
	), memory.WithRejected("v2", "price is locked"))

	res, err := revert.New(locked, store, newMutator(t)).Revert(ctx, "shop", "run_1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{"v1"}, res.RevertedIDs)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "price is locked")

	items, err := history.ListRun(ctx, store, "shop", "run_1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "v2", items[0].Entry.VariantID)
}

func TestPlan(t *testing.T) {
	item := func(vid string, at time.Time, old string) history.Item {
		e := history.Entry{
			UpdateSample: history.UpdateSample{ProductID: "p", VariantID: vid, OldPrice: dec(old)},
			Timestamp:    utc.New(at),
			Tenant:       "shop",
		}
		return history.Item{Key: e.Key(), Entry: e}
	}
	items := []history.Item{
		item("v2", t0.Add(time.Second), "7"),
		item("v1", t0.Add(2*time.Second), "99"),
		item("v1", t0, "5"),
	}

	changes, keys := revert.Plan(items)
	require.Len(t, changes, 2)
	assert.Equal(t, "v1", changes[0].VariantID)
	assert.True(t, changes[0].Price.Equal(dec("5")), "oldest entry wins")
	assert.Nil(t, changes[0].CompareAtPrice)
	assert.Equal(t, "v2", changes[1].VariantID)
	assert.Len(t, keys["v1"], 2)
	assert.Len(t, keys["v2"], 1)
}
