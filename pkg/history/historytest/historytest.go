// Package historytest holds a conformance suite every history.Store
// implementation runs in its tests.
package historytest

import (
	"context"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/catalogsync/internal/utils/ptr"
	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/history"
)

// Entry returns a sample entry for tenant and variant recorded at ts.
func Entry(tenant, variantID, runID string, ts time.Time) history.Entry {
	return history.Entry{
		UpdateSample: history.UpdateSample{
			ProductID:         "gid://shopify/Product/1",
			VariantID:         variantID,
			MatchKey:          "8712345678901",
			OldPrice:          decimal.RequireFromString("49.95"),
			OldCompareAtPrice: ptr.To(decimal.RequireFromString("59.95")),
			NewPrice:          decimal.RequireFromString("45"),
			NewCompareAtPrice: decimal.RequireFromString("50"),
			PriceChange:       decimal.RequireFromString("-4.95"),
		},
		Timestamp:   utc.New(ts),
		RunID:       runID,
		TriggeredBy: history.TriggeredScheduled,
		Tenant:      tenant,
	}
}

// Run exercises store against the history.Store contract. The store must
// start empty.
func Run(t *testing.T, store history.Store) {
	t.Helper()
	ctx := context.Background()
	ts := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

	t.Run("missing key is not found", func(t *testing.T) {
		_, err := store.Get(ctx, "nobody:v:1")
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err), "got %v", err)
	})

	a1 := Entry("alpha", "gid://shopify/ProductVariant/1", "run_a", ts)
	a2 := Entry("alpha", "gid://shopify/ProductVariant/2", "run_a", ts.Add(time.Second))
	b1 := Entry("alpha_2", "gid://shopify/ProductVariant/1", "run_b", ts)

	t.Run("put and get round trip", func(t *testing.T) {
		for _, e := range []history.Entry{a1, a2, b1} {
			require.NoError(t, store.Put(ctx, e.Key(), e))
		}
		got, err := store.Get(ctx, a1.Key())
		require.NoError(t, err)
		assert.Equal(t, a1.VariantID, got.VariantID)
		assert.Equal(t, a1.RunID, got.RunID)
		assert.Equal(t, a1.Tenant, got.Tenant)
		assert.Equal(t, a1.TriggeredBy, got.TriggeredBy)
		assert.True(t, a1.OldPrice.Equal(got.OldPrice))
		require.NotNil(t, got.OldCompareAtPrice)
		assert.True(t, a1.OldCompareAtPrice.Equal(*got.OldCompareAtPrice))
		assert.True(t, a1.PriceChange.Equal(got.PriceChange))
		assert.True(t, a1.Timestamp.Equal(got.Timestamp))
	})

	t.Run("put overwrites", func(t *testing.T) {
		e := a2
		e.RunID = "run_c"
		require.NoError(t, store.Put(ctx, e.Key(), e))
		got, err := store.Get(ctx, e.Key())
		require.NoError(t, err)
		assert.Equal(t, "run_c", got.RunID)
	})

	t.Run("list by prefix", func(t *testing.T) {
		keys, err := store.List(ctx, history.Prefix("alpha"))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{a1.Key(), a2.Key()}, keys)

		keys, err = store.List(ctx, history.Prefix("alpha_2"))
		require.NoError(t, err)
		assert.Equal(t, []string{b1.Key()}, keys)

		keys, err = store.List(ctx, history.Prefix("nobody"))
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, a1.Key()))
		_, err := store.Get(ctx, a1.Key())
		assert.True(t, errors.IsNotFound(err))
		require.NoError(t, store.Delete(ctx, a1.Key()), "deleting a missing key")

		keys, err := store.List(ctx, history.Prefix("alpha"))
		require.NoError(t, err)
		assert.Equal(t, []string{a2.Key()}, keys)
	})
}
