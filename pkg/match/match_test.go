package match_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/catalogsync/internal/utils/ptr"
	"github.com/agentstation/catalogsync/pkg/catalogs"
	"github.com/agentstation/catalogsync/pkg/feed"
	"github.com/agentstation/catalogsync/pkg/match"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func record(key, price, advice string) feed.Record {
	r, a := dec(price), dec(advice)
	return feed.Record{SourceID: "src-" + key, MatchKey: key, RecommendedPrice: r, PriceAdvice: a, DiscountPercentage: feed.Discount(r, a)}
}

func index(entries ...catalogs.Entry) *catalogs.Index {
	idx := catalogs.NewIndex()
	for _, e := range entries {
		idx.Add(e)
	}
	return idx
}

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func TestPricesExample(t *testing.T) {
	idx := index(catalogs.Entry{ProductID: "p1", VariantID: "v1", MatchKey: "EAN123", CurrentPrice: dec("50"), CurrentCompareAtPrice: ptr.To(dec("50"))})

	got := match.Prices([]feed.Record{record("EAN123", "45.00", "50.00")}, idx)
	require.Len(t, got, 1)

	m := got[0]
	assert.Equal(t, "v1", m.VariantID)
	assert.True(t, m.NewPrice.Equal(dec("45")))
	assert.True(t, m.NewCompareAtPrice.Equal(dec("50")))
	assert.True(t, m.PriceChange.Equal(dec("-5")))
	assert.InDelta(t, 10.0, m.DiscountPercentage, 1e-6)
}

func TestPricesFanOutAndLastWins(t *testing.T) {
	idx := index(
		catalogs.Entry{ProductID: "p2", VariantID: "v3", MatchKey: "K1", CurrentPrice: dec("10")},
		catalogs.Entry{ProductID: "p1", VariantID: "v2", MatchKey: "K1", CurrentPrice: dec("11")},
		catalogs.Entry{ProductID: "p1", VariantID: "v1", MatchKey: "K2", CurrentPrice: dec("12")},
		catalogs.Entry{ProductID: "p9", VariantID: "v9", MatchKey: "K9", CurrentPrice: dec("1")},
	)
	records := []feed.Record{
		record("K2", "8", "10"),
		record("K1", "5", "6"),
		record("K1", "7", "9"),
		record("MISSING", "1", "2"),
	}

	got := match.Prices(records, idx)
	require.Len(t, got, 3)

	var ids []string
	for _, m := range got {
		ids = append(ids, m.VariantID)
	}
	assert.Equal(t, []string{"v2", "v3", "v1"}, ids)
	assert.True(t, got[0].NewPrice.Equal(dec("7")), "last record for K1 wins")
	assert.True(t, got[1].NewPrice.Equal(dec("7")))

	assert.Equal(t, 1, match.DuplicateKeys(records))
	assert.Equal(t, 1, match.Unmatched(records, idx))
}

func TestPricesIdempotent(t *testing.T) {
	idx := index(
		catalogs.Entry{ProductID: "a", VariantID: "1", MatchKey: "X", CurrentPrice: dec("3")},
		catalogs.Entry{ProductID: "b", VariantID: "2", MatchKey: "Y", CurrentPrice: dec("4")},
		catalogs.Entry{ProductID: "c", VariantID: "3", MatchKey: "X", CurrentPrice: dec("5")},
	)
	records := []feed.Record{record("X", "2", "3"), record("Y", "3", "4")}

	first := match.Prices(records, idx)
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, match.Prices(records, idx), decimalEqual); diff != "" {
			t.Fatalf("Prices not deterministic (-first +again):\n%s", diff)
		}
	}
}

func TestAvailability(t *testing.T) {
	idx := index(
		catalogs.Entry{ProductID: "p1", VariantID: "v1", MatchKey: "A", Flag: ptr.To(true)},
		catalogs.Entry{ProductID: "p1", VariantID: "v2", MatchKey: "B", Flag: ptr.To(true)},
		catalogs.Entry{ProductID: "p2", VariantID: "v3", MatchKey: "C"},
	)
	keys := map[string]struct{}{"A": {}, "C": {}, "Z": {}}

	want := []match.FlagMatch{
		{ProductID: "p1", VariantID: "v1", MatchKey: "A", Current: ptr.To(true), Available: true},
		{ProductID: "p1", VariantID: "v2", MatchKey: "B", Current: ptr.To(true), Available: false},
		{ProductID: "p2", VariantID: "v3", MatchKey: "C", Available: true},
	}
	got := match.Availability(keys, idx)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Availability mismatch (-want +got):\n%s", diff)
	}

	assert.False(t, got[0].Changed())
	assert.True(t, got[1].Changed())
	assert.True(t, got[2].Changed())
}
