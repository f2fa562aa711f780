package table

import (
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/pkg/feed"
	"github.com/agentstation/catalogsync/pkg/history"
	"github.com/agentstation/catalogsync/pkg/validate"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func lookup(t *testing.T, d Data, key string) string {
	t.Helper()
	for _, row := range d.Rows {
		if row[0] == key {
			return row[1]
		}
	}
	t.Fatalf("row %q not found", key)
	return ""
}

func TestRunResultToTableData(t *testing.T) {
	r := &catalogsync.RunResult{
		RunID:            "run_1",
		Tenant:           "acme",
		DryRun:           true,
		StartedAt:        utc.New(time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)),
		Duration:         1500 * time.Millisecond,
		ValidMatches:     3,
		InvalidMatches:   1,
		Successful:       2,
		Failed:           1,
		ViolationsByCode: map[validate.Code]int{validate.CodeDiscountTooLarge: 1},
		Updates: []history.UpdateSample{{
			VariantID: "v1", OldPrice: dec("50"), NewPrice: dec("45"), NewCompareAtPrice: dec("50"),
		}},
	}

	d := RunResultToTableData(r, false)
	assert.Equal(t, []string{"Property", "Value"}, d.Headers)
	assert.Equal(t, "dry run", lookup(t, d, "Mode"))
	assert.Equal(t, "1.5s", lookup(t, d, "Duration"))
	assert.Equal(t, "3 valid / 1 invalid", lookup(t, d, "Matches"))
	assert.Equal(t, "✓ 2, ✗ 1 failed", lookup(t, d, "Updated"))
	assert.Equal(t, "1", lookup(t, d, "Violations: Discount Too Large"))

	withDetails := RunResultToTableData(r, true)
	assert.Equal(t, "50.00 -> 45.00 (compare - -> 50.00)", lookup(t, withDetails, "Update v1"))
	assert.Len(t, withDetails.Rows, len(d.Rows)+1)
}

func TestEntriesToTableData(t *testing.T) {
	old := dec("60")
	items := []history.Item{{Entry: history.Entry{UpdateSample: history.UpdateSample{
		VariantID: "v1", MatchKey: "EAN1",
		OldPrice: dec("50"), OldCompareAtPrice: &old,
		NewPrice: dec("55.5"), NewCompareAtPrice: dec("60"),
		PriceChange: dec("5.5"),
	}}}}

	d := EntriesToTableData(items)
	require.Len(t, d.Rows, 1)
	assert.Equal(t, []string{"v1", "EAN1", "50.00", "55.50", "60.00", "60.00", "+5.50"}, d.Rows[0])
	assert.Len(t, d.ColumnAlignment, len(d.Headers))
}

func TestFeedToTableData(t *testing.T) {
	res := &feed.ParseResult{Records: []feed.Record{
		{SourceID: "a", MatchKey: "1", RecommendedPrice: dec("9"), PriceAdvice: dec("10"), DiscountPercentage: 10},
		{SourceID: "b", MatchKey: "2", RecommendedPrice: dec("5"), PriceAdvice: dec("10"), DiscountPercentage: 50},
	}}

	assert.Len(t, FeedToTableData(res, 0).Rows, 2)
	d := FeedToTableData(res, 1)
	require.Len(t, d.Rows, 1)
	assert.Equal(t, []string{"a", "1", "9.00", "10.00", "10.0%"}, d.Rows[0])
}

func TestFormatChange(t *testing.T) {
	assert.Equal(t, "+1.00", FormatChange(dec("1")))
	assert.Equal(t, "-2.50", FormatChange(dec("-2.5")))
	assert.Equal(t, "0.00", FormatChange(decimal.Zero))
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Discount Too Large", Humanize(string(validate.CodeDiscountTooLarge)))
	assert.Equal(t, "Scheduled", Humanize(string(history.TriggeredScheduled)))
	assert.Equal(t, "", Humanize(""))
}
