// Package feed ingests the third-party product/price feed: delimited text
// with one row per product carrying a match key (EAN/barcode), the
// recommended selling price and the advised reference price.
package feed

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Record is one valid feed row.
type Record struct {
	SourceID           string          `json:"source_id"`
	MatchKey           string          `json:"match_key"`
	RecommendedPrice   decimal.Decimal `json:"recommended_price"`
	PriceAdvice        decimal.Decimal `json:"price_advice"`
	DiscountPercentage float64         `json:"discount_percentage"`
}

// Discount returns (advice - recommended) / advice * 100. A non-positive
// advice yields 0.
func Discount(recommended, advice decimal.Decimal) float64 {
	if !advice.IsPositive() {
		return 0
	}
	return advice.Sub(recommended).Div(advice).Mul(hundred).InexactFloat64()
}

// ParseResult is the outcome of parsing a feed. Errors is capped; the row
// counters are exact.
type ParseResult struct {
	TotalRows   int      `json:"total_rows"`
	ValidRows   int      `json:"valid_rows"`
	InvalidRows int      `json:"invalid_rows"`
	Records     []Record `json:"records,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// Keys returns the set of match keys present in the feed.
func (r *ParseResult) Keys() map[string]struct{} {
	keys := make(map[string]struct{}, len(r.Records))
	for _, rec := range r.Records {
		keys[rec.MatchKey] = struct{}{}
	}
	return keys
}
