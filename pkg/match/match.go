// Package match joins feed records to catalog entries by match key.
//
// Every catalog variant sharing a key present in the feed yields its own
// match; variants are never deduplicated. Output is sorted by match key,
// product and variant so repeated runs over the same input are identical.
package match

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/agentstation/catalogsync/pkg/catalogs"
	"github.com/agentstation/catalogsync/pkg/feed"
)

// PriceMatch is a proposed price change for one catalog variant.
type PriceMatch struct {
	ProductID             string           `json:"product_id"`
	VariantID             string           `json:"variant_id"`
	MatchKey              string           `json:"match_key"`
	CurrentPrice          decimal.Decimal  `json:"current_price"`
	CurrentCompareAtPrice *decimal.Decimal `json:"current_compare_at_price,omitempty"`
	NewPrice              decimal.Decimal  `json:"new_price"`
	NewCompareAtPrice     decimal.Decimal  `json:"new_compare_at_price"`
	DiscountPercentage    float64          `json:"discount_percentage"`
	PriceChange           decimal.Decimal  `json:"price_change"`
}

// FlagMatch is the availability flag state for one catalog variant.
type FlagMatch struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	MatchKey  string `json:"match_key"`
	Current   *bool  `json:"current,omitempty"`
	Available bool   `json:"available"`
}

// Changed reports whether applying the match would change the flag.
func (m FlagMatch) Changed() bool {
	return m.Current == nil || *m.Current != m.Available
}

// Prices matches feed records against the catalog index. When the feed holds
// the same key more than once, the last record wins.
func Prices(records []feed.Record, index *catalogs.Index) []PriceMatch {
	byKey := make(map[string]feed.Record, len(records))
	for _, r := range records {
		byKey[r.MatchKey] = r
	}

	var out []PriceMatch
	for key, rec := range byKey {
		for _, e := range index.Get(key) {
			out = append(out, PriceMatch{
				ProductID:             e.ProductID,
				VariantID:             e.VariantID,
				MatchKey:              key,
				CurrentPrice:          e.CurrentPrice,
				CurrentCompareAtPrice: e.CurrentCompareAtPrice,
				NewPrice:              rec.RecommendedPrice,
				NewCompareAtPrice:     rec.PriceAdvice,
				DiscountPercentage:    rec.DiscountPercentage,
				PriceChange:           rec.RecommendedPrice.Sub(e.CurrentPrice),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return less(out[i].MatchKey, out[i].ProductID, out[i].VariantID, out[j].MatchKey, out[j].ProductID, out[j].VariantID)
	})
	return out
}

// Availability computes the flag of every indexed variant: true when its
// match key appears in keys.
func Availability(keys map[string]struct{}, index *catalogs.Index) []FlagMatch {
	entries := index.Entries()
	out := make([]FlagMatch, 0, len(entries))
	for _, e := range entries {
		_, ok := keys[e.MatchKey]
		out = append(out, FlagMatch{
			ProductID: e.ProductID,
			VariantID: e.VariantID,
			MatchKey:  e.MatchKey,
			Current:   e.Flag,
			Available: ok,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return less(out[i].MatchKey, out[i].ProductID, out[i].VariantID, out[j].MatchKey, out[j].ProductID, out[j].VariantID)
	})
	return out
}

// DuplicateKeys counts match keys that occur in more than one feed record.
func DuplicateKeys(records []feed.Record) int {
	seen := make(map[string]int, len(records))
	for _, r := range records {
		seen[r.MatchKey]++
	}
	n := 0
	for _, c := range seen {
		if c > 1 {
			n++
		}
	}
	return n
}

// Unmatched counts distinct feed keys with no catalog variant.
func Unmatched(records []feed.Record, index *catalogs.Index) int {
	seen := make(map[string]struct{}, len(records))
	n := 0
	for _, r := range records {
		if _, dup := seen[r.MatchKey]; dup {
			continue
		}
		seen[r.MatchKey] = struct{}{}
		if len(index.Get(r.MatchKey)) == 0 {
			n++
		}
	}
	return n
}

func less(k1, p1, v1, k2, p2, v2 string) bool {
	if k1 != k2 {
		return k1 < k2
	}
	if p1 != p2 {
		return p1 < p2
	}
	return v1 < v2
}
