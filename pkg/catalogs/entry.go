package catalogs

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Entry is one catalog variant as seen by the snapshot.
type Entry struct {
	ProductID             string           `json:"product_id"`
	VariantID             string           `json:"variant_id"`
	MatchKey              string           `json:"match_key"`
	CurrentPrice          decimal.Decimal  `json:"current_price"`
	CurrentCompareAtPrice *decimal.Decimal `json:"current_compare_at_price,omitempty"`
	Flag                  *bool            `json:"flag,omitempty"`
}

// Index groups catalog entries by match key. Several variants may share a key.
type Index struct {
	entries map[string][]Entry
	size    int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{entries: make(map[string][]Entry)}
}

// Add indexes e under its match key. Entries without a key are ignored.
func (idx *Index) Add(e Entry) bool {
	if e.MatchKey == "" {
		return false
	}
	idx.entries[e.MatchKey] = append(idx.entries[e.MatchKey], e)
	idx.size++
	return true
}

// Get returns the entries sharing key.
func (idx *Index) Get(key string) []Entry {
	if idx == nil {
		return nil
	}
	return idx.entries[key]
}

// Keys returns the match keys in sorted order.
func (idx *Index) Keys() []string {
	if idx == nil {
		return nil
	}
	keys := make([]string, 0, len(idx.entries))
	for k := range idx.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of distinct match keys.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Size returns the number of indexed entries.
func (idx *Index) Size() int {
	if idx == nil {
		return 0
	}
	return idx.size
}

// Entries returns every indexed entry ordered by key, then insertion.
func (idx *Index) Entries() []Entry {
	out := make([]Entry, 0, idx.Size())
	for _, k := range idx.Keys() {
		out = append(out, idx.entries[k]...)
	}
	return out
}

// SharedKeys returns the number of keys held by more than one variant.
func (idx *Index) SharedKeys() int {
	if idx == nil {
		return 0
	}
	n := 0
	for _, es := range idx.entries {
		if len(es) > 1 {
			n++
		}
	}
	return n
}
