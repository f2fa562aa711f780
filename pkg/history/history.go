// Package history records successful mutations so a run can be reverted.
// Entries are kept in a key-value Store under {tenant}:{variantID}:{unixMillis}.
package history

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/utc"
	"github.com/shopspring/decimal"
)

// TriggeredBy records what started a run.
type TriggeredBy string

// Run triggers.
const (
	TriggeredManual    TriggeredBy = "manual"
	TriggeredScheduled TriggeredBy = "scheduled"
)

// UpdateSample describes one applied price change.
type UpdateSample struct {
	ProductID         string           `json:"product_id" yaml:"product_id"`
	VariantID         string           `json:"variant_id" yaml:"variant_id"`
	MatchKey          string           `json:"match_key" yaml:"match_key"`
	OldPrice          decimal.Decimal  `json:"old_price" yaml:"old_price"`
	OldCompareAtPrice *decimal.Decimal `json:"old_compare_at_price,omitempty" yaml:"old_compare_at_price,omitempty"`
	NewPrice          decimal.Decimal  `json:"new_price" yaml:"new_price"`
	NewCompareAtPrice decimal.Decimal  `json:"new_compare_at_price" yaml:"new_compare_at_price"`
	PriceChange       decimal.Decimal  `json:"price_change" yaml:"price_change"`
}

// Entry is a persisted UpdateSample with its run context.
type Entry struct {
	UpdateSample `json:",inline" yaml:",inline"`
	Timestamp    utc.Time    `json:"timestamp" yaml:"timestamp"`
	RunID        string      `json:"run_id" yaml:"run_id"`
	TriggeredBy  TriggeredBy `json:"triggered_by" yaml:"triggered_by"`
	Tenant       string      `json:"tenant" yaml:"tenant"`
}

// Key returns the store key for the entry.
func (e Entry) Key() string {
	return Key(e.Tenant, e.VariantID, e.Timestamp.Time)
}

// Store is the key-value store holding history entries. Get returns an
// error matching errors.ErrNotFound for missing keys.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// Key builds {tenant}:{variantID}:{unixMillis}.
func Key(tenant, variantID string, ts time.Time) string {
	return fmt.Sprintf("%s:%s:%d", tenant, variantID, ts.UnixMilli())
}

// Prefix returns the key prefix of all entries of a tenant.
func Prefix(tenant string) string {
	return tenant + ":"
}

// ParseKey splits a key into its parts. Variant IDs may contain ':'.
func ParseKey(key string) (tenant, variantID string, ts time.Time, err error) {
	first := strings.IndexByte(key, ':')
	last := strings.LastIndexByte(key, ':')
	if first < 0 || last <= first {
		return "", "", time.Time{}, fmt.Errorf("malformed history key %q", key)
	}
	ms, err := strconv.ParseInt(key[last+1:], 10, 64)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("malformed history key %q: %w", key, err)
	}
	return key[:first], key[first+1 : last], time.UnixMilli(ms).UTC(), nil
}
