package history

import (
	"context"
	"sort"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/catalogsync/pkg/errors"
)

// Item is an entry together with its store key.
type Item struct {
	Key   string
	Entry Entry
}

// ListTenant returns every entry of a tenant. Keys that vanish between
// List and Get are skipped.
func ListTenant(ctx context.Context, store Store, tenant string) ([]Item, error) {
	keys, err := store.List(ctx, Prefix(tenant))
	if err != nil {
		return nil, errors.WrapResource("list", "history", tenant, err)
	}
	sort.Strings(keys)

	items := make([]Item, 0, len(keys))
	for _, k := range keys {
		e, err := store.Get(ctx, k)
		if errors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, errors.WrapResource("fetch", "history", k, err)
		}
		items = append(items, Item{Key: k, Entry: *e})
	}
	return items, nil
}

// ListRun returns the entries of one run. The store has no secondary index,
// so all tenant entries are read and filtered.
func ListRun(ctx context.Context, store Store, tenant, runID string) ([]Item, error) {
	items, err := ListTenant(ctx, store, tenant)
	if err != nil {
		return nil, err
	}
	out := items[:0]
	for _, it := range items {
		if it.Entry.RunID == runID {
			out = append(out, it)
		}
	}
	return out, nil
}

// RunSummary aggregates the entries of one run.
type RunSummary struct {
	RunID       string      `json:"run_id" yaml:"run_id"`
	Tenant      string      `json:"tenant" yaml:"tenant"`
	TriggeredBy TriggeredBy `json:"triggered_by" yaml:"triggered_by"`
	StartedAt   utc.Time    `json:"started_at" yaml:"started_at"`
	Entries     int         `json:"entries" yaml:"entries"`
	Increases   int         `json:"increases" yaml:"increases"`
	Decreases   int         `json:"decreases" yaml:"decreases"`
}

// Runs groups a tenant's entries by run, newest first.
func Runs(ctx context.Context, store Store, tenant string) ([]RunSummary, error) {
	items, err := ListTenant(ctx, store, tenant)
	if err != nil {
		return nil, err
	}

	byRun := make(map[string]*RunSummary)
	for _, it := range items {
		e := it.Entry
		s, ok := byRun[e.RunID]
		if !ok {
			s = &RunSummary{RunID: e.RunID, Tenant: e.Tenant, TriggeredBy: e.TriggeredBy, StartedAt: e.Timestamp}
			byRun[e.RunID] = s
		}
		s.Entries++
		if e.Timestamp.Before(s.StartedAt) {
			s.StartedAt = e.Timestamp
		}
		switch {
		case e.PriceChange.IsPositive():
			s.Increases++
		case e.PriceChange.IsNegative():
			s.Decreases++
		}
	}

	out := make([]RunSummary, 0, len(byRun))
	for _, s := range byRun {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].RunID > out[j].RunID
	})
	return out, nil
}

// Prune deletes a tenant's entries recorded before the cutoff and returns
// how many were removed.
func Prune(ctx context.Context, store Store, tenant string, before time.Time) (int, error) {
	items, err := ListTenant(ctx, store, tenant)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, it := range items {
		if !it.Entry.Timestamp.Before(utc.New(before)) {
			continue
		}
		if err := store.Delete(ctx, it.Key); err != nil {
			return n, errors.WrapResource("delete", "history", it.Key, err)
		}
		n++
	}
	return n, nil
}
