// Package revert restores the prices a previous run overwrote, using the
// history that run recorded.
package revert

import (
	"context"
	"sort"

	"github.com/agentstation/catalogsync/pkg/catalogs"
	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/history"
	"github.com/agentstation/catalogsync/pkg/logging"
	"github.com/agentstation/catalogsync/pkg/mutate"
)

// Result is the outcome of a revert.
type Result struct {
	Tenant      string   `json:"tenant"`
	RunID       string   `json:"run_id"`
	Entries     int      `json:"entries"`
	Successful  int      `json:"successful"`
	Failed      int      `json:"failed"`
	Errors      []string `json:"errors,omitempty"`
	RevertedIDs []string `json:"reverted_ids,omitempty"`
}

// Engine reverts runs of one tenant's catalog.
type Engine struct {
	svc     catalogs.Service
	store   history.Store
	mutator *mutate.Mutator
}

// New creates a revert engine.
func New(svc catalogs.Service, store history.Store, mutator *mutate.Mutator) *Engine {
	return &Engine{svc: svc, store: store, mutator: mutator}
}

// Revert restores every variant changed by runID to its pre-run price and
// compare-at price, then deletes the history of the restored variants.
// A run without history yields a RevertError.
func (e *Engine) Revert(ctx context.Context, tenant, runID string) (*Result, error) {
	ctx = logging.WithOperation(logging.WithRun(logging.WithTenant(ctx, tenant), runID), "revert")
	logger := logging.FromContext(ctx)

	items, err := history.ListRun(ctx, e.store, tenant, runID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &errors.RevertError{Code: errors.RevertNoHistory, Tenant: tenant, RunID: runID}
	}

	changes, keys := Plan(items)
	logger.Info().Int("entries", len(items)).Int("variants", len(changes)).Msg("reverting run")

	mr := e.mutator.PriceChanges(ctx, e.svc, changes)
	res := &Result{
		Tenant:      tenant,
		RunID:       runID,
		Entries:     len(items),
		Successful:  mr.Successful,
		Failed:      mr.Failed,
		Errors:      mr.Errors,
		RevertedIDs: mr.SuccessfulIDs,
	}

	// History of restored variants is removed with a context that outlives
	// cancellation: the catalog already changed.
	dctx := context.WithoutCancel(ctx)
	for _, vid := range mr.SuccessfulIDs {
		for _, key := range keys[vid] {
			if err := e.store.Delete(dctx, key); err != nil {
				logger.Warn().Err(err).Str("key", key).Msg("history entry not deleted after revert")
			}
		}
	}

	logger.Info().Int("successful", res.Successful).Int("failed", res.Failed).Msg("revert finished")
	return res, nil
}

// Plan turns a run's history into the price changes restoring it, one per
// variant, ordered by variant ID. When a variant appears more than once the
// oldest entry's values win. The returned map lists the history keys of
// each variant.
func Plan(items []history.Item) ([]catalogs.PriceChange, map[string][]string) {
	sorted := append([]history.Item(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Entry.Timestamp.Before(sorted[j].Entry.Timestamp)
	})

	keys := make(map[string][]string)
	byVariant := make(map[string]catalogs.PriceChange)
	for _, it := range sorted {
		en := it.Entry
		keys[en.VariantID] = append(keys[en.VariantID], it.Key)
		if _, seen := byVariant[en.VariantID]; seen {
			continue
		}
		byVariant[en.VariantID] = catalogs.PriceChange{
			ProductID:      en.ProductID,
			VariantID:      en.VariantID,
			Price:          en.OldPrice,
			CompareAtPrice: en.OldCompareAtPrice,
		}
	}

	changes := make([]catalogs.PriceChange, 0, len(byVariant))
	for _, c := range byVariant {
		changes = append(changes, c)
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].VariantID < changes[j].VariantID })
	return changes, keys
}
