package catalogsync

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/agentstation/utc"

	"github.com/agentstation/catalogsync/pkg/constants"
	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/history"
	"github.com/agentstation/catalogsync/pkg/logging"
	"github.com/agentstation/catalogsync/pkg/match"
	"github.com/agentstation/catalogsync/pkg/mutate"
	"github.com/agentstation/catalogsync/pkg/snapshot"
	"github.com/agentstation/catalogsync/pkg/validate"
)

// Compile-time interface check to ensure proper implementation.
var _ Runner = (*client)(nil)

// Runner executes reconciliation runs.
type Runner interface {
	// Sync runs the price pipeline for one tenant.
	Sync(ctx context.Context, tenant string, opts ...RunOption) (*RunResult, error)

	// SyncAll runs the price pipeline for every tenant. Results of tenants
	// that succeeded are returned in tenant order, together with the joined
	// errors of those that did not.
	SyncAll(ctx context.Context, opts ...RunOption) ([]*RunResult, error)

	// SyncFlags runs the availability flag pipeline for one tenant.
	SyncFlags(ctx context.Context, tenant string, opts ...RunOption) (*FlagResult, error)
}

// Sync runs the price pipeline for one tenant.
func (c *client) Sync(ctx context.Context, tenantID string, opts ...RunOption) (*RunResult, error) {
	ro := newRunOptions(opts...)

	// Step 1: Resolve the tenant and take its lock
	t, err := c.tenant(tenantID)
	if err != nil {
		return nil, err
	}
	unlock, err := c.locks.acquire(t.ID, ro.noWait)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Step 2: Set up the run context
	runID := newRunID()
	ctx = logging.WithOperation(logging.WithRun(logging.WithTenant(ctx, t.ID), runID), "sync")

	res, err := c.syncPrices(ctx, t, runID, ro)
	if err != nil {
		logging.FromContext(ctx).Error().Err(err).Msg("run aborted")
		c.hooks.triggerRunFailed(t.ID, runID, err)
		return nil, err
	}
	c.hooks.triggerRunCompleted(res)
	return res, nil
}

func (c *client) syncPrices(ctx context.Context, t Tenant, runID string, ro *runOptions) (*RunResult, error) {
	logger := logging.FromContext(ctx)
	cfg := ro.configOr(c.options.config)
	limit := c.options.sampleLimit
	start := c.options.clock.Now()

	res := &RunResult{
		RunID:       runID,
		Tenant:      t.ID,
		TriggeredBy: ro.trigger,
		DryRun:      ro.dryRun,
		StartedAt:   utc.New(start),
	}
	logger.Info().Bool("dry_run", ro.dryRun).Str("triggered_by", string(ro.trigger)).Msg("run started")

	// Step 3: Fetch and parse the feed
	parsed, err := c.fetcher.Fetch(ctx, t.Feed)
	if err != nil {
		return nil, err
	}
	res.SourceTotal = parsed.TotalRows
	res.FeedInvalidRows = parsed.InvalidRows
	res.FeedErrors = sample(parsed.Errors, boundedLimit(limit))

	// Step 4: Snapshot the catalog
	loader, err := snapshot.NewLoader(t.Catalog, cfg.snapshotOptions(c.options.clock)...)
	if err != nil {
		return nil, err
	}
	snap, err := loader.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	res.SnapshotJobID = snap.JobID
	res.CatalogVariants = snap.Index.Size()

	// Step 5: Match feed records to catalog variants
	matches := match.Prices(parsed.Records, snap.Index)
	res.TotalMatches = len(matches)
	res.Unmatched = match.Unmatched(parsed.Records, snap.Index)
	res.SharedMatchKeys = snap.Index.SharedKeys()
	if res.SharedMatchKeys > 0 {
		logger.Warn().Int("shared_match_keys", res.SharedMatchKeys).Msg("match keys shared by several variants; each variant is updated")
	}
	if dup := match.DuplicateKeys(parsed.Records); dup > 0 {
		logger.Warn().Int("duplicate_feed_keys", dup).Msg("feed repeats match keys; last record wins")
	}

	// Step 6: Validate
	vr := validate.Validate(matches, cfg.Validation)
	res.ValidMatches = len(vr.Valid)
	res.InvalidMatches = vr.InvalidMatches()
	res.Violations = sample(vr.Invalid, boundedLimit(limit))
	if len(vr.Invalid) > 0 {
		res.ViolationsByCode = vr.CountByCode()
	}
	for _, m := range vr.Valid {
		switch {
		case m.PriceChange.IsPositive():
			res.PriceIncreases++
		case m.PriceChange.IsNegative():
			res.PriceDecreases++
		default:
			res.PriceUnchanged++
		}
	}
	logger.Info().
		Int("matches", res.TotalMatches).
		Int("valid", res.ValidMatches).
		Int("invalid", res.InvalidMatches).
		Msg("matches validated")

	// Step 7: Dry runs stop before touching the catalog
	if ro.dryRun {
		for _, m := range vr.Valid {
			res.Updates = append(res.Updates, updateSample(m))
		}
		res.Updates = sample(res.Updates, limit)
		res.Duration = c.options.clock.Now().Sub(start)
		logger.Info().Int("would_update", res.ValidMatches).Msg("dry run completed, no changes applied")
		return res, nil
	}

	// Step 8: Apply the accepted prices
	mutator, err := mutate.New(cfg.mutatorOptions(c.options.clock)...)
	if err != nil {
		return nil, err
	}
	mr := mutator.Prices(ctx, t.Catalog, vr.Valid)
	res.Successful = mr.Successful
	res.Failed = mr.Failed
	res.Batches = mr.Batches
	res.Errors = sample(mr.Errors, boundedLimit(limit))

	// Step 9: Record history for every acknowledged variant
	res.Updates, res.HistoryFailures = c.record(ctx, t, runID, ro.trigger, vr.Valid, mr.SuccessfulIDs)
	res.Updates = sample(res.Updates, limit)

	res.Duration = c.options.clock.Now().Sub(start)
	logger.Info().
		Int("successful", res.Successful).
		Int("failed", res.Failed).
		Int("increases", res.PriceIncreases).
		Int("decreases", res.PriceDecreases).
		Dur("duration", res.Duration).
		Msg("run completed")
	return res, nil
}

// record persists one history entry per acknowledged variant and returns the
// update samples with the number of entries that could not be written.
func (c *client) record(ctx context.Context, t Tenant, runID string, trigger history.TriggeredBy, valid []match.PriceMatch, accepted []string) ([]history.UpdateSample, int) {
	byVariant := make(map[string]match.PriceMatch, len(valid))
	for _, m := range valid {
		byVariant[m.VariantID] = m
	}

	rec := history.NewRecorder(ctx, t.History, c.options.recorderOpts...)
	updates := make([]history.UpdateSample, 0, len(accepted))
	for _, vid := range accepted {
		m, ok := byVariant[vid]
		if !ok {
			continue
		}
		u := updateSample(m)
		updates = append(updates, u)
		rec.Record(history.Entry{
			UpdateSample: u,
			Timestamp:    utc.New(c.options.clock.Now()),
			RunID:        runID,
			TriggeredBy:  trigger,
			Tenant:       t.ID,
		})
		c.hooks.triggerVariantUpdated(t.ID, runID, u)
	}

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.ShutdownTimeout)
	defer cancel()
	if err := rec.Close(cctx); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("history queue not drained")
	}
	return updates, rec.Failures()
}

func updateSample(m match.PriceMatch) history.UpdateSample {
	return history.UpdateSample{
		ProductID:         m.ProductID,
		VariantID:         m.VariantID,
		MatchKey:          m.MatchKey,
		OldPrice:          m.CurrentPrice,
		OldCompareAtPrice: m.CurrentCompareAtPrice,
		NewPrice:          m.NewPrice,
		NewCompareAtPrice: m.NewCompareAtPrice,
		PriceChange:       m.PriceChange,
	}
}

// SyncAll runs every tenant, serially with a delay in between or through a
// bounded worker pool when tenant concurrency is above one.
func (c *client) SyncAll(ctx context.Context, opts ...RunOption) ([]*RunResult, error) {
	ids := c.Tenants()
	results := make([]*RunResult, len(ids))
	errs := make([]error, len(ids))

	if c.options.tenantConcurrency <= 1 {
		for i, id := range ids {
			if i > 0 && c.options.interTenantDelay > 0 {
				if err := c.options.clock.Sleep(ctx, c.options.interTenantDelay); err != nil {
					for j := i; j < len(ids); j++ {
						errs[j] = err
					}
					break
				}
			}
			results[i], errs[i] = c.Sync(ctx, id, opts...)
		}
	} else {
		var wg sync.WaitGroup
		sem := make(chan struct{}, c.options.tenantConcurrency)
		for i, id := range ids {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				select {
				case sem <- struct{}{}:
				case <-ctx.Done():
					errs[i] = ctx.Err()
					return
				}
				defer func() { <-sem }()
				results[i], errs[i] = c.Sync(ctx, id, opts...)
			}(i, id)
		}
		wg.Wait()
	}

	var out []*RunResult
	var failures []error
	for i, id := range ids {
		if errs[i] != nil {
			failures = append(failures, errors.WrapResource("sync", "tenant", id, errs[i]))
			continue
		}
		if results[i] != nil {
			out = append(out, results[i])
		}
	}
	return out, stderrors.Join(failures...)
}
