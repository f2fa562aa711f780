package catalogsync

import (
	"context"

	"github.com/agentstation/utc"

	"github.com/agentstation/catalogsync/pkg/logging"
	"github.com/agentstation/catalogsync/pkg/match"
	"github.com/agentstation/catalogsync/pkg/mutate"
	"github.com/agentstation/catalogsync/pkg/snapshot"
	"github.com/agentstation/catalogsync/pkg/validate"
)

// SyncFlags sets each catalog variant's availability flag to whether its
// match key appears in the tenant's feed. Only changed flags are sent.
// Flag runs record no history.
func (c *client) SyncFlags(ctx context.Context, tenantID string, opts ...RunOption) (*FlagResult, error) {
	ro := newRunOptions(opts...)

	t, err := c.tenant(tenantID)
	if err != nil {
		return nil, err
	}
	unlock, err := c.locks.acquire(t.ID, ro.noWait)
	if err != nil {
		return nil, err
	}
	defer unlock()

	runID := newRunID()
	ctx = logging.WithOperation(logging.WithRun(logging.WithTenant(ctx, t.ID), runID), "flags")

	res, err := c.syncFlags(ctx, t, runID, ro)
	if err != nil {
		logging.FromContext(ctx).Error().Err(err).Msg("flag run aborted")
		c.hooks.triggerRunFailed(t.ID, runID, err)
		return nil, err
	}
	c.hooks.triggerFlagRunCompleted(res)
	return res, nil
}

func (c *client) syncFlags(ctx context.Context, t Tenant, runID string, ro *runOptions) (*FlagResult, error) {
	logger := logging.FromContext(ctx)
	cfg := ro.configOr(c.options.config)
	start := c.options.clock.Now()

	res := &FlagResult{
		RunID:       runID,
		Tenant:      t.ID,
		TriggeredBy: ro.trigger,
		DryRun:      ro.dryRun,
		StartedAt:   utc.New(start),
	}

	parsed, err := c.fetcher.Fetch(ctx, t.Feed)
	if err != nil {
		return nil, err
	}
	keys := parsed.Keys()
	res.SourceKeys = len(keys)

	loader, err := snapshot.NewLoader(t.Catalog, cfg.snapshotOptions(c.options.clock)...)
	if err != nil {
		return nil, err
	}
	idx, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	all := match.Availability(keys, idx)
	res.TotalVariants = len(all)
	for _, m := range all {
		if m.Available {
			res.Available++
		} else {
			res.Unavailable++
		}
	}
	changed := validate.Flags(all)
	res.Changed = len(changed)

	if ro.dryRun || len(changed) == 0 {
		res.Duration = c.options.clock.Now().Sub(start)
		logger.Info().Int("changed", res.Changed).Bool("dry_run", ro.dryRun).Msg("flag run completed without mutations")
		return res, nil
	}

	mutator, err := mutate.New(cfg.mutatorOptions(c.options.clock)...)
	if err != nil {
		return nil, err
	}
	mr := mutator.Flags(ctx, t.Catalog, changed)
	res.Successful = mr.Successful
	res.Failed = mr.Failed
	res.Errors = sample(mr.Errors, boundedLimit(c.options.sampleLimit))
	res.Duration = c.options.clock.Now().Sub(start)

	logger.Info().
		Int("variants", res.TotalVariants).
		Int("available", res.Available).
		Int("changed", res.Changed).
		Int("successful", res.Successful).
		Int("failed", res.Failed).
		Msg("flag run completed")
	return res, nil
}
