package catalogsync

import (
	"context"

	"github.com/agentstation/catalogsync/pkg/logging"
	"github.com/agentstation/catalogsync/pkg/mutate"
	"github.com/agentstation/catalogsync/pkg/revert"
)

// Compile-time interface check to ensure proper implementation.
var _ Reverter = (*client)(nil)

// Reverter undoes price runs.
type Reverter interface {
	// Revert restores the prices overwritten by runID. It holds the tenant
	// lock, so it never overlaps a run of the same tenant.
	Revert(ctx context.Context, tenant, runID string, opts ...RunOption) (*revert.Result, error)
}

// Revert restores the prices overwritten by runID.
func (c *client) Revert(ctx context.Context, tenantID, runID string, opts ...RunOption) (*revert.Result, error) {
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

	cfg := ro.configOr(c.options.config)
	mutator, err := mutate.New(cfg.mutatorOptions(c.options.clock)...)
	if err != nil {
		return nil, err
	}

	res, err := revert.New(t.Catalog, t.History, mutator).Revert(ctx, t.ID, runID)
	if err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("tenant", t.ID).Str("run_id", runID).Msg("revert failed")
		return nil, err
	}
	c.hooks.triggerRunReverted(res)
	return res, nil
}
