package catalogsync

import (
	"context"
	"time"

	"github.com/agentstation/catalogsync/pkg/history"
)

// Compile-time interface check to ensure proper implementation.
var _ HistoryReader = (*client)(nil)

// HistoryReader queries and maintains the recorded history of tenants.
type HistoryReader interface {
	// Runs summarizes the recorded runs of tenant, newest first.
	Runs(ctx context.Context, tenant string) ([]history.RunSummary, error)

	// RunEntries returns the history entries recorded by runID.
	RunEntries(ctx context.Context, tenant, runID string) ([]history.Item, error)

	// Prune deletes entries of tenant older than before and reports how many
	// were removed. Pruned runs can no longer be reverted.
	Prune(ctx context.Context, tenant string, before time.Time) (int, error)
}

// Runs summarizes the recorded runs of tenant.
func (c *client) Runs(ctx context.Context, tenantID string) ([]history.RunSummary, error) {
	t, err := c.tenant(tenantID)
	if err != nil {
		return nil, err
	}
	return history.Runs(ctx, t.History, t.ID)
}

// RunEntries returns the history entries recorded by runID.
func (c *client) RunEntries(ctx context.Context, tenantID, runID string) ([]history.Item, error) {
	t, err := c.tenant(tenantID)
	if err != nil {
		return nil, err
	}
	return history.ListRun(ctx, t.History, t.ID, runID)
}

// Prune deletes entries older than before. It holds the tenant lock so a
// concurrent revert never sees a partially pruned run.
func (c *client) Prune(ctx context.Context, tenantID string, before time.Time) (int, error) {
	t, err := c.tenant(tenantID)
	if err != nil {
		return 0, err
	}
	unlock, err := c.locks.acquire(t.ID, false)
	if err != nil {
		return 0, err
	}
	defer unlock()
	return history.Prune(ctx, t.History, t.ID, before)
}
