// Package catalogsync reconciles product catalogs against a third-party
// price feed.
//
// A run fetches a tenant's feed, snapshots the tenant's catalog through the
// bulk query protocol, matches records by barcode, validates the proposed
// prices, applies the accepted ones in batches and records history so the
// run can be reverted later.
//
// Example usage:
//
//	store, _ := files.New("~/.catalogsync/history")
//	client, err := catalogsync.New([]catalogsync.Tenant{{
//	    ID:      "acme",
//	    Catalog: memory.New(),
//	    History: store,
//	    Feed:    feed.Source{URL: "https://feeds.example.com/acme.csv"},
//	}})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close(ctx)
//
//	client.OnRunCompleted(func(r *catalogsync.RunResult) {
//	    log.Printf("run %s: %d updated", r.RunID, r.Successful)
//	})
//
//	result, err := client.Sync(ctx, "acme", catalogsync.WithDryRun(true))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Undo it
//	_, err = client.Revert(ctx, "acme", result.RunID)
package catalogsync

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/feed"
	"github.com/agentstation/catalogsync/pkg/logging"
)

// Client runs reconciliations for a fixed set of tenants.
type Client interface {

	// Runner executes price and flag runs
	Runner

	// Reverter undoes previous price runs
	Reverter

	// AutoSyncer controls scheduled runs
	AutoSyncer

	// HistoryReader lists and prunes recorded history
	HistoryReader

	// Hooks provides access to event callback registration
	Hooks

	// Tenants returns the configured tenant IDs in sorted order.
	Tenants() []string

	// Close stops scheduled runs. In-flight runs finish on their own.
	Close(ctx context.Context) error
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options

	tenants map[string]Tenant
	locks   *tenantLocks
	fetcher *feed.Fetcher

	// scheduled run state
	mu         sync.Mutex
	ticker     *time.Ticker
	stopCh     chan struct{}
	autoCancel context.CancelFunc
	autoDone   chan struct{}

	hooks *hooks
}

// New creates a Client for tenants.
func New(tenants []Tenant, opts ...Option) (Client, error) {
	o := defaults().apply(opts...)
	if err := o.validate(); err != nil {
		return nil, err
	}
	if len(tenants) == 0 {
		return nil, errors.NewValidationError("tenants", nil, "at least one tenant is required")
	}

	c := &client{
		options: o,
		tenants: make(map[string]Tenant, len(tenants)),
		locks:   newTenantLocks(),
		fetcher: feed.NewFetcher(o.httpClient),
		stopCh:  make(chan struct{}),
		hooks:   newHooks(),
	}
	close(c.stopCh)

	for _, t := range tenants {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.tenants[t.ID]; dup {
			return nil, errors.NewValidationError("tenants", t.ID, "duplicate tenant id")
		}
		c.tenants[t.ID] = t
	}

	logging.Debug().Int("tenants", len(c.tenants)).Msg("catalogsync client created")

	if o.autoSyncEnabled {
		if err := c.AutoSyncOn(); err != nil {
			return nil, errors.WrapResource("start", "auto-sync", "", err)
		}
	}
	return c, nil
}

// Tenants returns the configured tenant IDs in sorted order.
func (c *client) Tenants() []string {
	ids := make([]string, 0, len(c.tenants))
	for id := range c.tenants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *client) tenant(id string) (Tenant, error) {
	t, ok := c.tenants[id]
	if !ok {
		return Tenant{}, errors.NewNotFoundError("tenant", id)
	}
	return t, nil
}

// Close stops scheduled runs and waits for a scheduled run in progress to
// observe cancellation, or for ctx to end.
func (c *client) Close(ctx context.Context) error {
	done := c.stopAutoSync()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
