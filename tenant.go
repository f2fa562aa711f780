package catalogsync

import (
	"fmt"
	"strings"
	"sync"

	"github.com/agentstation/catalogsync/pkg/catalogs"
	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/feed"
	"github.com/agentstation/catalogsync/pkg/history"
)

// Tenant is one catalog the engine reconciles, with the handles a run needs.
type Tenant struct {
	ID      string
	Catalog catalogs.Service
	History history.Store
	Feed    feed.Source
}

// Validate checks that the tenant can be run.
func (t Tenant) Validate() error {
	switch {
	case t.ID == "":
		return errors.NewValidationError("tenant.id", t.ID, "tenant id is required")
	case strings.ContainsAny(t.ID, ": \t\n"):
		return errors.NewValidationError("tenant.id", t.ID, "tenant id must not contain ':' or whitespace")
	case t.Catalog == nil:
		return errors.NewValidationError("tenant.catalog", t.ID, "catalog service is required")
	case t.History == nil:
		return errors.NewValidationError("tenant.history", t.ID, "history store is required")
	case t.Feed.URL == "":
		return errors.NewValidationError("tenant.feed.url", t.ID, "feed url is required")
	}
	return nil
}

// tenantLocks serializes runs and reverts per tenant.
type tenantLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newTenantLocks() *tenantLocks {
	return &tenantLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks tenant. With noWait a held lock yields errors.ErrTenantBusy.
func (l *tenantLocks) acquire(tenant string, noWait bool) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[tenant]
	if !ok {
		m = &sync.Mutex{}
		l.locks[tenant] = m
	}
	l.mu.Unlock()

	if noWait {
		if !m.TryLock() {
			return nil, fmt.Errorf("tenant %s: %w", tenant, errors.ErrTenantBusy)
		}
	} else {
		m.Lock()
	}
	return m.Unlock, nil
}
