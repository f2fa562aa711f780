// Package handlers provides HTTP request handlers for the catalogsync API.
package handlers

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/internal/server/cache"
	"github.com/agentstation/catalogsync/internal/server/events"
	"github.com/agentstation/catalogsync/internal/server/sse"
	ws "github.com/agentstation/catalogsync/internal/server/websocket"
)

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	client    catalogsync.Client
	cache     *cache.Cache
	broker    *events.Broker
	wsHub     *ws.Hub
	sse       *sse.Broadcaster
	upgrader  websocket.Upgrader
	logger    *zerolog.Logger
	startTime time.Time

	// runCtx outlives requests; background runs use it.
	runCtx context.Context
	runs   *runTracker
}

// New creates a new Handlers instance. Runs started without waiting are
// bound to runCtx rather than to the request.
func New(
	runCtx context.Context,
	client catalogsync.Client,
	respCache *cache.Cache,
	broker *events.Broker,
	wsHub *ws.Hub,
	sseBroadcaster *sse.Broadcaster,
	upgrader websocket.Upgrader,
	logger *zerolog.Logger,
) *Handlers {
	return &Handlers{
		client:    client,
		cache:     respCache,
		broker:    broker,
		wsHub:     wsHub,
		sse:       sseBroadcaster,
		upgrader:  upgrader,
		logger:    logger,
		startTime: time.Now(),
		runCtx:    runCtx,
		runs:      &runTracker{active: make(map[string]bool)},
	}
}

// Wait blocks until background runs have returned.
func (h *Handlers) Wait() {
	h.runs.wg.Wait()
}

func (h *Handlers) knownTenant(id string) bool {
	return slices.Contains(h.client.Tenants(), id)
}

// runTracker remembers which tenants have a background run in flight.
type runTracker struct {
	mu     sync.Mutex
	active map[string]bool
	wg     sync.WaitGroup
}

// start claims key. It reports false when a run for key is in flight.
func (t *runTracker) start(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active[key] {
		return false
	}
	t.active[key] = true
	t.wg.Add(1)
	return true
}

func (t *runTracker) done(key string) {
	t.mu.Lock()
	delete(t.active, key)
	t.mu.Unlock()
	t.wg.Done()
}

func (t *runTracker) inFlight() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.active))
	for k := range t.active {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
