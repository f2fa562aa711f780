// Package sse provides Server-Sent Events support for run events.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// DefaultKeepAlive is the interval between comment lines on an idle stream.
const DefaultKeepAlive = 30 * time.Second

// Event represents an SSE event. Tenant scopes the event; an empty Tenant
// reaches every client.
type Event struct {
	Event  string `json:"event,omitempty"`
	ID     string `json:"id,omitempty"`
	Tenant string `json:"-"`
	Data   any    `json:"data"`
}

// client is one open stream. An empty tenant receives all events.
type client struct {
	events chan Event
	tenant string
}

func (c *client) wants(e Event) bool {
	return c.tenant == "" || e.Tenant == "" || c.tenant == e.Tenant
}

// Broadcaster manages Server-Sent Events connections.
type Broadcaster struct {
	clients    map[*client]bool
	newClients chan *client
	closed     chan *client
	events     chan Event
	done       chan struct{}
	seq        atomic.Uint64
	keepAlive  time.Duration
	mu         sync.RWMutex
	logger     *zerolog.Logger
}

// NewBroadcaster creates a new SSE broadcaster.
func NewBroadcaster(logger *zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		clients:    make(map[*client]bool),
		newClients: make(chan *client, 10), // buffered so clients can connect before Run starts
		closed:     make(chan *client, 10),
		events:     make(chan Event, 256),
		done:       make(chan struct{}),
		keepAlive:  DefaultKeepAlive,
		logger:     logger,
	}
}

// SetKeepAlive changes the idle comment interval. Call before Run.
func (b *Broadcaster) SetKeepAlive(d time.Duration) {
	b.keepAlive = d
}

// Run starts the broadcaster's main loop until ctx is canceled.
func (b *Broadcaster) Run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			for c := range b.clients {
				close(c.events)
			}
			b.clients = make(map[*client]bool)
			b.mu.Unlock()
			b.logger.Info().Msg("SSE broadcaster shut down")
			return

		case c := <-b.newClients:
			b.mu.Lock()
			b.clients[c] = true
			n := len(b.clients)
			b.mu.Unlock()
			b.logger.Info().Int("total_clients", n).Str("tenant", c.tenant).Msg("SSE client connected")

		case c := <-b.closed:
			b.mu.Lock()
			if b.clients[c] {
				delete(b.clients, c)
				close(c.events)
			}
			n := len(b.clients)
			b.mu.Unlock()
			b.logger.Info().Int("total_clients", n).Msg("SSE client disconnected")

		case event := <-b.events:
			b.mu.RLock()
			for c := range b.clients {
				if !c.wants(event) {
					continue
				}
				select {
				case c.events <- event:
				default:
					b.logger.Warn().Str("event", event.Event).Msg("SSE client buffer full, event skipped")
				}
			}
			b.mu.RUnlock()
		}
	}
}

// Broadcast sends an event to the connected clients. Events without an ID
// get the next sequence number.
func (b *Broadcaster) Broadcast(event Event) {
	if event.ID == "" {
		event.ID = strconv.FormatUint(b.seq.Add(1), 10)
	}
	select {
	case b.events <- event:
	default:
		b.logger.Warn().Str("event", event.Event).Msg("SSE broadcast channel full, event dropped")
	}
}

// ClientCount returns the number of connected SSE clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// ServeHTTP streams events. The optional tenant query parameter limits the
// stream to one tenant's events.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// Streams outlive the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	c := &client{events: make(chan Event, 256), tenant: r.URL.Query().Get("tenant")}
	select {
	case b.newClients <- c:
	case <-b.done:
		http.Error(w, "event stream closed", http.StatusServiceUnavailable)
		return
	}
	defer func() {
		select {
		case b.closed <- c:
		case <-b.done:
		}
	}()

	b.writeEvent(w, Event{
		Event: "connected",
		Data: map[string]any{
			"tenant":    c.tenant,
			"timestamp": time.Now().UTC(),
		},
	})
	if err := rc.Flush(); err != nil {
		b.logger.Error().Err(err).Msg("Streaming not supported")
		return
	}

	ticker := time.NewTicker(b.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case event, ok := <-c.events:
			if !ok {
				return
			}
			b.writeEvent(w, event)
		case <-ticker.C:
			_, _ = fmt.Fprint(w, ": keepalive\n\n")
		case <-r.Context().Done():
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// writeEvent writes one SSE frame.
func (b *Broadcaster) writeEvent(w http.ResponseWriter, event Event) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		b.logger.Error().Err(err).Str("event", event.Event).Msg("Failed to marshal SSE event data")
		return
	}
	if event.Event != "" {
		_, _ = fmt.Fprintf(w, "event: %s\n", event.Event)
	}
	if event.ID != "" {
		_, _ = fmt.Fprintf(w, "id: %s\n", event.ID)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}
