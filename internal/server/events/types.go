// Package events fans engine hook events out to the real-time transports.
//
// The broker connects the client's hooks to subscribers such as the
// WebSocket hub and the SSE broadcaster through a single buffered pipeline.
package events

import (
	"time"

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/pkg/revert"
)

// EventType represents the type of run event.
type EventType string

// Event types.
const (
	// Run events (from client hooks).
	RunCompleted     EventType = "run.completed"
	RunFailed        EventType = "run.failed"
	FlagRunCompleted EventType = "flags.completed"
	VariantUpdated   EventType = "variant.updated"
	RunReverted      EventType = "run.reverted"

	// Sync requests accepted by the API.
	SyncAccepted EventType = "sync.accepted"

	// Client events (from transport layers).
	ClientConnected EventType = "client.connected"
)

// Event represents a run event with type, timestamp, and data.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// TenantOf returns the tenant an event's data belongs to, or "" for events
// that concern no single tenant.
func TenantOf(data any) string {
	switch d := data.(type) {
	case *catalogsync.RunResult:
		return d.Tenant
	case *catalogsync.FlagResult:
		return d.Tenant
	case *revert.Result:
		return d.Tenant
	case map[string]any:
		s, _ := d["tenant"].(string)
		return s
	}
	return ""
}
