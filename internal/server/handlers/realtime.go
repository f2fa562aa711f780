package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/agentstation/catalogsync/internal/server/events"
	"github.com/agentstation/catalogsync/internal/server/response"
	ws "github.com/agentstation/catalogsync/internal/server/websocket"
	"github.com/agentstation/catalogsync/pkg/errors"
)

// HandleWebSocket handles WebSocket connections at /api/v1/events/ws.
// @Summary Run event stream
// @Description WebSocket connection streaming run, variant and revert events
// @Tags events
// @Success 101 "Switching Protocols"
// @Router /api/v1/events/ws [get].
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(uuid.NewString(), h.wsHub, conn)
	if !h.wsHub.Register(client) {
		_ = conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()

	h.broker.Publish(events.ClientConnected, map[string]any{
		"remote_addr": r.RemoteAddr,
	})
}

// HandleSSE handles Server-Sent Events connections at /api/v1/events/stream.
// @Summary Run event stream (SSE)
// @Description Server-Sent Events stream of run, variant and revert events, optionally for one tenant
// @Tags events
// @Produce text/event-stream
// @Param tenant query string false "Only events of this tenant"
// @Success 200 "Event stream"
// @Router /api/v1/events/stream [get].
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	if tenant := r.URL.Query().Get("tenant"); tenant != "" && !h.knownTenant(tenant) {
		response.ErrorFromType(w, r, errors.NewNotFoundError("tenant", tenant))
		return
	}
	h.sse.ServeHTTP(w, r)
}
