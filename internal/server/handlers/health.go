package handlers

import (
	"net/http"

	"github.com/agentstation/catalogsync/internal/server/response"
)

// HandleHealth handles GET /health.
// @Summary Health check
// @Description Health check endpoint (liveness probe)
// @Tags health
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Router /health [get].
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "catalogsync-api",
		"version": "v1",
	})
}

// HandleReady handles GET /api/v1/ready.
// @Summary Readiness check
// @Description Reports configured tenants and the real-time pipeline
// @Tags health
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Failure 503 {object} response.Response{error=response.Error}
// @Router /api/v1/ready [get].
func (h *Handlers) HandleReady(w http.ResponseWriter, _ *http.Request) {
	tenants := h.client.Tenants()
	if len(tenants) == 0 {
		response.ServiceUnavailable(w, "No tenants configured")
		return
	}

	response.OK(w, map[string]any{
		"status":            "ready",
		"tenants":           len(tenants),
		"runs_in_flight":    h.runs.inFlight(),
		"event_subscribers": h.broker.SubscriberCount(),
		"websocket_clients": h.wsHub.ClientCount(),
	})
}
