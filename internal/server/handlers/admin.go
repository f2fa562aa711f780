package handlers

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/internal/server/events"
	"github.com/agentstation/catalogsync/internal/server/response"
	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/logging"
)

// runRequest holds the query parameters shared by run endpoints.
type runRequest struct {
	tenant string
	dryRun bool
	wait   bool
}

func parseRunRequest(r *http.Request) (runRequest, error) {
	req := runRequest{tenant: r.PathValue("tenant")}
	q := r.URL.Query()
	for name, dst := range map[string]*bool{"dry_run": &req.dryRun, "wait": &req.wait} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return req, errors.NewValidationError(name, raw, "must be a boolean")
		}
		*dst = v
	}
	return req, nil
}

// HandleSync handles POST /api/v1/tenants/{tenant}/sync.
// @Summary Run a price reconciliation
// @Description Starts a price run for the tenant. Without wait=true the run
// @Description continues in the background and its result is streamed as events.
// @Tags runs
// @Produce json
// @Param tenant path string true "Tenant ID"
// @Param dry_run query bool false "Validate without mutating"
// @Param wait query bool false "Block until the run finishes"
// @Success 200 {object} response.Response{data=catalogsync.RunResult}
// @Success 202 {object} response.Response{data=object}
// @Failure 404 {object} response.Response{error=response.Error}
// @Failure 409 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/tenants/{tenant}/sync [post].
func (h *Handlers) HandleSync(w http.ResponseWriter, r *http.Request) {
	h.startRun(w, r, "prices", func(ctx context.Context, req runRequest) (any, error) {
		return h.client.Sync(ctx, req.tenant, catalogsync.WithNoWait(), catalogsync.WithDryRun(req.dryRun))
	})
}

// HandleSyncFlags handles POST /api/v1/tenants/{tenant}/flags.
// @Summary Run an availability flag reconciliation
// @Tags runs
// @Produce json
// @Param tenant path string true "Tenant ID"
// @Param dry_run query bool false "Compute changes without mutating"
// @Param wait query bool false "Block until the run finishes"
// @Success 200 {object} response.Response{data=catalogsync.FlagResult}
// @Success 202 {object} response.Response{data=object}
// @Failure 409 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/tenants/{tenant}/flags [post].
func (h *Handlers) HandleSyncFlags(w http.ResponseWriter, r *http.Request) {
	h.startRun(w, r, "flags", func(ctx context.Context, req runRequest) (any, error) {
		return h.client.SyncFlags(ctx, req.tenant, catalogsync.WithNoWait(), catalogsync.WithDryRun(req.dryRun))
	})
}

// startRun validates the request and executes fn either inline or in the
// background. One background run per tenant is allowed at a time; the
// tenant lock inside the client covers runs started elsewhere.
func (h *Handlers) startRun(w http.ResponseWriter, r *http.Request, kind string, fn func(context.Context, runRequest) (any, error)) {
	req, err := parseRunRequest(r)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	if !h.knownTenant(req.tenant) {
		response.ErrorFromType(w, r, errors.NewNotFoundError("tenant", req.tenant))
		return
	}

	if req.wait {
		res, err := fn(r.Context(), req)
		if err != nil {
			response.ErrorFromType(w, r, err)
			return
		}
		response.OK(w, res)
		return
	}

	if !h.runs.start(req.tenant) {
		response.ErrorFromType(w, r, errors.ErrTenantBusy)
		return
	}
	requestID := logging.RequestID(r.Context())
	go func() {
		defer h.runs.done(req.tenant)
		ctx := logging.WithRequestID(h.runCtx, requestID)
		if _, err := fn(ctx, req); err != nil {
			logging.FromContext(ctx).Warn().Err(err).Str("tenant", req.tenant).Str("kind", kind).Msg("background run failed")
		}
	}()

	accepted := map[string]any{
		"tenant":     req.tenant,
		"kind":       kind,
		"dry_run":    req.dryRun,
		"request_id": requestID,
		"status":     "accepted",
	}
	h.broker.Publish(events.SyncAccepted, accepted)
	response.Accepted(w, accepted)
}

// HandleStats handles GET /api/v1/stats.
// @Summary Server statistics
// @Description Runtime and real-time pipeline statistics
// @Tags admin
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Security ApiKeyAuth
// @Router /api/v1/stats [get].
func (h *Handlers) HandleStats(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response.OK(w, map[string]any{
		"runtime": map[string]any{
			"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
			"goroutines":     runtime.NumGoroutine(),
			"memory_mb":      memStats.Alloc / 1024 / 1024,
			"memory_sys_mb":  memStats.Sys / 1024 / 1024,
		},
		"tenants":        h.client.Tenants(),
		"runs_in_flight": h.runs.inFlight(),
		"cache":          h.cache.GetStats(),
		"realtime": map[string]any{
			"websocket_clients": h.wsHub.ClientCount(),
			"sse_clients":       h.sse.ClientCount(),
			"event_subscribers": h.broker.SubscriberCount(),
		},
	})
}
