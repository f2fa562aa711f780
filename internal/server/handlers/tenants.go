package handlers

import (
	"net/http"

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/internal/server/cache"
	"github.com/agentstation/catalogsync/internal/server/response"
	"github.com/agentstation/catalogsync/pkg/errors"
)

// HandleListTenants handles GET /api/v1/tenants.
// @Summary List tenants
// @Tags tenants
// @Produce json
// @Success 200 {object} response.Response{data=[]string}
// @Security ApiKeyAuth
// @Router /api/v1/tenants [get].
func (h *Handlers) HandleListTenants(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"tenants": h.client.Tenants(),
	})
}

// HandleListRuns handles GET /api/v1/tenants/{tenant}/runs.
// @Summary List recorded runs
// @Description Runs with history entries, newest first
// @Tags runs
// @Produce json
// @Param tenant path string true "Tenant ID"
// @Success 200 {object} response.Response{data=object}
// @Failure 404 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/tenants/{tenant}/runs [get].
func (h *Handlers) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	tenant := r.PathValue("tenant")
	key := cache.RunsKey(tenant)
	if v, ok := h.cache.Get(key); ok {
		w.Header().Set("X-Cache", "HIT")
		response.OK(w, v)
		return
	}

	runs, err := h.client.Runs(r.Context(), tenant)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	data := map[string]any{
		"tenant": tenant,
		"runs":   runs,
		"count":  len(runs),
	}
	h.cache.Set(key, data)
	w.Header().Set("X-Cache", "MISS")
	response.OK(w, data)
}

// HandleGetRun handles GET /api/v1/tenants/{tenant}/runs/{runID}.
// @Summary Run history entries
// @Tags runs
// @Produce json
// @Param tenant path string true "Tenant ID"
// @Param runID path string true "Run ID"
// @Success 200 {object} response.Response{data=object}
// @Failure 404 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/tenants/{tenant}/runs/{runID} [get].
func (h *Handlers) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	tenant, runID := r.PathValue("tenant"), r.PathValue("runID")
	key := cache.RunKey(tenant, runID)
	if v, ok := h.cache.Get(key); ok {
		w.Header().Set("X-Cache", "HIT")
		response.OK(w, v)
		return
	}

	items, err := h.client.RunEntries(r.Context(), tenant, runID)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	if len(items) == 0 {
		response.ErrorFromType(w, r, errors.NewNotFoundError("run", runID))
		return
	}

	entries := make([]any, len(items))
	for i, it := range items {
		entries[i] = it.Entry
	}
	data := map[string]any{
		"tenant":  tenant,
		"run_id":  runID,
		"entries": entries,
		"count":   len(entries),
	}
	h.cache.Set(key, data)
	w.Header().Set("X-Cache", "MISS")
	response.OK(w, data)
}

// HandleRevert handles POST /api/v1/tenants/{tenant}/runs/{runID}/revert.
// @Summary Revert a run
// @Description Restores the prices a run overwrote and deletes its history
// @Tags runs
// @Produce json
// @Param tenant path string true "Tenant ID"
// @Param runID path string true "Run ID"
// @Success 200 {object} response.Response{data=revert.Result}
// @Failure 404 {object} response.Response{error=response.Error}
// @Failure 409 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/tenants/{tenant}/runs/{runID}/revert [post].
func (h *Handlers) HandleRevert(w http.ResponseWriter, r *http.Request) {
	tenant, runID := r.PathValue("tenant"), r.PathValue("runID")
	res, err := h.client.Revert(r.Context(), tenant, runID, catalogsync.WithNoWait())
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	response.OK(w, res)
}
