package catalogsync

import (
	"sync"

	"github.com/agentstation/catalogsync/pkg/history"
	"github.com/agentstation/catalogsync/pkg/logging"
	"github.com/agentstation/catalogsync/pkg/revert"
)

// Compile-time interface check to ensure proper implementation.
var _ Hooks = (*client)(nil)

// Hook function types for run events
type (
	// RunCompletedHook is called after a price run finishes, dry runs included
	RunCompletedHook func(result *RunResult)

	// FlagRunCompletedHook is called after a flag run finishes
	FlagRunCompletedHook func(result *FlagResult)

	// RunFailedHook is called when a run aborts with a fatal error
	RunFailedHook func(tenant, runID string, err error)

	// VariantUpdatedHook is called for every variant whose price was applied
	VariantUpdatedHook func(tenant, runID string, update history.UpdateSample)

	// RunRevertedHook is called after a revert finishes
	RunRevertedHook func(result *revert.Result)
)

// Hooks provides event callback registration.
type Hooks interface {
	OnRunCompleted(RunCompletedHook)
	OnFlagRunCompleted(FlagRunCompletedHook)
	OnRunFailed(RunFailedHook)
	OnVariantUpdated(VariantUpdatedHook)
	OnRunReverted(RunRevertedHook)
}

// hooks manages event callbacks.
type hooks struct {
	mu                 sync.RWMutex
	onRunCompleted     []RunCompletedHook
	onFlagRunCompleted []FlagRunCompletedHook
	onRunFailed        []RunFailedHook
	onVariantUpdated   []VariantUpdatedHook
	onRunReverted      []RunRevertedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnRunCompleted registers a callback for finished price runs.
func (c *client) OnRunCompleted(fn RunCompletedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onRunCompleted = append(c.hooks.onRunCompleted, fn)
}

// OnFlagRunCompleted registers a callback for finished flag runs.
func (c *client) OnFlagRunCompleted(fn FlagRunCompletedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onFlagRunCompleted = append(c.hooks.onFlagRunCompleted, fn)
}

// OnRunFailed registers a callback for aborted runs.
func (c *client) OnRunFailed(fn RunFailedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onRunFailed = append(c.hooks.onRunFailed, fn)
}

// OnVariantUpdated registers a callback for applied variant prices.
func (c *client) OnVariantUpdated(fn VariantUpdatedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onVariantUpdated = append(c.hooks.onVariantUpdated, fn)
}

// OnRunReverted registers a callback for finished reverts.
func (c *client) OnRunReverted(fn RunRevertedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onRunReverted = append(c.hooks.onRunReverted, fn)
}

// Hooks run synchronously on the run's goroutine. A panicking hook is
// logged and does not affect the run.
func safeCall(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().Interface("panic", r).Str("hook", name).Msg("hook panicked")
		}
	}()
	fn()
}

func (h *hooks) triggerRunCompleted(r *RunResult) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onRunCompleted {
		safeCall("run_completed", func() { fn(r) })
	}
}

func (h *hooks) triggerFlagRunCompleted(r *FlagResult) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onFlagRunCompleted {
		safeCall("flag_run_completed", func() { fn(r) })
	}
}

func (h *hooks) triggerRunFailed(tenant, runID string, err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onRunFailed {
		safeCall("run_failed", func() { fn(tenant, runID, err) })
	}
}

func (h *hooks) triggerVariantUpdated(tenant, runID string, u history.UpdateSample) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onVariantUpdated {
		safeCall("variant_updated", func() { fn(tenant, runID, u) })
	}
}

func (h *hooks) triggerRunReverted(r *revert.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onRunReverted {
		safeCall("run_reverted", func() { fn(r) })
	}
}
