package catalogsync

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/history"
	"github.com/agentstation/catalogsync/pkg/logging"
)

// Compile-time interface check to ensure proper implementation.
var _ AutoSyncer = (*client)(nil)

// AutoSyncer provides controls for scheduled runs.
type AutoSyncer interface {
	// AutoSyncOn starts running every tenant on the configured interval
	AutoSyncOn() error

	// AutoSyncOff stops scheduled runs
	AutoSyncOff() error
}

// AutoSyncOn starts running every tenant on the configured interval.
// Scheduled runs are recorded as triggered by the schedule.
func (c *client) AutoSyncOn() error {
	if c.options.autoSyncInterval <= 0 {
		return &errors.ValidationError{
			Field:   "autoSyncInterval",
			Value:   c.options.autoSyncInterval,
			Message: "sync interval must be positive",
		}
	}

	// Stop any existing schedule to prevent resource leaks
	_ = c.stopAutoSync()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopCh = make(chan struct{})
	c.ticker = time.NewTicker(c.options.autoSyncInterval)
	ctx, cancel := context.WithCancel(context.Background())
	c.autoCancel = cancel
	c.autoDone = make(chan struct{})

	go c.autoSyncLoop(ctx, c.ticker, c.stopCh, c.autoDone)
	return nil
}

func (c *client) autoSyncLoop(ctx context.Context, ticker *time.Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ticker.C:
			runCtx, cancel := ctx, context.CancelFunc(func() {})
			if c.options.runTimeout > 0 {
				runCtx, cancel = context.WithTimeout(ctx, c.options.runTimeout)
			}
			results, err := c.SyncAll(runCtx, WithTrigger(history.TriggeredScheduled))
			cancel()

			if err != nil {
				if stderrors.Is(err, context.Canceled) && ctx.Err() != nil {
					return
				}
				logging.Error().Err(err).Msg("scheduled run had failures")
			}
			logging.Info().Int("tenants", len(results)).Msg("scheduled run finished")
		case <-ctx.Done():
			return
		case <-stop:
			return
		}
	}
}

// AutoSyncOff stops scheduled runs.
func (c *client) AutoSyncOff() error {
	_ = c.stopAutoSync()
	return nil
}

// stopAutoSync stops the schedule and returns a channel closed when the
// loop has exited, or nil when no schedule was running.
func (c *client) stopAutoSync() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
	if c.autoCancel != nil {
		c.autoCancel()
		c.autoCancel = nil
	}
	select {
	case <-c.stopCh:
		// Already closed
	default:
		close(c.stopCh)
	}
	done := c.autoDone
	c.autoDone = nil
	return done
}
