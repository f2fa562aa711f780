package history

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/catalogsync/pkg/constants"
	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/logging"
)

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithQueueSize sets the capacity of the write queue.
func WithQueueSize(n int) RecorderOption {
	return func(r *Recorder) {
		if n >= 0 {
			r.size = n
		}
	}
}

// WithWriteTimeout bounds each store write.
func WithWriteTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// Recorder persists entries in the background. Write failures are logged
// and counted, never returned: the mutation they describe already happened.
type Recorder struct {
	store   Store
	logger  *zerolog.Logger
	size    int
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Entry
	done   chan struct{}

	written  atomic.Int64
	failures atomic.Int64
}

// NewRecorder starts a recorder writing to store. The logger is taken from ctx.
func NewRecorder(ctx context.Context, store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:   store,
		logger:  logging.FromContext(ctx),
		size:    constants.HistoryQueueSize,
		timeout: constants.HistoryWriteTimeout,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.queue = make(chan Entry, r.size)
	go r.worker()
	return r
}

func (r *Recorder) worker() {
	defer close(r.done)
	for e := range r.queue {
		r.write(e)
	}
}

// Record queues e for writing. When the queue is full, or the recorder is
// closed, the entry is written synchronously instead.
func (r *Recorder) Record(e Entry) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.write(e)
		return
	}
	select {
	case r.queue <- e:
	default:
		r.write(e)
	}
}

func (r *Recorder) write(e Entry) {
	key := e.Key()
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.store.Put(ctx, key, e); err != nil {
		r.failures.Add(1)
		werr := &errors.HistoryWriteError{Key: key, Err: err}
		r.logger.Error().Err(werr).Str("run_id", e.RunID).Msg("history entry not persisted")
		return
	}
	r.written.Add(1)
}

// Close stops accepting queued writes and waits for the queue to drain or
// ctx to end.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Written returns the number of entries persisted.
func (r *Recorder) Written() int {
	return int(r.written.Load())
}

// Failures returns the number of entries that could not be persisted.
func (r *Recorder) Failures() int {
	return int(r.failures.Load())
}
