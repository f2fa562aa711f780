// Package snapshot loads a point-in-time index of the product catalog through
// the asynchronous bulk query protocol: submit, poll until terminal, download,
// and stream-parse the NDJSON result.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/agentstation/catalogsync/pkg/catalogs"
	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/logging"
)

// Snapshot is a loaded catalog index with job metadata.
type Snapshot struct {
	Index    *catalogs.Index
	Stats    IndexStats
	JobID    string
	Polls    int
	Duration time.Duration
}

// Loader builds catalog snapshots from a catalogs.Service.
type Loader struct {
	svc  catalogs.Service
	opts *Options
}

// NewLoader creates a loader for svc.
func NewLoader(svc catalogs.Service, opts ...Option) (*Loader, error) {
	o := Defaults().Apply(opts...)
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &Loader{svc: svc, opts: o}, nil
}

// Load returns the catalog index.
func (l *Loader) Load(ctx context.Context) (*catalogs.Index, error) {
	snap, err := l.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Index, nil
}

// Snapshot runs the full bulk job protocol. Failures are *errors.BulkJobError
// unless ctx is canceled.
func (l *Loader) Snapshot(ctx context.Context) (*Snapshot, error) {
	logger := logging.FromContext(ctx)
	start := l.opts.Clock.Now()

	// Step 1: Submit the bulk query
	sub, err := l.svc.SubmitBulkQuery(ctx, l.opts.Query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("submitting bulk job: %w", ctx.Err())
		}
		return nil, errors.NewBulkJobError(errors.BulkJobCreationFailed, "", "", err)
	}
	if len(sub.UserErrors) > 0 {
		return nil, errors.NewBulkJobError(errors.BulkJobCreationFailed, sub.JobID, sub.UserErrors[0].String(), nil)
	}
	logger.Debug().Str("job_id", sub.JobID).Msg("bulk job submitted")

	// Step 2: Poll until the job is terminal or the deadline passes
	job, err := l.poll(ctx, sub.JobID, start)
	if err != nil {
		return nil, err
	}

	switch job.State() {
	case catalogs.JobFailed:
		return nil, errors.NewBulkJobError(errors.BulkJobFailed, job.ID, job.ErrorCode, nil)
	case catalogs.JobCanceled:
		return nil, errors.NewBulkJobError(errors.BulkJobCanceled, job.ID, "", nil)
	}

	snap := &Snapshot{JobID: job.ID, Polls: job.Polls()}

	// Step 3: A completed job without a result file produced no rows
	if job.URL == "" {
		snap.Index = catalogs.NewIndex()
		snap.Duration = l.opts.Clock.Now().Sub(start)
		logger.Info().Str("job_id", job.ID).Msg("bulk job completed with no results")
		return snap, nil
	}

	// Step 4: Download and index the result
	dctx, cancel := context.WithTimeout(ctx, l.opts.DownloadTimeout)
	defer cancel()

	body, err := l.svc.Download(dctx, job.URL)
	if err != nil {
		return nil, errors.NewBulkJobError(errors.BulkJobFailed, job.ID, "result download failed", err)
	}
	defer func() { _ = body.Close() }()

	idx, stats, err := ParseIndex(body, l.opts.MaxLineSize)
	if err != nil {
		return nil, errors.NewBulkJobError(errors.BulkJobFailed, job.ID, "result download failed", err)
	}

	snap.Index = idx
	snap.Stats = stats
	snap.Duration = l.opts.Clock.Now().Sub(start)

	event := logger.Info()
	if stats.Malformed > 0 {
		event = logger.Warn()
	}
	event.Str("job_id", job.ID).
		Int("polls", snap.Polls).
		Int("variants", stats.Variants).
		Int("match_keys", idx.Len()).
		Int("without_key", stats.WithoutKey).
		Int("malformed", stats.Malformed).
		Msg("catalog snapshot indexed")
	return snap, nil
}

func (l *Loader) poll(ctx context.Context, jobID string, start time.Time) (*Job, error) {
	logger := logging.FromContext(ctx)
	deadline := start.Add(l.opts.MaxPollWait)
	job := NewJob(jobID)

	for {
		status, err := l.svc.PollJob(ctx, jobID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, fmt.Errorf("polling bulk job %s: %w", jobID, ctx.Err())
			}
			logger.Warn().Err(err).Str("job_id", jobID).Msg("bulk job poll failed, retrying")
		default:
			if err := job.Advance(status); err != nil {
				return nil, errors.NewBulkJobError(errors.BulkJobFailed, jobID, "", err)
			}
			if job.Done() {
				return job, nil
			}
		}

		if !l.opts.Clock.Now().Before(deadline) {
			return nil, errors.NewBulkJobError(errors.BulkJobTimeout, jobID,
				fmt.Sprintf("not finished after %s", l.opts.MaxPollWait), nil)
		}
		if err := l.opts.Clock.Sleep(ctx, l.opts.PollInterval); err != nil {
			return nil, fmt.Errorf("polling bulk job %s: %w", jobID, err)
		}
	}
}
