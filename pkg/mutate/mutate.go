// Package mutate applies accepted changes to the catalog in fixed-size,
// rate-limited batches. A failing batch is counted and reported but never
// stops the remaining batches.
package mutate

import (
	"context"
	"fmt"

	"github.com/agentstation/catalogsync/internal/utils/ptr"
	"github.com/agentstation/catalogsync/pkg/catalogs"
	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/logging"
	"github.com/agentstation/catalogsync/pkg/match"
)

// Result aggregates the outcome of all batches.
type Result struct {
	Successful    int      `json:"successful"`
	Failed        int      `json:"failed"`
	ErrorCount    int      `json:"error_count"`
	Errors        []string `json:"errors,omitempty"`
	SuccessfulIDs []string `json:"successful_ids,omitempty"`
	Batches       int      `json:"batches"`
}

func (r *Result) addError(limit int, msg string) {
	r.ErrorCount++
	if len(r.Errors) < limit {
		r.Errors = append(r.Errors, msg)
	}
}

// Mutator sends changes to a catalogs.Service in batches.
type Mutator struct {
	opts *Options
}

// New creates a Mutator.
func New(opts ...Option) (*Mutator, error) {
	o := Defaults().Apply(opts...)
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &Mutator{opts: o}, nil
}

// Prices applies price matches using the price batch size.
func (m *Mutator) Prices(ctx context.Context, svc catalogs.Service, matches []match.PriceMatch) *Result {
	changes := make([]catalogs.PriceChange, len(matches))
	for i, pm := range matches {
		changes[i] = catalogs.PriceChange{
			ProductID:      pm.ProductID,
			VariantID:      pm.VariantID,
			Price:          pm.NewPrice,
			CompareAtPrice: ptr.To(pm.NewCompareAtPrice),
		}
	}
	return m.PriceChanges(ctx, svc, changes)
}

// PriceChanges applies raw price changes, e.g. restored values during a revert.
func (m *Mutator) PriceChanges(ctx context.Context, svc catalogs.Service, changes []catalogs.PriceChange) *Result {
	return run(ctx, m.opts, "prices", changes, m.opts.PriceBatchSize,
		func(c catalogs.PriceChange) string { return c.VariantID },
		func(ctx context.Context, batch []catalogs.PriceChange) (*catalogs.MutationResult, error) {
			return m.SendPrices(ctx, svc, batch)
		})
}

// Flags applies flag matches using the flag batch size.
func (m *Mutator) Flags(ctx context.Context, svc catalogs.Service, matches []match.FlagMatch) *Result {
	changes := make([]catalogs.FlagChange, len(matches))
	for i, fm := range matches {
		changes[i] = catalogs.FlagChange{ProductID: fm.ProductID, VariantID: fm.VariantID, Value: fm.Available}
	}
	return run(ctx, m.opts, "flags", changes, m.opts.FlagBatchSize,
		func(c catalogs.FlagChange) string { return c.VariantID },
		func(ctx context.Context, batch []catalogs.FlagChange) (*catalogs.MutationResult, error) {
			return m.SendFlags(ctx, svc, batch)
		})
}

// SendPrices issues a single price mutation. Batches above the configured
// price batch size are rejected before contacting the service.
func (m *Mutator) SendPrices(ctx context.Context, svc catalogs.Service, batch []catalogs.PriceChange) (*catalogs.MutationResult, error) {
	if len(batch) > m.opts.PriceBatchSize {
		return nil, &errors.BatchSizeError{Size: len(batch), Max: m.opts.PriceBatchSize}
	}
	return svc.UpdatePrices(ctx, batch)
}

// SendFlags issues a single flag mutation. Batches above the configured
// flag batch size are rejected before contacting the service.
func (m *Mutator) SendFlags(ctx context.Context, svc catalogs.Service, batch []catalogs.FlagChange) (*catalogs.MutationResult, error) {
	if len(batch) > m.opts.FlagBatchSize {
		return nil, &errors.BatchSizeError{Size: len(batch), Max: m.opts.FlagBatchSize}
	}
	return svc.UpdateFlags(ctx, batch)
}

// run is the shared batch loop. Once started it is not interrupted by ctx:
// every batch is attempted so that as many changes as possible land.
func run[T any](
	ctx context.Context,
	opts *Options,
	kind string,
	items []T,
	size int,
	id func(T) string,
	send func(context.Context, []T) (*catalogs.MutationResult, error),
) *Result {
	logger := logging.FromContext(ctx)
	ctx = context.WithoutCancel(ctx)
	res := &Result{}

	for start, n := 0, 1; start < len(items); start, n = start+size, n+1 {
		if start > 0 {
			_ = opts.Clock.Sleep(ctx, opts.Delay)
		}
		end := min(start+size, len(items))
		batch := items[start:end]
		res.Batches++

		mr, err := send(ctx, batch)
		if err != nil {
			res.Failed += len(batch)
			berr := &errors.MutationBatchError{Batch: n, Size: len(batch), Err: err}
			res.addError(opts.MaxErrors, berr.Error())
			logger.Warn().Err(err).Str("kind", kind).Int("batch", n).Int("size", len(batch)).Msg("mutation batch failed")
			continue
		}

		inBatch := make(map[string]struct{}, len(batch))
		for _, item := range batch {
			inBatch[id(item)] = struct{}{}
		}
		accepted := 0
		for _, vid := range mr.Accepted {
			if _, ok := inBatch[vid]; !ok {
				continue
			}
			delete(inBatch, vid)
			accepted++
			res.SuccessfulIDs = append(res.SuccessfulIDs, vid)
		}
		res.Successful += accepted
		res.Failed += len(batch) - accepted

		for _, ue := range mr.UserErrors {
			res.addError(opts.MaxErrors, fmt.Sprintf("batch %d: %s", n, ue.String()))
		}
		logger.Debug().Str("kind", kind).Int("batch", n).Int("size", len(batch)).Int("accepted", accepted).Msg("mutation batch applied")
	}
	return res
}
