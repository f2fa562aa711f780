// Package memory provides an in-process catalogs.Service. It serves bulk
// snapshots from its own variant table, applies mutations to it, and can be
// scripted to exercise job progressions, partial acceptance and failures.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/agentstation/catalogsync/internal/utils/ptr"
	"github.com/agentstation/catalogsync/pkg/catalogs"
	"github.com/agentstation/catalogsync/pkg/errors"
)

const urlPrefix = "memory://jobs/"

// Service is an in-memory catalog.
type Service struct {
	mu sync.Mutex

	variants map[string]catalogs.Entry
	order    []string

	script       []catalogs.JobState
	errorCode    string
	emptyResult  bool
	submitErr    error
	submitUErrs  []catalogs.UserError
	pollFailures int
	pollErr      error
	downloadErr  error
	rejected     map[string]string
	batchErrs    map[int]error

	jobs       int
	polls      int
	queries    []string
	priceCalls [][]catalogs.PriceChange
	flagCalls  [][]catalogs.FlagChange
}

var _ catalogs.Service = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithEntries seeds the catalog.
func WithEntries(entries ...catalogs.Entry) Option {
	return func(s *Service) {
		for _, e := range entries {
			s.put(e)
		}
	}
}

// WithJobScript sets the states returned by successive polls. The last state
// repeats once the script is exhausted. The default script completes on the
// first poll.
func WithJobScript(states ...catalogs.JobState) Option {
	return func(s *Service) {
		s.script = append([]catalogs.JobState(nil), states...)
	}
}

// WithJobErrorCode sets the error code reported by a failed job.
func WithJobErrorCode(code string) Option {
	return func(s *Service) { s.errorCode = code }
}

// WithEmptyResult makes completed jobs report no result URL.
func WithEmptyResult() Option {
	return func(s *Service) { s.emptyResult = true }
}

// WithSubmitError makes every submission fail with err.
func WithSubmitError(err error) Option {
	return func(s *Service) { s.submitErr = err }
}

// WithSubmitUserErrors makes submissions return user errors.
func WithSubmitUserErrors(errs ...catalogs.UserError) Option {
	return func(s *Service) { s.submitUErrs = errs }
}

// WithPollFailures makes the first n polls fail with err.
func WithPollFailures(n int, err error) Option {
	return func(s *Service) {
		s.pollFailures = n
		s.pollErr = err
	}
}

// WithDownloadError makes downloads fail with err.
func WithDownloadError(err error) Option {
	return func(s *Service) { s.downloadErr = err }
}

// WithRejected makes mutations of variantID fail with a user error.
func WithRejected(variantID, message string) Option {
	return func(s *Service) { s.rejected[variantID] = message }
}

// WithBatchError makes the n-th mutation call (1-based, prices and flags
// counted together) fail with err without applying anything.
func WithBatchError(n int, err error) Option {
	return func(s *Service) { s.batchErrs[n] = err }
}

// New returns an in-memory catalog service.
func New(opts ...Option) *Service {
	s := &Service{
		variants:  make(map[string]catalogs.Entry),
		script:    []catalogs.JobState{catalogs.JobCompleted},
		rejected:  make(map[string]string),
		batchErrs: make(map[int]error),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) put(e catalogs.Entry) {
	if _, ok := s.variants[e.VariantID]; !ok {
		s.order = append(s.order, e.VariantID)
	}
	s.variants[e.VariantID] = e
}

// SubmitBulkQuery implements catalogs.Service.
func (s *Service) SubmitBulkQuery(ctx context.Context, query string) (*catalogs.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries = append(s.queries, query)
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	if len(s.submitUErrs) > 0 {
		return &catalogs.Submission{UserErrors: s.submitUErrs}, nil
	}
	s.jobs++
	s.polls = 0
	return &catalogs.Submission{JobID: s.jobID(), Status: catalogs.JobCreated}, nil
}

func (s *Service) jobID() string {
	return fmt.Sprintf("gid://memory/BulkOperation/%d", s.jobs)
}

// PollJob implements catalogs.Service.
func (s *Service) PollJob(ctx context.Context, jobID string) (*catalogs.JobStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if jobID != s.jobID() {
		return nil, errors.NewNotFoundError("bulk job", jobID)
	}
	s.polls++
	if s.polls <= s.pollFailures {
		return nil, s.pollErr
	}

	i := s.polls - s.pollFailures - 1
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	status := &catalogs.JobStatus{ID: jobID, Status: s.script[i]}
	switch status.Status {
	case catalogs.JobCompleted:
		status.ObjectCount = int64(len(s.variants))
		if !s.emptyResult {
			status.URL = urlPrefix + jobID
		}
	case catalogs.JobFailed:
		status.ErrorCode = s.errorCode
	}
	return status, nil
}

// Download implements catalogs.Service. The result lists each product
// followed by its variants, as a bulk export does.
func (s *Service) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.downloadErr != nil {
		return nil, s.downloadErr
	}
	if !strings.HasPrefix(url, urlPrefix) {
		return nil, errors.NewNotFoundError("result", url)
	}

	byProduct := make(map[string][]catalogs.Entry)
	var products []string
	for _, id := range s.order {
		e := s.variants[id]
		if _, ok := byProduct[e.ProductID]; !ok {
			products = append(products, e.ProductID)
		}
		byProduct[e.ProductID] = append(byProduct[e.ProductID], e)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, pid := range products {
		if err := enc.Encode(map[string]any{"id": pid}); err != nil {
			return nil, err
		}
		for _, e := range byProduct[pid] {
			if err := enc.Encode(variantLine(e)); err != nil {
				return nil, err
			}
		}
	}
	return io.NopCloser(&buf), nil
}

func variantLine(e catalogs.Entry) map[string]any {
	line := map[string]any{
		"id":             e.VariantID,
		"__parentId":     e.ProductID,
		"price":          e.CurrentPrice.StringFixed(2),
		"compareAtPrice": nil,
	}
	if e.MatchKey != "" {
		line["barcode"] = e.MatchKey
	}
	if e.CurrentCompareAtPrice != nil {
		line["compareAtPrice"] = e.CurrentCompareAtPrice.StringFixed(2)
	}
	if e.Flag != nil {
		line["experienceCenter"] = map[string]string{"value": fmt.Sprint(*e.Flag)}
	}
	return line
}

// UpdatePrices implements catalogs.Service.
func (s *Service) UpdatePrices(ctx context.Context, changes []catalogs.PriceChange) (*catalogs.MutationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.priceCalls = append(s.priceCalls, append([]catalogs.PriceChange(nil), changes...))
	if err := s.batchErrs[len(s.priceCalls)+len(s.flagCalls)]; err != nil {
		return nil, err
	}

	result := &catalogs.MutationResult{}
	for _, c := range changes {
		e, ok := s.variants[c.VariantID]
		if !ok {
			result.UserErrors = append(result.UserErrors, catalogs.UserError{
				Field: []string{"variants", c.VariantID}, Message: "variant does not exist",
			})
			continue
		}
		if msg, bad := s.rejected[c.VariantID]; bad {
			result.UserErrors = append(result.UserErrors, catalogs.UserError{
				Field: []string{"variants", c.VariantID, "price"}, Message: msg,
			})
			continue
		}
		e.CurrentPrice = c.Price
		e.CurrentCompareAtPrice = ptr.Clone(c.CompareAtPrice)
		s.variants[c.VariantID] = e
		result.Accepted = append(result.Accepted, c.VariantID)
	}
	return result, nil
}

// UpdateFlags implements catalogs.Service.
func (s *Service) UpdateFlags(ctx context.Context, changes []catalogs.FlagChange) (*catalogs.MutationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flagCalls = append(s.flagCalls, append([]catalogs.FlagChange(nil), changes...))
	if err := s.batchErrs[len(s.priceCalls)+len(s.flagCalls)]; err != nil {
		return nil, err
	}

	result := &catalogs.MutationResult{}
	for _, c := range changes {
		e, ok := s.variants[c.VariantID]
		if !ok {
			result.UserErrors = append(result.UserErrors, catalogs.UserError{
				Field: []string{"metafields", c.VariantID}, Message: "owner does not exist",
			})
			continue
		}
		if msg, bad := s.rejected[c.VariantID]; bad {
			result.UserErrors = append(result.UserErrors, catalogs.UserError{
				Field: []string{"metafields", c.VariantID, "value"}, Message: msg,
			})
			continue
		}
		e.Flag = ptr.To(c.Value)
		s.variants[c.VariantID] = e
		result.Accepted = append(result.Accepted, c.VariantID)
	}
	return result, nil
}

// Entry returns the current state of a variant.
func (s *Service) Entry(variantID string) (catalogs.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.variants[variantID]
	return e, ok
}

// VariantIDs returns the known variant IDs in sorted order.
func (s *Service) VariantIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := append([]string(nil), s.order...)
	sort.Strings(ids)
	return ids
}

// Polls returns the number of polls of the current job.
func (s *Service) Polls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

// Queries returns the submitted bulk queries.
func (s *Service) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// PriceCalls returns the price batches received, in order.
func (s *Service) PriceCalls() [][]catalogs.PriceChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]catalogs.PriceChange(nil), s.priceCalls...)
}

// FlagCalls returns the flag batches received, in order.
func (s *Service) FlagCalls() [][]catalogs.FlagChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]catalogs.FlagChange(nil), s.flagCalls...)
}
