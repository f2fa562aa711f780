// Package adminapi implements catalogs.Service against a GraphQL admin API
// exposing bulk operations, productVariantsBulkUpdate and metafieldsSet.
package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/agentstation/catalogsync/internal/transport"
	"github.com/agentstation/catalogsync/pkg/catalogs"
	"github.com/agentstation/catalogsync/pkg/constants"
	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/logging"
)

const service = "adminapi"

// DefaultTokenHeader carries the access token.
const DefaultTokenHeader = "X-Access-Token"

// Client is a catalogs.Service backed by the admin GraphQL endpoint.
type Client struct {
	endpoint  string
	api       *transport.Client
	download  *transport.Client
	namespace string
	key       string
}

var _ catalogs.Service = (*Client)(nil)

type config struct {
	httpClient  *http.Client
	tokenHeader string
	rps         float64
	burst       int
	namespace   string
	key         string
}

// Option configures a Client.
type Option func(*config)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) { c.httpClient = hc }
}

// WithTokenHeader sets the header carrying the access token.
func WithTokenHeader(header string) Option {
	return func(c *config) {
		if header != "" {
			c.tokenHeader = header
		}
	}
}

// WithRateLimit limits GraphQL requests to rps with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *config) {
		c.rps = rps
		c.burst = burst
	}
}

// WithFlagMetafield sets the metafield written by UpdateFlags.
func WithFlagMetafield(namespace, key string) Option {
	return func(c *config) {
		c.namespace = namespace
		c.key = key
	}
}

// New creates a client for the GraphQL endpoint authenticating with token.
func New(endpoint, token string, opts ...Option) *Client {
	cfg := &config{
		tokenHeader: DefaultTokenHeader,
		rps:         constants.DefaultRateLimit,
		burst:       constants.BurstSize,
		namespace:   catalogs.FlagNamespace,
		key:         catalogs.FlagKey,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Client{
		endpoint: endpoint,
		api: transport.New(transport.AuthFor(cfg.tokenHeader, token),
			transport.WithHTTPClient(cfg.httpClient),
			transport.WithRateLimit(cfg.rps, cfg.burst)),
		// Result files live behind pre-signed URLs and take no credentials.
		download:  transport.New(transport.NoAuth{}, transport.WithHTTPClient(cfg.httpClient)),
		namespace: cfg.namespace,
		key:       cfg.key,
	}
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// do posts a GraphQL document and decodes its data into out. Top-level
// GraphQL errors become *errors.APIError; throttling maps to status 429.
func (c *Client) do(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return errors.WrapParse("json", "graphql request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.WrapResource("create", "request", c.endpoint, err)
	}

	resp, err := c.api.Do(ctx, req)
	if err != nil {
		return &errors.APIError{Service: service, Endpoint: c.endpoint, Message: "request failed", Err: err}
	}

	var gr gqlResponse
	if err := transport.DecodeResponse(resp, service, &gr); err != nil {
		return err
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, len(gr.Errors))
		status := 0
		for i, e := range gr.Errors {
			msgs[i] = e.Message
			switch e.Extensions.Code {
			case "THROTTLED":
				status = http.StatusTooManyRequests
			case "ACCESS_DENIED":
				status = http.StatusForbidden
			}
		}
		return &errors.APIError{Service: service, StatusCode: status, Endpoint: c.endpoint, Message: strings.Join(msgs, "; ")}
	}
	if out == nil || len(gr.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return errors.WrapParse("json", "graphql data", err)
	}
	return nil
}

// Download implements catalogs.Service.
func (c *Client) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := c.download.Get(ctx, url)
	if err != nil {
		return nil, &errors.APIError{Service: service, Endpoint: "bulk result", Message: "download failed", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &errors.APIError{Service: service, StatusCode: resp.StatusCode, Endpoint: "bulk result", Message: resp.Status}
	}
	logging.FromContext(ctx).Debug().Int64("bytes", resp.ContentLength).Msg("downloading bulk result")
	return resp.Body, nil
}

type userErrors []struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func (ue userErrors) convert() []catalogs.UserError {
	if len(ue) == 0 {
		return nil
	}
	out := make([]catalogs.UserError, len(ue))
	for i, e := range ue {
		out[i] = catalogs.UserError{Field: e.Field, Message: e.Message}
	}
	return out
}
