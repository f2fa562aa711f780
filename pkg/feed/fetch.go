package feed

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/agentstation/catalogsync/internal/transport"
	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/logging"
)

// Source locates a tenant's feed.
type Source struct {
	URL        string `json:"url" yaml:"url"`
	AuthHeader string `json:"auth_header,omitempty" yaml:"auth_header,omitempty"`
	AuthValue  string `json:"-" yaml:"-"`
	Delimiter  rune   `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`
}

// Fetcher downloads and parses feeds.
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher returns a Fetcher using hc, or the transport default client when nil.
func NewFetcher(hc *http.Client) *Fetcher {
	return &Fetcher{httpClient: hc}
}

// Fetch retrieves and parses the feed at src. http(s) URLs are downloaded;
// file:// URLs and bare paths are read from disk. Any transport failure is a
// *errors.FeedFetchError.
func (f *Fetcher) Fetch(ctx context.Context, src Source) (*ParseResult, error) {
	logger := logging.FromContext(ctx)
	opts := []Option{WithDelimiter(src.Delimiter)}

	u, err := url.Parse(src.URL)
	if err != nil || src.URL == "" {
		return nil, &errors.FeedFetchError{URL: src.URL, Err: errors.NewValidationError("url", src.URL, "invalid feed url")}
	}

	var result *ParseResult
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		result, err = f.fetchHTTP(ctx, src, opts)
	case "file", "":
		path := src.URL
		if u.Scheme == "file" {
			path = u.Path
		}
		result, err = ParseFile(path, opts...)
		if err != nil {
			err = &errors.FeedFetchError{URL: src.URL, Err: err}
		}
	default:
		err = &errors.FeedFetchError{URL: src.URL, Err: errors.NewValidationError("url", src.URL, "unsupported scheme "+u.Scheme)}
	}
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int("total_rows", result.TotalRows).
		Int("valid_rows", result.ValidRows).
		Int("invalid_rows", result.InvalidRows).
		Msg("feed parsed")
	return result, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, src Source, opts []Option) (*ParseResult, error) {
	client := transport.New(transport.AuthFor(src.AuthHeader, src.AuthValue), transport.WithHTTPClient(f.httpClient))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, &errors.FeedFetchError{URL: src.URL, Err: err}
	}
	req.Header.Set("Accept", "text/csv, text/plain, */*")

	resp, err := client.Do(ctx, req)
	if err != nil {
		return nil, &errors.FeedFetchError{URL: src.URL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &errors.FeedFetchError{URL: src.URL, StatusCode: resp.StatusCode}
	}

	result, err := Parse(resp.Body, opts...)
	if err != nil {
		return nil, &errors.FeedFetchError{URL: src.URL, Err: err}
	}
	return result, nil
}
