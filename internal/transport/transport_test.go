package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agentstation/catalogsync/internal/transport"
	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthFor(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
		want   map[string]string
	}{
		{"none", "X-Access-Token", "", map[string]string{}},
		{"bearer default", "", "tok", map[string]string{"Authorization": "Bearer tok"}},
		{"explicit authorization", "Authorization", "tok", map[string]string{"Authorization": "Bearer tok"}},
		{"custom header", "X-Access-Token", "shpat", map[string]string{"X-Access-Token": "shpat"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://example.test", nil)
			transport.AuthFor(tt.header, tt.value).Apply(req)
			for k, v := range tt.want {
				assert.Equal(t, v, req.Header.Get(k))
			}
			if len(tt.want) == 0 {
				assert.Empty(t, req.Header.Get("Authorization"))
				assert.Empty(t, req.Header.Get("X-Access-Token"))
			}
		})
	}
}

func TestClientDecodeResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Access-Token"))
		assert.Equal(t, "catalogsync", r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"name":"acme"}`))
		case "/busy":
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("slow down"))
		}
	}))
	defer srv.Close()

	c := transport.New(transport.HeaderAuth{Header: "X-Access-Token", Value: "secret"})
	ctx := context.Background()

	resp, err := c.Get(ctx, srv.URL+"/ok")
	require.NoError(t, err)
	var out struct{ Name string }
	require.NoError(t, transport.DecodeResponse(resp, "shop", &out))
	assert.Equal(t, "acme", out.Name)

	resp, err = c.Get(ctx, srv.URL+"/busy")
	require.NoError(t, err)
	err = transport.DecodeResponse(resp, "shop", &out)
	require.Error(t, err)
	assert.True(t, errors.IsRateLimited(err))

	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "slow down", apiErr.Message)
}

func TestClientRateLimitHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := transport.New(nil, transport.WithRateLimit(0.001, 1))
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Get(ctx, srv.URL)
	assert.Error(t, err)
}
