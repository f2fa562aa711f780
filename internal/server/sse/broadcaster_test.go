package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBroadcaster(t *testing.T) *Broadcaster {
	t.Helper()
	logger := zerolog.Nop()
	b := NewBroadcaster(&logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go b.Run(ctx)
	return b
}

// readEvents reads frames until n events named other than "connected" arrive.
func readEvents(t *testing.T, sc *bufio.Scanner, n int) []string {
	t.Helper()
	var got []string
	var name string
	for len(got) < n && sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case line == "" && name != "":
			if name != "connected" {
				got = append(got, name)
			}
			name = ""
		}
	}
	return got
}

func TestBroadcastFiltersByTenant(t *testing.T) {
	b := newBroadcaster(t)
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "?tenant=acme")
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	b.Broadcast(Event{Event: "run.completed", Tenant: "beta", Data: map[string]any{"tenant": "beta"}})
	b.Broadcast(Event{Event: "run.completed", Tenant: "acme", Data: map[string]any{"tenant": "acme"}})
	b.Broadcast(Event{Event: "client.connected", Data: map[string]any{}})

	sc := bufio.NewScanner(resp.Body)
	assert.Equal(t, []string{"run.completed", "client.connected"}, readEvents(t, sc, 2))
}

func TestBroadcastAssignsIDs(t *testing.T) {
	b := newBroadcaster(t)
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	b.Broadcast(Event{Event: "a", Data: 1})
	b.Broadcast(Event{Event: "b", Data: 2})

	sc := bufio.NewScanner(resp.Body)
	var ids []string
	for len(ids) < 2 && sc.Scan() {
		if id, ok := strings.CutPrefix(sc.Text(), "id: "); ok {
			ids = append(ids, id)
		}
	}
	assert.Equal(t, []string{"1", "2"}, ids)
}

func TestClientDisconnect(t *testing.T) {
	b := newBroadcaster(t)
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	resp.Body.Close()
	assert.Eventually(t, func() bool { return b.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestKeepAlive(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroadcaster(&logger)
	b.SetKeepAlive(10 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go b.Run(ctx)

	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	sc := bufio.NewScanner(resp.Body)
	found := false
	for sc.Scan() {
		if sc.Text() == ": keepalive" {
			found = true
			break
		}
	}
	assert.True(t, found)
}
