package adapters

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

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/internal/server/events"
	"github.com/agentstation/catalogsync/internal/server/sse"
)

func TestSSESubscriber(t *testing.T) {
	logger := zerolog.Nop()
	b := sse.NewBroadcaster(&logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	srv := httptest.NewServer(b)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "?tenant=acme")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	sub := NewSSESubscriber(b)
	require.NoError(t, sub.Send(events.Event{
		Type:      events.RunCompleted,
		Timestamp: time.Now(),
		Data:      &catalogsync.RunResult{Tenant: "beta", RunID: "run_b"},
	}))
	require.NoError(t, sub.Send(events.Event{
		Type:      events.RunCompleted,
		Timestamp: time.Now(),
		Data:      &catalogsync.RunResult{Tenant: "acme", RunID: "run_a"},
	}))

	sc := bufio.NewScanner(resp.Body)
	var data string
	for sc.Scan() {
		if d, ok := strings.CutPrefix(sc.Text(), "data: "); ok && strings.Contains(d, "run_") {
			data = d
			break
		}
	}
	assert.Contains(t, data, `"run_id":"run_a"`)
	assert.NoError(t, sub.Close())
}
