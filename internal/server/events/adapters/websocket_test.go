package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/catalogsync/internal/server/events"
	ws "github.com/agentstation/catalogsync/internal/server/websocket"
)

func TestWebSocketSubscriber(t *testing.T) {
	logger := zerolog.Nop()
	hub := ws.NewHub(&logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := ws.NewClient("c1", hub, conn)
		hub.Register(c)
		go c.WritePump()
		go c.ReadPump()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	sub := NewWebSocketSubscriber(hub)
	ts := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, sub.Send(events.Event{
		Type:      events.RunCompleted,
		Timestamp: ts,
		Data:      map[string]any{"tenant": "acme"},
	}))

	var msg ws.Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "run.completed", msg.Type)
	assert.True(t, msg.Timestamp.Equal(ts))
	assert.Equal(t, map[string]any{"tenant": "acme"}, msg.Data)

	assert.NoError(t, sub.Close())
}
