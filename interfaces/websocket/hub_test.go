package websocket

import (
	"context"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"omnichannel/application/ports"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFormatLine(t *testing.T) {
	line := formatLine("CRITICAL", "FAILOVER triggered | Operation=CreateClient | Reason=down")

	assert.Regexp(t, regexp.MustCompile(`^\[CRITICAL\] \d{2}:\d{2}:\d{2} - FAILOVER triggered \| Operation=CreateClient \| Reason=down$`), line)
}

func TestNotifyNeverBlocks(t *testing.T) {
	// No Run loop draining the buffer: every line past capacity must be
	// dropped, not block the caller.
	hub := NewHub(zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			hub.Notify(context.Background(), "line", ports.SeverityInfo)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a full broadcast buffer")
	}
}

func TestLogStream(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Stop()

	server := NewServer(hub, zap.NewNop())
	ts := httptest.NewServer(server)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	t.Run("viewer receives a greeting on connect", func(t *testing.T) {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, line, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(line), "[INFO] "))
		assert.True(t, strings.HasSuffix(string(line), " - Connected to live log stream"))
	})

	t.Run("notifications reach connected viewers", func(t *testing.T) {
		hub.Notify(context.Background(), "FAILOVER triggered | Operation=DeleteClient Id=4 | Reason=down", ports.SeverityCritical)

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, line, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(line), "[CRITICAL] "))
		assert.Contains(t, string(line), "Operation=DeleteClient Id=4")
	})

	t.Run("disconnect removes the viewer", func(t *testing.T) {
		require.NoError(t, conn.Close())

		deadline := time.Now().Add(2 * time.Second)
		for hub.ConnectionCount() != 0 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		assert.Equal(t, 0, hub.ConnectionCount())
	})
}

func TestAbruptDisconnects(t *testing.T) {
	// Viewers that vanish right after connecting race the greeting against
	// the hub tearing the connection down. None of them may panic the server.
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Stop()

	server := NewServer(hub, zap.NewNop())
	ts := httptest.NewServer(server)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	for i := 0; i < 50; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		require.NoError(t, conn.Close())
	}

	deadline := time.Now().Add(5 * time.Second)
	for hub.ConnectionCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 0, hub.ConnectionCount())
}
