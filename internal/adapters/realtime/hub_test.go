package realtime_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant_finder/internal/adapters/realtime"
	"restaurant_finder/internal/domain"
)

func startHub(t *testing.T) (*realtime.Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := realtime.NewHub(zerolog.Nop(), func(*http.Request) bool { return true })
	go hub.Run(ctx)
	ts := httptest.NewServer(hub)
	t.Cleanup(ts.Close)
	return hub, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_BroadcastsEvents(t *testing.T) {
	hub, ts := startHub(t)
	a := dial(t, ts)
	b := dial(t, ts)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.Notify(context.Background(), domain.Event{Type: domain.EventEnriched, ID: "p1"})

	for _, c := range []*websocket.Conn{a, b} {
		_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := c.ReadMessage()
		require.NoError(t, err)
		var ev domain.Event
		require.NoError(t, json.Unmarshal(data, &ev))
		assert.Equal(t, domain.Event{Type: "enriched", ID: "p1"}, ev)
	}
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub, ts := startHub(t)
	c := dial(t, ts)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RejectsPlainHTTP(t *testing.T) {
	_, ts := startHub(t)
	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
