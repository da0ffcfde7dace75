package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"memoria/internal/badge"
	"memoria/internal/notifications"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen serves the app on a loopback port and returns its ws:// base URL.
func (ts *testServer) listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = ts.app.Listener(ln) }()
	t.Cleanup(func() { _ = ts.app.Shutdown() })
	return "ws://" + ln.Addr().String()
}

func TestBadgeFeedDeliversAwards(t *testing.T) {
	ts := newTestServer(t)
	g := ts.createGroup(t, "Hikers", "grouppw")
	base := ts.listen(t)

	conn, resp, err := websocket.DefaultDialer.Dial(fmt.Sprintf("%s/api/groups/%d/badges/ws", base, g.ID), nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer func() { _ = conn.Close() }()

	require.Eventually(t, func() bool { return ts.hub.ClientCount(g.ID) == 1 }, 2*time.Second, 10*time.Millisecond)

	created, err := ts.Badges().Award(context.Background(), g.ID, badge.PostCount)
	require.NoError(t, err)
	require.True(t, created)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev struct {
		Type    string      `json:"type"`
		Payload badge.Award `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &ev))
	assert.Equal(t, notifications.EventBadgeAwarded, ev.Type)
	assert.Equal(t, g.ID, ev.Payload.GroupID)
	assert.Equal(t, badge.PostCount.Name(), ev.Payload.Badge)

	_ = conn.Close()
	assert.Eventually(t, func() bool { return ts.hub.ClientCount(g.ID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestBadgeFeedUnknownGroup(t *testing.T) {
	ts := newTestServer(t)
	base := ts.listen(t)

	_, resp, err := websocket.DefaultDialer.Dial(base+"/api/groups/9999/badges/ws", nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBadgeFeedRequiresUpgrade(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusUpgradeRequired, ts.call(t, http.MethodGet, "/api/groups/1/badges/ws", nil, nil))
}
