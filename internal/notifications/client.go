package notifications

import (
	"context"
	"time"

	"memoria/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Feed connection timings. Subscribers only listen, so inbound frames are
// limited to pongs and close frames.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxInboundSize = 512
	sendBuffer     = 64
)

// Client is one badge feed subscriber watching a single group.
type Client struct {
	ID      string
	GroupID uint
	// Send carries encoded events to the writer. The hub closes it on
	// unregister or shutdown.
	Send chan []byte

	hub  *GroupHub
	conn *websocket.Conn
}

func newClient(hub *GroupHub, conn *websocket.Conn, groupID uint) *Client {
	return &Client{
		ID:      uuid.NewString(),
		GroupID: groupID,
		Send:    make(chan []byte, sendBuffer),
		hub:     hub,
		conn:    conn,
	}
}

// Serve pumps events to the peer until either side goes away, then
// unregisters the client. It blocks for the life of the connection.
func (c *Client) Serve(logger *observability.FeedLogger) {
	go c.writeLoop()
	reason := c.readLoop(logger)
	c.hub.UnregisterClient(c)
	_ = c.conn.Close()
	logger.Disconnected(context.Background(), c.GroupID, reason)
}

// readLoop keeps the read deadline moving on pongs and returns the reason
// the connection ended.
func (c *Client) readLoop(logger *observability.FeedLogger) string {
	c.conn.SetReadLimit(maxInboundSize)
	extend := func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) }
	_ = extend("")
	c.conn.SetPongHandler(extend)

	for {
		_, _, err := c.conn.ReadMessage()
		if err == nil {
			observability.WebSocketEventsTotal.WithLabelValues("client_message_ignored").Inc()
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
			logger.Failed(context.Background(), c.GroupID, "read", err)
			return "error"
		}
		return "closed"
	}
}

func (c *Client) writeLoop() {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	defer func() { _ = c.conn.Close() }()

	for {
		var err error
		select {
		case msg, open := <-c.Send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !open {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			err = c.conn.WriteMessage(websocket.TextMessage, msg)
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err = c.conn.WriteMessage(websocket.PingMessage, nil)
		}
		if err != nil {
			return
		}
	}
}

// TrySend queues msg without blocking and reports whether it was queued.
// A full buffer or a channel closed by a concurrent shutdown drops it.
func (c *Client) TrySend(msg []byte) (queued bool) {
	defer func() {
		if recover() != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(c.hub.Name(), "closed").Inc()
			queued = false
		}
	}()

	select {
	case c.Send <- msg:
		return true
	default:
		observability.WebSocketBackpressureDrops.WithLabelValues(c.hub.Name(), "full").Inc()
		return false
	}
}
