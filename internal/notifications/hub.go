package notifications

import (
	"context"
	"errors"
	"sync"

	"memoria/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections watching one group
	maxConnsPerGroup = 64
	// Max total connections
	maxTotalConns = 10000
)

var (
	ErrHubClosed       = errors.New("hub is shutting down")
	ErrServerConnLimit = errors.New("server connection limit reached")
	ErrGroupConnLimit  = errors.New("group connection limit reached")
)

// GroupHub maps groupID -> set of clients watching that group's badge feed.
type GroupHub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
	logger     *observability.FeedLogger
}

// NewGroupHub creates an empty hub.
func NewGroupHub() *GroupHub {
	h := &GroupHub{conns: make(map[uint]map[*Client]struct{})}
	h.logger = observability.NewFeedLogger(h.Name())
	return h
}

// Name returns a human-readable identifier for this hub.
func (h *GroupHub) Name() string { return "badge hub" }

// Logger returns the hub's feed logger.
func (h *GroupHub) Logger() *observability.FeedLogger { return h.logger }

// Register adds a connection for groupID. It fails once limits are reached
// or the hub is shutting down.
func (h *GroupHub) Register(groupID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.totalConns >= maxTotalConns {
		return nil, ErrServerConnLimit
	}
	m, ok := h.conns[groupID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[groupID] = m
	}
	if len(m) >= maxConnsPerGroup {
		return nil, ErrGroupConnLimit
	}

	client := newClient(h, conn, groupID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()
	observability.WebSocketEventsTotal.WithLabelValues("connect").Inc()
	return client, nil
}

// UnregisterClient removes the client and closes its send channel. Safe to call twice.
func (h *GroupHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.GroupID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	if len(m) == 0 {
		delete(h.conns, client.GroupID)
	}
	h.totalConns--
	close(client.Send)
	observability.WebSocketConnectionsTotal.Dec()
	observability.WebSocketEventsTotal.WithLabelValues("disconnect").Inc()
}

// Broadcast sends message to every connection watching groupID and returns
// how many clients accepted it.
func (h *GroupHub) Broadcast(groupID uint, message []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.conns[groupID] {
		if c.TrySend(message) {
			delivered++
		}
	}
	if delivered > 0 {
		observability.WebSocketEventsTotal.WithLabelValues(EventBadgeAwarded).Add(float64(delivered))
	}
	return delivered
}

// ClientCount reports how many connections watch groupID.
func (h *GroupHub) ClientCount(groupID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[groupID])
}

// StartWiring connects the Notifier to this hub: it subscribes to the badge
// channel pattern and forwards messages to the matching group's connections.
func (h *GroupHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartBadgeSubscriber(ctx, func(channel, payload string) {
		groupID, ok := parseGroupBadgeChannel(channel)
		if !ok {
			h.logger.Failed(ctx, 0, "subscribe", errors.New("invalid badge channel: "+channel))
			return
		}
		h.Broadcast(groupID, []byte(payload))
	})
}

// Shutdown closes every client's send channel so its writer sends a close
// frame, and rejects further registrations.
func (h *GroupHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	for _, clients := range h.conns {
		for c := range clients {
			close(c.Send)
			observability.WebSocketConnectionsTotal.Dec()
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
