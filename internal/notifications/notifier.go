// Package notifications delivers badge award events to websocket clients,
// fanning out across server instances through Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"

	"memoria/internal/badge"
	"memoria/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	badgeChannelPrefix  = "badges:group:"
	badgeChannelPattern = badgeChannelPrefix + "*"

	// EventBadgeAwarded is the event type pushed when a group earns a badge.
	EventBadgeAwarded = "badge_awarded"
)

// Event is the envelope written to websocket clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// EncodeEvent marshals an event envelope.
func EncodeEvent(eventType string, payload any) ([]byte, error) {
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return data, nil
}

// Notifier provides helpers to publish badge events into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Enabled reports whether the notifier has a Redis connection to publish through.
func (n *Notifier) Enabled() bool {
	return n != nil && n.rdb != nil
}

// PublishBadgeAwarded sends a badge_awarded event to the group's channel.
func (n *Notifier) PublishBadgeAwarded(ctx context.Context, award badge.Award) error {
	if !n.Enabled() {
		return nil
	}
	payload, err := EncodeEvent(EventBadgeAwarded, award)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, GroupBadgeChannel(award.GroupID), payload).Err()
}

// StartBadgeSubscriber subscribes to `badges:group:*` and calls onMessage for
// each incoming message until ctx is cancelled.
func (n *Notifier) StartBadgeSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if !n.Enabled() {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, badgeChannelPattern)
	// Wait for the subscription confirmation so publishes right after Start are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", badgeChannelPattern, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.GlobalLogger.Error("panic in badge subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// GroupBadgeChannel derives the Redis channel name for a group's badge events.
func GroupBadgeChannel(groupID uint) string {
	return badgeChannelPrefix + strconv.FormatUint(uint64(groupID), 10)
}

// parseGroupBadgeChannel extracts the group id from a badge channel name.
func parseGroupBadgeChannel(channel string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, badgeChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
