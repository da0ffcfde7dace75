package notifications

import (
	"context"
	"log/slog"

	"memoria/internal/badge"
	"memoria/internal/featureflags"
	"memoria/internal/observability"
)

// BadgePublisher forwards badge awards to websocket clients. With Redis it
// publishes so every instance's hub receives the event; without Redis it
// broadcasts to the local hub.
type BadgePublisher struct {
	notifier *Notifier
	hub      *GroupHub
	flags    *featureflags.Manager
}

// NewBadgePublisher builds a publisher gated by the badge_events flag.
func NewBadgePublisher(notifier *Notifier, hub *GroupHub, flags *featureflags.Manager) *BadgePublisher {
	return &BadgePublisher{notifier: notifier, hub: hub, flags: flags}
}

// BadgeAwarded implements badge.Publisher.
func (p *BadgePublisher) BadgeAwarded(ctx context.Context, award badge.Award) {
	if !p.flags.Enabled(featureflags.BadgeEvents, award.GroupID) {
		return
	}

	if p.notifier.Enabled() {
		err := p.notifier.PublishBadgeAwarded(ctx, award)
		if err == nil {
			return
		}
		observability.GlobalLogger.WarnContext(ctx, "badge event publish failed, delivering locally",
			slog.Uint64("group_id", uint64(award.GroupID)),
			slog.String("error", err.Error()),
		)
	}

	if p.hub == nil {
		return
	}
	payload, err := EncodeEvent(EventBadgeAwarded, award)
	if err != nil {
		p.hub.logger.Failed(ctx, award.GroupID, "publish", err)
		return
	}
	p.hub.Broadcast(award.GroupID, payload)
}
