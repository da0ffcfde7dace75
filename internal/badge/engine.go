package badge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"memoria/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// Config wires an Engine.
type Config struct {
	Stats     Stats
	Grants    Grants
	Publisher Publisher
	Logger    *slog.Logger
	Now       func() time.Time
	Location  *time.Location
}

// Engine evaluates badge conditions and grants badges.
type Engine struct {
	eval      *Evaluator
	stats     Stats
	grants    Grants
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewEngine(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.GlobalLogger.Logger
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		eval:      NewEvaluator(cfg.Stats, now, cfg.Location),
		stats:     cfg.Stats,
		grants:    cfg.Grants,
		publisher: cfg.Publisher,
		logger:    logger,
		now:       now,
	}
}

// Award grants kind to the group without checking the condition.
// Repeated calls are no-ops that return false.
func (e *Engine) Award(ctx context.Context, groupID uint, kind Kind) (bool, error) {
	if !kind.Valid() {
		return false, fmt.Errorf("unknown badge kind %d", kind)
	}
	created, err := e.grants.Grant(ctx, groupID, kind.ID())
	if err != nil {
		observability.BadgeAwardsTotal.WithLabelValues(kind.String(), observability.OutcomeError).Inc()
		return false, fmt.Errorf("grant %s to group %d: %w", kind, groupID, err)
	}
	if !created {
		observability.BadgeAwardsTotal.WithLabelValues(kind.String(), observability.OutcomeDuplicate).Inc()
		return false, nil
	}

	observability.BadgeAwardsTotal.WithLabelValues(kind.String(), observability.OutcomeGranted).Inc()
	e.logger.InfoContext(ctx, "badge awarded",
		slog.Uint64("group_id", uint64(groupID)),
		slog.String("badge", kind.String()),
	)
	if e.publisher != nil {
		e.publisher.BadgeAwarded(ctx, Award{
			GroupID:   groupID,
			BadgeID:   kind.ID(),
			Badge:     kind.Name(),
			AwardedAt: e.now().UTC(),
		})
	}
	return true, nil
}

// EvaluateAndAward grants a group-scoped kind when its condition holds.
func (e *Engine) EvaluateAndAward(ctx context.Context, groupID uint, kind Kind) (bool, error) {
	ok, err := e.eval.Check(ctx, groupID, kind)
	if err != nil || !ok {
		return false, err
	}
	return e.Award(ctx, groupID, kind)
}

// OnPostCreated re-evaluates the post-driven badges of the post's group.
// Failures are logged and never returned; the post is already committed.
func (e *Engine) OnPostCreated(ctx context.Context, ev PostCreated) {
	ctx = context.WithoutCancel(ctx)
	span, ctx := observability.NewSpan(ctx, "badge.OnPostCreated")
	defer span.End()
	span.AddAttributes(
		attribute.Int64("group.id", int64(ev.GroupID)),
		attribute.Int64("post.id", int64(ev.PostID)),
	)

	for _, kind := range []Kind{ConsecutiveDays, PostCount} {
		if _, err := e.EvaluateAndAward(ctx, ev.GroupID, kind); err != nil {
			span.SetError(err)
			e.fail(ctx, ev.GroupID, kind, "post_created", err)
		}
	}
}

// OnPostLiked checks the liked post against the like threshold.
func (e *Engine) OnPostLiked(ctx context.Context, ev PostLiked) {
	if ev.LikeCount < LikeThreshold {
		return
	}
	ctx = context.WithoutCancel(ctx)
	span, ctx := observability.NewSpan(ctx, "badge.OnPostLiked")
	defer span.End()
	span.AddAttributes(attribute.Int64("post.id", int64(ev.PostID)))

	groupID, ok, err := e.eval.PostLikes(ctx, ev.PostID)
	if err == nil && ok {
		_, err = e.Award(ctx, groupID, PostLikes)
	}
	if err != nil {
		span.SetError(err)
		e.fail(ctx, groupID, PostLikes, "post_liked", err, slog.Uint64("post_id", uint64(ev.PostID)))
	}
}

// OnGroupLiked checks the group against the like threshold.
func (e *Engine) OnGroupLiked(ctx context.Context, ev GroupLiked) {
	if ev.LikeCount < LikeThreshold {
		return
	}
	ctx = context.WithoutCancel(ctx)
	span, ctx := observability.NewSpan(ctx, "badge.OnGroupLiked")
	defer span.End()
	span.AddAttributes(attribute.Int64("group.id", int64(ev.GroupID)))

	if _, err := e.EvaluateAndAward(ctx, ev.GroupID, GroupLikes); err != nil {
		span.SetError(err)
		e.fail(ctx, ev.GroupID, GroupLikes, "group_liked", err)
	}
}

// fail logs a swallowed evaluation error. groupID is 0 when the failure
// happened before the owning group was known; extra carries the trigger's ids.
func (e *Engine) fail(ctx context.Context, groupID uint, kind Kind, action string, err error, extra ...slog.Attr) {
	observability.BadgeEvaluationErrors.WithLabelValues(kind.String(), action).Inc()
	attrs := []slog.Attr{
		slog.Uint64("group_id", uint64(groupID)),
		slog.String("badge", kind.String()),
		slog.String("action", action),
		slog.String("error", err.Error()),
	}
	e.logger.LogAttrs(ctx, slog.LevelWarn, "badge evaluation failed", append(attrs, extra...)...)
}
