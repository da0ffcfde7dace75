package badge

import (
	"context"
	"fmt"
	"time"
)

// Evaluator answers whether a group currently meets a badge condition.
type Evaluator struct {
	stats Stats
	now   func() time.Time
	loc   *time.Location
}

// NewEvaluator builds an evaluator. Calendar days are counted in loc; nil means UTC.
func NewEvaluator(stats Stats, now func() time.Time, loc *time.Location) *Evaluator {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Evaluator{stats: stats, now: now, loc: loc}
}

// ConsecutiveDays is true when the group has a post on each of the last
// StreakDays calendar days, today included.
func (e *Evaluator) ConsecutiveDays(ctx context.Context, groupID uint) (bool, error) {
	now := e.now().In(e.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, e.loc)
	from := today.AddDate(0, 0, -(StreakDays - 1))

	times, err := e.stats.PostTimesBetween(ctx, groupID, from, now)
	if err != nil {
		return false, fmt.Errorf("post times for group %d: %w", groupID, err)
	}

	days := make(map[string]struct{}, StreakDays)
	for _, t := range times {
		local := t.In(e.loc)
		if local.Before(from) || local.After(now) {
			continue
		}
		days[local.Format(time.DateOnly)] = struct{}{}
	}
	return len(days) >= StreakDays, nil
}

// PostCount is true once the group has PostCountThreshold posts.
func (e *Evaluator) PostCount(ctx context.Context, groupID uint) (bool, error) {
	n, err := e.stats.CountPosts(ctx, groupID)
	if err != nil {
		return false, fmt.Errorf("count posts for group %d: %w", groupID, err)
	}
	return n >= PostCountThreshold, nil
}

// GroupAge is true from the calendar anniversary of creation onward.
// A group created on Feb 29 reaches it on Mar 1 of a non-leap year.
func (e *Evaluator) GroupAge(ctx context.Context, groupID uint) (bool, error) {
	createdAt, err := e.stats.GroupCreatedAt(ctx, groupID)
	if err != nil {
		return false, fmt.Errorf("created_at for group %d: %w", groupID, err)
	}
	created := createdAt.In(e.loc)
	return !e.now().In(e.loc).Before(created.AddDate(GroupAgeYears, 0, 0)), nil
}

// GroupLikes is true once the group itself has LikeThreshold likes.
func (e *Evaluator) GroupLikes(ctx context.Context, groupID uint) (bool, error) {
	n, err := e.stats.GroupLikeCount(ctx, groupID)
	if err != nil {
		return false, fmt.Errorf("like count for group %d: %w", groupID, err)
	}
	return n >= LikeThreshold, nil
}

// PostLikes checks a single post and returns the group that would receive the badge.
func (e *Evaluator) PostLikes(ctx context.Context, postID uint) (uint, bool, error) {
	groupID, n, err := e.stats.PostLikeCount(ctx, postID)
	if err != nil {
		return 0, false, fmt.Errorf("like count for post %d: %w", postID, err)
	}
	return groupID, n >= LikeThreshold, nil
}

// Check evaluates a group-scoped kind. PostLikes is post-scoped and is rejected.
func (e *Evaluator) Check(ctx context.Context, groupID uint, kind Kind) (bool, error) {
	switch kind {
	case ConsecutiveDays:
		return e.ConsecutiveDays(ctx, groupID)
	case PostCount:
		return e.PostCount(ctx, groupID)
	case GroupAge:
		return e.GroupAge(ctx, groupID)
	case GroupLikes:
		return e.GroupLikes(ctx, groupID)
	default:
		return false, fmt.Errorf("badge %s is not evaluated per group", kind)
	}
}
