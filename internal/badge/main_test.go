package badge

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubStats struct {
	PostTimesBetweenFunc func(ctx context.Context, groupID uint, from, to time.Time) ([]time.Time, error)
	CountPostsFunc       func(ctx context.Context, groupID uint) (int64, error)
	GroupCreatedAtFunc   func(ctx context.Context, groupID uint) (time.Time, error)
	GroupLikeCountFunc   func(ctx context.Context, groupID uint) (int64, error)
	PostLikeCountFunc    func(ctx context.Context, postID uint) (uint, int64, error)
	ListGroupIDsFunc     func(ctx context.Context, afterID uint, limit int) ([]uint, error)
}

func (s *stubStats) PostTimesBetween(ctx context.Context, groupID uint, from, to time.Time) ([]time.Time, error) {
	if s.PostTimesBetweenFunc != nil {
		return s.PostTimesBetweenFunc(ctx, groupID, from, to)
	}
	return nil, nil
}

func (s *stubStats) CountPosts(ctx context.Context, groupID uint) (int64, error) {
	if s.CountPostsFunc != nil {
		return s.CountPostsFunc(ctx, groupID)
	}
	return 0, nil
}

func (s *stubStats) GroupCreatedAt(ctx context.Context, groupID uint) (time.Time, error) {
	if s.GroupCreatedAtFunc != nil {
		return s.GroupCreatedAtFunc(ctx, groupID)
	}
	return time.Now(), nil
}

func (s *stubStats) GroupLikeCount(ctx context.Context, groupID uint) (int64, error) {
	if s.GroupLikeCountFunc != nil {
		return s.GroupLikeCountFunc(ctx, groupID)
	}
	return 0, nil
}

func (s *stubStats) PostLikeCount(ctx context.Context, postID uint) (uint, int64, error) {
	if s.PostLikeCountFunc != nil {
		return s.PostLikeCountFunc(ctx, postID)
	}
	return 0, 0, nil
}

func (s *stubStats) ListGroupIDs(ctx context.Context, afterID uint, limit int) ([]uint, error) {
	if s.ListGroupIDsFunc != nil {
		return s.ListGroupIDsFunc(ctx, afterID, limit)
	}
	return nil, nil
}

// memGrants is an in-memory Grants with the same once-only semantics as the table.
type memGrants struct {
	mu    sync.Mutex
	rows  map[[2]uint]bool
	err   error
	calls int
}

func newMemGrants() *memGrants {
	return &memGrants{rows: map[[2]uint]bool{}}
}

func (g *memGrants) Grant(_ context.Context, groupID, badgeID uint) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return false, g.err
	}
	key := [2]uint{groupID, badgeID}
	if g.rows[key] {
		return false, nil
	}
	g.rows[key] = true
	return true, nil
}

func (g *memGrants) has(groupID uint, kind Kind) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rows[[2]uint{groupID, kind.ID()}]
}

type recordingPublisher struct {
	mu     sync.Mutex
	awards []Award
}

func (p *recordingPublisher) BadgeAwarded(_ context.Context, a Award) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.awards = append(p.awards, a)
}

func (p *recordingPublisher) all() []Award {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Award(nil), p.awards...)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// daily returns one timestamp per day starting at first.
func daily(first time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, first.AddDate(0, 0, i))
	}
	return out
}
