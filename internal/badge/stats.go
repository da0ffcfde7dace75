package badge

import (
	"context"
	"time"
)

// Stats is the read side the evaluators need. Each method is one aggregate query.
// Missing groups or posts surface as gorm.ErrRecordNotFound.
type Stats interface {
	PostTimesBetween(ctx context.Context, groupID uint, from, to time.Time) ([]time.Time, error)
	CountPosts(ctx context.Context, groupID uint) (int64, error)
	GroupCreatedAt(ctx context.Context, groupID uint) (time.Time, error)
	GroupLikeCount(ctx context.Context, groupID uint) (int64, error)
	PostLikeCount(ctx context.Context, postID uint) (groupID uint, likes int64, err error)
	ListGroupIDs(ctx context.Context, afterID uint, limit int) ([]uint, error)
}

// Grants records badge ownership. Grant must be idempotent and report
// created=true only for the call that inserted the row.
type Grants interface {
	Grant(ctx context.Context, groupID, badgeID uint) (created bool, err error)
}

// Award describes a newly granted badge.
type Award struct {
	GroupID   uint      `json:"groupId"`
	BadgeID   uint      `json:"badgeId"`
	Badge     string    `json:"badge"`
	AwardedAt time.Time `json:"awardedAt"`
}

// Publisher is told about every grant that created a row.
type Publisher interface {
	BadgeAwarded(ctx context.Context, award Award)
}

// PostCreated is emitted after a post insert commits.
type PostCreated struct {
	GroupID   uint
	PostID    uint
	CreatedAt time.Time
}

// PostLiked is emitted after a post like increment commits.
type PostLiked struct {
	PostID    uint
	LikeCount int64
}

// GroupLiked is emitted after a group like increment commits.
type GroupLiked struct {
	GroupID   uint
	LikeCount int64
}
