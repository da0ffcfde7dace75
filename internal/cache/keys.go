package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	GroupKeyPrefix       = "group:%d"
	GroupBadgesKeyPrefix = "group:%d:badges"
	PostKeyPrefix        = "post:%d"
)

const (
	GroupTTL  = 5 * time.Minute
	BadgesTTL = 30 * time.Minute
	PostTTL   = 10 * time.Minute
)

func GroupKey(groupID uint) string {
	return fmt.Sprintf(GroupKeyPrefix, groupID)
}

func GroupBadgesKey(groupID uint) string {
	return fmt.Sprintf(GroupBadgesKeyPrefix, groupID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateGroup drops the cached group detail and badge list.
func InvalidateGroup(ctx context.Context, groupID uint) {
	Invalidate(ctx, GroupKey(groupID), GroupBadgesKey(groupID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}
