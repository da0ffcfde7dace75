package repository

import (
	"context"
	"time"

	"memoria/internal/cache"
	"memoria/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BadgeRepository persists the badge catalog and group grants.
type BadgeRepository interface {
	Grant(ctx context.Context, groupID, badgeID uint) (bool, error)
	ListForGroup(ctx context.Context, groupID uint) ([]models.Badge, error)
	EnsureCatalog(ctx context.Context, badges []models.Badge) error
}

type badgeRepository struct {
	db *gorm.DB
}

// NewBadgeRepository creates a new BadgeRepository
func NewBadgeRepository(db *gorm.DB) BadgeRepository {
	return &badgeRepository{db: db}
}

// Grant records (groupID, badgeID) once. It reports true only for the call that
// created the row; a conflicting grant from a concurrent caller is not an error.
func (r *badgeRepository) Grant(ctx context.Context, groupID, badgeID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.GroupBadge{GroupID: groupID, BadgeID: badgeID})
	if res.Error != nil {
		if IsUniqueViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	cache.InvalidateGroup(ctx, groupID)
	return true, nil
}

func (r *badgeRepository) ListForGroup(ctx context.Context, groupID uint) ([]models.Badge, error) {
	var badges []models.Badge
	err := r.db.WithContext(ctx).
		Joins("JOIN group_badges ON group_badges.badge_id = badges.id").
		Where("group_badges.group_id = ?", groupID).
		Order("badges.id ASC").
		Find(&badges).Error
	return badges, err
}

// EnsureCatalog inserts catalog rows that are missing; existing ids are left alone.
func (r *badgeRepository) EnsureCatalog(ctx context.Context, badges []models.Badge) error {
	if len(badges) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&badges).Error
}

// BadgeStatsRepository answers the aggregate questions badge rules ask.
type BadgeStatsRepository interface {
	PostTimesBetween(ctx context.Context, groupID uint, from, to time.Time) ([]time.Time, error)
	CountPosts(ctx context.Context, groupID uint) (int64, error)
	GroupCreatedAt(ctx context.Context, groupID uint) (time.Time, error)
	GroupLikeCount(ctx context.Context, groupID uint) (int64, error)
	PostLikeCount(ctx context.Context, postID uint) (uint, int64, error)
	ListGroupIDs(ctx context.Context, afterID uint, limit int) ([]uint, error)
}

type badgeStatsRepository struct {
	db *gorm.DB
}

// NewBadgeStatsRepository creates a new BadgeStatsRepository
func NewBadgeStatsRepository(db *gorm.DB) BadgeStatsRepository {
	return &badgeStatsRepository{db: db}
}

// PostTimesBetween returns creation times of the group's posts within [from, to].
func (r *badgeStatsRepository) PostTimesBetween(ctx context.Context, groupID uint, from, to time.Time) ([]time.Time, error) {
	var times []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("group_id = ? AND created_at >= ? AND created_at <= ?", groupID, from.UTC(), to.UTC()).
		Order("created_at ASC").
		Pluck("created_at", &times).Error
	return times, err
}

func (r *badgeStatsRepository) CountPosts(ctx context.Context, groupID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("group_id = ?", groupID).Count(&count).Error
	return count, err
}

func (r *badgeStatsRepository) GroupCreatedAt(ctx context.Context, groupID uint) (time.Time, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).Select("id", "created_at").Take(&group, groupID).Error; err != nil {
		return time.Time{}, err
	}
	return group.CreatedAt, nil
}

func (r *badgeStatsRepository) GroupLikeCount(ctx context.Context, groupID uint) (int64, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).Select("id", "like_count").Take(&group, groupID).Error; err != nil {
		return 0, err
	}
	return group.LikeCount, nil
}

// PostLikeCount returns the owning group and like count of a post.
func (r *badgeStatsRepository) PostLikeCount(ctx context.Context, postID uint) (uint, int64, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Select("id", "group_id", "like_count").Take(&post, postID).Error; err != nil {
		return 0, 0, err
	}
	return post.GroupID, post.LikeCount, nil
}

// ListGroupIDs pages through group ids in ascending order, starting after afterID.
func (r *badgeStatsRepository) ListGroupIDs(ctx context.Context, afterID uint, limit int) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Group{}).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}
