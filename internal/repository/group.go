package repository

import (
	"context"

	"memoria/internal/cache"
	"memoria/internal/models"

	"gorm.io/gorm"
)

// GroupRepository defines the interface for group data operations
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id uint) (*models.Group, error)
	List(ctx context.Context, q ListQuery) ([]*models.Group, int64, error)
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id uint) error
	IncrementLikes(ctx context.Context, id uint) (int64, error)
	CountPosts(ctx context.Context, id uint) (int64, error)
	BadgeNames(ctx context.Context, id uint) ([]string, error)
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

const groupListColumns = "groups.*, " +
	"(SELECT COUNT(*) FROM posts WHERE posts.group_id = groups.id) AS post_count, " +
	"(SELECT COUNT(*) FROM group_badges WHERE group_badges.group_id = groups.id) AS badge_count"

func (r *groupRepository) Create(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *groupRepository) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) List(ctx context.Context, q ListQuery) ([]*models.Group, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Group{})
	if q.Keyword != "" {
		base = base.Where("LOWER(groups.name) LIKE ? ESCAPE '\\'", likePattern(q.Keyword))
	}
	if q.IsPublic != nil {
		base = base.Where("groups.is_public = ?", *q.IsPublic)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var groups []*models.Group
	err := applyGroupSort(base.Session(&gorm.Session{}).Select(groupListColumns), q.SortBy).
		Limit(q.PageSize).
		Offset(q.offset()).
		Find(&groups).Error
	if err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}

// applyGroupSort orders by the computed post_count / badge_count aliases where needed.
func applyGroupSort(db *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case SortMostPosted:
		return db.Order("post_count DESC").Order("groups.id DESC")
	case SortMostLiked:
		return db.Order("groups.like_count DESC").Order("groups.id DESC")
	case SortMostBadge:
		return db.Order("badge_count DESC").Order("groups.id DESC")
	default:
		return db.Order("groups.created_at DESC").Order("groups.id DESC")
	}
}

func (r *groupRepository) Update(ctx context.Context, group *models.Group) error {
	err := r.db.WithContext(ctx).Model(group).Select("name", "image_url", "is_public", "introduction", "password", "updated_at").Updates(group).Error
	if err == nil {
		cache.InvalidateGroup(ctx, group.ID)
	}
	return err
}

// Delete removes the group; its posts go with it through the foreign key
// cascade, so their cached copies are dropped as well.
func (r *groupRepository) Delete(ctx context.Context, id uint) error {
	var postIDs []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).Where("group_id = ?", id).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Group{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(postIDs))
	for _, postID := range postIDs {
		keys = append(keys, cache.PostKey(postID))
	}
	cache.Invalidate(ctx, keys...)
	cache.InvalidateGroup(ctx, id)
	return nil
}

// IncrementLikes atomically adds one like and returns the resulting count.
func (r *groupRepository) IncrementLikes(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Group{}).Where("id = ?", id).
			UpdateColumn("like_count", gorm.Expr("like_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.Group{}).Select("like_count").Where("id = ?", id).Scan(&count).Error
	})
	if err != nil {
		return 0, err
	}
	cache.InvalidateGroup(ctx, id)
	return count, nil
}

func (r *groupRepository) CountPosts(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("group_id = ?", id).Count(&count).Error
	return count, err
}

// BadgeNames returns the names of the badges the group holds, in catalog order.
func (r *groupRepository) BadgeNames(ctx context.Context, id uint) ([]string, error) {
	names := []string{}
	err := r.db.WithContext(ctx).
		Table("group_badges").
		Joins("JOIN badges ON badges.id = group_badges.badge_id").
		Where("group_badges.group_id = ?", id).
		Order("badges.id ASC").
		Pluck("badges.name", &names).Error
	return names, err
}
