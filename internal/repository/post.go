package repository

import (
	"context"

	"memoria/internal/cache"
	"memoria/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, tags []string) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ListByGroup(ctx context.Context, groupID uint, q ListQuery) ([]*models.Post, int64, error)
	Update(ctx context.Context, post *models.Post, tags []string) error
	Delete(ctx context.Context, id uint) error
	IncrementLikes(ctx context.Context, id uint) (int64, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = "posts.*, " +
	"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count"

// Create inserts the post and links its tags in one transaction.
func (r *postRepository) Create(ctx context.Context, post *models.Post, tags []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("PostTags", "Comments").Create(post).Error; err != nil {
			return err
		}
		return syncPostTags(tx, post.ID, tags)
	})
	if err != nil {
		return err
	}
	post.Tags = nonNil(tags)
	cache.InvalidateGroup(ctx, post.GroupID)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Select(postColumns).First(&post, id).Error; err != nil {
		return nil, err
	}
	tags, err := tagNamesForPosts(r.db.WithContext(ctx), []uint{post.ID})
	if err != nil {
		return nil, err
	}
	post.Tags = nonNil(tags[post.ID])
	return &post, nil
}

// ListByGroup pages through a group's posts. Keyword matches the title or any tag.
func (r *postRepository) ListByGroup(ctx context.Context, groupID uint, q ListQuery) ([]*models.Post, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Post{}).Where("posts.group_id = ?", groupID)
	if q.Keyword != "" {
		pattern := likePattern(q.Keyword)
		base = base.Where(
			"(LOWER(posts.title) LIKE ? ESCAPE '\\' OR EXISTS ("+
				"SELECT 1 FROM post_tags JOIN tags ON tags.id = post_tags.tag_id "+
				"WHERE post_tags.post_id = posts.id AND LOWER(tags.name) LIKE ? ESCAPE '\\'))",
			pattern, pattern,
		)
	}
	if q.IsPublic != nil {
		base = base.Where("posts.is_public = ?", *q.IsPublic)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []*models.Post
	err := applyPostSort(base.Session(&gorm.Session{}).Select(postColumns), q.SortBy).
		Limit(q.PageSize).
		Offset(q.offset()).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	tags, err := tagNamesForPosts(r.db.WithContext(ctx), ids)
	if err != nil {
		return nil, 0, err
	}
	for _, p := range posts {
		p.Tags = nonNil(tags[p.ID])
	}
	return posts, total, nil
}

func applyPostSort(db *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case SortMostCommented:
		return db.Order("comment_count DESC").Order("posts.id DESC")
	case SortMostLiked:
		return db.Order("posts.like_count DESC").Order("posts.id DESC")
	default:
		return db.Order("posts.created_at DESC").Order("posts.id DESC")
	}
}

// Update saves editable fields. A nil tags slice leaves the tag links untouched.
func (r *postRepository) Update(ctx context.Context, post *models.Post, tags []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(post).
			Select("nickname", "title", "content", "password", "image_url", "location", "moment", "is_public", "updated_at").
			Updates(post).Error
		if err != nil {
			return err
		}
		if tags == nil {
			return nil
		}
		return syncPostTags(tx, post.ID, tags)
	})
	if err != nil {
		return err
	}
	if tags != nil {
		post.Tags = nonNil(tags)
	}
	cache.InvalidatePost(ctx, post.ID)
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.InvalidatePost(ctx, id)
	return nil
}

// IncrementLikes atomically adds one like and returns the resulting count.
func (r *postRepository) IncrementLikes(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).Where("id = ?", id).
			UpdateColumn("like_count", gorm.Expr("like_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.Post{}).Select("like_count").Where("id = ?", id).Scan(&count).Error
	})
	if err != nil {
		return 0, err
	}
	cache.InvalidatePost(ctx, id)
	return count, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
