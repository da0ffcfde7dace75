package repository

import (
	"context"
	"time"

	"memoria/internal/models"

	"gorm.io/gorm"
)

// CommentRepository stores comments on posts.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, int64, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	comment := &models.Comment{}
	if err := r.db.WithContext(ctx).Take(comment, id).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// ListByPost pages a post's thread in the order it was written.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, int64, error) {
	thread := r.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID)
	return findPage[models.Comment](thread, limit, offset, "created_at ASC", "id ASC")
}

// Update rewrites the author-editable fields; post_id and created_at never change.
func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	comment.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", comment.ID).Updates(map[string]any{
		"nickname":   comment.Nickname,
		"content":    comment.Content,
		"password":   comment.Password,
		"updated_at": comment.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
