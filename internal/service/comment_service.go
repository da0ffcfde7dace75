package service

import (
	"context"
	"strings"

	"memoria/internal/cache"
	"memoria/internal/models"
	"memoria/internal/repository"
	"memoria/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type CreateCommentInput struct {
	PostID   uint
	Nickname string
	Content  string
	Password string
}

type UpdateCommentInput struct {
	CommentID uint
	Password  string
	Nickname  *string
	Content   *string
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:   in.PostID,
		Nickname: strings.TrimSpace(in.Nickname),
		Content:  in.Content,
	}
	if err := validateCommentFields(comment); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, validationError(err)
	}
	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		return nil, repoError("Post", in.PostID, err)
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	comment.Password = hashed
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, in.PostID)
	return comment, nil
}

// ListComments pages through a post's comments oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID uint, page, pageSize int) (*models.Page[*models.Comment], error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, repoError("Post", postID, err)
	}
	page, pageSize = normalizePage(page, pageSize)
	comments, total, err := s.commentRepo.ListByPost(ctx, postID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	result := models.NewPage(comments, page, pageSize, total)
	return &result, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.authorize(ctx, in.CommentID, in.Password)
	if err != nil {
		return nil, err
	}
	if in.Nickname != nil {
		comment.Nickname = strings.TrimSpace(*in.Nickname)
	}
	if in.Content != nil {
		comment.Content = *in.Content
	}
	if err := validateCommentFields(comment); err != nil {
		return nil, err
	}

	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, repoError("Comment", in.CommentID, err)
	}
	return comment, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, id uint, password string) error {
	comment, err := s.authorize(ctx, id, password)
	if err != nil {
		return err
	}
	if err := s.commentRepo.Delete(ctx, id); err != nil {
		return repoError("Comment", id, err)
	}
	cache.InvalidatePost(ctx, comment.PostID)
	return nil
}

func (s *CommentService) authorize(ctx context.Context, id uint, password string) (*models.Comment, error) {
	if strings.TrimSpace(password) == "" {
		return nil, models.NewValidationError("password is required")
	}
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, repoError("Comment", id, err)
	}
	if !passwordMatches(comment.Password, password) {
		return nil, models.NewForbiddenError("Incorrect password")
	}
	return comment, nil
}

func validateCommentFields(c *models.Comment) error {
	if err := validation.ValidateNickname(c.Nickname); err != nil {
		return validationError(err)
	}
	return validationError(validation.ValidateContent(c.Content))
}
