package service

import (
	"context"
	"strings"
	"time"

	"memoria/internal/badge"
	"memoria/internal/cache"
	"memoria/internal/models"
	"memoria/internal/repository"
	"memoria/internal/validation"
)

type PostService struct {
	postRepo  repository.PostRepository
	groupRepo repository.GroupRepository
	badges    BadgeTriggers
}

type CreatePostInput struct {
	GroupID       uint
	GroupPassword string
	Nickname      string
	Title         string
	Content       string
	PostPassword  string
	ImageURL      string
	Tags          []string
	Location      string
	Moment        time.Time
	IsPublic      bool
}

type ListPostsInput struct {
	GroupID  uint
	Page     int
	PageSize int
	SortBy   string
	Keyword  string
	IsPublic *bool
}

// UpdatePostInput carries optional changes. A nil Tags leaves the tags alone;
// a non-nil empty slice clears them.
type UpdatePostInput struct {
	PostID       uint
	PostPassword string
	Nickname     *string
	Title        *string
	Content      *string
	ImageURL     *string
	Tags         *[]string
	Location     *string
	Moment       *time.Time
	IsPublic     *bool
}

func NewPostService(postRepo repository.PostRepository, groupRepo repository.GroupRepository, badges BadgeTriggers) *PostService {
	return &PostService{
		postRepo:  postRepo,
		groupRepo: groupRepo,
		badges:    triggersOrNoop(badges),
	}
}

// CreatePost checks the group password, stores the post with its tags and
// then hands the committed post to the badge engine.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if strings.TrimSpace(in.GroupPassword) == "" {
		return nil, models.NewValidationError("groupPassword is required")
	}
	if err := validation.ValidatePassword(in.PostPassword); err != nil {
		return nil, validationError(err)
	}
	tags, err := validation.NormalizeTags(in.Tags)
	if err != nil {
		return nil, validationError(err)
	}
	post := &models.Post{
		GroupID:  in.GroupID,
		Nickname: strings.TrimSpace(in.Nickname),
		Title:    strings.TrimSpace(in.Title),
		Content:  in.Content,
		ImageURL: in.ImageURL,
		Location: strings.TrimSpace(in.Location),
		Moment:   in.Moment,
		IsPublic: in.IsPublic,
	}
	if err := validatePostFields(post); err != nil {
		return nil, err
	}

	group, err := s.groupRepo.GetByID(ctx, in.GroupID)
	if err != nil {
		return nil, repoError("Group", in.GroupID, err)
	}
	if !passwordMatches(group.Password, in.GroupPassword) {
		return nil, models.NewForbiddenError("Incorrect group password")
	}

	hashed, err := hashPassword(in.PostPassword)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	post.Password = hashed
	if post.Moment.IsZero() {
		post.Moment = time.Now().UTC()
	}

	if err := s.postRepo.Create(ctx, post, tags); err != nil {
		return nil, models.NewInternalError(err)
	}

	s.badges.OnPostCreated(ctx, badge.PostCreated{
		GroupID:   post.GroupID,
		PostID:    post.ID,
		CreatedAt: post.CreatedAt,
	})
	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (*models.Page[*models.Post], error) {
	sortBy := in.SortBy
	switch sortBy {
	case "":
		sortBy = repository.SortLatest
	case repository.SortLatest, repository.SortMostCommented, repository.SortMostLiked:
	default:
		return nil, models.NewValidationError("sortBy must be one of latest, mostCommented, mostLiked")
	}
	if _, err := s.groupRepo.GetByID(ctx, in.GroupID); err != nil {
		return nil, repoError("Group", in.GroupID, err)
	}
	page, pageSize := normalizePage(in.Page, in.PageSize)

	posts, total, err := s.postRepo.ListByGroup(ctx, in.GroupID, repository.ListQuery{
		Page:     page,
		PageSize: pageSize,
		SortBy:   sortBy,
		Keyword:  strings.TrimSpace(in.Keyword),
		IsPublic: in.IsPublic,
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	result := models.NewPage(posts, page, pageSize, total)
	return &result, nil
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := cache.Remember(ctx, cache.PostKey(id), cache.PostTTL, func(ctx context.Context) (*models.Post, error) {
		return s.postRepo.GetByID(ctx, id)
	})
	if err != nil {
		return nil, repoError("Post", id, err)
	}
	return post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.authorize(ctx, in.PostID, in.PostPassword)
	if err != nil {
		return nil, err
	}

	if in.Nickname != nil {
		post.Nickname = strings.TrimSpace(*in.Nickname)
	}
	if in.Title != nil {
		post.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.ImageURL != nil {
		post.ImageURL = *in.ImageURL
	}
	if in.Location != nil {
		post.Location = strings.TrimSpace(*in.Location)
	}
	if in.Moment != nil {
		post.Moment = *in.Moment
	}
	if in.IsPublic != nil {
		post.IsPublic = *in.IsPublic
	}
	if err := validatePostFields(post); err != nil {
		return nil, err
	}

	var tags []string
	if in.Tags != nil {
		tags, err = validation.NormalizeTags(*in.Tags)
		if err != nil {
			return nil, validationError(err)
		}
	}

	if err := s.postRepo.Update(ctx, post, tags); err != nil {
		return nil, repoError("Post", in.PostID, err)
	}
	return s.GetPost(ctx, post.ID)
}

func (s *PostService) DeletePost(ctx context.Context, id uint, password string) error {
	post, err := s.authorize(ctx, id, password)
	if err != nil {
		return err
	}
	if err := s.postRepo.Delete(ctx, id); err != nil {
		return repoError("Post", id, err)
	}
	cache.InvalidateGroup(ctx, post.GroupID)
	return nil
}

func (s *PostService) VerifyPassword(ctx context.Context, id uint, password string) error {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return repoError("Post", id, err)
	}
	if !passwordMatches(post.Password, password) {
		return models.NewUnauthorizedError("Incorrect password")
	}
	return nil
}

// LikePost adds one like and then lets the badge engine look at the new count.
func (s *PostService) LikePost(ctx context.Context, id uint) (int64, error) {
	count, err := s.postRepo.IncrementLikes(ctx, id)
	if err != nil {
		return 0, repoError("Post", id, err)
	}
	s.badges.OnPostLiked(ctx, badge.PostLiked{PostID: id, LikeCount: count})
	return count, nil
}

func (s *PostService) IsPublic(ctx context.Context, id uint) (*models.Visibility, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, repoError("Post", id, err)
	}
	return &models.Visibility{ID: post.ID, IsPublic: post.IsPublic}, nil
}

func (s *PostService) authorize(ctx context.Context, id uint, password string) (*models.Post, error) {
	if strings.TrimSpace(password) == "" {
		return nil, models.NewValidationError("postPassword is required")
	}
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, repoError("Post", id, err)
	}
	if !passwordMatches(post.Password, password) {
		return nil, models.NewForbiddenError("Incorrect password")
	}
	return post, nil
}

func validatePostFields(p *models.Post) error {
	checks := []error{
		validation.ValidateNickname(p.Nickname),
		validation.ValidateTitle(p.Title),
		validation.ValidateContent(p.Content),
		validation.ValidateImageURL(p.ImageURL),
		validation.ValidateLocation(p.Location),
	}
	for _, err := range checks {
		if err != nil {
			return validationError(err)
		}
	}
	return nil
}
