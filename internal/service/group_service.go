package service

import (
	"context"
	"strings"

	"memoria/internal/badge"
	"memoria/internal/cache"
	"memoria/internal/models"
	"memoria/internal/repository"
	"memoria/internal/validation"
)

type GroupService struct {
	groupRepo repository.GroupRepository
	badges    BadgeTriggers
}

type CreateGroupInput struct {
	Name         string
	Password     string
	ImageURL     string
	IsPublic     bool
	Introduction string
}

// UpdateGroupInput carries optional changes; nil fields are left as they are.
type UpdateGroupInput struct {
	GroupID      uint
	Password     string
	Name         *string
	ImageURL     *string
	IsPublic     *bool
	Introduction *string
}

type ListGroupsInput struct {
	Page     int
	PageSize int
	SortBy   string
	Keyword  string
	IsPublic *bool
}

func NewGroupService(groupRepo repository.GroupRepository, badges BadgeTriggers) *GroupService {
	return &GroupService{groupRepo: groupRepo, badges: triggersOrNoop(badges)}
}

func (s *GroupService) CreateGroup(ctx context.Context, in CreateGroupInput) (*models.GroupDetail, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateGroupFields(in.Name, in.ImageURL, in.Introduction); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, validationError(err)
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	group := &models.Group{
		Name:         in.Name,
		Password:     hashed,
		ImageURL:     in.ImageURL,
		IsPublic:     in.IsPublic,
		Introduction: in.Introduction,
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, models.NewInternalError(err)
	}
	return groupDetail(group, 0, []string{}), nil
}

func (s *GroupService) ListGroups(ctx context.Context, in ListGroupsInput) (*models.Page[*models.Group], error) {
	sortBy := in.SortBy
	switch sortBy {
	case "":
		sortBy = repository.SortLatest
	case repository.SortLatest, repository.SortMostPosted, repository.SortMostLiked, repository.SortMostBadge:
	default:
		return nil, models.NewValidationError("sortBy must be one of latest, mostPosted, mostLiked, mostBadge")
	}
	page, pageSize := normalizePage(in.Page, in.PageSize)

	groups, total, err := s.groupRepo.List(ctx, repository.ListQuery{
		Page:     page,
		PageSize: pageSize,
		SortBy:   sortBy,
		Keyword:  strings.TrimSpace(in.Keyword),
		IsPublic: in.IsPublic,
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	result := models.NewPage(groups, page, pageSize, total)
	return &result, nil
}

// GetGroup returns the group detail with its post count and badge names.
// Both halves are cached separately and dropped whenever the group changes.
func (s *GroupService) GetGroup(ctx context.Context, id uint) (*models.GroupDetail, error) {
	detail, err := cache.Remember(ctx, cache.GroupKey(id), cache.GroupTTL, func(ctx context.Context) (models.GroupDetail, error) {
		group, err := s.groupRepo.GetByID(ctx, id)
		if err != nil {
			return models.GroupDetail{}, err
		}
		count, err := s.groupRepo.CountPosts(ctx, id)
		if err != nil {
			return models.GroupDetail{}, err
		}
		return *groupDetail(group, count, nil), nil
	})
	if err != nil {
		return nil, repoError("Group", id, err)
	}

	names, err := cache.Remember(ctx, cache.GroupBadgesKey(id), cache.BadgesTTL, func(ctx context.Context) ([]string, error) {
		return s.groupRepo.BadgeNames(ctx, id)
	})
	if err != nil {
		return nil, repoError("Group", id, err)
	}
	if names == nil {
		names = []string{}
	}
	detail.Badges = names
	return &detail, nil
}

func (s *GroupService) UpdateGroup(ctx context.Context, in UpdateGroupInput) (*models.GroupDetail, error) {
	group, err := s.authorize(ctx, in.GroupID, in.Password)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		group.Name = strings.TrimSpace(*in.Name)
	}
	if in.ImageURL != nil {
		group.ImageURL = *in.ImageURL
	}
	if in.IsPublic != nil {
		group.IsPublic = *in.IsPublic
	}
	if in.Introduction != nil {
		group.Introduction = *in.Introduction
	}
	if err := validateGroupFields(group.Name, group.ImageURL, group.Introduction); err != nil {
		return nil, err
	}

	if err := s.groupRepo.Update(ctx, group); err != nil {
		return nil, repoError("Group", in.GroupID, err)
	}
	return s.GetGroup(ctx, group.ID)
}

func (s *GroupService) DeleteGroup(ctx context.Context, id uint, password string) error {
	if _, err := s.authorize(ctx, id, password); err != nil {
		return err
	}
	return repoError("Group", id, s.groupRepo.Delete(ctx, id))
}

// VerifyPassword reports a mismatch as UNAUTHORIZED rather than FORBIDDEN.
func (s *GroupService) VerifyPassword(ctx context.Context, id uint, password string) error {
	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		return repoError("Group", id, err)
	}
	if !passwordMatches(group.Password, password) {
		return models.NewUnauthorizedError("Incorrect password")
	}
	return nil
}

// LikeGroup adds one like and then lets the badge engine look at the new count.
func (s *GroupService) LikeGroup(ctx context.Context, id uint) (int64, error) {
	count, err := s.groupRepo.IncrementLikes(ctx, id)
	if err != nil {
		return 0, repoError("Group", id, err)
	}
	s.badges.OnGroupLiked(ctx, badge.GroupLiked{GroupID: id, LikeCount: count})
	return count, nil
}

func (s *GroupService) IsPublic(ctx context.Context, id uint) (*models.Visibility, error) {
	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, repoError("Group", id, err)
	}
	return &models.Visibility{ID: group.ID, IsPublic: group.IsPublic}, nil
}

// authorize loads the group and checks its password. A mismatch is FORBIDDEN.
func (s *GroupService) authorize(ctx context.Context, id uint, password string) (*models.Group, error) {
	if strings.TrimSpace(password) == "" {
		return nil, models.NewValidationError("password is required")
	}
	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, repoError("Group", id, err)
	}
	if !passwordMatches(group.Password, password) {
		return nil, models.NewForbiddenError("Incorrect password")
	}
	return group, nil
}

func validateGroupFields(name, imageURL, intro string) error {
	if err := validation.ValidateGroupName(name); err != nil {
		return validationError(err)
	}
	if err := validation.ValidateImageURL(imageURL); err != nil {
		return validationError(err)
	}
	return validationError(validation.ValidateIntroduction(intro))
}

func groupDetail(g *models.Group, postCount int64, badges []string) *models.GroupDetail {
	return &models.GroupDetail{
		ID:           g.ID,
		Name:         g.Name,
		ImageURL:     g.ImageURL,
		IsPublic:     g.IsPublic,
		Introduction: g.Introduction,
		LikeCount:    g.LikeCount,
		PostCount:    postCount,
		Badges:       badges,
		CreatedAt:    g.CreatedAt,
	}
}
