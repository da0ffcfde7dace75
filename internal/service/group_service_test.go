package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"memoria/internal/cache"
	"memoria/internal/models"
	"memoria/internal/repository"
	"memoria/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGroupService_CreateGroup(t *testing.T) {
	t.Parallel()

	var stored *models.Group
	repo := noopGroupRepo()
	repo.createFn = func(_ context.Context, g *models.Group) error {
		g.ID = 11
		g.CreatedAt = time.Now()
		stored = g
		return nil
	}
	svc := NewGroupService(repo, nil)

	detail, err := svc.CreateGroup(context.Background(), CreateGroupInput{
		Name:     "  Family  ",
		Password: "secret",
		IsPublic: false,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(11), detail.ID)
	assert.Equal(t, "Family", detail.Name)
	assert.False(t, detail.IsPublic)
	assert.Equal(t, []string{}, detail.Badges)

	require.NotNil(t, stored)
	assert.NotEqual(t, "secret", stored.Password)
	assert.True(t, passwordMatches(stored.Password, "secret"))
}

func TestGroupService_CreateGroup_Validation(t *testing.T) {
	t.Parallel()
	svc := NewGroupService(noopGroupRepo(), nil)

	tests := []struct {
		name  string
		input CreateGroupInput
	}{
		{"empty name", CreateGroupInput{Password: "p"}},
		{"name too long", CreateGroupInput{Name: strings.Repeat("x", 101), Password: "p"}},
		{"missing password", CreateGroupInput{Name: "n"}},
		{"bad image url", CreateGroupInput{Name: "n", Password: "p", ImageURL: "javascript:x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateGroup(context.Background(), tt.input)
			assertAppError(t, err, models.CodeValidation)
		})
	}
}

func TestGroupService_ListGroups(t *testing.T) {
	t.Parallel()

	var got repository.ListQuery
	repo := noopGroupRepo()
	repo.listFn = func(_ context.Context, q repository.ListQuery) ([]*models.Group, int64, error) {
		got = q
		return []*models.Group{{ID: 1}, {ID: 2}}, 23, nil
	}
	svc := NewGroupService(repo, nil)

	page, err := svc.ListGroups(context.Background(), ListGroupsInput{Page: 2, PageSize: 0, SortBy: "mostBadge", Keyword: " fam ", IsPublic: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, int64(23), page.TotalItemCount)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, repository.ListQuery{Page: 2, PageSize: DefaultPageSize, SortBy: "mostBadge", Keyword: "fam", IsPublic: boolPtr(true)}, got)

	_, err = svc.ListGroups(context.Background(), ListGroupsInput{SortBy: "oldest"})
	assertAppError(t, err, models.CodeValidation)
}

func TestGroupService_GetGroup(t *testing.T) {
	t.Parallel()

	repo := noopGroupRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Group, error) {
		if id == 404 {
			return nil, gorm.ErrRecordNotFound
		}
		return &models.Group{ID: id, Name: "g", LikeCount: 5}, nil
	}
	repo.countPostsFn = func(_ context.Context, _ uint) (int64, error) { return 3, nil }
	repo.badgeNamesFn = func(_ context.Context, _ uint) ([]string, error) { return []string{"추억 수 20개 이상 등록"}, nil }
	svc := NewGroupService(repo, nil)

	detail, err := svc.GetGroup(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), detail.PostCount)
	assert.Equal(t, int64(5), detail.LikeCount)
	assert.Equal(t, []string{"추억 수 20개 이상 등록"}, detail.Badges)

	_, err = svc.GetGroup(context.Background(), 404)
	assertAppError(t, err, models.CodeNotFound)
}

func TestGroupService_GetGroupUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	loads := 0
	repo := noopGroupRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Group, error) {
		loads++
		return &models.Group{ID: id, Name: "cached"}, nil
	}
	svc := NewGroupService(repo, nil)

	for i := 0; i < 3; i++ {
		detail, err := svc.GetGroup(context.Background(), 9)
		require.NoError(t, err)
		assert.Equal(t, "cached", detail.Name)
	}
	assert.Equal(t, 1, loads)
	assert.True(t, mr.Exists(cache.GroupKey(9)))
	assert.True(t, mr.Exists(cache.GroupBadgesKey(9)))

	cache.InvalidateGroup(context.Background(), 9)
	_, err := svc.GetGroup(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestGroupService_DeleteGroupDropsCachedPosts(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	db := testutil.NewTestDB(t)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	ctx := context.Background()

	groupRepo := repository.NewGroupRepository(db)
	groups := NewGroupService(groupRepo, nil)
	posts := NewPostService(repository.NewPostRepository(db), groupRepo, nil)

	group, err := groups.CreateGroup(ctx, CreateGroupInput{Name: "trip", Password: "gpw", IsPublic: true})
	require.NoError(t, err)
	post, err := posts.CreatePost(ctx, CreatePostInput{
		GroupID:       group.ID,
		GroupPassword: "gpw",
		Nickname:      "n",
		Title:         "beach",
		Content:       "c",
		PostPassword:  "ppw",
	})
	require.NoError(t, err)

	_, err = posts.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.PostKey(post.ID)))

	require.NoError(t, groups.DeleteGroup(ctx, group.ID, "gpw"))

	var remaining int64
	require.NoError(t, db.Model(&models.Post{}).Where("group_id = ?", group.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)
	assert.False(t, mr.Exists(cache.PostKey(post.ID)))

	_, err = posts.GetPost(ctx, post.ID)
	assertAppError(t, err, models.CodeNotFound)
}

func TestGroupService_UpdateAndDeleteRequirePassword(t *testing.T) {
	t.Parallel()

	hash := mustHash(t, "right")
	var updated *models.Group
	deleted := false
	repo := noopGroupRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Group, error) {
		if id == 404 {
			return nil, gorm.ErrRecordNotFound
		}
		return &models.Group{ID: id, Name: "old", Password: hash, IsPublic: true}, nil
	}
	repo.updateFn = func(_ context.Context, g *models.Group) error {
		updated = g
		return nil
	}
	repo.deleteFn = func(_ context.Context, _ uint) error {
		deleted = true
		return nil
	}
	svc := NewGroupService(repo, nil)
	ctx := context.Background()

	_, err := svc.UpdateGroup(ctx, UpdateGroupInput{GroupID: 1, Password: "wrong", Name: strPtr("new")})
	assertAppError(t, err, models.CodeForbidden)
	assert.Nil(t, updated)

	_, err = svc.UpdateGroup(ctx, UpdateGroupInput{GroupID: 404, Password: "right"})
	assertAppError(t, err, models.CodeNotFound)

	_, err = svc.UpdateGroup(ctx, UpdateGroupInput{GroupID: 1, Password: "right", Name: strPtr(" new "), IsPublic: boolPtr(false)})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "new", updated.Name)
	assert.False(t, updated.IsPublic)

	err = svc.DeleteGroup(ctx, 1, "wrong")
	assertAppError(t, err, models.CodeForbidden)
	assert.False(t, deleted)

	err = svc.DeleteGroup(ctx, 1, "")
	assertAppError(t, err, models.CodeValidation)

	require.NoError(t, svc.DeleteGroup(ctx, 1, "right"))
	assert.True(t, deleted)
}

func TestGroupService_VerifyPassword(t *testing.T) {
	t.Parallel()

	hash := mustHash(t, "pw")
	repo := noopGroupRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Group, error) {
		return &models.Group{ID: id, Password: hash}, nil
	}
	svc := NewGroupService(repo, nil)

	require.NoError(t, svc.VerifyPassword(context.Background(), 1, "pw"))
	assertAppError(t, svc.VerifyPassword(context.Background(), 1, "nope"), models.CodeUnauthorized)
}

func TestGroupService_LikeGroupFiresTrigger(t *testing.T) {
	t.Parallel()

	triggers := &recordingTriggers{}
	repo := noopGroupRepo()
	repo.incrementLikesFn = func(_ context.Context, id uint) (int64, error) {
		if id == 404 {
			return 0, gorm.ErrRecordNotFound
		}
		return 10000, nil
	}
	svc := NewGroupService(repo, triggers)

	count, err := svc.LikeGroup(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), count)
	require.Len(t, triggers.groupLiked, 1)
	assert.Equal(t, uint(3), triggers.groupLiked[0].GroupID)
	assert.Equal(t, int64(10000), triggers.groupLiked[0].LikeCount)

	_, err = svc.LikeGroup(context.Background(), 404)
	assertAppError(t, err, models.CodeNotFound)
	assert.Len(t, triggers.groupLiked, 1)
}

func TestGroupService_IsPublicAndInternalErrors(t *testing.T) {
	t.Parallel()

	repo := noopGroupRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Group, error) {
		if id == 500 {
			return nil, errors.New("connection refused")
		}
		return &models.Group{ID: id, IsPublic: true}, nil
	}
	svc := NewGroupService(repo, nil)

	vis, err := svc.IsPublic(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, &models.Visibility{ID: 2, IsPublic: true}, vis)

	_, err = svc.IsPublic(context.Background(), 500)
	assertAppError(t, err, models.CodeInternal)
}
