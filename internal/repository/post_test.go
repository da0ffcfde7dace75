package repository

import (
	"context"
	"testing"
	"time"

	"memoria/internal/models"
	"memoria/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPostRepository_CreateWithTags(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	g := seedGroup(t, db, "g", time.Now())
	post := &models.Post{GroupID: g.ID, Nickname: "n", Title: "Sunset", Content: "c", Password: "h", IsPublic: true}
	require.NoError(t, repo.Create(ctx, post, []string{"sea", "summer"}))
	require.NotZero(t, post.ID)

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sunset", got.Title)
	assert.Equal(t, []string{"sea", "summer"}, got.Tags)
	assert.Equal(t, int64(0), got.CommentCount)

	other := &models.Post{GroupID: g.ID, Nickname: "n", Title: "Dawn", Content: "c", Password: "h"}
	require.NoError(t, repo.Create(ctx, other, []string{"sea"}))

	var tagCount int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&tagCount).Error)
	assert.Equal(t, int64(2), tagCount, "tag names are shared between posts")
}

func TestPostRepository_UpdateDiffsTags(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	g := seedGroup(t, db, "g", time.Now())
	post := &models.Post{GroupID: g.ID, Nickname: "n", Title: "t", Content: "c", Password: "h"}
	require.NoError(t, repo.Create(ctx, post, []string{"a", "b"}))

	post.Title = "renamed"
	require.NoError(t, repo.Update(ctx, post, []string{"b", "c"}))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.Equal(t, []string{"b", "c"}, got.Tags)

	post.Content = "edited"
	require.NoError(t, repo.Update(ctx, post, nil))
	got, err = repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)
	assert.Equal(t, []string{"b", "c"}, got.Tags, "nil tags keep existing links")
}

func TestPostRepository_ListByGroup(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	g := seedGroup(t, db, "g", now)
	other := seedGroup(t, db, "other", now)

	old := seedPost(t, db, g.ID, "Mountain hike", now.Add(-2*time.Hour))
	mid := seedPost(t, db, g.ID, "Lunch", now.Add(-time.Hour))
	recent := seedPost(t, db, g.ID, "Night walk", now)
	seedPost(t, db, other.ID, "Mountain elsewhere", now)

	require.NoError(t, syncPostTags(db, mid.ID, []string{"mountain"}))
	require.NoError(t, db.Model(recent).Update("is_public", false).Error)
	require.NoError(t, db.Model(old).Update("like_count", 9).Error)
	require.NoError(t, db.Create(&models.Comment{PostID: mid.ID, Nickname: "x", Content: "hi", Password: "h"}).Error)
	require.NoError(t, db.Create(&models.Comment{PostID: mid.ID, Nickname: "y", Content: "yo", Password: "h"}).Error)

	posts, total, err := repo.ListByGroup(ctx, g.ID, ListQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []uint{recent.ID, mid.ID, old.ID}, postIDs(posts))

	posts, _, err = repo.ListByGroup(ctx, g.ID, ListQuery{Page: 1, PageSize: 10, SortBy: SortMostCommented})
	require.NoError(t, err)
	assert.Equal(t, mid.ID, posts[0].ID)
	assert.Equal(t, int64(2), posts[0].CommentCount)
	assert.Equal(t, []string{"mountain"}, posts[0].Tags)

	posts, _, err = repo.ListByGroup(ctx, g.ID, ListQuery{Page: 1, PageSize: 10, SortBy: SortMostLiked})
	require.NoError(t, err)
	assert.Equal(t, old.ID, posts[0].ID)

	posts, total, err = repo.ListByGroup(ctx, g.ID, ListQuery{Page: 1, PageSize: 10, Keyword: "mountain"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total, "title or tag matches")
	assert.ElementsMatch(t, []uint{old.ID, mid.ID}, postIDs(posts))

	posts, total, err = repo.ListByGroup(ctx, g.ID, ListQuery{Page: 1, PageSize: 10, IsPublic: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.NotContains(t, postIDs(posts), recent.ID)
}

func TestPostRepository_LikesAndDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	g := seedGroup(t, db, "g", time.Now())
	p := seedPost(t, db, g.ID, "t", time.Now())

	n, err := repo.IncrementLikes(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repo.IncrementLikes(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.IncrementLikes(ctx, p.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func postIDs(posts []*models.Post) []uint {
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}
