package service

import (
	"context"
	"fmt"
	"testing"

	"memoria/internal/badge"
	"memoria/internal/repository"
	"memoria/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostCountBadgeEndToEnd(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	badgeRepo := repository.NewBadgeRepository(db)
	require.NoError(t, badgeRepo.EnsureCatalog(ctx, badge.Catalog()))
	engine := badge.NewEngine(badge.Config{
		Stats:  repository.NewBadgeStatsRepository(db),
		Grants: badgeRepo,
	})

	groupRepo := repository.NewGroupRepository(db)
	groups := NewGroupService(groupRepo, engine)
	posts := NewPostService(repository.NewPostRepository(db), groupRepo, engine)
	comments := NewCommentService(repository.NewCommentRepository(db), repository.NewPostRepository(db))

	group, err := groups.CreateGroup(ctx, CreateGroupInput{Name: "club", Password: "gpw", IsPublic: true})
	require.NoError(t, err)

	for i := 0; i < badge.PostCountThreshold; i++ {
		detail, err := groups.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Empty(t, detail.Badges, "no badge before post %d", i+1)

		_, err = posts.CreatePost(ctx, CreatePostInput{
			GroupID:       group.ID,
			GroupPassword: "gpw",
			Nickname:      "n",
			Title:         fmt.Sprintf("memory %d", i),
			Content:       "c",
			PostPassword:  "ppw",
			Tags:          []string{"club"},
		})
		require.NoError(t, err)
	}

	detail, err := groups.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(badge.PostCountThreshold), detail.PostCount)
	assert.Equal(t, []string{badge.PostCount.Name()}, detail.Badges)

	page, err := posts.ListPosts(ctx, ListPostsInput{GroupID: group.ID, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 4, page.TotalPages)
	require.Len(t, page.Data, 5)

	first := page.Data[0]
	_, err = comments.CreateComment(ctx, CreateCommentInput{PostID: first.ID, Nickname: "c", Content: "hi", Password: "cpw"})
	require.NoError(t, err)
	list, err := comments.ListComments(ctx, first.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.TotalItemCount)

	require.NoError(t, posts.DeletePost(ctx, first.ID, "ppw"))
	_, err = posts.GetPost(ctx, first.ID)
	require.Error(t, err)
}
