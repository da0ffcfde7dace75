package repository

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"memoria/internal/models"
	"memoria/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestBadgeRepository_GrantInsertsOnce(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBadgeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "group_badges"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	created, err := repo.Grant(context.Background(), 1, 2)
	assert.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBadgeRepository_GrantConflictDoNothing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBadgeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT DO NOTHING`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	created, err := repo.Grant(context.Background(), 1, 2)
	assert.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBadgeRepository_GrantSwallowsUniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBadgeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "group_badges"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	created, err := repo.Grant(context.Background(), 1, 2)
	assert.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBadgeRepository_GrantPropagatesOtherErrors(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBadgeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "group_badges"`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	created, err := repo.Grant(context.Background(), 1, 2)
	assert.Error(t, err)
	assert.False(t, created)
}

func TestBadgeRepository_GrantIdempotentOnSQLite(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewBadgeRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.EnsureCatalog(ctx, []models.Badge{{ID: 2, Name: "posts"}}))
	g := seedGroup(t, db, "g", time.Now())

	created, err := repo.Grant(ctx, g.ID, 2)
	require.NoError(t, err)
	assert.True(t, created)

	for i := 0; i < 3; i++ {
		created, err = repo.Grant(ctx, g.ID, 2)
		require.NoError(t, err)
		assert.False(t, created)
	}

	var rows int64
	require.NoError(t, db.Model(&models.GroupBadge{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestBadgeRepository_ConcurrentGrants(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewBadgeRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.EnsureCatalog(ctx, []models.Badge{{ID: 4, Name: "likes"}}))
	g := seedGroup(t, db, "g", time.Now())

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan bool, workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := repo.Grant(ctx, g.ID, 4)
			if err != nil {
				errs <- err
				return
			}
			results <- created
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("grant returned error: %v", err)
	}
	createdCount := 0
	for created := range results {
		if created {
			createdCount++
		}
	}
	assert.Equal(t, 1, createdCount)

	var rows int64
	require.NoError(t, db.Model(&models.GroupBadge{}).Where("group_id = ?", g.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestBadgeRepository_EnsureCatalogKeepsExisting(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewBadgeRepository(db)
	ctx := context.Background()

	catalog := []models.Badge{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
	require.NoError(t, repo.EnsureCatalog(ctx, catalog))
	require.NoError(t, repo.EnsureCatalog(ctx, []models.Badge{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}))

	var count int64
	require.NoError(t, db.Model(&models.Badge{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	g := seedGroup(t, db, "g", time.Now())
	_, err := repo.Grant(ctx, g.ID, 2)
	require.NoError(t, err)

	badges, err := repo.ListForGroup(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Equal(t, "b", badges[0].Name)
}

func TestBadgeStats_Queries(t *testing.T) {
	db := testutil.NewTestDB(t)
	stats := NewBadgeStatsRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	g := seedGroup(t, db, "g", base.AddDate(-1, 0, 0))
	other := seedGroup(t, db, "other", base)

	seedPost(t, db, g.ID, "too old", base.AddDate(0, 0, -10))
	p1 := seedPost(t, db, g.ID, "in window", base.AddDate(0, 0, -2))
	seedPost(t, db, g.ID, "also in window", base.Add(-time.Hour))
	seedPost(t, db, other.ID, "other group", base.Add(-time.Hour))

	times, err := stats.PostTimesBetween(ctx, g.ID, base.AddDate(0, 0, -6), base)
	require.NoError(t, err)
	require.Len(t, times, 2)
	assert.True(t, times[0].Equal(base.AddDate(0, 0, -2)))

	count, err := stats.CountPosts(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	createdAt, err := stats.GroupCreatedAt(ctx, g.ID)
	require.NoError(t, err)
	assert.True(t, createdAt.Equal(base.AddDate(-1, 0, 0)))

	_, err = stats.GroupCreatedAt(ctx, 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", p1.ID).Update("like_count", 10000).Error)
	groupID, likes, err := stats.PostLikeCount(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, groupID)
	assert.Equal(t, int64(10000), likes)

	require.NoError(t, db.Model(&models.Group{}).Where("id = ?", g.ID).Update("like_count", 42).Error)
	groupLikes, err := stats.GroupLikeCount(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), groupLikes)

	ids, err := stats.ListGroupIDs(ctx, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{g.ID}, ids)
	ids, err = stats.ListGroupIDs(ctx, g.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{other.ID}, ids)
	ids, err = stats.ListGroupIDs(ctx, other.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: group_badges.group_id, group_badges.badge_id")))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(nil))
}
