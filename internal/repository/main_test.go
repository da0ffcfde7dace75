package repository

import (
	"testing"
	"time"

	"memoria/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func seedGroup(t *testing.T, db *gorm.DB, name string, createdAt time.Time) *models.Group {
	t.Helper()
	g := &models.Group{Name: name, Password: "hash", IsPublic: true, CreatedAt: createdAt.UTC()}
	require.NoError(t, db.Create(g).Error)
	return g
}

func seedPost(t *testing.T, db *gorm.DB, groupID uint, title string, createdAt time.Time) *models.Post {
	t.Helper()
	p := &models.Post{
		GroupID:   groupID,
		Nickname:  "nick",
		Title:     title,
		Content:   "content",
		Password:  "hash",
		IsPublic:  true,
		CreatedAt: createdAt.UTC(),
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func boolPtr(b bool) *bool { return &b }
