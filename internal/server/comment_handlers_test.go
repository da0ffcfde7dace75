package server

import (
	"fmt"
	"net/http"
	"testing"

	"memoria/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commentPage struct {
	CurrentPage    int              `json:"currentPage"`
	TotalPages     int              `json:"totalPages"`
	TotalItemCount int64            `json:"totalItemCount"`
	Data           []models.Comment `json:"data"`
}

func TestCommentLifecycle(t *testing.T) {
	ts := newTestServer(t)
	g := ts.createGroup(t, "Hikers", "grouppw")
	p := ts.createPost(t, g.ID, postBody("Ridge walk"))
	postPath := fmt.Sprintf("/api/posts/%d/comments", p.ID)

	var c models.Comment
	require.Equal(t, http.StatusCreated, ts.call(t, http.MethodPost, postPath,
		fiber.Map{"nickname": "joon", "content": "great view", "password": "cpw"}, &c))
	assert.Equal(t, p.ID, c.PostID)
	require.Equal(t, http.StatusCreated, ts.call(t, http.MethodPost, postPath,
		fiber.Map{"nickname": "ara", "content": "next time!", "password": "cpw"}, nil))

	var page commentPage
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, postPath, nil, &page))
	assert.Equal(t, int64(2), page.TotalItemCount)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "great view", page.Data[0].Content)

	var got models.Post
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", p.ID), nil, &got))
	assert.Equal(t, int64(2), got.CommentCount)

	base := fmt.Sprintf("/api/comments/%d", c.ID)
	assert.Equal(t, http.StatusBadRequest, ts.call(t, http.MethodPut, base, fiber.Map{"content": "edited"}, nil))
	assert.Equal(t, http.StatusForbidden, ts.call(t, http.MethodPut, base, fiber.Map{"password": "x", "content": "edited"}, nil))
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPut, base, fiber.Map{"password": "cpw", "content": "edited"}, &c))
	assert.Equal(t, "edited", c.Content)
	assert.Equal(t, "joon", c.Nickname)

	assert.Equal(t, http.StatusBadRequest, ts.call(t, http.MethodDelete, base, fiber.Map{}, nil))
	assert.Equal(t, http.StatusOK, ts.call(t, http.MethodDelete, base, fiber.Map{"password": "cpw"}, nil))
	assert.Equal(t, http.StatusNotFound, ts.call(t, http.MethodDelete, base, fiber.Map{"password": "cpw"}, nil))
}

func TestCommentOnMissingPost(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, ts.call(t, http.MethodPost, "/api/posts/4242/comments",
		fiber.Map{"nickname": "joon", "content": "hi", "password": "cpw"}, nil))
	assert.Equal(t, http.StatusNotFound, ts.call(t, http.MethodGet, "/api/posts/4242/comments", nil, nil))
}
