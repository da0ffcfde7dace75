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

type postPage struct {
	CurrentPage    int           `json:"currentPage"`
	TotalPages     int           `json:"totalPages"`
	TotalItemCount int64         `json:"totalItemCount"`
	Data           []models.Post `json:"data"`
}

func postBody(title string, tags ...string) fiber.Map {
	return fiber.Map{
		"nickname":      "mina",
		"title":         title,
		"content":       "we walked the ridge",
		"postPassword":  "postpw",
		"groupPassword": "grouppw",
		"tags":          tags,
		"location":      "Seoraksan",
		"moment":        "2026-05-01T09:00:00Z",
		"isPublic":      true,
	}
}

func (ts *testServer) createPost(t *testing.T, groupID uint, body fiber.Map) models.Post {
	t.Helper()
	var p models.Post
	status := ts.call(t, http.MethodPost, fmt.Sprintf("/api/groups/%d/posts", groupID), body, &p)
	require.Equal(t, http.StatusCreated, status)
	return p
}

func TestPostLifecycle(t *testing.T) {
	ts := newTestServer(t)
	g := ts.createGroup(t, "Hikers", "grouppw")

	p := ts.createPost(t, g.ID, postBody("Ridge walk", "#Mountain", "mountain", "autumn"))
	assert.Equal(t, g.ID, p.GroupID)
	assert.Equal(t, []string{"mountain", "autumn"}, p.Tags)
	assert.Equal(t, 2026, p.Moment.Year())
	base := fmt.Sprintf("/api/posts/%d", p.ID)

	var got models.Post
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, base, nil, &got))
	assert.Equal(t, "Ridge walk", got.Title)
	assert.ElementsMatch(t, []string{"mountain", "autumn"}, got.Tags)

	assert.Equal(t, http.StatusForbidden, ts.call(t, http.MethodPut, base, fiber.Map{"postPassword": "nope", "title": "x"}, nil))
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPut, base, fiber.Map{
		"postPassword": "postpw",
		"title":        "Ridge walk, day two",
		"tags":         []string{"snow"},
	}, &got))
	assert.Equal(t, "Ridge walk, day two", got.Title)
	assert.Equal(t, []string{"snow"}, got.Tags)

	assert.Equal(t, http.StatusUnauthorized, ts.call(t, http.MethodPost, base+"/verify-password", fiber.Map{"postPassword": "nope"}, nil))
	assert.Equal(t, http.StatusOK, ts.call(t, http.MethodPost, base+"/verify-password", fiber.Map{"postPassword": "postpw"}, nil))

	var liked struct {
		LikeCount int64 `json:"likeCount"`
	}
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPost, base+"/like", nil, &liked))
	assert.Equal(t, int64(1), liked.LikeCount)

	var vis models.Visibility
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, base+"/is-public", nil, &vis))
	assert.True(t, vis.IsPublic)

	var detail models.GroupDetail
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, fmt.Sprintf("/api/groups/%d", g.ID), nil, &detail))
	assert.Equal(t, int64(1), detail.PostCount)

	assert.Equal(t, http.StatusOK, ts.call(t, http.MethodDelete, base, fiber.Map{"postPassword": "postpw"}, nil))
	assert.Equal(t, http.StatusNotFound, ts.call(t, http.MethodGet, base, nil, nil))
}

func TestCreatePostRejections(t *testing.T) {
	ts := newTestServer(t)
	g := ts.createGroup(t, "Hikers", "grouppw")

	wrongGroupPw := postBody("Ridge walk")
	wrongGroupPw["groupPassword"] = "nope"
	missingTitle := postBody("")

	tests := []struct {
		name   string
		path   string
		body   fiber.Map
		status int
	}{
		{"wrong group password", fmt.Sprintf("/api/groups/%d/posts", g.ID), wrongGroupPw, http.StatusForbidden},
		{"missing title", fmt.Sprintf("/api/groups/%d/posts", g.ID), missingTitle, http.StatusBadRequest},
		{"unknown group", "/api/groups/9999/posts", postBody("Ridge walk"), http.StatusNotFound},
		{"bad group id", "/api/groups/abc/posts", postBody("Ridge walk"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, ts.call(t, http.MethodPost, tt.path, tt.body, nil))
		})
	}
}

func TestListPosts(t *testing.T) {
	ts := newTestServer(t)
	g := ts.createGroup(t, "Hikers", "grouppw")
	other := ts.createGroup(t, "Divers", "grouppw")

	ts.createPost(t, g.ID, postBody("Ridge walk", "mountain"))
	ts.createPost(t, g.ID, postBody("Lake swim", "water"))
	private := postBody("Secret trail", "mountain")
	private["isPublic"] = false
	ts.createPost(t, g.ID, private)
	ts.createPost(t, other.ID, postBody("Reef dive", "water"))

	path := fmt.Sprintf("/api/groups/%d/posts", g.ID)

	var page postPage
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, path, nil, &page))
	assert.Equal(t, int64(3), page.TotalItemCount)
	for _, p := range page.Data {
		assert.Equal(t, g.ID, p.GroupID)
	}

	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, path+"?isPublic=true&pageSize=1", nil, &page))
	assert.Equal(t, int64(2), page.TotalItemCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Data, 1)

	assert.Equal(t, http.StatusBadRequest, ts.call(t, http.MethodGet, path+"?sortBy=mostBadge", nil, nil))
	assert.Equal(t, http.StatusNotFound, ts.call(t, http.MethodGet, "/api/groups/9999/posts", nil, nil))
}
