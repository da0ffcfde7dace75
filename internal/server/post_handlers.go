package server

import (
	"time"

	"memoria/internal/middleware"
	"memoria/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createPostRequest struct {
	Nickname      string     `json:"nickname"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	PostPassword  string     `json:"postPassword"`
	GroupPassword string     `json:"groupPassword"`
	ImageURL      string     `json:"imageUrl"`
	Tags          []string   `json:"tags"`
	Location      string     `json:"location"`
	Moment        *time.Time `json:"moment"`
	IsPublic      bool       `json:"isPublic"`
}

type updatePostRequest struct {
	PostPassword string     `json:"postPassword"`
	Nickname     *string    `json:"nickname"`
	Title        *string    `json:"title"`
	Content      *string    `json:"content"`
	ImageURL     *string    `json:"imageUrl"`
	Tags         *[]string  `json:"tags"`
	Location     *string    `json:"location"`
	Moment       *time.Time `json:"moment"`
	IsPublic     *bool      `json:"isPublic"`
}

type postPasswordRequest struct {
	PostPassword string `json:"postPassword"`
}

// CreatePost handles POST /api/groups/:id/posts
// @Summary Publish a memory in a group
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Group ID"
// @Param request body createPostRequest true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /groups/{id}/posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	groupID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req createPostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	in := service.CreatePostInput{
		GroupID:       groupID,
		GroupPassword: req.GroupPassword,
		Nickname:      req.Nickname,
		Title:         req.Title,
		Content:       req.Content,
		PostPassword:  req.PostPassword,
		ImageURL:      req.ImageURL,
		Tags:          req.Tags,
		Location:      req.Location,
		IsPublic:      req.IsPublic,
	}
	if req.Moment != nil {
		in.Moment = req.Moment.UTC()
	}

	post, err := s.postService.CreatePost(middleware.WithGroupID(c.UserContext(), groupID), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// ListPosts handles GET /api/groups/:id/posts
// @Summary List a group's posts
// @Tags posts
// @Produce json
// @Param id path int true "Group ID"
// @Param page query int false "Page (1-based)"
// @Param pageSize query int false "Page size"
// @Param sortBy query string false "latest | mostCommented | mostLiked"
// @Param keyword query string false "Title or tag filter"
// @Param isPublic query bool false "Visibility filter"
// @Success 200 {object} object{currentPage=int,totalPages=int,totalItemCount=int,data=[]models.Post}
// @Failure 404 {object} models.ErrorResponse
// @Router /groups/{id}/posts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	groupID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	params, err := parseListParams(c)
	if err != nil {
		return nil
	}

	page, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		GroupID:  groupID,
		Page:     params.Page,
		PageSize: params.PageSize,
		SortBy:   params.SortBy,
		Keyword:  params.Keyword,
		IsPublic: params.IsPublic,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Update a post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body updatePostRequest true "Changes and post password"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updatePostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		PostID:       id,
		PostPassword: req.PostPassword,
		Nickname:     req.Nickname,
		Title:        req.Title,
		Content:      req.Content,
		ImageURL:     req.ImageURL,
		Tags:         req.Tags,
		Location:     req.Location,
		Moment:       req.Moment,
		IsPublic:     req.IsPublic,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body postPasswordRequest true "Post password"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req postPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), id, req.PostPassword); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// VerifyPostPassword handles POST /api/posts/:id/verify-password
// @Summary Check a post password
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body passwordRequest true "Password"
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/verify-password [post]
func (s *Server) VerifyPostPassword(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req passwordRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.postService.VerifyPassword(c.UserContext(), id, req.Password); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password verified"})
}

// LikePost handles POST /api/posts/:id/like
// @Summary Like a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{likeCount=int}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	count, err := s.postService.LikePost(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"likeCount": count})
}

// GetPostVisibility handles GET /api/posts/:id/is-public
// @Summary Get post visibility
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Visibility
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/is-public [get]
func (s *Server) GetPostVisibility(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	vis, err := s.postService.IsPublic(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(vis)
}
