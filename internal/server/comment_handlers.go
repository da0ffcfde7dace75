package server

import (
	"memoria/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createCommentRequest struct {
	Nickname string `json:"nickname"`
	Content  string `json:"content"`
	Password string `json:"password"`
}

type updateCommentRequest struct {
	Password string  `json:"password"`
	Nickname *string `json:"nickname"`
	Content  *string `json:"content"`
}

// CreateComment handles POST /api/posts/:id/comments
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body createCommentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req createCommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		PostID:   postID,
		Nickname: req.Nickname,
		Content:  req.Content,
		Password: req.Password,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// ListComments handles GET /api/posts/:id/comments
// @Summary List a post's comments, oldest first
// @Tags comments
// @Produce json
// @Param id path int true "Post ID"
// @Param page query int false "Page (1-based)"
// @Param pageSize query int false "Page size"
// @Success 200 {object} object{currentPage=int,totalPages=int,totalItemCount=int,data=[]models.Comment}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	page, err := s.commentService.ListComments(c.UserContext(), postID,
		c.QueryInt("page", 1), c.QueryInt("pageSize", 0))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}

// UpdateComment handles PUT /api/comments/:id
// @Summary Update a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Comment ID"
// @Param request body updateCommentRequest true "Changes and password"
// @Success 200 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		CommentID: id,
		Password:  req.Password,
		Nickname:  req.Nickname,
		Content:   req.Content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:id
// @Summary Delete a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Comment ID"
// @Param request body passwordRequest true "Password"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req passwordRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.commentService.DeleteComment(c.UserContext(), id, req.Password); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}
