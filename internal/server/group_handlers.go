package server

import (
	"memoria/internal/middleware"
	"memoria/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createGroupRequest struct {
	Name         string `json:"name"`
	Password     string `json:"password"`
	ImageURL     string `json:"imageUrl"`
	IsPublic     bool   `json:"isPublic"`
	Introduction string `json:"introduction"`
}

type updateGroupRequest struct {
	Password     string  `json:"password"`
	Name         *string `json:"name"`
	ImageURL     *string `json:"imageUrl"`
	IsPublic     *bool   `json:"isPublic"`
	Introduction *string `json:"introduction"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

// CreateGroup handles POST /api/groups
// @Summary Create a group
// @Tags groups
// @Accept json
// @Produce json
// @Param request body createGroupRequest true "Group"
// @Success 201 {object} models.GroupDetail
// @Failure 400 {object} models.ErrorResponse
// @Router /groups [post]
func (s *Server) CreateGroup(c *fiber.Ctx) error {
	var req createGroupRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	group, err := s.groupService.CreateGroup(c.UserContext(), service.CreateGroupInput{
		Name:         req.Name,
		Password:     req.Password,
		ImageURL:     req.ImageURL,
		IsPublic:     req.IsPublic,
		Introduction: req.Introduction,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(group)
}

// ListGroups handles GET /api/groups
// @Summary List groups
// @Tags groups
// @Produce json
// @Param page query int false "Page (1-based)"
// @Param pageSize query int false "Page size"
// @Param sortBy query string false "latest | mostPosted | mostLiked | mostBadge"
// @Param keyword query string false "Name filter"
// @Param isPublic query bool false "Visibility filter"
// @Success 200 {object} object{currentPage=int,totalPages=int,totalItemCount=int,data=[]models.Group}
// @Failure 400 {object} models.ErrorResponse
// @Router /groups [get]
func (s *Server) ListGroups(c *fiber.Ctx) error {
	params, err := parseListParams(c)
	if err != nil {
		return nil
	}

	page, err := s.groupService.ListGroups(c.UserContext(), service.ListGroupsInput{
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

// GetGroup handles GET /api/groups/:id
// @Summary Get a group with its badges
// @Tags groups
// @Produce json
// @Param id path int true "Group ID"
// @Success 200 {object} models.GroupDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /groups/{id} [get]
func (s *Server) GetGroup(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	group, err := s.groupService.GetGroup(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(group)
}

// UpdateGroup handles PUT /api/groups/:id
// @Summary Update a group
// @Tags groups
// @Accept json
// @Produce json
// @Param id path int true "Group ID"
// @Param request body updateGroupRequest true "Changes and current password"
// @Success 200 {object} models.GroupDetail
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /groups/{id} [put]
func (s *Server) UpdateGroup(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updateGroupRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	group, err := s.groupService.UpdateGroup(middleware.WithGroupID(c.UserContext(), id), service.UpdateGroupInput{
		GroupID:      id,
		Password:     req.Password,
		Name:         req.Name,
		ImageURL:     req.ImageURL,
		IsPublic:     req.IsPublic,
		Introduction: req.Introduction,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(group)
}

// DeleteGroup handles DELETE /api/groups/:id
// @Summary Delete a group
// @Tags groups
// @Accept json
// @Produce json
// @Param id path int true "Group ID"
// @Param request body passwordRequest true "Group password"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /groups/{id} [delete]
func (s *Server) DeleteGroup(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req passwordRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.groupService.DeleteGroup(middleware.WithGroupID(c.UserContext(), id), id, req.Password); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Group deleted"})
}

// VerifyGroupPassword handles POST /api/groups/:id/verify-password
// @Summary Check a group password
// @Tags groups
// @Accept json
// @Produce json
// @Param id path int true "Group ID"
// @Param request body passwordRequest true "Password"
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /groups/{id}/verify-password [post]
func (s *Server) VerifyGroupPassword(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req passwordRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.groupService.VerifyPassword(c.UserContext(), id, req.Password); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password verified"})
}

// LikeGroup handles POST /api/groups/:id/like
// @Summary Like a group
// @Tags groups
// @Produce json
// @Param id path int true "Group ID"
// @Success 200 {object} object{likeCount=int}
// @Failure 404 {object} models.ErrorResponse
// @Router /groups/{id}/like [post]
func (s *Server) LikeGroup(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	count, err := s.groupService.LikeGroup(middleware.WithGroupID(c.UserContext(), id), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"likeCount": count})
}

// GetGroupVisibility handles GET /api/groups/:id/is-public
// @Summary Get group visibility
// @Tags groups
// @Produce json
// @Param id path int true "Group ID"
// @Success 200 {object} models.Visibility
// @Failure 404 {object} models.ErrorResponse
// @Router /groups/{id}/is-public [get]
func (s *Server) GetGroupVisibility(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	vis, err := s.groupService.IsPublic(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(vis)
}
