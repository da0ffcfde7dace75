package server

import (
	"memoria/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags returns configured feature flags and their state for one group.
// @Summary Feature flags
// @Tags operational
// @Produce json
// @Param groupId query int false "Group to evaluate rollouts for"
// @Success 200 {object} object{raw=map[string]string,evaluated=map[string]bool}
// @Router /feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	groupID := c.QueryInt("groupId", 0)
	if groupID < 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid group ID"))
	}

	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(uint(groupID)),
	})
}
