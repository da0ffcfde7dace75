package server

import (
	"context"
	"errors"

	"memoria/internal/models"
	"memoria/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// BadgeFeedUpgrade rejects non-websocket requests and unknown groups before
// the upgrade so clients get a normal HTTP error.
func (s *Server) BadgeFeedUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return models.RespondWithError(c, fiber.StatusUpgradeRequired,
			models.NewValidationError("WebSocket upgrade required"))
	}
	groupID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.groupService.IsPublic(c.UserContext(), groupID); err != nil {
		return respondServiceError(c, err)
	}
	c.Locals("groupID", groupID)
	return c.Next()
}

// BadgeFeedHandler handles GET /api/groups/:id/badges/ws. Each connection
// receives the group's badge_awarded events as JSON text frames.
func (s *Server) BadgeFeedHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		groupID, _ := conn.Locals("groupID").(uint)
		logger := s.hub.Logger()

		client, err := s.hub.Register(groupID, conn)
		if err != nil {
			logger.Failed(context.Background(), groupID, "register", err)
			msg := "connection rejected"
			if errors.Is(err, notifications.ErrGroupConnLimit) || errors.Is(err, notifications.ErrServerConnLimit) {
				msg = err.Error()
			}
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, msg))
			_ = conn.Close()
			return
		}
		logger.Connected(context.Background(), groupID, conn.RemoteAddr().String())

		client.Serve(logger)
	})
}
