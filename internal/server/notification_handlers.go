package server

import (
	"stride/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications, newest first.
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	pagination := parsePagination(c)

	notifs, total, err := s.dispatcher.ListForUser(
		c.UserContext(), currentUserID(c), pagination.Page, pagination.PerPage)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"notifications": notifs,
		"pagination": fiber.Map{
			"page":     pagination.Page,
			"per_page": pagination.PerPage,
			"total":    total,
		},
	})
}

// GetUnreadCount handles GET /api/notifications/unread.
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	count, err := s.dispatcher.UnreadCount(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"unread": count,
	})
}

// MarkNotificationRead handles POST /api/notifications/:id/read.
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	notificationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	notif, err := s.dispatcher.MarkRead(c.UserContext(), currentUserID(c), notificationID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"notification": notif,
	})
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all.
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	if err := s.dispatcher.MarkAllRead(c.UserContext(), currentUserID(c)); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "All notifications marked as read",
	})
}

// UpdateNotificationPreference handles PUT /api/notifications/preferences.
// A disabled kind is silently dropped at dispatch time.
func (s *Server) UpdateNotificationPreference(c *fiber.Ctx) error {
	var req struct {
		Kind    string `json:"kind"`
		Enabled *bool  `json:"enabled"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Kind == "" || req.Enabled == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("kind and enabled are required"))
	}

	pref, err := s.dispatcher.SetPreference(c.UserContext(), currentUserID(c), req.Kind, *req.Enabled)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"preference": pref,
	})
}
