package server

import (
	"stride/internal/models"
	"stride/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateAction handles POST /api/reports/:id/actions. Moderator-only.
// Applies a sanction (or lifts one) against the report's target.
func (s *Server) CreateAction(c *fiber.Ctx) error {
	reportID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		ActionType string  `json:"action_type"`
		Username   string  `json:"username"`
		CommentID  string  `json:"comment_id"`
		WorkoutID  string  `json:"workout_id"`
		Reason     *string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	action, err := s.actions.CreateAction(c.UserContext(), service.CreateActionInput{
		ReportID:    reportID,
		ModeratorID: currentUserID(c),
		ActionType:  req.ActionType,
		Username:    req.Username,
		CommentID:   req.CommentID,
		WorkoutID:   req.WorkoutID,
		Reason:      req.Reason,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"action": action,
	})
}

// GetReportActions handles GET /api/reports/:id/actions. Moderator-only.
// Returns the report's full audit trail, oldest first.
func (s *Server) GetReportActions(c *fiber.Ctx) error {
	reportID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	actions, err := s.actions.ListActions(c.UserContext(), reportID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"actions": actions,
	})
}
