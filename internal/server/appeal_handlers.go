package server

import (
	"stride/internal/middleware"
	"stride/internal/models"
	"stride/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateAppeal handles POST /api/actions/:shortId/appeal. The sanctioned user
// contests a suspension or warning; moderators are notified for review.
func (s *Server) CreateAppeal(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	appeal, err := s.appeals.CreateAppeal(c.UserContext(), service.CreateAppealInput{
		ActionShortID: c.Params("shortId"),
		UserID:        currentUserID(c),
		Text:          req.Text,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"appeal": appeal,
	})
}

// GetAppeals handles GET /api/appeals. Moderator-only.
// pending=true narrows to the open review queue.
func (s *Server) GetAppeals(c *fiber.Ctx) error {
	in := service.ListAppealsInput{}
	if pending := c.Query("pending"); pending != "" {
		value := pending == "true"
		in.Pending = &value
	}

	pagination := parsePagination(c)
	in.Page = pagination.Page
	in.PerPage = pagination.PerPage

	appeals, total, err := s.appeals.ListAppeals(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"appeals": appeals,
		"pagination": fiber.Map{
			"page":     pagination.Page,
			"per_page": pagination.PerPage,
			"total":    total,
		},
	})
}

// GetAppeal handles GET /api/appeals/:shortId. Moderator-only.
func (s *Server) GetAppeal(c *fiber.Ctx) error {
	appeal, err := s.appeals.GetAppeal(c.UserContext(), c.Params("shortId"))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"appeal": appeal,
	})
}

// ProcessAppeal handles PATCH /api/appeals/:shortId. Moderator-only.
// Approving reverses the sanction; rejecting leaves it standing and informs
// the appellant.
func (s *Server) ProcessAppeal(c *fiber.Ctx) error {
	var req struct {
		Approved *bool  `json:"approved"`
		Reason   string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Approved == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("approved is required"))
	}

	moderatorID := currentUserID(c)
	appeal, reversal, err := s.appeals.ProcessAppeal(c.UserContext(), service.ProcessAppealInput{
		AppealShortID: c.Params("shortId"),
		ModeratorID:   moderatorID,
		Approved:      *req.Approved,
		Reason:        req.Reason,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	// A rejection creates no reversing action, so the appellant would never
	// hear back. Tell them here instead.
	if !*req.Approved {
		s.notifyAppealRejected(c, appeal, moderatorID)
	}

	return c.JSON(fiber.Map{
		"appeal": appeal,
		"action": reversal,
	})
}

func (s *Server) notifyAppealRejected(c *fiber.Ctx, appeal *models.Appeal, moderatorID uint) {
	ctx := c.UserContext()

	notif, err := s.dispatcher.NotifyUser(
		s.db, models.NotificationAppealRejected, &moderatorID, appeal.UserID, &appeal.ID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to record appeal rejection notification",
			"appeal_id", appeal.ID, "error", err)
	}
	if notif != nil && s.notifier != nil {
		if err := s.notifier.PublishNotification(ctx, notif); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish appeal rejection notification",
				"appeal_id", appeal.ID, "error", err)
		}
	}

	var appellant models.User
	if err := s.db.WithContext(ctx).First(&appellant, appeal.UserID).Error; err != nil {
		middleware.Logger.WarnContext(ctx, "failed to load appellant for rejection email",
			"appeal_id", appeal.ID, "error", err)
		return
	}
	service.SendAppealRejectedEmail(ctx, s.mailer, &appellant, appeal)
}
