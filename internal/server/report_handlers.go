package server

import (
	"stride/internal/models"
	"stride/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateReport handles POST /api/reports. Any authenticated user can flag a
// comment, user or workout for moderator review.
func (s *Server) CreateReport(c *fiber.Ctx) error {
	var req struct {
		ObjectType string `json:"object_type"`
		ObjectID   string `json:"object_id"`
		Note       string `json:"note"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	report, err := s.reports.CreateReport(c.UserContext(), service.CreateReportInput{
		ReporterID: currentUserID(c),
		Note:       req.Note,
		ObjectType: req.ObjectType,
		Locator:    req.ObjectID,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"report": report,
	})
}

// GetReports handles GET /api/reports. Moderator-only.
// Supports resolved, object_type and reporter_id filters.
func (s *Server) GetReports(c *fiber.Ctx) error {
	in := service.ListReportsInput{
		ObjectType: c.Query("object_type"),
	}
	if resolved := c.Query("resolved"); resolved != "" {
		value := resolved == "true"
		in.Resolved = &value
	}
	if reporterID := c.QueryInt("reporter_id"); reporterID > 0 {
		id := uint(reporterID)
		in.ReporterID = &id
	}

	pagination := parsePagination(c)
	in.Page = pagination.Page
	in.PerPage = pagination.PerPage

	reports, total, err := s.reports.ListReports(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"reports": reports,
		"pagination": fiber.Map{
			"page":     pagination.Page,
			"per_page": pagination.PerPage,
			"total":    total,
		},
	})
}

// GetUnresolvedCount handles GET /api/reports/unresolved. Moderator-only.
func (s *Server) GetUnresolvedCount(c *fiber.Ctx) error {
	count, err := s.reports.UnresolvedCount(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"unresolved": count,
	})
}

// GetReport handles GET /api/reports/:id. Moderator-only.
func (s *Server) GetReport(c *fiber.Ctx) error {
	reportID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	report, err := s.reports.GetReport(c.UserContext(), reportID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"report": report,
	})
}

// UpdateReport handles PATCH /api/reports/:id. Moderator-only. Every update
// carries a remark; resolved toggles the report lifecycle.
func (s *Server) UpdateReport(c *fiber.Ctx) error {
	reportID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Comment  string `json:"comment"`
		Resolved *bool  `json:"resolved"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	report, err := s.reports.UpdateReport(c.UserContext(), service.UpdateReportInput{
		ReportID:    reportID,
		ModeratorID: currentUserID(c),
		Comment:     req.Comment,
		Resolved:    req.Resolved,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"report": report,
	})
}
