package server

import (
	"confessional/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ReportRequest is the body of the report endpoints. Reason is a catalogued
// reason id or free text.
type ReportRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// GetReportReasons lists the catalogued report reasons.
func (s *Server) GetReportReasons(c *fiber.Ctx) error {
	return c.JSON(models.ReportReasons)
}

// ReportPost files a report against a post.
func (s *Server) ReportPost(c *fiber.Ctx) error {
	return s.report(c, models.TargetPost)
}

// ReportComment files a report against a comment.
func (s *Server) ReportComment(c *fiber.Ctx) error {
	return s.report(c, models.TargetComment)
}

func (s *Server) report(c *fiber.Ctx, targetType models.TargetType) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	target, err := parseTarget(c, targetType, "")
	if err != nil {
		return nil
	}

	var req ReportRequest
	if err := s.bindJSON(c, &req, true); err != nil {
		return nil
	}

	result, err := s.reportService.Report(c.UserContext(), userID, target, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// CountReports returns the number of open reports on a target.
func (s *Server) CountReports(c *fiber.Ctx) error {
	target, err := parseTarget(c, "", "type")
	if err != nil {
		return nil
	}
	count, err := s.reportService.CountReports(c.UserContext(), target)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"target": target, "count": count})
}

// ClearReports dismisses every report on a target.
func (s *Server) ClearReports(c *fiber.Ctx) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	target, err := parseTarget(c, "", "type")
	if err != nil {
		return nil
	}

	cleared, err := s.moderationService.ClearReports(c.UserContext(), target, adminID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"target": target, "reports_cleared": cleared})
}
