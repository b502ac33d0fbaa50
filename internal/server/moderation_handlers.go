package server

import (
	"strconv"

	"confessional/internal/models"

	"github.com/gofiber/fiber/v2"
)

// BlockUser stops a user from posting and commenting.
func (s *Server) BlockUser(c *fiber.Ctx) error {
	return s.setBlocked(c, true)
}

// UnblockUser lifts a block.
func (s *Server) UnblockUser(c *fiber.Ctx) error {
	return s.setBlocked(c, false)
}

func (s *Server) setBlocked(c *fiber.Ctx, blocked bool) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	userID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || userID <= 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid user ID"))
	}
	if blocked && userID == adminID {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("cannot block yourself"))
	}

	if blocked {
		err = s.moderationService.BlockUser(c.UserContext(), userID, adminID)
	} else {
		err = s.moderationService.UnblockUser(c.UserContext(), userID, adminID)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user_id": userID, "blocked": blocked})
}

// GetAuditLog returns audit entries, newest first.
func (s *Server) GetAuditLog(c *fiber.Ctx) error {
	p := parsePagination(c, 50)
	entries, err := s.moderationService.ListAuditLog(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

// FlagPost marks a post for moderator attention.
func (s *Server) FlagPost(c *fiber.Ctx) error {
	return s.flag(c, models.TargetPost)
}

// FlagComment marks a comment for moderator attention.
func (s *Server) FlagComment(c *fiber.Ctx) error {
	return s.flag(c, models.TargetComment)
}

func (s *Server) flag(c *fiber.Ctx, targetType models.TargetType) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	target, err := parseTarget(c, targetType, "")
	if err != nil {
		return nil
	}
	if err := s.moderationService.FlagTarget(c.UserContext(), target, adminID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"target": target, "flagged": true})
}

// ListReports returns open reports, newest first.
func (s *Server) ListReports(c *fiber.Ctx) error {
	p := parsePagination(c, 50)
	reports, err := s.moderationService.ListReports(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reports)
}

// ListFlagged returns flagged posts and comments, newest first.
func (s *Server) ListFlagged(c *fiber.Ctx) error {
	p := parsePagination(c, 50)
	items, err := s.moderationService.ListFlagged(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}
