package server

import (
	"confessional/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ReactRequest is the body of the reaction endpoints.
type ReactRequest struct {
	Kind string `json:"kind" validate:"required,oneof=like dislike"`
}

// ReactToPost toggles the caller's like or dislike on a post.
func (s *Server) ReactToPost(c *fiber.Ctx) error {
	return s.react(c, models.TargetPost)
}

// ReactToComment toggles the caller's like or dislike on a comment.
func (s *Server) ReactToComment(c *fiber.Ctx) error {
	return s.react(c, models.TargetComment)
}

func (s *Server) react(c *fiber.Ctx, targetType models.TargetType) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	target, err := parseTarget(c, targetType, "")
	if err != nil {
		return nil
	}

	var req ReactRequest
	if err := s.bindJSON(c, &req, false); err != nil {
		return nil
	}
	kind, err := models.ParseReactionKind(req.Kind)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(err.Error()))
	}

	result, err := s.reactionService.React(c.UserContext(), userID, target, kind)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
