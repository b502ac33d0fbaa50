package server

import (
	"confessional/internal/models"
	"confessional/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePostRequest is the body of POST /api/posts.
type CreatePostRequest struct {
	Content  *string `json:"content"`
	Category string  `json:"category" validate:"max=255"`
}

// CreatePost submits a confession for moderation.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}

	var req CreatePostRequest
	if err := s.bindJSON(c, &req, false); err != nil {
		return nil
	}

	post, err := s.contentService.CreatePost(ctx, service.CreatePostInput{
		AuthorID: userID,
		Content:  req.Content,
		Category: req.Category,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost returns a post. Pending and rejected posts are visible to their
// author and to admins only.
func (s *Server) GetPost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.contentService.GetPost(ctx, postID)
	if err != nil {
		return respondError(c, err)
	}
	if !post.IsApproved() && post.AuthorID != userID && !s.config.IsAdmin(userID) {
		return respondError(c, models.NewNotFoundError("post", postID))
	}
	return c.JSON(post)
}

// ListPendingPosts returns the moderation queue, oldest first.
func (s *Server) ListPendingPosts(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	posts, err := s.contentService.ListPending(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// ApprovePost publishes a pending post and assigns its number.
func (s *Server) ApprovePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	adminID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.contentService.ApprovePost(ctx, postID, adminID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// RejectPost declines a pending post.
func (s *Server) RejectPost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	adminID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.contentService.RejectPost(ctx, postID, adminID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// AttachChannelMessage records the channel message an approved post was
// published as.
func (s *Server) AttachChannelMessage(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		MessageID int64 `json:"message_id" validate:"required,gt=0"`
	}
	if err := s.bindJSON(c, &req, false); err != nil {
		return nil
	}

	if err := s.contentService.AttachChannelMessage(c.UserContext(), postID, req.MessageID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeletePost removes a post and everything attached to it.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	adminID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	stats, err := s.moderationService.DeletePost(ctx, postID, adminID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
