package server

import (
	"confessional/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateCommentRequest is the body of POST /api/posts/:id/comments.
type CreateCommentRequest struct {
	Content         string `json:"content" validate:"required"`
	ParentCommentID *uint  `json:"parent_comment_id" validate:"omitempty,gt=0"`
}

// CreateComment adds a comment, reply or sub-reply to an approved post.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var req CreateCommentRequest
	if err := s.bindJSON(c, &req, false); err != nil {
		return nil
	}

	comment, err := s.contentService.CreateComment(ctx, service.CreateCommentInput{
		PostID:          postID,
		AuthorID:        userID,
		Content:         req.Content,
		ParentCommentID: req.ParentCommentID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetComments renders one page of a post's comment tree.
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", s.config.CommentsPerPage)
	if pageSize > maxPaginationLimit {
		pageSize = maxPaginationLimit
	}

	result, err := s.commentTree.GetPage(c.UserContext(), postID, page, pageSize)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// FindCommentPage answers which page of its post shows a comment.
func (s *Server) FindCommentPage(c *fiber.Ctx) error {
	commentID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	pageSize := c.QueryInt("page_size", s.config.CommentsPerPage)

	page, err := s.commentTree.FindCommentPage(c.UserContext(), commentID, pageSize)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"comment_id": commentID, "page": page})
}

// DeleteComment removes a comment and its whole reply tree.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	adminID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	commentID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	stats, err := s.moderationService.DeleteComment(ctx, commentID, adminID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// RedactComment replaces a comment and its direct replies with placeholder text.
func (s *Server) RedactComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	adminID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	commentID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Replacement string `json:"replacement" validate:"max=500"`
	}
	if err := s.bindJSON(c, &req, true); err != nil {
		return nil
	}

	stats, err := s.moderationService.RedactComment(ctx, commentID, adminID, req.Replacement)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
