package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"confessional/internal/models"
	"confessional/internal/observability"
	"confessional/internal/repository"
	"confessional/internal/validation"
)

// ContentService creates posts and comments and records moderation decisions on posts.
type ContentService struct {
	store     *repository.Store
	limits    Limits
	publisher EventPublisher
	pages     PageInvalidator
}

// CreatePostInput carries a new confession. Either Content or Category must be set.
type CreatePostInput struct {
	AuthorID int64
	Content  *string
	Category string
}

// CreateCommentInput carries a new comment. ParentCommentID is nil for a
// top-level comment.
type CreateCommentInput struct {
	PostID          uint
	AuthorID        int64
	Content         string
	ParentCommentID *uint
}

// NewContentService returns a new ContentService.
func NewContentService(
	store *repository.Store,
	limits Limits,
	publisher EventPublisher,
	pages PageInvalidator,
) *ContentService {
	return &ContentService{
		store:     store,
		limits:    limits,
		publisher: publisher,
		pages:     pages,
	}
}

// CreatePost stores a pending post.
func (s *ContentService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	span, ctx := startSpan(ctx, "ContentService.CreatePost")
	defer func() { endSpan(span, "create_post", err) }()

	if in.AuthorID <= 0 {
		return nil, models.NewValidationError("author is required")
	}
	category, err := validation.NormalizeCategory(in.Category)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	in.Category = category
	if in.Content != nil {
		trimmed := strings.TrimSpace(*in.Content)
		if trimmed == "" {
			in.Content = nil
		} else {
			in.Content = &trimmed
		}
	}
	if in.Content == nil && in.Category == "" {
		return nil, models.NewValidationError("content or category is required")
	}
	if in.Content != nil && utf8.RuneCountInString(*in.Content) > s.limits.MaxConfessionLength {
		return nil, models.NewValidationError("confession is too long")
	}

	post = &models.Post{
		Content:  in.Content,
		Category: in.Category,
		AuthorID: in.AuthorID,
		Status:   models.PostStatusPending,
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Users.Ensure(ctx, in.AuthorID); err != nil {
			return err
		}
		blocked, err := tx.Users.IsBlocked(ctx, in.AuthorID)
		if err != nil {
			return err
		}
		if blocked {
			return models.NewForbiddenError("user is blocked")
		}
		if err := tx.Posts.Create(ctx, post); err != nil {
			return err
		}
		return tx.Users.IncrementPostsSubmitted(ctx, in.AuthorID)
	})
	if err != nil {
		return nil, models.AsStoreError(err)
	}
	return post, nil
}

// CreateComment attaches a comment to an approved post, optionally as a reply.
// Replies may nest at most two levels below a top-level comment.
func (s *ContentService) CreateComment(ctx context.Context, in CreateCommentInput) (comment *models.Comment, err error) {
	span, ctx := startSpan(ctx, "ContentService.CreateComment", observability.AttrPostID.Int64(int64(in.PostID)))
	defer func() { endSpan(span, "create_comment", err) }()

	if in.AuthorID <= 0 {
		return nil, models.NewValidationError("author is required")
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("content is required")
	}
	if utf8.RuneCountInString(content) > s.limits.MaxCommentLength {
		return nil, models.NewValidationError("comment is too long")
	}

	comment = &models.Comment{
		PostID:          in.PostID,
		AuthorID:        in.AuthorID,
		Content:         content,
		ParentCommentID: in.ParentCommentID,
		Depth:           models.DepthComment,
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		post, err := tx.Posts.GetByID(ctx, in.PostID)
		if err != nil {
			return notFoundOr(err, "post", in.PostID)
		}
		if !post.IsApproved() {
			return models.NewNotFoundError("post", in.PostID)
		}

		if in.ParentCommentID != nil {
			parent, err := tx.Comments.GetByID(ctx, *in.ParentCommentID)
			if err != nil {
				return notFoundOr(err, "comment", *in.ParentCommentID)
			}
			if parent.PostID != in.PostID {
				return models.NewInvalidParentError("parent comment belongs to a different post")
			}
			if !parent.AcceptsChildren() {
				return models.NewInvalidParentError("sub-replies cannot be replied to")
			}
			comment.Depth = parent.Depth + 1
		}

		if err := tx.Users.Ensure(ctx, in.AuthorID); err != nil {
			return err
		}
		blocked, err := tx.Users.IsBlocked(ctx, in.AuthorID)
		if err != nil {
			return err
		}
		if blocked {
			return models.NewForbiddenError("user is blocked")
		}

		if err := tx.Comments.Create(ctx, comment); err != nil {
			return err
		}
		return tx.Users.IncrementCommentsPosted(ctx, in.AuthorID)
	})
	if err != nil {
		return nil, models.AsStoreError(err)
	}

	invalidatePages(ctx, s.pages, in.PostID)
	return comment, nil
}

// GetPost returns a post in any status.
func (s *ContentService) GetPost(ctx context.Context, postID uint) (*models.Post, error) {
	post, err := s.store.Posts.GetByID(ctx, postID)
	if err != nil {
		return nil, notFoundOr(err, "post", postID)
	}
	return post, nil
}

// ListPending returns posts awaiting a decision, oldest first.
func (s *ContentService) ListPending(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	posts, err := s.store.Posts.ListByStatus(ctx, models.PostStatusPending, limit, offset)
	if err != nil {
		return nil, models.AsStoreError(err)
	}
	return posts, nil
}

// ApprovePost publishes a pending post and assigns it the next post number.
// The number is drawn from a store-side counter in the same transaction, so
// numbers are unique and never reused.
func (s *ContentService) ApprovePost(ctx context.Context, postID uint, adminID int64) (post *models.Post, err error) {
	span, ctx := startSpan(ctx, "ContentService.ApprovePost", observability.AttrPostID.Int64(int64(postID)))
	defer func() { endSpan(span, "approve_post", err) }()

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		p, err := tx.Posts.GetForUpdate(ctx, postID)
		if err != nil {
			return notFoundOr(err, "post", postID)
		}
		if p.Status != models.PostStatusPending {
			return models.NewAlreadyDecidedError(postID, p.Status)
		}

		number, err := tx.Sequences.Next(ctx, models.SequencePostNumber)
		if err != nil {
			return err
		}
		changed, err := tx.Posts.TransitionStatus(ctx, postID, models.PostStatusPending, models.PostStatusApproved, &number)
		if err != nil {
			return err
		}
		if changed == 0 {
			return models.NewAlreadyDecidedError(postID, p.Status)
		}

		p.Status = models.PostStatusApproved
		p.PostNumber = &number
		post = p
		return nil
	})
	if err != nil {
		return nil, models.AsStoreError(err)
	}

	recordAuditBestEffort(ctx, s.store.Audit, adminID, models.AuditApprovePost, string(models.TargetPost), int64(postID),
		map[string]interface{}{
			"post_number":     *post.PostNumber,
			"category":        post.Category,
			"content_preview": post.ContentPreview(100),
		})
	s.notifyDecision(ctx, post)
	return post, nil
}

// RejectPost declines a pending post.
func (s *ContentService) RejectPost(ctx context.Context, postID uint, adminID int64) (post *models.Post, err error) {
	span, ctx := startSpan(ctx, "ContentService.RejectPost", observability.AttrPostID.Int64(int64(postID)))
	defer func() { endSpan(span, "reject_post", err) }()

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		p, err := tx.Posts.GetForUpdate(ctx, postID)
		if err != nil {
			return notFoundOr(err, "post", postID)
		}
		if p.Status != models.PostStatusPending {
			return models.NewAlreadyDecidedError(postID, p.Status)
		}
		changed, err := tx.Posts.TransitionStatus(ctx, postID, models.PostStatusPending, models.PostStatusRejected, nil)
		if err != nil {
			return err
		}
		if changed == 0 {
			return models.NewAlreadyDecidedError(postID, p.Status)
		}
		p.Status = models.PostStatusRejected
		post = p
		return nil
	})
	if err != nil {
		return nil, models.AsStoreError(err)
	}

	recordAuditBestEffort(ctx, s.store.Audit, adminID, models.AuditRejectPost, string(models.TargetPost), int64(postID),
		map[string]interface{}{
			"category":        post.Category,
			"content_preview": post.ContentPreview(100),
		})
	s.notifyDecision(ctx, post)
	return post, nil
}

// AttachChannelMessage records where an approved post was published.
func (s *ContentService) AttachChannelMessage(ctx context.Context, postID uint, messageID int64) error {
	post, err := s.store.Posts.GetByID(ctx, postID)
	if err != nil {
		return notFoundOr(err, "post", postID)
	}
	if !post.IsApproved() {
		return models.NewValidationError("only approved posts can be published")
	}
	if _, err := s.store.Posts.SetChannelMessageID(ctx, postID, messageID); err != nil {
		return models.AsStoreError(err)
	}
	return nil
}

func (s *ContentService) notifyDecision(ctx context.Context, post *models.Post) {
	if s.publisher == nil {
		return
	}
	notify(ctx, "post_decision", func(ctx context.Context) error {
		return s.publisher.PublishPostDecision(ctx, post)
	})
}
