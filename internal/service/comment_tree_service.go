package service

import (
	"context"
	"log/slog"

	"confessional/internal/middleware"
	"confessional/internal/models"
	"confessional/internal/observability"
	"confessional/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// PageCache stores rendered comment pages keyed by a per-post version.
type PageCache interface {
	Version(ctx context.Context, postID uint) (int64, error)
	Get(ctx context.Context, postID uint, version int64, page, pageSize int, dest any) (bool, error)
	Set(ctx context.Context, postID uint, version int64, page, pageSize int, v any) error
}

// SubReplyView is a sub-reply with its display number inside its reply.
type SubReplyView struct {
	Number  int             `json:"number"`
	Comment *models.Comment `json:"comment"`
}

// ReplyView is a reply with a bounded preview of its sub-replies.
type ReplyView struct {
	Number           int             `json:"number"`
	Comment          *models.Comment `json:"comment"`
	SubReplies       []SubReplyView  `json:"sub_replies"`
	TotalSubReplies  int64           `json:"total_sub_replies"`
	HiddenSubReplies int64           `json:"hidden_sub_replies"`
}

// Thread is a top-level comment with a bounded preview of its replies.
type Thread struct {
	Number        int             `json:"number"`
	Comment       *models.Comment `json:"comment"`
	Replies       []ReplyView     `json:"replies"`
	TotalReplies  int64           `json:"total_replies"`
	HiddenReplies int64           `json:"hidden_replies"`
}

// CommentPage is one rendered page of a post's comment tree. Display numbers
// are recomputed on every render and are not stable identifiers.
type CommentPage struct {
	PostID        uint     `json:"post_id"`
	Threads       []Thread `json:"threads"`
	Page          int      `json:"page"`
	PageSize      int      `json:"page_size"`
	TotalPages    int      `json:"total_pages"`
	TotalComments int64    `json:"total_comments"`
}

// CommentTreeService renders paginated comment trees.
type CommentTreeService struct {
	store  *repository.Store
	limits Limits
	cache  PageCache
}

// NewCommentTreeService returns a new CommentTreeService. cache may be nil.
func NewCommentTreeService(store *repository.Store, limits Limits, cache PageCache) *CommentTreeService {
	return &CommentTreeService{store: store, limits: limits, cache: cache}
}

// GetPage renders page (1-based) of the post's top-level comments, oldest
// first. pageSize <= 0 selects the configured default.
func (s *CommentTreeService) GetPage(ctx context.Context, postID uint, page, pageSize int) (result *CommentPage, err error) {
	span, ctx := startSpan(ctx, "CommentTreeService.GetPage",
		observability.AttrPostID.Int64(int64(postID)),
		attribute.Int("page", page),
	)
	defer func() { endSpan(span, "get_comment_page", err) }()

	if pageSize <= 0 {
		pageSize = s.limits.CommentsPerPage
	}
	if page < 1 || pageSize < 1 {
		return nil, models.NewValidationError("page and page size must be positive")
	}

	post, err := s.store.Posts.GetByID(ctx, postID)
	if err != nil {
		return nil, notFoundOr(err, "post", postID)
	}
	if !post.IsApproved() {
		return nil, models.NewNotFoundError("post", postID)
	}

	version, cacheable := s.cacheVersion(ctx, postID)
	if cacheable {
		var cached CommentPage
		found, err := s.cache.Get(ctx, postID, version, page, pageSize, &cached)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "comment page cache read failed", slog.String("error", err.Error()))
		} else if found {
			return &cached, nil
		}
	}

	result, err = s.render(ctx, postID, page, pageSize)
	if err != nil {
		return nil, models.AsStoreError(err)
	}

	if cacheable {
		if err := s.cache.Set(ctx, postID, version, page, pageSize, result); err != nil {
			middleware.Logger.WarnContext(ctx, "comment page cache write failed", slog.String("error", err.Error()))
		}
	}
	return result, nil
}

// FindCommentPage returns the page, at pageSize, that shows commentID or the
// thread containing it.
func (s *CommentTreeService) FindCommentPage(ctx context.Context, commentID uint, pageSize int) (int, error) {
	if pageSize <= 0 {
		pageSize = s.limits.CommentsPerPage
	}
	comment, err := s.store.Comments.GetByID(ctx, commentID)
	if err != nil {
		return 0, notFoundOr(err, "comment", commentID)
	}
	for depth := 0; comment.ParentCommentID != nil && depth < models.DepthSubReply; depth++ {
		comment, err = s.store.Comments.GetByID(ctx, *comment.ParentCommentID)
		if err != nil {
			return 0, notFoundOr(err, "comment", commentID)
		}
	}
	before, err := s.store.Comments.CountTopLevelBefore(ctx, comment)
	if err != nil {
		return 0, models.AsStoreError(err)
	}
	return int(before)/pageSize + 1, nil
}

func (s *CommentTreeService) cacheVersion(ctx context.Context, postID uint) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	version, err := s.cache.Version(ctx, postID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "comment page cache version read failed", slog.String("error", err.Error()))
		return 0, false
	}
	return version, true
}

func (s *CommentTreeService) render(ctx context.Context, postID uint, page, pageSize int) (*CommentPage, error) {
	total, err := s.store.Comments.CountTopLevel(ctx, postID)
	if err != nil {
		return nil, err
	}

	result := &CommentPage{
		PostID:        postID,
		Threads:       []Thread{},
		Page:          page,
		PageSize:      pageSize,
		TotalPages:    int((total + int64(pageSize) - 1) / int64(pageSize)),
		TotalComments: total,
	}

	offset := (page - 1) * pageSize
	if int64(offset) >= total {
		return result, nil
	}

	top, err := s.store.Comments.ListTopLevel(ctx, postID, offset, pageSize)
	if err != nil {
		return nil, err
	}

	topIDs := commentIDs(top)
	replies, err := s.store.Comments.ListChildrenPreview(ctx, topIDs, s.limits.ReplyPreviewLimit)
	if err != nil {
		return nil, err
	}
	replyTotals, err := s.store.Comments.CountChildren(ctx, topIDs)
	if err != nil {
		return nil, err
	}

	replyIDs := commentIDs(replies)
	subReplies, err := s.store.Comments.ListChildrenPreview(ctx, replyIDs, s.limits.SubReplyPreviewLimit)
	if err != nil {
		return nil, err
	}
	subTotals, err := s.store.Comments.CountChildren(ctx, replyIDs)
	if err != nil {
		return nil, err
	}

	repliesByParent := groupByParent(replies)
	subByParent := groupByParent(subReplies)

	for i, c := range top {
		thread := Thread{
			Number:       offset + i + 1,
			Comment:      c,
			Replies:      []ReplyView{},
			TotalReplies: replyTotals[c.ID],
		}
		for j, r := range repliesByParent[c.ID] {
			view := ReplyView{
				Number:          j + 1,
				Comment:         r,
				SubReplies:      []SubReplyView{},
				TotalSubReplies: subTotals[r.ID],
			}
			for k, sr := range subByParent[r.ID] {
				view.SubReplies = append(view.SubReplies, SubReplyView{Number: k + 1, Comment: sr})
			}
			view.HiddenSubReplies = view.TotalSubReplies - int64(len(view.SubReplies))
			thread.Replies = append(thread.Replies, view)
		}
		thread.HiddenReplies = thread.TotalReplies - int64(len(thread.Replies))
		result.Threads = append(result.Threads, thread)
	}
	return result, nil
}

func commentIDs(comments []*models.Comment) []uint {
	ids := make([]uint, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
	}
	return ids
}

// groupByParent keeps the input order within each parent.
func groupByParent(comments []*models.Comment) map[uint][]*models.Comment {
	grouped := make(map[uint][]*models.Comment)
	for _, c := range comments {
		if c.ParentCommentID == nil {
			continue
		}
		grouped[*c.ParentCommentID] = append(grouped[*c.ParentCommentID], c)
	}
	return grouped
}
