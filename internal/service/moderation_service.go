package service

import (
	"context"
	"sort"
	"strings"

	"confessional/internal/models"
	"confessional/internal/observability"
	"confessional/internal/repository"
)

// PostDeletionStats counts the rows removed with a post.
type PostDeletionStats struct {
	CommentsDeleted  int64 `json:"comments_deleted"`
	ReactionsDeleted int64 `json:"reactions_deleted"`
	ReportsDeleted   int64 `json:"reports_deleted"`
}

// CommentDeletionStats counts the rows removed with a comment. RepliesDeleted
// covers every descendant, not only direct replies.
type CommentDeletionStats struct {
	RepliesDeleted   int64 `json:"replies_deleted"`
	ReactionsDeleted int64 `json:"reactions_deleted"`
	ReportsDeleted   int64 `json:"reports_deleted"`
}

// RedactionStats counts the rows touched by a redaction.
type RedactionStats struct {
	CommentsRedacted int64 `json:"comments_redacted"`
	RepliesRedacted  int64 `json:"replies_redacted"`
	ReportsCleared   int64 `json:"reports_cleared"`
}

// ModerationService runs admin actions. Deletions and redactions are all or
// nothing and are audited inside the same transaction.
type ModerationService struct {
	store  *repository.Store
	limits Limits
	pages  PageInvalidator
}

// NewModerationService returns a new ModerationService.
func NewModerationService(store *repository.Store, limits Limits, pages PageInvalidator) *ModerationService {
	return &ModerationService{store: store, limits: limits, pages: pages}
}

// DeletePost removes a post with its comments and every reaction, report and
// escalation that points at any of them.
func (s *ModerationService) DeletePost(ctx context.Context, postID uint, adminID int64) (stats *PostDeletionStats, err error) {
	span, ctx := startSpan(ctx, "ModerationService.DeletePost", observability.AttrPostID.Int64(int64(postID)))
	defer func() { endSpan(span, "delete_post", err) }()

	stats = &PostDeletionStats{}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		post, err := tx.Posts.GetForUpdate(ctx, postID)
		if err != nil {
			return notFoundOr(err, "post", postID)
		}

		commentIDs, err := tx.Comments.ListIDsByPost(ctx, postID)
		if err != nil {
			return err
		}
		postIDs := []uint{postID}

		n, err := tx.Reactions.DeleteForTargets(ctx, models.TargetComment, commentIDs)
		if err != nil {
			return err
		}
		stats.ReactionsDeleted += n
		if n, err = tx.Reactions.DeleteForTargets(ctx, models.TargetPost, postIDs); err != nil {
			return err
		}
		stats.ReactionsDeleted += n

		if n, err = tx.Reports.DeleteForTargets(ctx, models.TargetComment, commentIDs); err != nil {
			return err
		}
		stats.ReportsDeleted += n
		if n, err = tx.Reports.DeleteForTargets(ctx, models.TargetPost, postIDs); err != nil {
			return err
		}
		stats.ReportsDeleted += n

		if _, err := tx.Reports.DeleteEscalations(ctx, models.TargetComment, commentIDs); err != nil {
			return err
		}
		if _, err := tx.Reports.DeleteEscalations(ctx, models.TargetPost, postIDs); err != nil {
			return err
		}

		if stats.CommentsDeleted, err = tx.Comments.DeleteByIDs(ctx, commentIDs); err != nil {
			return err
		}
		deleted, err := tx.Posts.Delete(ctx, postID)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return models.NewNotFoundError("post", postID)
		}

		return appendAudit(ctx, tx.Audit, adminID, models.AuditDeletePost, string(models.TargetPost), int64(postID),
			map[string]interface{}{
				"content_preview":    post.ContentPreview(100),
				"category":           post.Category,
				"status":             post.Status,
				"post_number":        post.PostNumber,
				"channel_message_id": post.ChannelMessageID,
				"deletion_stats":     stats,
			})
	})
	if err != nil {
		return nil, models.AsStoreError(err)
	}

	observability.RecordCascade("delete_post", map[string]int64{
		"comments":  stats.CommentsDeleted,
		"posts":     1,
		"reactions": stats.ReactionsDeleted,
		"reports":   stats.ReportsDeleted,
	})
	invalidatePages(ctx, s.pages, postID)
	return stats, nil
}

// DeleteComment removes a comment, all of its descendants, and every
// reaction, report and escalation that points at any of them.
func (s *ModerationService) DeleteComment(ctx context.Context, commentID uint, adminID int64) (stats *CommentDeletionStats, err error) {
	span, ctx := startSpan(ctx, "ModerationService.DeleteComment", observability.AttrCommentID.Int64(int64(commentID)))
	defer func() { endSpan(span, "delete_comment", err) }()

	stats = &CommentDeletionStats{}
	var postID uint

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		comment, err := tx.Comments.GetForUpdate(ctx, commentID)
		if err != nil {
			return notFoundOr(err, "comment", commentID)
		}
		postID = comment.PostID

		descendants, err := collectDescendants(ctx, tx.Comments, commentID)
		if err != nil {
			return err
		}
		ids := append([]uint{commentID}, descendants...)

		if stats.ReactionsDeleted, err = tx.Reactions.DeleteForTargets(ctx, models.TargetComment, ids); err != nil {
			return err
		}
		if stats.ReportsDeleted, err = tx.Reports.DeleteForTargets(ctx, models.TargetComment, ids); err != nil {
			return err
		}
		if _, err := tx.Reports.DeleteEscalations(ctx, models.TargetComment, ids); err != nil {
			return err
		}

		deleted, err := tx.Comments.DeleteByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return models.NewNotFoundError("comment", commentID)
		}
		stats.RepliesDeleted = deleted - 1

		return appendAudit(ctx, tx.Audit, adminID, models.AuditDeleteComment, string(models.TargetComment), int64(commentID),
			map[string]interface{}{
				"post_id":         comment.PostID,
				"depth":           comment.Depth,
				"content_preview": comment.ContentPreview(100),
				"deletion_stats":  stats,
			})
	})
	if err != nil {
		return nil, models.AsStoreError(err)
	}

	observability.RecordCascade("delete_comment", map[string]int64{
		"comments":  stats.RepliesDeleted + 1,
		"reactions": stats.ReactionsDeleted,
		"reports":   stats.ReportsDeleted,
	})
	invalidatePages(ctx, s.pages, postID)
	return stats, nil
}

// RedactComment replaces the text of a comment and its direct replies with
// replacement, flags them and clears their reports. Rows are kept so the
// thread structure survives. An empty replacement uses the configured text.
func (s *ModerationService) RedactComment(
	ctx context.Context,
	commentID uint,
	adminID int64,
	replacement string,
) (stats *RedactionStats, err error) {
	span, ctx := startSpan(ctx, "ModerationService.RedactComment", observability.AttrCommentID.Int64(int64(commentID)))
	defer func() { endSpan(span, "redact_comment", err) }()

	replacement = strings.TrimSpace(replacement)
	if replacement == "" {
		replacement = s.limits.RedactionText
	}

	stats = &RedactionStats{}
	var postID uint

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		comment, err := tx.Comments.GetForUpdate(ctx, commentID)
		if err != nil {
			return notFoundOr(err, "comment", commentID)
		}
		postID = comment.PostID

		replies, err := tx.Comments.ListChildIDs(ctx, []uint{commentID})
		if err != nil {
			return err
		}
		ids := append([]uint{commentID}, replies...)

		redacted, err := tx.Comments.Redact(ctx, ids, replacement)
		if err != nil {
			return err
		}
		stats.CommentsRedacted = redacted
		stats.RepliesRedacted = int64(len(replies))

		if stats.ReportsCleared, err = tx.Reports.DeleteForTargets(ctx, models.TargetComment, ids); err != nil {
			return err
		}
		if _, err := tx.Reports.DeleteEscalations(ctx, models.TargetComment, ids); err != nil {
			return err
		}

		return appendAudit(ctx, tx.Audit, adminID, models.AuditRedactComment, string(models.TargetComment), int64(commentID),
			map[string]interface{}{
				"post_id":          comment.PostID,
				"original_preview": comment.ContentPreview(100),
				"replacement":      replacement,
				"redaction_stats":  stats,
			})
	})
	if err != nil {
		return nil, models.AsStoreError(err)
	}

	observability.ModerationActionsTotal.WithLabelValues("redact_comment").Inc()
	invalidatePages(ctx, s.pages, postID)
	return stats, nil
}

// ClearReports deletes every report on target and resets its escalation
// state. Clearing a target without reports succeeds with a zero count.
func (s *ModerationService) ClearReports(ctx context.Context, target models.Target, adminID int64) (cleared int64, err error) {
	span, ctx := startSpan(ctx, "ModerationService.ClearReports")
	span.SetTarget(string(target.Type), target.ID)
	defer func() { endSpan(span, "clear_reports", err) }()

	if !target.Valid() {
		return 0, models.NewValidationError("invalid report target")
	}

	ids := []uint{target.ID}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		n, err := tx.Reports.DeleteForTargets(ctx, target.Type, ids)
		if err != nil {
			return err
		}
		cleared = n
		_, err = tx.Reports.DeleteEscalations(ctx, target.Type, ids)
		return err
	})
	if err != nil {
		return 0, models.AsStoreError(err)
	}

	observability.ModerationActionsTotal.WithLabelValues("clear_reports").Inc()
	recordAuditBestEffort(ctx, s.store.Audit, adminID, models.AuditClearReports, string(target.Type), int64(target.ID),
		map[string]interface{}{"reports_cleared": cleared})
	return cleared, nil
}

// BlockUser prevents userID from submitting posts and comments.
func (s *ModerationService) BlockUser(ctx context.Context, userID, adminID int64) error {
	return s.setBlocked(ctx, userID, adminID, true)
}

// UnblockUser lifts a block.
func (s *ModerationService) UnblockUser(ctx context.Context, userID, adminID int64) error {
	return s.setBlocked(ctx, userID, adminID, false)
}

func (s *ModerationService) setBlocked(ctx context.Context, userID, adminID int64, blocked bool) error {
	if userID <= 0 {
		return models.NewValidationError("user is required")
	}
	if err := s.store.Users.SetBlocked(ctx, userID, blocked); err != nil {
		return models.AsStoreError(err)
	}
	action := models.AuditUnblockUser
	if blocked {
		action = models.AuditBlockUser
	}
	observability.ModerationActionsTotal.WithLabelValues(strings.ToLower(string(action))).Inc()
	recordAuditBestEffort(ctx, s.store.Audit, adminID, action, "user", userID, map[string]interface{}{"blocked": blocked})
	return nil
}

// FlagTarget marks a post or comment for moderator attention. Flagging an
// already flagged target succeeds and is audited again.
func (s *ModerationService) FlagTarget(ctx context.Context, target models.Target, adminID int64) (err error) {
	span, ctx := startSpan(ctx, "ModerationService.FlagTarget")
	span.SetTarget(string(target.Type), target.ID)
	defer func() { endSpan(span, "flag_target", err) }()

	if !target.Valid() {
		return models.NewValidationError("invalid flag target")
	}

	var postID uint
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		pid, err := lockContent(ctx, tx, target)
		if err != nil {
			return err
		}
		postID = pid
		if err := tx.Targets.SetFlagged(ctx, target); err != nil {
			return err
		}
		return appendAudit(ctx, tx.Audit, adminID, models.AuditFlagContent, string(target.Type), int64(target.ID),
			map[string]interface{}{"post_id": pid})
	})
	if err != nil {
		return models.AsStoreError(err)
	}

	observability.ModerationActionsTotal.WithLabelValues("flag_" + string(target.Type)).Inc()
	if target.Type == models.TargetComment {
		invalidatePages(ctx, s.pages, postID)
	}
	return nil
}

// ListReports returns open reports, newest first. Reporter ids are not exposed.
func (s *ModerationService) ListReports(ctx context.Context, limit, offset int) ([]*models.Report, error) {
	limit, offset = clampListWindow(limit, offset)
	reports, err := s.store.Reports.List(ctx, limit, offset)
	if err != nil {
		return nil, models.AsStoreError(err)
	}
	return reports, nil
}

// ListFlagged returns flagged posts and comments merged newest first.
func (s *ModerationService) ListFlagged(ctx context.Context, limit, offset int) ([]*models.FlaggedItem, error) {
	limit, offset = clampListWindow(limit, offset)
	window := offset + limit

	posts, err := s.store.Posts.ListFlagged(ctx, window)
	if err != nil {
		return nil, models.AsStoreError(err)
	}
	comments, err := s.store.Comments.ListFlagged(ctx, window)
	if err != nil {
		return nil, models.AsStoreError(err)
	}

	items := make([]*models.FlaggedItem, 0, len(posts)+len(comments))
	for _, p := range posts {
		items = append(items, &models.FlaggedItem{
			Target:    models.PostTarget(p.ID),
			PostID:    p.ID,
			Content:   p.Content,
			Category:  p.Category,
			CreatedAt: p.CreatedAt,
		})
	}
	for _, c := range comments {
		content := c.Content
		items = append(items, &models.FlaggedItem{
			Target:    models.CommentTarget(c.ID),
			PostID:    c.PostID,
			Content:   &content,
			CreatedAt: c.CreatedAt,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	if offset >= len(items) {
		return []*models.FlaggedItem{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], nil
}

// ListAuditLog returns audit entries, newest first.
func (s *ModerationService) ListAuditLog(ctx context.Context, limit, offset int) ([]*models.AuditLogEntry, error) {
	limit, offset = clampListWindow(limit, offset)
	entries, err := s.store.Audit.List(ctx, limit, offset)
	if err != nil {
		return nil, models.AsStoreError(err)
	}
	return entries, nil
}

// clampListWindow applies the admin listing defaults: 50 rows when limit is
// outside 1..200 and no negative offsets.
func clampListWindow(limit, offset int) (int, int) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// collectDescendants walks the reply tree below rootID breadth first.
func collectDescendants(ctx context.Context, comments repository.CommentRepository, rootID uint) ([]uint, error) {
	var all []uint
	frontier := []uint{rootID}
	for len(frontier) > 0 {
		children, err := comments.ListChildIDs(ctx, frontier)
		if err != nil {
			return nil, err
		}
		all = append(all, children...)
		frontier = children
	}
	return all, nil
}
