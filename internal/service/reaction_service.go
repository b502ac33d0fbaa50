package service

import (
	"context"

	"confessional/internal/models"
	"confessional/internal/observability"
	"confessional/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// ReactionAction tags the transition a react call performed.
type ReactionAction string

const (
	ReactionAdded   ReactionAction = "added"
	ReactionRemoved ReactionAction = "removed"
	ReactionChanged ReactionAction = "changed"
)

// ReactionResult is the outcome of a react call. Kind is nil when the user
// no longer has a reaction on the target.
type ReactionResult struct {
	Action       ReactionAction       `json:"action"`
	Kind         *models.ReactionKind `json:"kind,omitempty"`
	LikeCount    int                  `json:"like_count"`
	DislikeCount int                  `json:"dislike_count"`
}

// ReactionService toggles likes and dislikes on posts and comments.
type ReactionService struct {
	store *repository.Store
	pages PageInvalidator
}

// NewReactionService returns a new ReactionService.
func NewReactionService(store *repository.Store, pages PageInvalidator) *ReactionService {
	return &ReactionService{store: store, pages: pages}
}

// React applies kind from userID to target:
//
//	none          -> kind       added
//	kind          -> none       removed
//	opposite kind -> kind       changed
//
// The reaction row and the target counters change in one transaction with the
// target row locked, so concurrent toggles on the same target serialize.
func (s *ReactionService) React(
	ctx context.Context,
	userID int64,
	target models.Target,
	kind models.ReactionKind,
) (result *ReactionResult, err error) {
	span, ctx := startSpan(ctx, "ReactionService.React", attribute.String("reaction.kind", string(kind)))
	span.SetTarget(string(target.Type), target.ID)
	defer func() { endSpan(span, "react", err) }()

	if !target.Valid() {
		return nil, models.NewValidationError("invalid reaction target")
	}
	if _, err := models.ParseReactionKind(string(kind)); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if userID <= 0 {
		return nil, models.NewValidationError("user is required")
	}

	var postID uint
	result = &ReactionResult{}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		pid, err := lockTarget(ctx, tx, target)
		if err != nil {
			return err
		}
		postID = pid

		if err := tx.Users.Ensure(ctx, userID); err != nil {
			return err
		}

		existing, err := tx.Reactions.Get(ctx, userID, target)
		if err != nil {
			return err
		}

		var likeDelta, dislikeDelta int
		switch {
		case existing == nil:
			if err := tx.Reactions.Create(ctx, &models.Reaction{
				UserID:     userID,
				TargetType: target.Type,
				TargetID:   target.ID,
				Kind:       kind,
			}); err != nil {
				return err
			}
			likeDelta, dislikeDelta = counterDelta(kind, 1)
			result.Action = ReactionAdded
			result.Kind = &kind

		case existing.Kind == kind:
			if err := tx.Reactions.Delete(ctx, existing.ID); err != nil {
				return err
			}
			likeDelta, dislikeDelta = counterDelta(kind, -1)
			result.Action = ReactionRemoved

		default:
			if err := tx.Reactions.UpdateKind(ctx, existing.ID, kind); err != nil {
				return err
			}
			l1, d1 := counterDelta(existing.Kind, -1)
			l2, d2 := counterDelta(kind, 1)
			likeDelta, dislikeDelta = l1+l2, d1+d2
			result.Action = ReactionChanged
			result.Kind = &kind
		}

		if err := tx.Targets.AdjustCounts(ctx, target, likeDelta, dislikeDelta); err != nil {
			return err
		}
		counts, err := tx.Targets.Counts(ctx, target)
		if err != nil {
			return err
		}
		result.LikeCount = counts.LikeCount
		result.DislikeCount = counts.DislikeCount
		return nil
	})
	if err != nil {
		return nil, models.AsStoreError(err)
	}

	observability.ReactionsTotal.WithLabelValues(string(target.Type), string(result.Action)).Inc()
	if target.Type == models.TargetComment {
		invalidatePages(ctx, s.pages, postID)
	}
	return result, nil
}

// GetUserReaction returns the user's current reaction kind on target, or nil.
func (s *ReactionService) GetUserReaction(ctx context.Context, userID int64, target models.Target) (*models.ReactionKind, error) {
	reaction, err := s.store.Reactions.Get(ctx, userID, target)
	if err != nil {
		return nil, models.AsStoreError(err)
	}
	if reaction == nil {
		return nil, nil
	}
	kind := reaction.Kind
	return &kind, nil
}

// lockTarget locks the target row for the rest of the transaction and returns
// the post the target lives on. Only approved posts can be reacted to.
func lockTarget(ctx context.Context, tx *repository.Store, target models.Target) (uint, error) {
	switch target.Type {
	case models.TargetPost:
		post, err := tx.Posts.GetForUpdate(ctx, target.ID)
		if err != nil {
			return 0, notFoundOr(err, "post", target.ID)
		}
		if !post.IsApproved() {
			return 0, models.NewNotFoundError("post", target.ID)
		}
		return post.ID, nil
	case models.TargetComment:
		comment, err := tx.Comments.GetForUpdate(ctx, target.ID)
		if err != nil {
			return 0, notFoundOr(err, "comment", target.ID)
		}
		return comment.PostID, nil
	}
	return 0, models.NewValidationError("invalid reaction target")
}

func counterDelta(kind models.ReactionKind, n int) (like, dislike int) {
	if kind == models.ReactionLike {
		return n, 0
	}
	return 0, n
}
