package repository

import (
	"context"

	"confessional/internal/models"

	"gorm.io/gorm"
)

// ReactionCounts are the denormalized counters of a post or comment.
type ReactionCounts struct {
	LikeCount    int `json:"like_count"`
	DislikeCount int `json:"dislike_count"`
}

// TargetRepository performs operations shared by posts and comments.
type TargetRepository interface {
	Exists(ctx context.Context, target models.Target) (bool, error)
	AdjustCounts(ctx context.Context, target models.Target, likeDelta, dislikeDelta int) error
	Counts(ctx context.Context, target models.Target) (ReactionCounts, error)
	SetFlagged(ctx context.Context, target models.Target) error
}

type targetRepository struct {
	db *gorm.DB
}

// NewTargetRepository creates a new TargetRepository
func NewTargetRepository(db *gorm.DB) TargetRepository {
	return &targetRepository{db: db}
}

func (r *targetRepository) Exists(ctx context.Context, target models.Target) (bool, error) {
	table, err := tableFor(target.Type)
	if err != nil {
		return false, err
	}
	var count int64
	if err := r.db.WithContext(ctx).Table(table).Where("id = ?", target.ID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// AdjustCounts applies the deltas with store-side arithmetic so concurrent
// adjustments never overwrite each other.
func (r *targetRepository) AdjustCounts(ctx context.Context, target models.Target, likeDelta, dislikeDelta int) error {
	if likeDelta == 0 && dislikeDelta == 0 {
		return nil
	}
	table, err := tableFor(target.Type)
	if err != nil {
		return err
	}
	updates := map[string]interface{}{}
	if likeDelta != 0 {
		updates["like_count"] = gorm.Expr("like_count + ?", likeDelta)
	}
	if dislikeDelta != 0 {
		updates["dislike_count"] = gorm.Expr("dislike_count + ?", dislikeDelta)
	}
	res := r.db.WithContext(ctx).Table(table).Where("id = ?", target.ID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *targetRepository) Counts(ctx context.Context, target models.Target) (ReactionCounts, error) {
	var counts ReactionCounts
	table, err := tableFor(target.Type)
	if err != nil {
		return counts, err
	}
	res := r.db.WithContext(ctx).
		Table(table).
		Select("like_count, dislike_count").
		Where("id = ?", target.ID).
		Scan(&counts)
	if res.Error != nil {
		return counts, res.Error
	}
	if res.RowsAffected == 0 {
		return counts, gorm.ErrRecordNotFound
	}
	return counts, nil
}

func (r *targetRepository) SetFlagged(ctx context.Context, target models.Target) error {
	table, err := tableFor(target.Type)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Table(table).Where("id = ?", target.ID).Update("flagged", true).Error
}
