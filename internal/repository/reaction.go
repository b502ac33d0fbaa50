package repository

import (
	"context"

	"confessional/internal/models"

	"gorm.io/gorm"
)

// ReactionRepository defines interface for reaction operations
type ReactionRepository interface {
	Get(ctx context.Context, userID int64, target models.Target) (*models.Reaction, error)
	Create(ctx context.Context, reaction *models.Reaction) error
	UpdateKind(ctx context.Context, id uint, kind models.ReactionKind) error
	Delete(ctx context.Context, id uint) error
	CountByKind(ctx context.Context, target models.Target, kind models.ReactionKind) (int64, error)
	DeleteForTargets(ctx context.Context, targetType models.TargetType, ids []uint) (int64, error)
}

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository creates a new ReactionRepository
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

// Get returns the user's reaction on target, or nil when there is none.
func (r *reactionRepository) Get(ctx context.Context, userID int64, target models.Target) (*models.Reaction, error) {
	var reactions []models.Reaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND target_type = ? AND target_id = ?", userID, target.Type, target.ID).
		Limit(1).
		Find(&reactions).Error; err != nil {
		return nil, err
	}
	if len(reactions) == 0 {
		return nil, nil
	}
	return &reactions[0], nil
}

func (r *reactionRepository) Create(ctx context.Context, reaction *models.Reaction) error {
	return r.db.WithContext(ctx).Create(reaction).Error
}

func (r *reactionRepository) UpdateKind(ctx context.Context, id uint, kind models.ReactionKind) error {
	return r.db.WithContext(ctx).
		Model(&models.Reaction{}).
		Where("id = ?", id).
		Update("reaction_type", kind).Error
}

func (r *reactionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Reaction{}, id).Error
}

func (r *reactionRepository) CountByKind(ctx context.Context, target models.Target, kind models.ReactionKind) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reaction{}).
		Where("target_type = ? AND target_id = ? AND reaction_type = ?", target.Type, target.ID, kind).
		Count(&count).Error
	return count, err
}

func (r *reactionRepository) DeleteForTargets(ctx context.Context, targetType models.TargetType, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id IN ?", targetType, ids).
		Delete(&models.Reaction{})
	return res.RowsAffected, res.Error
}
