package repository

import (
	"context"

	"confessional/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	GetForUpdate(ctx context.Context, id uint) (*models.Comment, error)
	CountTopLevel(ctx context.Context, postID uint) (int64, error)
	CountTopLevelBefore(ctx context.Context, comment *models.Comment) (int64, error)
	ListTopLevel(ctx context.Context, postID uint, offset, limit int) ([]*models.Comment, error)
	ListChildrenPreview(ctx context.Context, parentIDs []uint, perParent int) ([]*models.Comment, error)
	CountChildren(ctx context.Context, parentIDs []uint) (map[uint]int64, error)
	ListIDsByPost(ctx context.Context, postID uint) ([]uint, error)
	ListChildIDs(ctx context.Context, parentIDs []uint) ([]uint, error)
	Redact(ctx context.Context, ids []uint, replacement string) (int64, error)
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
	ListFlagged(ctx context.Context, limit int) ([]*models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetForUpdate loads the comment and holds its row lock until the transaction ends.
func (r *commentRepository) GetForUpdate(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) CountTopLevel(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("post_id = ? AND parent_comment_id IS NULL", postID).
		Count(&count).Error
	return count, err
}

// CountTopLevelBefore counts the top-level comments ordered ahead of comment.
func (r *commentRepository) CountTopLevelBefore(ctx context.Context, comment *models.Comment) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("post_id = ? AND parent_comment_id IS NULL", comment.PostID).
		Where("created_at < ? OR (created_at = ? AND id < ?)", comment.CreatedAt, comment.CreatedAt, comment.ID).
		Count(&count).Error
	return count, err
}

func (r *commentRepository) ListTopLevel(ctx context.Context, postID uint, offset, limit int) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND parent_comment_id IS NULL", postID).
		Order("created_at asc, id asc").
		Offset(offset).
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

// ListChildrenPreview returns at most perParent of the oldest children of each
// parent, ordered by parent then creation. Children past the window are not read.
func (r *commentRepository) ListChildrenPreview(ctx context.Context, parentIDs []uint, perParent int) ([]*models.Comment, error) {
	if len(parentIDs) == 0 || perParent <= 0 {
		return nil, nil
	}
	var ids []uint
	if err := r.db.WithContext(ctx).Raw(`
		SELECT ranked.id FROM (
			SELECT c.id, ROW_NUMBER() OVER (
				PARTITION BY c.parent_comment_id ORDER BY c.created_at ASC, c.id ASC
			) AS rn
			FROM comments c
			WHERE c.parent_comment_id IN ?
		) ranked
		WHERE ranked.rn <= ?`,
		parentIDs, perParent,
	).Scan(&ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("parent_comment_id asc, created_at asc, id asc").
		Find(&comments).Error
	return comments, err
}

// CountChildren returns the number of direct children per parent. Parents
// without children are absent from the map.
func (r *commentRepository) CountChildren(ctx context.Context, parentIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(parentIDs))
	if len(parentIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ParentCommentID uint
		Total           int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("parent_comment_id, COUNT(*) AS total").
		Where("parent_comment_id IN ?", parentIDs).
		Group("parent_comment_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ParentCommentID] = row.Total
	}
	return counts, nil
}

func (r *commentRepository) ListIDsByPost(ctx context.Context, postID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("post_id = ?", postID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *commentRepository) ListChildIDs(ctx context.Context, parentIDs []uint) ([]uint, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("parent_comment_id IN ?", parentIDs).
		Order("id asc").
		Pluck("id", &ids).Error
	return ids, err
}

// Redact overwrites the content of the given comments and marks them flagged.
func (r *commentRepository) Redact(ctx context.Context, ids []uint, replacement string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"content":  replacement,
			"flagged":  true,
			"redacted": true,
		})
	return res.RowsAffected, res.Error
}

func (r *commentRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Comment{})
	return res.RowsAffected, res.Error
}

// ListFlagged returns up to limit flagged comments, newest first.
func (r *commentRepository) ListFlagged(ctx context.Context, limit int) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Where("flagged = ?", true).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&comments).Error
	return comments, err
}
