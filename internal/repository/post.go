package repository

import (
	"context"

	"confessional/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines interface for post operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetForUpdate(ctx context.Context, id uint) (*models.Post, error)
	TransitionStatus(ctx context.Context, id uint, from, to models.PostStatus, postNumber *int64) (int64, error)
	SetChannelMessageID(ctx context.Context, id uint, messageID int64) (int64, error)
	ListByStatus(ctx context.Context, status models.PostStatus, limit, offset int) ([]*models.Post, error)
	Delete(ctx context.Context, id uint) (int64, error)
	ListFlagged(ctx context.Context, limit int) ([]*models.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// GetForUpdate loads the post and holds its row lock until the transaction ends.
func (r *postRepository) GetForUpdate(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// TransitionStatus moves a post from one status to another only if it is
// still in the expected status. It returns the number of rows changed.
func (r *postRepository) TransitionStatus(
	ctx context.Context,
	id uint,
	from, to models.PostStatus,
	postNumber *int64,
) (int64, error) {
	updates := map[string]interface{}{"status": to}
	if postNumber != nil {
		updates["post_number"] = *postNumber
	}
	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *postRepository) SetChannelMessageID(ctx context.Context, id uint, messageID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Update("channel_message_id", messageID)
	return res.RowsAffected, res.Error
}

func (r *postRepository) ListByStatus(ctx context.Context, status models.PostStatus, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at asc, id asc").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	return res.RowsAffected, res.Error
}

// ListFlagged returns up to limit flagged posts, newest first.
func (r *postRepository) ListFlagged(ctx context.Context, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Where("flagged = ?", true).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}
