package repository

import (
	"context"

	"confessional/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines interface for user operations
type UserRepository interface {
	Ensure(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	IsBlocked(ctx context.Context, id int64) (bool, error)
	SetBlocked(ctx context.Context, id int64, blocked bool) error
	IncrementPostsSubmitted(ctx context.Context, id int64) error
	IncrementCommentsPosted(ctx context.Context, id int64) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Ensure creates the user row if it does not exist yet.
func (r *userRepository) Ensure(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.User{ID: id}).Error
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// IsBlocked reports false for users that were never seen.
func (r *userRepository) IsBlocked(ctx context.Context, id int64) (bool, error) {
	var blocked []bool
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Limit(1).
		Pluck("blocked", &blocked).Error; err != nil {
		return false, err
	}
	return len(blocked) > 0 && blocked[0], nil
}

func (r *userRepository) SetBlocked(ctx context.Context, id int64, blocked bool) error {
	if err := r.Ensure(ctx, id); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("blocked", blocked).Error
}

func (r *userRepository) IncrementPostsSubmitted(ctx context.Context, id int64) error {
	return r.increment(ctx, id, "posts_submitted")
}

func (r *userRepository) IncrementCommentsPosted(ctx context.Context, id int64) error {
	return r.increment(ctx, id, "comments_posted")
}

func (r *userRepository) increment(ctx context.Context, id int64, column string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update(column, gorm.Expr(column+" + 1")).Error
}
