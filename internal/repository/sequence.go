package repository

import (
	"context"

	"confessional/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceRepository hands out values from named counters.
type SequenceRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}

type sequenceRepository struct {
	db *gorm.DB
}

// NewSequenceRepository creates a new SequenceRepository
func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

// Next advances the counter inside the store and returns the new value. The
// increment takes the row lock, so concurrent callers in separate
// transactions never observe the same value. Call it inside a transaction.
func (r *sequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Sequence{}).
		Where("name = ?", name).
		Update("value", gorm.Expr("value + ?", 1))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		created := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Sequence{Name: name, Value: 1})
		if created.Error != nil {
			return 0, created.Error
		}
		if created.RowsAffected == 1 {
			return 1, nil
		}
		// Another transaction created the row first.
		return r.Next(ctx, name)
	}

	var value int64
	if err := r.db.WithContext(ctx).
		Model(&models.Sequence{}).
		Select("value").
		Where("name = ?", name).
		Scan(&value).Error; err != nil {
		return 0, err
	}
	return value, nil
}
