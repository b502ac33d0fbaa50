package database

import (
	"context"
	"fmt"
	"log/slog"

	"confessional/internal/middleware"
	"confessional/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Migrate brings the schema up to date and seeds the counters the store relies on.
// It is idempotent.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := seedSequences(ctx, db); err != nil {
		return fmt.Errorf("failed to seed sequences: %w", err)
	}
	return nil
}

// seedSequences creates the post number counter, starting it after the
// highest number already handed out.
func seedSequences(ctx context.Context, db *gorm.DB) error {
	var maxNumber int64
	if err := db.WithContext(ctx).
		Model(&models.Post{}).
		Select("COALESCE(MAX(post_number), 0)").
		Scan(&maxNumber).Error; err != nil {
		return err
	}

	seq := models.Sequence{Name: models.SequencePostNumber, Value: maxNumber}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&seq)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		middleware.Logger.InfoContext(ctx, "Seeded sequence",
			slog.String("name", seq.Name),
			slog.Int64("value", seq.Value),
		)
	}
	return nil
}
