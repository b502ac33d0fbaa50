package repository

import (
	"context"

	"confessional/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReportRepository defines interface for report and escalation operations
type ReportRepository interface {
	Exists(ctx context.Context, userID int64, target models.Target) (bool, error)
	Create(ctx context.Context, report *models.Report) error
	CountForTarget(ctx context.Context, target models.Target) (int64, error)
	DeleteForTargets(ctx context.Context, targetType models.TargetType, ids []uint) (int64, error)
	CreateEscalation(ctx context.Context, target models.Target, count int64) (bool, error)
	EscalationExists(ctx context.Context, target models.Target) (bool, error)
	DeleteEscalations(ctx context.Context, targetType models.TargetType, ids []uint) (int64, error)
	List(ctx context.Context, limit, offset int) ([]*models.Report, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Exists(ctx context.Context, userID int64, target models.Target) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("user_id = ? AND target_type = ? AND target_id = ?", userID, target.Type, target.ID).
		Count(&count).Error
	return count > 0, err
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *reportRepository) CountForTarget(ctx context.Context, target models.Target) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("target_type = ? AND target_id = ?", target.Type, target.ID).
		Count(&count).Error
	return count, err
}

func (r *reportRepository) DeleteForTargets(ctx context.Context, targetType models.TargetType, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id IN ?", targetType, ids).
		Delete(&models.Report{})
	return res.RowsAffected, res.Error
}

// CreateEscalation records the threshold crossing for target. It reports
// true only for the call that actually inserted the record.
func (r *reportRepository) CreateEscalation(ctx context.Context, target models.Target, count int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "target_type"}, {Name: "target_id"}},
			DoNothing: true,
		}).
		Create(&models.ReportEscalation{
			TargetType:  target.Type,
			TargetID:    target.ID,
			ReportCount: count,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *reportRepository) EscalationExists(ctx context.Context, target models.Target) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReportEscalation{}).
		Where("target_type = ? AND target_id = ?", target.Type, target.ID).
		Count(&count).Error
	return count > 0, err
}

func (r *reportRepository) DeleteEscalations(ctx context.Context, targetType models.TargetType, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id IN ?", targetType, ids).
		Delete(&models.ReportEscalation{})
	return res.RowsAffected, res.Error
}

// List returns reports newest first.
func (r *reportRepository) List(ctx context.Context, limit, offset int) ([]*models.Report, error) {
	var reports []*models.Report
	err := r.db.WithContext(ctx).
		Order("created_at desc, id desc").
		Limit(limit).
		Offset(offset).
		Find(&reports).Error
	return reports, err
}
