package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tutorkhata/khata_server/internal/model"
)

// UsageRepository is the per-teacher, per-feature usage ledger.
type UsageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) WithTx(tx *gorm.DB) *UsageRepository {
	return &UsageRepository{db: tx}
}

func (r *UsageRepository) Get(ctx context.Context, teacherID, featureID int64) (*model.FeatureUsage, error) {
	var usage model.FeatureUsage
	err := r.db.WithContext(ctx).
		Where("teacher_id = ? AND feature_id = ?", teacherID, featureID).
		First(&usage).Error
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

// GetOrDefault returns the used count, or 0 when the teacher has no row for the feature.
func (r *UsageRepository) GetOrDefault(ctx context.Context, teacherID, featureID int64) (int, error) {
	usage, err := r.Get(ctx, teacherID, featureID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return usage.Used, nil
}

func (r *UsageRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]model.FeatureUsage, error) {
	var usages []model.FeatureUsage
	err := r.db.WithContext(ctx).
		Preload("Feature").
		Where("teacher_id = ?", teacherID).
		Order("id ASC").
		Find(&usages).Error
	return usages, err
}

// Increment adds one use. With a limit the update only happens while used < limit,
// so concurrent callers can never push the counter past it. It reports whether a
// use was recorded.
func (r *UsageRepository) Increment(ctx context.Context, teacherID, featureID int64, limit *int, now time.Time) (bool, error) {
	if limit != nil && *limit <= 0 {
		return false, nil
	}

	for attempt := 0; attempt < 2; attempt++ {
		query := r.db.WithContext(ctx).Model(&model.FeatureUsage{}).
			Where("teacher_id = ? AND feature_id = ?", teacherID, featureID)
		if limit != nil {
			query = query.Where("used < ?", *limit)
		}
		res := query.Update("used", gorm.Expr("used + 1"))
		if res.Error != nil {
			return false, res.Error
		}
		if res.RowsAffected > 0 {
			return true, nil
		}

		var existing int64
		err := r.db.WithContext(ctx).Model(&model.FeatureUsage{}).
			Where("teacher_id = ? AND feature_id = ?", teacherID, featureID).
			Count(&existing).Error
		if err != nil {
			return false, err
		}
		if existing > 0 {
			return false, nil
		}

		// first use: lazily create the row; a concurrent insert makes this a no-op and we retry the update
		res = r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model.FeatureUsage{
			TeacherID:   teacherID,
			FeatureID:   featureID,
			Used:        1,
			LastResetAt: now,
		})
		if res.Error != nil {
			return false, res.Error
		}
		if res.RowsAffected > 0 {
			return true, nil
		}
	}
	return false, fmt.Errorf("usage row for teacher %d feature %d is contended", teacherID, featureID)
}

// ResetAll zeroes every counter and stamps last_reset_at.
func (r *UsageRepository) ResetAll(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.FeatureUsage{}).Where("1 = 1").Updates(map[string]interface{}{
		"used":          0,
		"last_reset_at": now,
	})
	return res.RowsAffected, res.Error
}

// CountNonZero counts the rows a reset would change.
func (r *UsageRepository) CountNonZero(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.FeatureUsage{}).Where("used > 0").Count(&count).Error
	return count, err
}
