package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tutorkhata/khata_server/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) WithTx(tx *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: tx}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *model.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

// GetByTeacherID loads the subscription together with its plan catalog and price.
func (r *SubscriptionRepository) GetByTeacherID(ctx context.Context, teacherID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Preload("Plan.Prices").
		Preload("Plan.Features.Feature").
		Preload("Price").
		Where("teacher_id = ?", teacherID).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetPlanID is the light lookup used on the entitlement hot path.
func (r *SubscriptionRepository) GetPlanID(ctx context.Context, teacherID int64) (int64, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).Select("id", "plan_id").Where("teacher_id = ?", teacherID).First(&sub).Error
	if err != nil {
		return 0, err
	}
	return sub.PlanID, nil
}

func (r *SubscriptionRepository) ExistsForTeacher(ctx context.Context, teacherID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Subscription{}).Where("teacher_id = ?", teacherID).Count(&count).Error
	return count > 0, err
}

func (r *SubscriptionRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Subscription{}).Where("id = ?", id).Updates(fields).Error
}

// Transition applies fields only if the row is still in status from. It reports whether it did.
func (r *SubscriptionRepository) Transition(ctx context.Context, id int64, from string, fields map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	return res.RowsAffected > 0, res.Error
}

// ListTrialsEnded returns trials whose trial period ended at or before now.
func (r *SubscriptionRepository) ListTrialsEnded(ctx context.Context, now time.Time) ([]model.Subscription, error) {
	var subs []model.Subscription
	err := r.db.WithContext(ctx).
		Where("status = ? AND trial_ends_at IS NOT NULL AND trial_ends_at <= ?", model.StatusTrial, now).
		Order("id ASC").
		Find(&subs).Error
	return subs, err
}

// ListEnded returns non-expired subscriptions whose paid period ended at or before now.
func (r *SubscriptionRepository) ListEnded(ctx context.Context, now time.Time) ([]model.Subscription, error) {
	var subs []model.Subscription
	err := r.db.WithContext(ctx).
		Where("status IN ? AND ends_at IS NOT NULL AND ends_at <= ?",
			[]string{model.StatusTrial, model.StatusActive}, now).
		Order("id ASC").
		Find(&subs).Error
	return subs, err
}
