package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tutorkhata/khata_server/internal/model"
)

// PlanRepository reads the catalog: plans, their prices, features and grants.
type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) WithTx(tx *gorm.DB) *PlanRepository {
	return &PlanRepository{db: tx}
}

func withCatalog(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Prices", func(db *gorm.DB) *gorm.DB { return db.Order("prices.id ASC") }).
		Preload("Features", func(db *gorm.DB) *gorm.DB { return db.Order("plan_features.id ASC") }).
		Preload("Features.Feature")
}

func (r *PlanRepository) List(ctx context.Context) ([]model.Plan, error) {
	var plans []model.Plan
	err := withCatalog(r.db.WithContext(ctx)).Order("id ASC").Find(&plans).Error
	return plans, err
}

func (r *PlanRepository) GetByID(ctx context.Context, id int64) (*model.Plan, error) {
	var plan model.Plan
	if err := withCatalog(r.db.WithContext(ctx)).Where("id = ?", id).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepository) GetPrice(ctx context.Context, id int64) (*model.Price, error) {
	var price model.Price
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&price).Error; err != nil {
		return nil, err
	}
	return &price, nil
}

func (r *PlanRepository) GetFeatureByCode(ctx context.Context, code string) (*model.Feature, error) {
	var feature model.Feature
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&feature).Error; err != nil {
		return nil, err
	}
	return &feature, nil
}

func (r *PlanRepository) ListFeatures(ctx context.Context) ([]model.Feature, error) {
	var features []model.Feature
	err := r.db.WithContext(ctx).Order("id ASC").Find(&features).Error
	return features, err
}

// GetPlanFeature returns gorm.ErrRecordNotFound when the plan does not include the feature.
func (r *PlanRepository) GetPlanFeature(ctx context.Context, planID, featureID int64) (*model.PlanFeature, error) {
	var pf model.PlanFeature
	err := r.db.WithContext(ctx).
		Where("plan_id = ? AND feature_id = ?", planID, featureID).
		First(&pf).Error
	if err != nil {
		return nil, err
	}
	return &pf, nil
}
