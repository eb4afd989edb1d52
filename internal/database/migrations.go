package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tutorkhata/khata_server/internal/model"
)

// Models lists every table in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Teacher{},
		&model.Plan{},
		&model.Feature{},
		&model.PlanFeature{},
		&model.Price{},
		&model.Subscription{},
		&model.FeatureUsage{},
		&model.AppSetting{},
		&model.SubscriptionEvent{},
	}
}

func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	models := Models()
	for _, m := range models {
		name := fmt.Sprintf("%T", m)
		if err := db.AutoMigrate(m); err != nil {
			log.Error("failed to migrate model", zap.String("model", name), zap.Error(err))
			return fmt.Errorf("failed to migrate model %s: %w", name, err)
		}
	}
	log.Info("database migrated", zap.Int("models", len(models)))
	return nil
}

func limit(n int) *int {
	return &n
}

type seedPlan struct {
	plan     model.Plan
	prices   []model.Price
	features map[string]*int
}

// SeedCatalog inserts the starter plans and features once, pricing them in currency.
// It is a no-op when any plan exists.
func SeedCatalog(db *gorm.DB, currency string, log *zap.Logger) error {
	var count int64
	if err := db.Model(&model.Plan{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Info("catalog already seeded, skipping", zap.Int64("plans", count))
		return nil
	}

	features := []model.Feature{
		{Code: "students", Name: "Student profiles"},
		{Code: "batches", Name: "Batches"},
		{Code: "sms", Name: "SMS notifications"},
		{Code: "attendance", Name: "Attendance tracking"},
		{Code: "reports", Name: "Monthly reports"},
	}

	plans := []seedPlan{
		{
			plan:     model.Plan{Code: "free", Name: "Free", Description: "For tutors getting started"},
			prices:   []model.Price{{Amount: 0, DurationMonths: 1}},
			features: map[string]*int{"students": limit(20), "batches": limit(2)},
		},
		{
			plan:   model.Plan{Code: "basic", Name: "Basic", Description: "Small coaching centres", TrialMonths: 1},
			prices: []model.Price{{Amount: 300, DurationMonths: 1}, {Amount: 800, DurationMonths: 3}},
			features: map[string]*int{
				"students": limit(100), "batches": limit(10), "sms": limit(200), "attendance": nil,
			},
		},
		{
			plan:   model.Plan{Code: "pro", Name: "Pro", Description: "Unlimited teaching", TrialMonths: 1},
			prices: []model.Price{{Amount: 600, DurationMonths: 1}, {Amount: 6000, DurationMonths: 12}},
			features: map[string]*int{
				"students": nil, "batches": nil, "sms": limit(1000), "attendance": nil, "reports": nil,
			},
		},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&features).Error; err != nil {
			return err
		}
		byCode := make(map[string]int64, len(features))
		for _, f := range features {
			byCode[f.Code] = f.ID
		}

		for _, sp := range plans {
			plan := sp.plan
			if err := tx.Create(&plan).Error; err != nil {
				return err
			}
			for _, price := range sp.prices {
				price.PlanID = plan.ID
				price.Currency = currency
				price.IsActive = true
				if err := tx.Create(&price).Error; err != nil {
					return err
				}
			}
			for code, monthly := range sp.features {
				pf := model.PlanFeature{PlanID: plan.ID, FeatureID: byCode[code], MonthlyLimit: monthly}
				if err := tx.Create(&pf).Error; err != nil {
					return err
				}
			}
		}

		return tx.Create(&model.AppSetting{
			Key:   model.SettingMonthlyFreeSMSTokensCount,
			Value: "10",
		}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	log.Info("catalog seeded", zap.Int("plans", len(plans)), zap.Int("features", len(features)))
	return nil
}
