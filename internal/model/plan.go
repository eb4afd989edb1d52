package model

import (
	"time"
)

type Plan struct {
	ID          int64         `gorm:"primaryKey" json:"id"`
	Code        string        `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name        string        `gorm:"size:100;not null" json:"name"`
	Description string        `gorm:"type:text" json:"description"`
	TrialMonths int           `gorm:"not null;default:0" json:"trial_months"`
	Prices      []Price       `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE" json:"prices,omitempty"`
	Features    []PlanFeature `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE" json:"features,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (Plan) TableName() string {
	return "plans"
}

type Feature struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"size:100;uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedAt time.Time `json:"-"`
}

func (Feature) TableName() string {
	return "features"
}

// PlanFeature grants a feature to a plan. A nil MonthlyLimit means unlimited.
type PlanFeature struct {
	ID           int64    `gorm:"primaryKey" json:"id"`
	PlanID       int64    `gorm:"not null;uniqueIndex:idx_plan_feature" json:"plan_id"`
	FeatureID    int64    `gorm:"not null;uniqueIndex:idx_plan_feature" json:"feature_id"`
	Feature      *Feature `gorm:"foreignKey:FeatureID;constraint:OnDelete:CASCADE" json:"feature,omitempty"`
	MonthlyLimit *int     `json:"monthly_limit"`
}

func (PlanFeature) TableName() string {
	return "plan_features"
}

type Price struct {
	ID             int64  `gorm:"primaryKey" json:"id"`
	PlanID         int64  `gorm:"not null;index" json:"plan_id"`
	Amount         int    `gorm:"not null" json:"amount"`
	Currency       string `gorm:"size:10;not null;default:BDT" json:"currency"`
	DurationMonths int    `gorm:"not null" json:"duration_months"`
	IsActive       bool   `gorm:"not null" json:"is_active"`
}

func (Price) TableName() string {
	return "prices"
}
