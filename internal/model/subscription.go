package model

import (
	"time"
)

// Subscription statuses.
const (
	StatusTrial   = "trial"
	StatusActive  = "active"
	StatusExpired = "expired"
)

// DaysPerMonth is the fixed month length used for every trial and billing period.
const DaysPerMonth = 30

// MonthsToDuration converts a month count to a duration using 30-day months.
func MonthsToDuration(months int) time.Duration {
	return time.Duration(months) * DaysPerMonth * 24 * time.Hour
}

// StatusChange is one edge of the subscription status graph.
type StatusChange struct {
	From string
	To   string
}

var validTransitions = map[StatusChange]bool{
	{StatusTrial, StatusActive}:   true,
	{StatusTrial, StatusExpired}:  true,
	{StatusActive, StatusExpired}: true,
	{StatusExpired, StatusActive}: true,
}

// CanTransition reports whether a subscription may move from one status to another.
func CanTransition(from, to string) bool {
	return validTransitions[StatusChange{from, to}]
}

// Subscription is the single billing contract of a teacher. Rows are never
// deleted; they move to StatusExpired instead.
type Subscription struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	TeacherID   int64      `gorm:"uniqueIndex;not null" json:"teacher_id"`
	Teacher     *Teacher   `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE" json:"-"`
	PlanID      int64      `gorm:"not null;index" json:"plan_id"`
	Plan        *Plan      `gorm:"foreignKey:PlanID;constraint:OnDelete:RESTRICT" json:"plan,omitempty"`
	PriceID     int64      `gorm:"not null;index" json:"price_id"`
	Price       *Price     `gorm:"foreignKey:PriceID;constraint:OnDelete:RESTRICT" json:"price,omitempty"`
	TrialEndsAt *time.Time `json:"trial_ends_at"`
	EndsAt      *time.Time `gorm:"index" json:"ends_at"`
	Status      string     `gorm:"size:20;not null;index" json:"status"`
	AutoRenew   bool       `gorm:"not null" json:"auto_renew"`
	CreatedAt   time.Time  `json:"created"`
	UpdatedAt   time.Time  `json:"modified"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// FeatureUsage counts how often a teacher used a feature since LastResetAt.
// A missing row means zero usage.
type FeatureUsage struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	TeacherID   int64     `gorm:"not null;uniqueIndex:idx_usage_teacher_feature" json:"teacher_id"`
	Teacher     *Teacher  `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE" json:"-"`
	FeatureID   int64     `gorm:"not null;uniqueIndex:idx_usage_teacher_feature" json:"feature_id"`
	Feature     *Feature  `gorm:"foreignKey:FeatureID;constraint:OnDelete:CASCADE" json:"feature,omitempty"`
	Used        int       `gorm:"not null;default:0" json:"used"`
	LastResetAt time.Time `gorm:"not null" json:"last_reset_at"`
}

func (FeatureUsage) TableName() string {
	return "feature_usages"
}
