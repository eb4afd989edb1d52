package model

import (
	"time"

	"gorm.io/datatypes"
)

// Subscription event types.
const (
	EventSubscriptionCreated   = "subscription.created"
	EventSubscriptionCancelled = "subscription.cancelled"
	EventSubscriptionRenewed   = "subscription.renewed"
	EventAutoRenewChanged      = "subscription.auto_renew_changed"
	EventTrialEnded            = "subscription.trial_ended"
	EventSubscriptionExpired   = "subscription.expired"
	EventUsageLimitReached     = "usage.limit_reached"
)

// SubscriptionEvent is an append-only audit record of a subscription change.
type SubscriptionEvent struct {
	ID             int64          `gorm:"primaryKey" json:"id"`
	TeacherID      int64          `gorm:"not null;index" json:"teacher_id"`
	SubscriptionID int64          `gorm:"not null;index" json:"subscription_id"`
	Type           string         `gorm:"size:50;not null" json:"type"`
	FromStatus     string         `gorm:"size:20" json:"from_status,omitempty"`
	ToStatus       string         `gorm:"size:20" json:"to_status,omitempty"`
	Details        datatypes.JSON `json:"details,omitempty"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
}

func (SubscriptionEvent) TableName() string {
	return "subscription_events"
}
