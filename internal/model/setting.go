package model

import (
	"time"
)

// Known AppSetting keys.
const (
	SettingTeacherCapacityPerDay     = "teacher_capacity_per_day"
	SettingMonthlyFreeSMSTokensCount = "monthly_free_sms_tokens_count"
)

// AppSetting is a runtime-editable key/value pair.
type AppSetting struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"size:255;uniqueIndex;not null" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"modified"`
}

func (AppSetting) TableName() string {
	return "app_settings"
}
