package model

import (
	"time"
)

// User is the login identity; every User owns exactly one Teacher.
type User struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	PhoneNumber  string    `gorm:"size:20;uniqueIndex;not null" json:"phone_number"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

type Teacher struct {
	ID                 int64     `gorm:"primaryKey" json:"id"`
	UserID             int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	User               *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Name               string    `gorm:"size:255" json:"name"`
	FeeDay             int       `gorm:"not null;index" json:"fee_day"`
	SMSTokensCount     int       `gorm:"column:sms_tokens_count;default:0" json:"sms_tokens_count"`
	FreeSMSTokensCount int       `gorm:"column:free_sms_tokens_count;default:0" json:"free_sms_tokens_count"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Teacher) TableName() string {
	return "teachers"
}
