package dto

import (
	"github.com/tutorkhata/khata_server/internal/model"
)

// TeacherInfo the authenticated teacher's own profile
type TeacherInfo struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	PhoneNumber        string `json:"phone_number,omitempty"`
	FeeDay             int    `json:"fee_day"`
	SMSTokensCount     int    `json:"sms_tokens_count"`
	FreeSMSTokensCount int    `json:"free_sms_tokens_count"`
}

// TeacherListItem public teacher summary
type TeacherListItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TeacherPage one page of the directory, with the paging actually applied
type TeacherPage struct {
	Items    []TeacherListItem
	Total    int64
	Page     int
	PageSize int
}

// UpdateTeacherRequest partial profile update
type UpdateTeacherRequest struct {
	Name   *string `json:"name,omitempty" binding:"omitempty,max=255"`
	FeeDay *int    `json:"fee_day,omitempty" binding:"omitempty,min=1"`
}

// AvailableFeeDaysResponse fee days that still have capacity
type AvailableFeeDaysResponse struct {
	Days []int `json:"days"`
}

func NewTeacherInfo(t *model.Teacher) *TeacherInfo {
	info := &TeacherInfo{
		ID:                 t.ID,
		Name:               t.Name,
		FeeDay:             t.FeeDay,
		SMSTokensCount:     t.SMSTokensCount,
		FreeSMSTokensCount: t.FreeSMSTokensCount,
	}
	if t.User != nil {
		info.PhoneNumber = t.User.PhoneNumber
	}
	return info
}

func NewTeacherList(teachers []model.Teacher) []TeacherListItem {
	items := make([]TeacherListItem, 0, len(teachers))
	for _, t := range teachers {
		items = append(items, TeacherListItem{ID: t.ID, Name: t.Name})
	}
	return items
}
