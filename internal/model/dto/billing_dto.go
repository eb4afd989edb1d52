package dto

import (
	"encoding/json"
	"time"

	"github.com/tutorkhata/khata_server/internal/model"
)

type FeatureResponse struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type PlanFeatureResponse struct {
	ID           int64            `json:"id"`
	Feature      *FeatureResponse `json:"feature"`
	MonthlyLimit *int             `json:"monthly_limit"`
}

type PriceResponse struct {
	ID             int64  `json:"id"`
	Amount         int    `json:"amount"`
	Currency       string `json:"currency"`
	DurationMonths int    `json:"duration_months"`
	IsActive       bool   `json:"is_active"`
}

type PlanResponse struct {
	ID          int64                 `json:"id"`
	Code        string                `json:"code"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	TrialMonths int                   `json:"trial_months"`
	Prices      []PriceResponse       `json:"prices"`
	Features    []PlanFeatureResponse `json:"features"`
}

type SubscriptionResponse struct {
	ID          int64          `json:"id"`
	Plan        *PlanResponse  `json:"plan"`
	Price       *PriceResponse `json:"price"`
	TrialEndsAt *time.Time     `json:"trial_ends_at"`
	EndsAt      *time.Time     `json:"ends_at"`
	Status      string         `json:"status"`
	AutoRenew   bool           `json:"auto_renew"`
	Created     time.Time      `json:"created"`
	Modified    time.Time      `json:"modified"`
}

// CreateSubscriptionRequest plan_id is optional; when given the price must belong to it
type CreateSubscriptionRequest struct {
	PlanID  *int64 `json:"plan_id,omitempty" binding:"omitempty,gt=0"`
	PriceID int64  `json:"price_id" binding:"required,gt=0"`
}

// UpdateSubscriptionRequest only auto_renew is client editable
type UpdateSubscriptionRequest struct {
	AutoRenew *bool `json:"auto_renew"`
}

type CheckFeatureRequest struct {
	FeatureCode string `json:"feature_code" binding:"required,max=100"`
}

// UsageResponse ID is nil when the teacher never used the feature
type UsageResponse struct {
	ID           *int64           `json:"id"`
	Feature      *FeatureResponse `json:"feature"`
	Used         int              `json:"used"`
	MonthlyLimit *int             `json:"monthly_limit"`
	Remaining    *int             `json:"remaining"`
	LastResetAt  *time.Time       `json:"last_reset_at"`
}

type SubscriptionEventResponse struct {
	ID         int64           `json:"id"`
	Type       string          `json:"type"`
	FromStatus string          `json:"from_status,omitempty"`
	ToStatus   string          `json:"to_status,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func NewFeatureResponse(f *model.Feature) *FeatureResponse {
	if f == nil {
		return nil
	}
	return &FeatureResponse{ID: f.ID, Code: f.Code, Name: f.Name}
}

func NewPriceResponse(p *model.Price) *PriceResponse {
	if p == nil {
		return nil
	}
	return &PriceResponse{
		ID:             p.ID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		DurationMonths: p.DurationMonths,
		IsActive:       p.IsActive,
	}
}

func NewPlanResponse(p *model.Plan) *PlanResponse {
	if p == nil {
		return nil
	}
	resp := &PlanResponse{
		ID:          p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Description: p.Description,
		TrialMonths: p.TrialMonths,
		Prices:      make([]PriceResponse, 0, len(p.Prices)),
		Features:    make([]PlanFeatureResponse, 0, len(p.Features)),
	}
	for i := range p.Prices {
		resp.Prices = append(resp.Prices, *NewPriceResponse(&p.Prices[i]))
	}
	for _, pf := range p.Features {
		resp.Features = append(resp.Features, PlanFeatureResponse{
			ID:           pf.ID,
			Feature:      NewFeatureResponse(pf.Feature),
			MonthlyLimit: pf.MonthlyLimit,
		})
	}
	return resp
}

func NewPlanList(plans []model.Plan) []PlanResponse {
	list := make([]PlanResponse, 0, len(plans))
	for i := range plans {
		list = append(list, *NewPlanResponse(&plans[i]))
	}
	return list
}

func NewSubscriptionResponse(s *model.Subscription) *SubscriptionResponse {
	return &SubscriptionResponse{
		ID:          s.ID,
		Plan:        NewPlanResponse(s.Plan),
		Price:       NewPriceResponse(s.Price),
		TrialEndsAt: s.TrialEndsAt,
		EndsAt:      s.EndsAt,
		Status:      s.Status,
		AutoRenew:   s.AutoRenew,
		Created:     s.CreatedAt,
		Modified:    s.UpdatedAt,
	}
}

func NewSubscriptionEventList(events []model.SubscriptionEvent) []SubscriptionEventResponse {
	list := make([]SubscriptionEventResponse, 0, len(events))
	for _, e := range events {
		list = append(list, SubscriptionEventResponse{
			ID:         e.ID,
			Type:       e.Type,
			FromStatus: e.FromStatus,
			ToStatus:   e.ToStatus,
			Details:    json.RawMessage(e.Details),
			CreatedAt:  e.CreatedAt,
		})
	}
	return list
}
