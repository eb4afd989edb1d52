package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tutorkhata/khata_server/internal/model"
	"github.com/tutorkhata/khata_server/internal/model/dto"
	"github.com/tutorkhata/khata_server/internal/pkg/pubsub"
	"github.com/tutorkhata/khata_server/internal/repository"
)

const (
	MsgCancelled      = "Subscription will be cancelled at the end of the current period"
	MsgRenewed        = "Subscription renewed successfully"
	MsgAutoRenewOn    = "Auto-renewal enabled"
	defaultHistoryLen = 50
)

type SubscriptionService struct {
	tx        *repository.Transactor
	subRepo   *repository.SubscriptionRepository
	planRepo  *repository.PlanRepository
	eventRepo *repository.EventRepository
	publisher EventPublisher
	log       *zap.Logger
	now       func() time.Time
}

func NewSubscriptionService(
	tx *repository.Transactor,
	subRepo *repository.SubscriptionRepository,
	planRepo *repository.PlanRepository,
	eventRepo *repository.EventRepository,
	publisher EventPublisher,
	log *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		tx:        tx,
		subRepo:   subRepo,
		planRepo:  planRepo,
		eventRepo: eventRepo,
		publisher: publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *SubscriptionService) get(ctx context.Context, teacherID int64) (*model.Subscription, error) {
	sub, err := s.subRepo.GetByTeacherID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// GetMine returns the teacher's subscription with plan and price.
func (s *SubscriptionService) GetMine(ctx context.Context, teacherID int64) (*dto.SubscriptionResponse, error) {
	sub, err := s.get(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	return dto.NewSubscriptionResponse(sub), nil
}

// resolvePrice validates the requested price (and plan, when given) and returns both.
func (s *SubscriptionService) resolvePrice(ctx context.Context, req *dto.CreateSubscriptionRequest) (*model.Plan, *model.Price, error) {
	if req.PlanID != nil {
		if _, err := s.planRepo.GetByID(ctx, *req.PlanID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, NewValidationError("plan_id", "Plan not found")
			}
			return nil, nil, err
		}
	}

	invalidPrice := NewValidationError("price_id", "Price not found or not active for this plan")
	price, err := s.planRepo.GetPrice(ctx, req.PriceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, invalidPrice
		}
		return nil, nil, err
	}
	if !price.IsActive || (req.PlanID != nil && price.PlanID != *req.PlanID) {
		return nil, nil, invalidPrice
	}

	plan, err := s.planRepo.GetByID(ctx, price.PlanID)
	if err != nil {
		return nil, nil, err
	}
	return plan, price, nil
}

// Create starts the teacher's only subscription. Plans with trial months start in trial.
func (s *SubscriptionService) Create(ctx context.Context, teacherID int64, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	exists, err := s.subRepo.ExistsForTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateSubscription
	}

	plan, price, err := s.resolvePrice(ctx, req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	endsAt := now.Add(model.MonthsToDuration(price.DurationMonths))
	sub := &model.Subscription{
		TeacherID: teacherID,
		PlanID:    plan.ID,
		PriceID:   price.ID,
		EndsAt:    &endsAt,
		Status:    model.StatusActive,
		AutoRenew: true,
	}
	if plan.TrialMonths > 0 {
		trialEndsAt := now.Add(model.MonthsToDuration(plan.TrialMonths))
		sub.TrialEndsAt = &trialEndsAt
		sub.Status = model.StatusTrial
	}

	err = s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		subRepo := s.subRepo.WithTx(tx)
		exists, err := subRepo.ExistsForTeacher(ctx, teacherID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateSubscription
		}
		if err := subRepo.Create(ctx, sub); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateSubscription
			}
			return err
		}
		return s.eventRepo.WithTx(tx).Create(ctx, auditEvent(sub, model.EventSubscriptionCreated, "", sub.Status,
			map[string]interface{}{"plan": plan.Code, "price_id": price.ID}))
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, sub, model.EventSubscriptionCreated)
	return s.GetMine(ctx, teacherID)
}

// UpdateAutoRenew applies a partial update; a nil value leaves the subscription unchanged.
func (s *SubscriptionService) UpdateAutoRenew(ctx context.Context, teacherID int64, autoRenew *bool) (*dto.SubscriptionResponse, error) {
	sub, err := s.get(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if autoRenew == nil || *autoRenew == sub.AutoRenew {
		return dto.NewSubscriptionResponse(sub), nil
	}

	if err := s.setAutoRenew(ctx, sub, *autoRenew, model.EventAutoRenewChanged); err != nil {
		return nil, err
	}
	return s.GetMine(ctx, teacherID)
}

// Cancel turns auto-renew off. Status and ends_at are untouched.
func (s *SubscriptionService) Cancel(ctx context.Context, teacherID int64) (string, error) {
	sub, err := s.get(ctx, teacherID)
	if err != nil {
		return "", err
	}
	if err := s.setAutoRenew(ctx, sub, false, model.EventSubscriptionCancelled); err != nil {
		return "", err
	}
	return MsgCancelled, nil
}

func (s *SubscriptionService) setAutoRenew(ctx context.Context, sub *model.Subscription, on bool, eventType string) error {
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		if err := s.subRepo.WithTx(tx).UpdateFields(ctx, sub.ID, map[string]interface{}{"auto_renew": on}); err != nil {
			return err
		}
		return s.eventRepo.WithTx(tx).Create(ctx, auditEvent(sub, eventType, sub.Status, sub.Status,
			map[string]interface{}{"auto_renew": on}))
	})
	if err != nil {
		return err
	}
	sub.AutoRenew = on
	s.notify(ctx, sub, eventType)
	return nil
}

// Renew reactivates an expired subscription for another price period.
// Any other status only has auto-renew switched back on.
func (s *SubscriptionService) Renew(ctx context.Context, teacherID int64) (string, error) {
	sub, err := s.get(ctx, teacherID)
	if err != nil {
		return "", err
	}

	if sub.Status != model.StatusExpired {
		if err := s.setAutoRenew(ctx, sub, true, model.EventAutoRenewChanged); err != nil {
			return "", err
		}
		return MsgAutoRenewOn, nil
	}

	endsAt := s.now().Add(model.MonthsToDuration(sub.Price.DurationMonths))
	changed, err := s.transition(ctx, sub, model.StatusActive, model.EventSubscriptionRenewed, map[string]interface{}{
		"ends_at":    endsAt,
		"auto_renew": true,
	})
	if err != nil {
		return "", err
	}
	if !changed {
		// a concurrent renew won; only make sure auto-renew is on
		if err := s.setAutoRenew(ctx, sub, true, model.EventAutoRenewChanged); err != nil {
			return "", err
		}
		return MsgAutoRenewOn, nil
	}
	return MsgRenewed, nil
}

// transition moves sub to status `to` if it is still in its loaded status, writing the audit event.
func (s *SubscriptionService) transition(ctx context.Context, sub *model.Subscription, to, eventType string, fields map[string]interface{}) (bool, error) {
	from := sub.Status
	if !model.CanTransition(from, to) {
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	update := map[string]interface{}{"status": to}
	for k, v := range fields {
		update[k] = v
	}

	changed := false
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.subRepo.WithTx(tx).Transition(ctx, sub.ID, from, update)
		if err != nil || !ok {
			return err
		}
		changed = true
		return s.eventRepo.WithTx(tx).Create(ctx, auditEvent(sub, eventType, from, to, nil))
	})
	if err != nil || !changed {
		return false, err
	}

	sub.Status = to
	s.notify(ctx, sub, eventType)
	return true, nil
}

func (s *SubscriptionService) notify(ctx context.Context, sub *model.Subscription, eventType string) {
	publish(ctx, s.publisher, s.log, &pubsub.Event{
		Type:      eventType,
		TeacherID: sub.TeacherID,
		Payload: map[string]interface{}{
			"subscription_id": sub.ID,
			"status":          sub.Status,
			"auto_renew":      sub.AutoRenew,
		},
	})
}

// History lists the newest audit events of the teacher's subscription.
func (s *SubscriptionService) History(ctx context.Context, teacherID int64, limit int) ([]dto.SubscriptionEventResponse, error) {
	if limit <= 0 || limit > defaultHistoryLen {
		limit = defaultHistoryLen
	}
	events, err := s.eventRepo.ListByTeacher(ctx, teacherID, limit)
	if err != nil {
		return nil, err
	}
	return dto.NewSubscriptionEventList(events), nil
}

// SweepResult counts the transitions of one lifecycle sweep.
type SweepResult struct {
	TrialsEnded int `json:"trials_ended"`
	Expired     int `json:"expired"`
}

// PreviewLifecycle counts what SweepLifecycle would change without changing it.
func (s *SubscriptionService) PreviewLifecycle(ctx context.Context) (*SweepResult, error) {
	now := s.now()
	trials, err := s.subRepo.ListTrialsEnded(ctx, now)
	if err != nil {
		return nil, err
	}
	ended, err := s.subRepo.ListEnded(ctx, now)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Expired: len(ended)}
	for _, sub := range trials {
		if !periodOver(&sub, now) {
			result.TrialsEnded++
		}
	}
	return result, nil
}

func periodOver(sub *model.Subscription, now time.Time) bool {
	return sub.EndsAt != nil && !sub.EndsAt.After(now)
}

// SweepLifecycle applies time-driven transitions. Finished trials convert to active
// when auto-renew is on and expire otherwise; any trial or active subscription past
// ends_at expires.
func (s *SubscriptionService) SweepLifecycle(ctx context.Context) (*SweepResult, error) {
	now := s.now()
	result := &SweepResult{}

	trials, err := s.subRepo.ListTrialsEnded(ctx, now)
	if err != nil {
		return nil, err
	}
	for i := range trials {
		sub := &trials[i]
		if periodOver(sub, now) {
			continue
		}
		to, eventType := model.StatusActive, model.EventTrialEnded
		if !sub.AutoRenew {
			to, eventType = model.StatusExpired, model.EventSubscriptionExpired
		}
		changed, err := s.transition(ctx, sub, to, eventType, nil)
		if err != nil {
			return result, err
		}
		if changed {
			result.TrialsEnded++
		}
	}

	ended, err := s.subRepo.ListEnded(ctx, now)
	if err != nil {
		return result, err
	}
	for i := range ended {
		changed, err := s.transition(ctx, &ended[i], model.StatusExpired, model.EventSubscriptionExpired, nil)
		if err != nil {
			return result, err
		}
		if changed {
			result.Expired++
		}
	}

	s.log.Info("lifecycle sweep finished",
		zap.Int("trials_ended", result.TrialsEnded),
		zap.Int("expired", result.Expired))
	return result, nil
}
