package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tutorkhata/khata_server/internal/model"
	"github.com/tutorkhata/khata_server/internal/model/dto"
	"github.com/tutorkhata/khata_server/internal/pkg/pubsub"
	"github.com/tutorkhata/khata_server/internal/repository"
)

// Decision reasons.
const (
	ReasonFeatureNotFound = "Feature not found"
	ReasonNoSubscription  = "No active subscription"
	ReasonNotInPlan       = "Feature not included in your plan"
	ReasonUnlimited       = "Unlimited usage"
	ReasonLimitReached    = "Monthly limit reached"
	ReasonWithinLimit     = "Within usage limit"
)

// UsageStore reads the usage ledger. Absent rows count as zero.
type UsageStore interface {
	GetOrDefault(ctx context.Context, teacherID, featureID int64) (int, error)
}

// UsageLedger is the full ledger the entitlement service works against.
type UsageLedger interface {
	UsageStore
	Get(ctx context.Context, teacherID, featureID int64) (*model.FeatureUsage, error)
	ListByTeacher(ctx context.Context, teacherID int64) ([]model.FeatureUsage, error)
	Increment(ctx context.Context, teacherID, featureID int64, limit *int, now time.Time) (bool, error)
	ResetAll(ctx context.Context, now time.Time) (int64, error)
}

// Decision is the answer to "may this teacher use this feature now".
// Used, Limit and Remaining are only meaningful once the feature resolved to a plan grant.
type Decision struct {
	CanUse    bool
	Reason    string
	Feature   string
	Used      int
	Limit     *int
	Remaining *int

	metered bool
}

type decisionBase struct {
	CanUse  bool   `json:"can_use"`
	Reason  string `json:"reason"`
	Feature string `json:"feature"`
}

func (d Decision) MarshalJSON() ([]byte, error) {
	base := decisionBase{CanUse: d.CanUse, Reason: d.Reason, Feature: d.Feature}
	if !d.metered {
		return json.Marshal(base)
	}
	return json.Marshal(struct {
		decisionBase
		Used      int  `json:"used"`
		Limit     *int `json:"limit"`
		Remaining *int `json:"remaining,omitempty"`
	}{base, d.Used, d.Limit, d.Remaining})
}

func denied(code, reason string) *Decision {
	return &Decision{Reason: reason, Feature: code}
}

type EntitlementService struct {
	planRepo  *repository.PlanRepository
	subRepo   *repository.SubscriptionRepository
	ledger    UsageLedger
	publisher EventPublisher
	log       *zap.Logger
	now       func() time.Time
}

func NewEntitlementService(
	planRepo *repository.PlanRepository,
	subRepo *repository.SubscriptionRepository,
	ledger UsageLedger,
	publisher EventPublisher,
	log *zap.Logger,
) *EntitlementService {
	return &EntitlementService{
		planRepo:  planRepo,
		subRepo:   subRepo,
		ledger:    ledger,
		publisher: publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate runs the entitlement checks in order and stops at the first failure.
// It never writes.
func (s *EntitlementService) Evaluate(ctx context.Context, teacherID int64, featureCode string) (*Decision, error) {
	grant, decision, err := s.resolve(ctx, teacherID, featureCode)
	if err != nil || decision != nil {
		return decision, err
	}
	return s.decide(ctx, teacherID, featureCode, grant)
}

// resolve finds the plan grant for the feature, or the denial explaining why there is none.
func (s *EntitlementService) resolve(ctx context.Context, teacherID int64, featureCode string) (*model.PlanFeature, *Decision, error) {
	feature, err := s.planRepo.GetFeatureByCode(ctx, featureCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, denied(featureCode, ReasonFeatureNotFound), nil
		}
		return nil, nil, err
	}

	planID, err := s.subRepo.GetPlanID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, denied(featureCode, ReasonNoSubscription), nil
		}
		return nil, nil, err
	}

	grant, err := s.planRepo.GetPlanFeature(ctx, planID, feature.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, denied(featureCode, ReasonNotInPlan), nil
		}
		return nil, nil, err
	}
	return grant, nil, nil
}

func (s *EntitlementService) decide(ctx context.Context, teacherID int64, featureCode string, grant *model.PlanFeature) (*Decision, error) {
	if grant.MonthlyLimit == nil {
		return &Decision{CanUse: true, Reason: ReasonUnlimited, Feature: featureCode, metered: true}, nil
	}

	used, err := s.ledger.GetOrDefault(ctx, teacherID, grant.FeatureID)
	if err != nil {
		return nil, err
	}

	limit := *grant.MonthlyLimit
	d := &Decision{Feature: featureCode, Used: used, Limit: &limit, metered: true}
	if used >= limit {
		zero := 0
		d.Reason = ReasonLimitReached
		d.Remaining = &zero
		return d, nil
	}

	remaining := limit - used
	d.CanUse = true
	d.Reason = ReasonWithinLimit
	d.Remaining = &remaining
	return d, nil
}

// Consume records one use of the feature. A denied use returns the decision with ErrFeatureDenied.
func (s *EntitlementService) Consume(ctx context.Context, teacherID int64, featureCode string) (*Decision, error) {
	grant, decision, err := s.resolve(ctx, teacherID, featureCode)
	if err != nil {
		return nil, err
	}
	if decision != nil {
		return decision, ErrFeatureDenied
	}

	recorded, err := s.ledger.Increment(ctx, teacherID, grant.FeatureID, grant.MonthlyLimit, s.now())
	if err != nil {
		return nil, err
	}

	after, err := s.decide(ctx, teacherID, featureCode, grant)
	if err != nil {
		return nil, err
	}
	if !recorded {
		return after, ErrFeatureDenied
	}

	if after.Limit != nil && after.Used >= *after.Limit {
		publish(ctx, s.publisher, s.log, &pubsub.Event{
			Type:      model.EventUsageLimitReached,
			TeacherID: teacherID,
			Payload: map[string]interface{}{
				"feature": featureCode,
				"used":    after.Used,
				"limit":   *after.Limit,
			},
		})
	}
	return after, nil
}

// MonthlyLimit returns nil when the feature is unlimited, not in the plan, or the teacher has no subscription.
func (s *EntitlementService) MonthlyLimit(ctx context.Context, teacherID, featureID int64) (*int, error) {
	planID, err := s.subRepo.GetPlanID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	grant, err := s.planRepo.GetPlanFeature(ctx, planID, featureID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return grant.MonthlyLimit, nil
}

func (s *EntitlementService) CurrentUsage(ctx context.Context, teacherID, featureID int64) (int, error) {
	return s.ledger.GetOrDefault(ctx, teacherID, featureID)
}

// Remaining is max(0, limit-used), or nil whenever MonthlyLimit is nil.
func (s *EntitlementService) Remaining(ctx context.Context, teacherID, featureID int64) (*int, error) {
	limit, err := s.MonthlyLimit(ctx, teacherID, featureID)
	if err != nil || limit == nil {
		return nil, err
	}
	used, err := s.CurrentUsage(ctx, teacherID, featureID)
	if err != nil {
		return nil, err
	}
	return remainingOf(limit, used), nil
}

func remainingOf(limit *int, used int) *int {
	if limit == nil {
		return nil
	}
	r := *limit - used
	if r < 0 {
		r = 0
	}
	return &r
}

// UsageDetail reports usage of one feature, zero-filled when the teacher never used it.
func (s *EntitlementService) UsageDetail(ctx context.Context, teacherID int64, featureCode string) (*dto.UsageResponse, error) {
	feature, err := s.planRepo.GetFeatureByCode(ctx, featureCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeatureNotFound
		}
		return nil, err
	}

	limit, err := s.MonthlyLimit(ctx, teacherID, feature.ID)
	if err != nil {
		return nil, err
	}

	usage, err := s.ledger.Get(ctx, teacherID, feature.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.UsageResponse{
				Feature:      dto.NewFeatureResponse(feature),
				MonthlyLimit: limit,
				Remaining:    remainingOf(limit, 0),
			}, nil
		}
		return nil, err
	}

	usage.Feature = feature
	return usageResponse(usage, limit), nil
}

// ListUsage returns every ledger row of the teacher with limits resolved against the current plan.
func (s *EntitlementService) ListUsage(ctx context.Context, teacherID int64) ([]dto.UsageResponse, error) {
	usages, err := s.ledger.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	list := make([]dto.UsageResponse, 0, len(usages))
	for i := range usages {
		limit, err := s.MonthlyLimit(ctx, teacherID, usages[i].FeatureID)
		if err != nil {
			return nil, err
		}
		list = append(list, *usageResponse(&usages[i], limit))
	}
	return list, nil
}

func usageResponse(u *model.FeatureUsage, limit *int) *dto.UsageResponse {
	id := u.ID
	resetAt := u.LastResetAt
	return &dto.UsageResponse{
		ID:           &id,
		Feature:      dto.NewFeatureResponse(u.Feature),
		Used:         u.Used,
		MonthlyLimit: limit,
		Remaining:    remainingOf(limit, u.Used),
		LastResetAt:  &resetAt,
	}
}

// ResetAllUsage starts a new usage month for every teacher.
func (s *EntitlementService) ResetAllUsage(ctx context.Context) (int64, error) {
	n, err := s.ledger.ResetAll(ctx, s.now())
	if err != nil {
		return 0, err
	}
	s.log.Info("usage counters reset", zap.Int64("rows", n))
	return n, nil
}
