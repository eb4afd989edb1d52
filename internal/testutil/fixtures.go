package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tutorkhata/khata_server/internal/model"
)

var seq int64

func next() int64 {
	return atomic.AddInt64(&seq, 1)
}

// IntPtr is shorthand for optional limits.
func IntPtr(n int) *int {
	return &n
}

// TestUser creates a user with a unique phone number.
// The password hash is a placeholder and does not verify.
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	user := &model.User{
		PhoneNumber:  fmt.Sprintf("0170000%04d", next()),
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuvwxyz123456",
		IsActive:     true,
	}
	for _, opt := range opts {
		opt(user)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func WithPhone(phone string) func(*model.User) {
	return func(u *model.User) {
		u.PhoneNumber = phone
	}
}

func WithPasswordHash(hash string) func(*model.User) {
	return func(u *model.User) {
		u.PasswordHash = hash
	}
}

// TestTeacher creates a teacher (and its user) on fee day 1 unless overridden.
func TestTeacher(t *testing.T, db *gorm.DB, opts ...func(*model.Teacher)) *model.Teacher {
	t.Helper()

	teacher := &model.Teacher{
		Name:   fmt.Sprintf("Teacher %d", next()),
		FeeDay: 1,
	}
	for _, opt := range opts {
		opt(teacher)
	}
	if teacher.UserID == 0 {
		teacher.UserID = TestUser(t, db).ID
	}
	if err := db.Create(teacher).Error; err != nil {
		t.Fatalf("Failed to create test teacher: %v", err)
	}
	return teacher
}

func WithFeeDay(day int) func(*model.Teacher) {
	return func(tc *model.Teacher) {
		tc.FeeDay = day
	}
}

func WithTeacherName(name string) func(*model.Teacher) {
	return func(tc *model.Teacher) {
		tc.Name = name
	}
}

func WithUserID(userID int64) func(*model.Teacher) {
	return func(tc *model.Teacher) {
		tc.UserID = userID
	}
}

// TestTeachersOnDay creates n teachers on the given fee day.
func TestTeachersOnDay(t *testing.T, db *gorm.DB, day, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		TestTeacher(t, db, WithFeeDay(day))
	}
}

func TestPlan(t *testing.T, db *gorm.DB, opts ...func(*model.Plan)) *model.Plan {
	t.Helper()

	n := next()
	plan := &model.Plan{
		Code: fmt.Sprintf("plan_%d", n),
		Name: fmt.Sprintf("Plan %d", n),
	}
	for _, opt := range opts {
		opt(plan)
	}
	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("Failed to create test plan: %v", err)
	}
	return plan
}

func WithPlanCode(code string) func(*model.Plan) {
	return func(p *model.Plan) {
		p.Code = code
	}
}

func WithTrialMonths(months int) func(*model.Plan) {
	return func(p *model.Plan) {
		p.TrialMonths = months
	}
}

func TestFeature(t *testing.T, db *gorm.DB, code string) *model.Feature {
	t.Helper()

	feature := &model.Feature{Code: code, Name: code}
	if err := db.Create(feature).Error; err != nil {
		t.Fatalf("Failed to create test feature: %v", err)
	}
	return feature
}

// TestPlanFeature grants feature to plan; a nil limit means unlimited.
func TestPlanFeature(t *testing.T, db *gorm.DB, planID, featureID int64, limit *int) *model.PlanFeature {
	t.Helper()

	pf := &model.PlanFeature{PlanID: planID, FeatureID: featureID, MonthlyLimit: limit}
	if err := db.Create(pf).Error; err != nil {
		t.Fatalf("Failed to create test plan feature: %v", err)
	}
	return pf
}

// TestPrice creates an active one-month BDT price.
func TestPrice(t *testing.T, db *gorm.DB, planID int64, opts ...func(*model.Price)) *model.Price {
	t.Helper()

	price := &model.Price{
		PlanID:         planID,
		Amount:         500,
		Currency:       "BDT",
		DurationMonths: 1,
		IsActive:       true,
	}
	for _, opt := range opts {
		opt(price)
	}
	if err := db.Create(price).Error; err != nil {
		t.Fatalf("Failed to create test price: %v", err)
	}
	return price
}

func WithDurationMonths(months int) func(*model.Price) {
	return func(p *model.Price) {
		p.DurationMonths = months
	}
}

func WithInactive() func(*model.Price) {
	return func(p *model.Price) {
		p.IsActive = false
	}
}

// TestSubscription creates an active subscription ending one duration from now.
func TestSubscription(t *testing.T, db *gorm.DB, teacherID int64, price *model.Price, opts ...func(*model.Subscription)) *model.Subscription {
	t.Helper()

	endsAt := time.Now().UTC().Add(model.MonthsToDuration(price.DurationMonths))
	sub := &model.Subscription{
		TeacherID: teacherID,
		PlanID:    price.PlanID,
		PriceID:   price.ID,
		Status:    model.StatusActive,
		EndsAt:    &endsAt,
		AutoRenew: true,
	}
	for _, opt := range opts {
		opt(sub)
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}
	return sub
}

func WithStatus(status string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Status = status
	}
}

func WithEndsAt(at time.Time) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.EndsAt = &at
	}
}

func WithTrialEndsAt(at time.Time) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.TrialEndsAt = &at
	}
}

func WithAutoRenew(on bool) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.AutoRenew = on
	}
}

func TestUsage(t *testing.T, db *gorm.DB, teacherID, featureID int64, used int) *model.FeatureUsage {
	t.Helper()

	usage := &model.FeatureUsage{
		TeacherID:   teacherID,
		FeatureID:   featureID,
		Used:        used,
		LastResetAt: time.Now().UTC(),
	}
	if err := db.Create(usage).Error; err != nil {
		t.Fatalf("Failed to create test usage: %v", err)
	}
	return usage
}

func TestSetting(t *testing.T, db *gorm.DB, key, value string) *model.AppSetting {
	t.Helper()

	setting := &model.AppSetting{Key: key, Value: value}
	if err := db.Create(setting).Error; err != nil {
		t.Fatalf("Failed to create test setting: %v", err)
	}
	return setting
}
