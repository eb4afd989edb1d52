package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tutorkhata/khata_server/internal/model"
	"github.com/tutorkhata/khata_server/internal/pkg/pubsub"
	"github.com/tutorkhata/khata_server/internal/repository"
	"github.com/tutorkhata/khata_server/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*pubsub.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event *pubsub.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	return db
}

func newEntitlementService(db *gorm.DB, pub EventPublisher) *EntitlementService {
	return NewEntitlementService(
		repository.NewPlanRepository(db),
		repository.NewSubscriptionRepository(db),
		repository.NewUsageRepository(db),
		pub,
		zap.NewNop(),
	)
}

func newSubscriptionService(db *gorm.DB, pub EventPublisher) *SubscriptionService {
	return NewSubscriptionService(
		repository.NewTransactor(db),
		repository.NewSubscriptionRepository(db),
		repository.NewPlanRepository(db),
		repository.NewEventRepository(db),
		pub,
		zap.NewNop(),
	)
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func loadSubscription(t *testing.T, db *gorm.DB, teacherID int64) *model.Subscription {
	t.Helper()
	var sub model.Subscription
	if err := db.Where("teacher_id = ?", teacherID).First(&sub).Error; err != nil {
		t.Fatalf("Failed to load subscription: %v", err)
	}
	return &sub
}
